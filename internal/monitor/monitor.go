package monitor

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/opencode-htop/octop/internal/config"
	"github.com/opencode-htop/octop/internal/session"
)

// Monitor drives the sampling pipeline: probe processes, resolve their
// handles, correlate them against the session database, infer per-row
// status, and publish one immutable snapshot per tick.
type Monitor struct {
	cfg        *config.Config
	store      *session.Store
	source     ProcSource
	reader     *StoreReader
	health     *healthTracker
	probeSrc   string
	resolveSrc string
}

func New(cfg *config.Config, store *session.Store, source ProcSource) *Monitor {
	// Health entries carry the name of the actual machinery: the ps source
	// resolves handles through lsof, every other source resolves itself.
	probeSrc := source.Name()
	resolveSrc := probeSrc
	if probeSrc == "ps" {
		resolveSrc = "lsof"
	}
	names := []string{probeSrc, "db"}
	if resolveSrc != probeSrc {
		names = append(names, resolveSrc)
	}
	return &Monitor{
		cfg:        cfg,
		store:      store,
		source:     source,
		reader:     NewStoreReader(cfg.ResolvedDBPath()),
		health:     newHealthTracker(names...),
		probeSrc:   probeSrc,
		resolveSrc: resolveSrc,
	}
}

// Reader exposes the database reader for on-demand queries outside the
// tick loop (detail view history, one-shot listings).
func (m *Monitor) Reader() *StoreReader { return m.reader }

// SourceName reports which process source is active ("ps" or "native").
func (m *Monitor) SourceName() string { return m.source.Name() }

// Run publishes snapshots at the configured cadence until ctx is done.
// The first snapshot is collected immediately so subscribers never stare
// at an empty screen for a full interval.
func (m *Monitor) Run(ctx context.Context) {
	interval := time.Duration(m.cfg.RefreshIntervalMS) * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("[monitor] started source=%s db=%s interval=%s",
		m.source.Name(), m.reader.Path(), interval)

	m.store.Publish(m.Collect(ctx))
	for {
		select {
		case <-ctx.Done():
			log.Printf("[monitor] stopped")
			return
		case <-ticker.C:
			m.store.Publish(m.Collect(ctx))
		}
	}
}

// Collect runs one full sampling pass and assembles a snapshot. Every
// stage degrades to an empty section on failure; Collect itself never
// fails, so a snapshot always lands.
func (m *Monitor) Collect(ctx context.Context) *session.Snapshot {
	now := time.Now()

	procs, err := m.source.Probe(ctx)
	if err != nil {
		log.Printf("[monitor] probe: %v", err)
		m.health.recordFailure(m.probeSrc, err)
		procs = nil
	} else {
		m.health.recordSuccess(m.probeSrc)
	}

	if len(procs) > 0 {
		if err := m.source.Resolve(ctx, procs); err != nil {
			log.Printf("[monitor] resolve: %v", err)
			m.health.recordFailure(m.resolveSrc, err)
		} else {
			m.health.recordSuccess(m.resolveSrc)
		}
	}

	snap := &session.Snapshot{
		TakenAt:   now,
		DBPresent: m.reader.Present(),
	}

	// Correlation, aggregate stats, and MCP config are independent reads;
	// run them in parallel so a slow database does not stretch the tick.
	var (
		wg      sync.WaitGroup
		facts   map[int]*session.SessionFact
		sessErr error
		aggErr  error
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		facts, sessErr = m.collectSessions(ctx, procs)
	}()
	go func() {
		defer wg.Done()
		var todayErr, globalErr error
		snap.Today, todayErr = m.reader.TodayAggregate(ctx)
		snap.Global, globalErr = m.reader.GlobalAggregate(ctx)
		if todayErr != nil {
			aggErr = todayErr
		} else if globalErr != nil {
			aggErr = globalErr
		}
	}()
	go func() {
		defer wg.Done()
		snap.MCP = ReadMCPServers(m.cfg.ResolvedHostConfigPath())
	}()
	wg.Wait()

	switch {
	case sessErr != nil:
		log.Printf("[monitor] db: %v", sessErr)
		m.health.recordFailure("db", sessErr)
	case aggErr != nil:
		log.Printf("[monitor] db: %v", aggErr)
		m.health.recordFailure("db", aggErr)
	default:
		m.health.recordSuccess("db")
	}

	snap.Rows = make([]session.Row, 0, len(procs))
	for _, p := range procs {
		row := session.Row{Process: p}
		if fact := facts[p.PID]; fact != nil {
			row.Session = fact
			row.Status = InferStatus(fact, p.CPUPercent, now)
		}
		snap.Rows = append(snap.Rows, row)
	}
	snap.Health = m.health.snapshot()
	return snap
}

// collectSessions binds processes to sessions and loads a fact for each
// bound id. The first database error is reported; rows whose load failed
// simply stay unbound for this tick.
func (m *Monitor) collectSessions(ctx context.Context, procs []session.ProcessFact) (map[int]*session.SessionFact, error) {
	if len(procs) == 0 || !m.reader.Present() {
		return nil, nil
	}
	bound := Correlate(ctx, procs, m.reader)
	if len(bound) == 0 {
		return nil, nil
	}

	facts := make(map[int]*session.SessionFact, len(bound))
	var firstErr error
	for pid, id := range bound {
		fact, err := m.reader.SessionInfo(ctx, id)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if fact != nil {
			facts[pid] = fact
		}
	}
	return facts, firstErr
}
