package mock

import (
	"context"
	"math/rand"
	"time"

	"github.com/opencode-htop/octop/internal/monitor"
	"github.com/opencode-htop/octop/internal/session"
)

// mockSession drives one fake row through a scripted activity pattern.
// The pattern mutates database-level facts (last role, finish reason,
// message age, CPU) and the generator runs the real status inference on
// top, so demo mode shows exactly what live mode would show.
type mockSession struct {
	fact    session.SessionFact
	proc    session.ProcessFact
	pattern string
	outputs []string
	outIdx  int
}

type Generator struct {
	store    *session.Store
	sessions []*mockSession
	extra    []session.ProcessFact
}

func NewGenerator(store *session.Store) *Generator {
	return &Generator{store: store}
}

// Start seeds the fake fleet and begins publishing snapshots on a short
// ticker until ctx is done.
func (g *Generator) Start(ctx context.Context) {
	g.seed(time.Now())
	g.store.Publish(g.snapshot(time.Now(), 0))
	go g.run(ctx)
}

func (g *Generator) seed(now time.Time) {
	nowMS := now.UnixMilli()

	g.sessions = []*mockSession{
		{
			fact: session.SessionFact{
				ID: "ses_mock_auth", Title: "fix auth token refresh", Directory: "/home/user/api",
				ProjectID: "prj_api", Model: "claude-opus-4", Agent: "build", Version: "0.5.1",
				MessageCount: 24, ContextTokens: 83000, OutputTokens: 9100, CacheReadTokens: 61000,
				Cost: 1.12, Interactive: true,
				TimeCreatedMS: nowMS - 3_600_000, TimeUpdatedMS: nowMS,
				RoundStartMS:  nowMS - 40_000, LastMessageMS: nowMS - 5_000,
				LastRole: "assistant", LastFinish: "",
				Todos: []session.TodoItem{
					{Content: "read token middleware", Status: "completed", Priority: "medium"},
					{Content: "rotate refresh secrets", Status: "in_progress", Priority: "high"},
					{Content: "add expiry tests", Status: "pending", Priority: "medium"},
				},
			},
			proc: session.ProcessFact{
				PID: 41234, CPUPercent: 34.0, RSSBytes: 412 << 20, TTY: "pts/3",
				ElapsedRaw: "01:12:08", Cmdline: "opencode", Cwd: "/home/user/api",
				StartTimeMS: nowMS - 4_328_000,
			},
			pattern: "rounds",
			outputs: []string{
				"Reading internal/auth/refresh.go",
				"The refresh path drops the rotation claim on retry.",
				"Patching token rotation in three places.",
				"Running the auth test suite now.",
				"All 42 tests pass.",
			},
		},
		{
			fact: session.SessionFact{
				ID: "ses_mock_migrate", Title: "migrate orders to v2 schema", Directory: "/home/user/warehouse",
				ProjectID: "prj_wh", Model: "claude-sonnet-4", Agent: "build", Version: "0.5.1",
				MessageCount: 132, ContextTokens: 148000, OutputTokens: 30000, CacheReadTokens: 120000,
				Cost: 4.73, Interactive: true,
				TimeCreatedMS: nowMS - 10_800_000, TimeUpdatedMS: nowMS,
				RoundStartMS:  nowMS - 600_000, LastMessageMS: nowMS - 3_000,
				LastRole: "assistant", LastFinish: "tool-calls",
			},
			proc: session.ProcessFact{
				PID: 41250, CPUPercent: 61.0, RSSBytes: 735 << 20, TTY: "pts/5",
				ElapsedRaw: "03:01:44", Cmdline: "opencode", Cwd: "/home/user/warehouse",
				StartTimeMS: nowMS - 10_904_000,
			},
			pattern: "longrun",
			outputs: []string{
				"Backfilling order_lines batch 12/40.",
				"Batch 13/40 done, 2.1s.",
				"Batch 14/40 done, 2.0s.",
			},
		},
		{
			fact: session.SessionFact{
				ID: "ses_mock_review", Title: "review PR #812", Directory: "/home/user/frontend",
				ProjectID: "prj_fe", Model: "claude-opus-4", Agent: "plan", Version: "0.5.1",
				MessageCount: 9, ContextTokens: 197000, OutputTokens: 4200, CacheReadTokens: 150000,
				Cost: 0.88, Interactive: true,
				TimeCreatedMS: nowMS - 1_200_000, TimeUpdatedMS: nowMS - 90_000,
				RoundStartMS:  nowMS - 300_000, LastMessageMS: nowMS - 90_000,
				LastRole: "assistant", LastFinish: "stop",
			},
			proc: session.ProcessFact{
				PID: 41290, CPUPercent: 0.4, RSSBytes: 290 << 20, TTY: "pts/8",
				ElapsedRaw: "21:30", Cmdline: "opencode", Cwd: "/home/user/frontend",
				StartTimeMS: nowMS - 1_290_000,
			},
			pattern: "truncate",
			outputs: []string{
				"The diff touches the router guards; checking callers.",
			},
		},
		{
			fact: session.SessionFact{
				ID: "ses_mock_commit", Title: "commit-msg", Directory: "/home/user/api",
				ProjectID: "prj_api", Model: "claude-haiku-4", Agent: "task", Version: "0.5.1",
				MessageCount: 2, ContextTokens: 4100, OutputTokens: 180,
				Cost: 0.01, Interactive: false,
				TimeCreatedMS: nowMS - 30_000, TimeUpdatedMS: nowMS - 20_000,
				LastMessageMS: nowMS - 20_000,
				LastRole:      "assistant", LastFinish: "stop",
			},
			proc: session.ProcessFact{
				PID: 41302, CPUPercent: 0.0, RSSBytes: 96 << 20, TTY: "",
				ElapsedRaw: "00:31", Cmdline: "opencode", Cwd: "/home/user/api",
				StartTimeMS: nowMS - 31_000,
			},
			pattern: "quiet",
		},
	}

	g.extra = []session.ProcessFact{
		{
			PID: 41260, CPUPercent: 48.0, RSSBytes: 180 << 20, TTY: "",
			ElapsedRaw: "04:12", Cmdline: "opencode run --prompt lint", Cwd: "/home/user/api",
			StartTimeMS: nowMS - 252_000, IsToolProcess: true,
		},
		{
			PID: 41310, CPUPercent: 1.2, RSSBytes: 120 << 20, TTY: "pts/9",
			ElapsedRaw: "00:58", Cmdline: "opencode", Cwd: "",
		},
	}
}

func (g *Generator) run(ctx context.Context) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	tick := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tick++
			g.store.Publish(g.snapshot(time.Now(), tick))
		}
	}
}

// snapshot advances every mock session one step and assembles the result
// exactly the way the live pipeline would.
func (g *Generator) snapshot(now time.Time, tick int) *session.Snapshot {
	snap := &session.Snapshot{TakenAt: now, DBPresent: true}

	for _, ms := range g.sessions {
		g.advance(ms, now, tick)
		fact := ms.fact.Clone()
		snap.Rows = append(snap.Rows, session.Row{
			Process: ms.proc,
			Session: fact,
			Status:  monitor.InferStatus(fact, ms.proc.CPUPercent, now),
		})
	}
	for _, p := range g.extra {
		snap.Rows = append(snap.Rows, session.Row{Process: p})
	}

	for _, ms := range g.sessions {
		snap.Today.Sessions++
		snap.Today.Messages += ms.fact.MessageCount
		snap.Today.ContextTokens += ms.fact.ContextTokens
		snap.Today.OutputTokens += ms.fact.OutputTokens
	}
	snap.Global = snap.Today
	snap.Global.Sessions += 38
	snap.Global.Messages += 4100
	snap.Global.ContextTokens += 61_000_000
	snap.Global.OutputTokens += 2_400_000

	snap.MCP = []session.MCPServer{
		{Name: "context7", Type: "remote", Enabled: false},
		{Name: "playwright", Type: "local", Enabled: true},
	}
	snap.Health = []session.SourceStatus{
		{Source: "db", OK: true},
		{Source: "lsof", OK: true},
		{Source: "ps", OK: true},
	}
	return snap
}

func (g *Generator) advance(ms *mockSession, now time.Time, tick int) {
	nowMS := now.UnixMilli()

	switch ms.pattern {
	case "rounds":
		// Full conversational loop: user turn, streaming, tool calls,
		// then a finished turn, forever.
		switch phase := tick % 24; {
		case phase < 3:
			ms.fact.LastRole = "user"
			ms.fact.LastFinish = ""
			ms.fact.RoundStartMS = nowMS
			ms.fact.LastMessageMS = nowMS
			ms.proc.CPUPercent = 2 + rand.Float64()*3
		case phase < 12:
			ms.fact.LastRole = "assistant"
			ms.fact.LastFinish = ""
			ms.fact.LastMessageMS = nowMS
			ms.proc.CPUPercent = 25 + rand.Float64()*40
			ms.grow(400, 900)
			ms.rotateOutput()
		case phase < 18:
			ms.fact.LastFinish = "tool-calls"
			ms.fact.LastMessageMS = nowMS
			ms.proc.CPUPercent = 35 + rand.Float64()*30
			ms.grow(200, 600)
		default:
			ms.fact.LastFinish = "stop"
			// Leave the message timestamp alone so the turn ages out.
			ms.proc.CPUPercent = rand.Float64() * 2
		}
	case "longrun":
		// Tool-heavy batch work with the database lagging behind: the
		// last committed finish stays "tool-calls" while CPU stays hot.
		ms.fact.LastRole = "assistant"
		ms.fact.LastFinish = "tool-calls"
		if tick%6 == 0 {
			ms.fact.LastMessageMS = nowMS
			ms.grow(800, 1600)
			ms.rotateOutput()
		}
		ms.proc.CPUPercent = 40 + rand.Float64()*35
	case "truncate":
		// Climbs toward the context ceiling, then hits a length finish.
		if ms.fact.LastFinish != "length" {
			ms.fact.LastRole = "assistant"
			ms.grow(1500, 2500)
			ms.proc.CPUPercent = 15 + rand.Float64()*10
			if ms.fact.ContextTokens >= 200_000 {
				ms.fact.LastFinish = "length"
				ms.fact.LastMessageMS = nowMS
			}
		} else {
			ms.proc.CPUPercent = rand.Float64()
		}
	case "quiet":
		// A finished non-interactive run; nothing changes.
		ms.proc.CPUPercent = 0
	}

	if ms.fact.LastMessageMS > ms.fact.TimeUpdatedMS {
		ms.fact.TimeUpdatedMS = ms.fact.LastMessageMS
	}
}

func (ms *mockSession) grow(minTokens, maxTokens int64) {
	delta := minTokens + rand.Int63n(maxTokens-minTokens+1)
	ms.fact.ContextTokens += delta
	ms.fact.OutputTokens += delta / 8
	ms.fact.CacheReadTokens += delta / 2
	ms.fact.Cost += float64(delta) * 0.000011
	ms.fact.MessageCount++
}

func (ms *mockSession) rotateOutput() {
	if len(ms.outputs) == 0 {
		return
	}
	ms.fact.LastOutputLine = ms.outputs[ms.outIdx%len(ms.outputs)]
	ms.outIdx++
}
