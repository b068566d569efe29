package monitor

import (
	"context"
	"sort"

	"github.com/opencode-htop/octop/internal/session"
)

// SessionFinder is the slice of the store reader the correlator consults
// for tiers 2 and 3.
type SessionFinder interface {
	CandidateSessions(ctx context.Context, cwd string, startMS int64) ([]Candidate, error)
	RecentSessions(ctx context.Context, cwd string) ([]string, error)
}

// Correlate maps PIDs to session ids using the two-pass claimed-set
// algorithm. Pass 1 binds explicit -s flags without consulting the
// database. Pass 2 walks the unflagged non-tool processes oldest first
// and runs the candidate tiers against the claimed set, so two terminals
// sharing a directory never bind to the same session. Tool processes are
// excluded from both passes — they would otherwise steal sessions from
// the interactive process in the same directory.
func Correlate(ctx context.Context, procs []session.ProcessFact, finder SessionFinder) map[int]string {
	claimed := make(map[string]bool)
	resolved := make(map[int]string)

	// Pass 1: explicit session flags are authoritative. A duplicate flag
	// on a second process binds nothing; the bound set stays unique.
	for _, p := range procs {
		if p.IsToolProcess || p.ExplicitSessionID == "" {
			continue
		}
		if claimed[p.ExplicitSessionID] {
			continue
		}
		claimed[p.ExplicitSessionID] = true
		resolved[p.PID] = p.ExplicitSessionID
	}

	// Pass 2: oldest process first. The longer a process has been
	// running the more messages it has accumulated, so it gets first
	// pick of the busiest candidate; newer siblings fall through to the
	// next one.
	// Flagged processes never reach this pass: a -s flag binds its named
	// session or nothing, even when the name was already claimed.
	var remaining []session.ProcessFact
	for _, p := range procs {
		if p.IsToolProcess || p.ExplicitSessionID != "" {
			continue
		}
		remaining = append(remaining, p)
	}
	sort.SliceStable(remaining, func(i, j int) bool {
		return remaining[i].StartTimeMS < remaining[j].StartTimeMS
	})
	for _, p := range remaining {
		if sid := findSession(ctx, p, finder, claimed); sid != "" {
			claimed[sid] = true
			resolved[p.PID] = sid
		}
	}

	return resolved
}

// findSession runs tier 2 (activity since process start) then tier 3
// (directory recency) for one process. Finder errors degrade to "no
// match"; the next tick retries naturally.
func findSession(ctx context.Context, p session.ProcessFact, finder SessionFinder, claimed map[string]bool) string {
	if p.Cwd == "" {
		return ""
	}

	if p.StartTimeMS > 0 {
		candidates, err := finder.CandidateSessions(ctx, p.Cwd, p.StartTimeMS)
		if err == nil {
			for _, c := range candidates {
				if !claimed[c.ID] {
					return c.ID
				}
			}
		}
	}

	ids, err := finder.RecentSessions(ctx, p.Cwd)
	if err == nil {
		for _, id := range ids {
			if !claimed[id] {
				return id
			}
		}
	}

	return ""
}
