package session

import (
	"cmp"
	"sort"
	"strings"
)

// SortKey selects the primary column for row ordering.
type SortKey int

const (
	ByStatus SortKey = iota
	ByTitle
	ByLastOutput
	ByMessages
	BySessionID
	ByPID
	ByUptime
	ByRound
	ByCPU
	ByMem
	ByTokens
	ByModel
	ByTTY
)

// SortKeys lists every key in cycling order.
var SortKeys = []SortKey{
	ByStatus, ByTitle, ByLastOutput, ByMessages, BySessionID, ByPID,
	ByUptime, ByRound, ByCPU, ByMem, ByTokens, ByModel, ByTTY,
}

var sortKeyNames = map[SortKey]string{
	ByStatus:     "status",
	ByTitle:      "title",
	ByLastOutput: "last",
	ByMessages:   "msgs",
	BySessionID:  "session",
	ByPID:        "pid",
	ByUptime:     "uptime",
	ByRound:      "round",
	ByCPU:        "cpu",
	ByMem:        "mem",
	ByTokens:     "tokens",
	ByModel:      "model",
	ByTTY:        "tty",
}

var sortKeyFromName = map[string]SortKey{
	"status":  ByStatus,
	"title":   ByTitle,
	"last":    ByLastOutput,
	"msgs":    ByMessages,
	"session": BySessionID,
	"pid":     ByPID,
	"uptime":  ByUptime,
	"round":   ByRound,
	"cpu":     ByCPU,
	"mem":     ByMem,
	"tokens":  ByTokens,
	"model":   ByModel,
	"tty":     ByTTY,
}

func (k SortKey) String() string {
	if name, ok := sortKeyNames[k]; ok {
		return name
	}
	return "status"
}

// ParseSortKey maps a config name to its key; unknown names report false.
func ParseSortKey(name string) (SortKey, bool) {
	k, ok := sortKeyFromName[strings.ToLower(strings.TrimSpace(name))]
	return k, ok
}

// Next returns the following key in cycling order, wrapping around.
func (k SortKey) Next() SortKey {
	return SortKey((int(k) + 1) % len(SortKeys))
}

// Prev returns the preceding key in cycling order, wrapping around.
func (k SortKey) Prev() SortKey {
	return SortKey((int(k) + len(SortKeys) - 1) % len(SortKeys))
}

// Policy is the view state applied to a snapshot: visibility toggles, the
// substring filter, and the sort column/direction.
type Policy struct {
	ShowAll            bool // include tool processes and unbound processes
	ShowNonInteractive bool
	Filter             string
	Key                SortKey
	Descending         bool
}

// Apply reduces a snapshot to the displayable row list: visibility policy,
// then substring filter, then a stable sort on the composite key
// (has-no-session, primary column, lowercased title). Rows without a bound
// session always sort to the end; the title tiebreak keeps rows from
// trading places when primary values fluctuate between refreshes.
func Apply(snap *Snapshot, p Policy) []Row {
	if snap == nil {
		return nil
	}
	nowMS := snap.TakenAt.UnixMilli()

	rows := make([]Row, 0, len(snap.Rows))
	for _, r := range snap.Rows {
		if !p.ShowAll && (r.Process.IsToolProcess || r.Session == nil) {
			continue
		}
		if !p.ShowNonInteractive && r.Session != nil && !r.Session.Interactive {
			continue
		}
		if p.Filter != "" && !matchesFilter(r, p.Filter) {
			continue
		}
		rows = append(rows, r)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		aMiss, bMiss := 0, 0
		if a.Session == nil {
			aMiss = 1
		}
		if b.Session == nil {
			bMiss = 1
		}
		// Unbound rows sink to the bottom in both directions.
		if aMiss != bMiss {
			return aMiss < bMiss
		}
		c := compareRows(p.Key, a, b, nowMS)
		if c == 0 {
			c = cmp.Compare(titleLower(a), titleLower(b))
		}
		if p.Descending {
			return c > 0
		}
		return c < 0
	})

	return rows
}

func matchesFilter(r Row, filter string) bool {
	needle := strings.ToLower(filter)
	if r.Session != nil {
		if strings.Contains(strings.ToLower(r.Session.Title), needle) ||
			strings.Contains(strings.ToLower(r.Session.Model), needle) ||
			strings.Contains(strings.ToLower(r.Session.ID), needle) {
			return true
		}
	}
	return strings.Contains(strings.ToLower(r.Process.Cwd), needle) ||
		strings.Contains(strings.ToLower(r.Process.TTY), needle) ||
		strings.Contains(r.Status.String(), needle)
}

func titleLower(r Row) string {
	if r.Session == nil {
		return ""
	}
	return strings.ToLower(r.Session.Title)
}

func compareRows(key SortKey, a, b Row, nowMS int64) int {
	// The unbound check in Apply guarantees both rows are bound or both
	// are not; session-derived keys compare equal for the unbound pair.
	bound := a.Session != nil && b.Session != nil

	switch key {
	case ByStatus:
		return cmp.Compare(a.Status.String(), b.Status.String())
	case ByTitle:
		return cmp.Compare(titleLower(a), titleLower(b))
	case ByLastOutput:
		if !bound {
			return 0
		}
		return cmp.Compare(a.Session.LastOutputLine, b.Session.LastOutputLine)
	case ByMessages:
		if !bound {
			return 0
		}
		return cmp.Compare(a.Session.MessageCount, b.Session.MessageCount)
	case BySessionID:
		if !bound {
			return 0
		}
		return cmp.Compare(a.Session.ID, b.Session.ID)
	case ByPID:
		return cmp.Compare(a.Process.PID, b.Process.PID)
	case ByUptime:
		return cmp.Compare(elapsedSince(a.Process.StartTimeMS, nowMS), elapsedSince(b.Process.StartTimeMS, nowMS))
	case ByRound:
		if !bound {
			return 0
		}
		return cmp.Compare(elapsedSince(a.Session.RoundStartMS, nowMS), elapsedSince(b.Session.RoundStartMS, nowMS))
	case ByCPU:
		return cmp.Compare(a.Process.CPUPercent, b.Process.CPUPercent)
	case ByMem:
		return cmp.Compare(a.Process.RSSBytes, b.Process.RSSBytes)
	case ByTokens:
		if !bound {
			return 0
		}
		return cmp.Compare(a.Session.ContextTokens, b.Session.ContextTokens)
	case ByModel:
		if !bound {
			return 0
		}
		return cmp.Compare(a.Session.Model, b.Session.Model)
	case ByTTY:
		return cmp.Compare(a.Process.TTY, b.Process.TTY)
	}
	return 0
}

func elapsedSince(startMS, nowMS int64) int64 {
	if startMS <= 0 {
		return 0
	}
	return nowMS - startMS
}
