package monitor

import (
	"testing"
	"time"

	"github.com/opencode-htop/octop/internal/session"
)

func TestInferStatus(t *testing.T) {
	now := time.UnixMilli(1_000_000_000)
	msAgo := func(seconds float64) int64 {
		return now.UnixMilli() - int64(seconds*1000)
	}

	tests := []struct {
		name   string
		role   string
		finish string
		ageSec float64
		cpu    float64
		want   session.Status
	}{
		{"assistant streaming", "assistant", "", 10, 2.0, session.Generating},
		{"assistant streaming at edge", "assistant", "", 119, 0.1, session.Generating},
		{"assistant open response aged with cpu", "assistant", "", 300, 47.0, session.Busy},
		{"assistant open response aged no cpu", "assistant", "", 300, 0.5, session.Stale},
		{"tool call fresh", "assistant", "tool-calls", 5, 1.0, session.ToolUse},
		{"tool call aged with cpu", "assistant", "tool-calls", 90, 22.0, session.Busy},
		{"tool call aged no cpu", "assistant", "tool-calls", 200, 0.0, session.Idle},
		{"finished turn quiet", "assistant", "stop", 400, 1.2, session.Idle},
		{"finished turn but cpu pegged", "assistant", "stop", 400, 47.0, session.Busy},
		{"truncated ignores cpu and age", "assistant", "length", 2, 80.0, session.Truncated},
		{"unknown finish reason", "assistant", "content-filter", 5, 50.0, session.Idle},
		{"user message fresh", "user", "", 10, 0.0, session.Thinking},
		{"user message aged with cpu", "user", "", 300, 12.0, session.Thinking},
		{"user message aged no cpu", "user", "", 300, 0.0, session.Queued},
		{"user at thinking edge", "user", "", 59, 0.0, session.Thinking},
		{"user past thinking edge", "user", "", 60, 0.0, session.Queued},
		{"unrecognized role", "system", "", 5, 50.0, session.Unknown},
		{"empty role", "", "", 5, 50.0, session.Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fact := &session.SessionFact{
				LastRole:      tt.role,
				LastFinish:    tt.finish,
				LastMessageMS: msAgo(tt.ageSec),
			}
			if got := InferStatus(fact, tt.cpu, now); got != tt.want {
				t.Errorf("InferStatus(role=%q finish=%q age=%.0fs cpu=%.1f) = %v, want %v",
					tt.role, tt.finish, tt.ageSec, tt.cpu, got, tt.want)
			}
		})
	}
}

func TestInferStatusNilFact(t *testing.T) {
	if got := InferStatus(nil, 90.0, time.Now()); got != session.Unknown {
		t.Errorf("got %v, want %v", got, session.Unknown)
	}
}

func TestInferStatusNoMessageTime(t *testing.T) {
	now := time.UnixMilli(1_000_000_000)

	// Without a message timestamp age defaults far past every window, so
	// only the CPU branches can fire.
	fact := &session.SessionFact{LastRole: "assistant", LastFinish: "", LastMessageMS: 0}
	if got := InferStatus(fact, 0.0, now); got != session.Stale {
		t.Errorf("assistant without timestamp = %v, want %v", got, session.Stale)
	}
	fact = &session.SessionFact{LastRole: "user", LastMessageMS: 0}
	if got := InferStatus(fact, 50.0, now); got != session.Thinking {
		t.Errorf("user without timestamp but cpu active = %v, want %v", got, session.Thinking)
	}
	if got := InferStatus(fact, 0.0, now); got != session.Queued {
		t.Errorf("user without timestamp and no cpu = %v, want %v", got, session.Queued)
	}
}

func TestInferStatusCPUBeatsLaggingDatabase(t *testing.T) {
	now := time.UnixMilli(1_000_000_000)

	// The database has a finished turn from minutes ago, but the process
	// is at 47% CPU: it is working on something the database has not
	// committed yet.
	fact := &session.SessionFact{
		LastRole:      "assistant",
		LastFinish:    "stop",
		LastMessageMS: now.UnixMilli() - 240_000,
	}
	if got := InferStatus(fact, 47.0, now); got != session.Busy {
		t.Errorf("got %v, want %v", got, session.Busy)
	}
	if got := InferStatus(fact, 4.9, now); got != session.Idle {
		t.Errorf("below threshold: got %v, want %v", got, session.Idle)
	}
	if got := InferStatus(fact, 5.0, now); got != session.Idle {
		t.Errorf("at threshold: got %v, want %v", got, session.Idle)
	}
}
