package monitor

import (
	"time"

	"github.com/opencode-htop/octop/internal/session"
)

const (
	// cpuActiveThreshold is the CPU% above which a process counts as
	// actively working regardless of what the database says. The
	// database lags the running model: mid-stream responses and long
	// tool executions look idle on disk while the process is busy.
	cpuActiveThreshold = 5.0

	generatingMaxAge = 120.0 // seconds an open response still counts as generating
	toolUseMaxAge    = 30.0  // seconds a tool-calls finish still counts as tool use
	thinkingMaxAge   = 60.0  // seconds a pending user message still counts as thinking
)

// InferStatus derives what a session is doing right now from its last
// committed message and the owning process's CPU%. First match wins
// within each role branch.
func InferStatus(fact *session.SessionFact, cpuPercent float64, now time.Time) session.Status {
	if fact == nil {
		return session.Unknown
	}

	age := 9999.0
	if fact.LastMessageMS > 0 {
		age = float64(now.UnixMilli()-fact.LastMessageMS) / 1000
	}
	cpuActive := cpuPercent > cpuActiveThreshold

	switch fact.LastRole {
	case "assistant":
		switch fact.LastFinish {
		case "":
			if age < generatingMaxAge {
				return session.Generating
			}
			if cpuActive {
				return session.Busy
			}
			return session.Stale
		case "tool-calls":
			if age < toolUseMaxAge {
				return session.ToolUse
			}
			if cpuActive {
				return session.Busy
			}
			return session.Idle
		case "stop":
			if cpuActive {
				return session.Busy
			}
			return session.Idle
		case "length":
			return session.Truncated
		default:
			return session.Idle
		}
	case "user":
		if cpuActive || age < thinkingMaxAge {
			return session.Thinking
		}
		return session.Queued
	}

	return session.Unknown
}
