package session

import (
	"crypto/sha256"
	"fmt"
	"path/filepath"
)

// PrivacyFilter applies masking and path-based filtering to snapshots
// before they leave the process over the serve API. The zero value is a
// no-op filter.
type PrivacyFilter struct {
	MaskDirectories bool
	MaskSessionIDs  bool
	MaskPIDs        bool
	MaskTTYs        bool
	AllowedPaths    []string
	BlockedPaths    []string
}

// IsAllowed reports whether a row with the given working directory should
// be served. An empty directory is always allowed (the handle resolver
// hasn't produced one yet). When AllowedPaths is non-empty, the path must
// match at least one pattern. If it passes the allowlist, it must not
// match any BlockedPaths pattern.
func (f *PrivacyFilter) IsAllowed(dir string) bool {
	if dir == "" {
		return true
	}

	if len(f.AllowedPaths) > 0 {
		allowed := false
		for _, pattern := range f.AllowedPaths {
			if matchPathOrParent(pattern, dir) {
				allowed = true
				break
			}
		}
		if !allowed {
			return false
		}
	}

	for _, pattern := range f.BlockedPaths {
		if matchPathOrParent(pattern, dir) {
			return false
		}
	}

	return true
}

// matchPathOrParent checks if pattern matches path or any of its parent
// directories. This allows patterns like "/home/user/*" to match deeply
// nested paths like "/home/user/work/project-a" because the parent
// "/home/user/work" matches the glob.
func matchPathOrParent(pattern, path string) bool {
	for p := path; p != "." && p != "" && p != filepath.Dir(p); p = filepath.Dir(p) {
		if matched, _ := filepath.Match(pattern, p); matched {
			return true
		}
	}
	return false
}

// Apply returns a copy of the snapshot with blocked rows removed and
// sensitive fields masked according to the filter configuration. The
// original snapshot is never modified.
func (f *PrivacyFilter) Apply(snap *Snapshot) *Snapshot {
	if snap == nil {
		return nil
	}
	if f.IsNoop() {
		return snap
	}

	masked := snap.Clone()
	rows := masked.Rows[:0]
	for _, r := range masked.Rows {
		if !f.IsAllowed(r.Process.Cwd) {
			continue
		}
		rows = append(rows, f.applyRow(r))
	}
	masked.Rows = rows
	return masked
}

func (f *PrivacyFilter) applyRow(r Row) Row {
	if f.MaskDirectories && r.Process.Cwd != "" {
		r.Process.Cwd = filepath.Base(r.Process.Cwd)
	}
	if f.MaskPIDs {
		r.Process.PID = 0
	}
	if f.MaskTTYs {
		r.Process.TTY = ""
	}
	if f.MaskSessionIDs {
		if r.Process.ExplicitSessionID != "" {
			r.Process.ExplicitSessionID = shortHash(r.Process.ExplicitSessionID)
		}
		if r.Session != nil && r.Session.ID != "" {
			r.Session.ID = shortHash(r.Session.ID)
		}
	}
	if f.MaskDirectories && r.Session != nil && r.Session.Directory != "" {
		r.Session.Directory = filepath.Base(r.Session.Directory)
	}
	return r
}

// IsNoop reports whether the filter does nothing (no masking, no path filtering).
func (f *PrivacyFilter) IsNoop() bool {
	return !f.MaskDirectories && !f.MaskSessionIDs && !f.MaskPIDs && !f.MaskTTYs &&
		len(f.AllowedPaths) == 0 && len(f.BlockedPaths) == 0
}

// shortHash returns a truncated SHA-256 hex digest for an opaque identifier.
func shortHash(s string) string {
	h := sha256.Sum256([]byte(s))
	return fmt.Sprintf("%x", h[:6])
}
