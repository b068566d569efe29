package session

import (
	"testing"
)

func TestPrivacyFilter_IsAllowed(t *testing.T) {
	tests := []struct {
		name   string
		filter PrivacyFilter
		dir    string
		want   bool
	}{
		{
			name:   "empty filter allows everything",
			filter: PrivacyFilter{},
			dir:    "/home/user/project",
			want:   true,
		},
		{
			name:   "empty dir always allowed",
			filter: PrivacyFilter{BlockedPaths: []string{"/tmp/*"}},
			dir:    "",
			want:   true,
		},
		{
			name:   "allowlist match direct",
			filter: PrivacyFilter{AllowedPaths: []string{"/home/user/work/*"}},
			dir:    "/home/user/work/myproject",
			want:   true,
		},
		{
			name:   "allowlist match nested",
			filter: PrivacyFilter{AllowedPaths: []string{"/home/user/work/*"}},
			dir:    "/home/user/work/deep/nested/path",
			want:   true,
		},
		{
			name:   "allowlist no match",
			filter: PrivacyFilter{AllowedPaths: []string{"/home/user/work/*"}},
			dir:    "/home/user/personal/diary",
			want:   false,
		},
		{
			name:   "blocklist match",
			filter: PrivacyFilter{BlockedPaths: []string{"/tmp/*"}},
			dir:    "/tmp/scratch",
			want:   false,
		},
		{
			name: "allowlist passes but blocklist catches",
			filter: PrivacyFilter{
				AllowedPaths: []string{"/home/user/*"},
				BlockedPaths: []string{"/home/user/secret"},
			},
			dir:  "/home/user/secret",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.IsAllowed(tt.dir); got != tt.want {
				t.Errorf("IsAllowed(%q) = %v, want %v", tt.dir, got, tt.want)
			}
		})
	}
}

func TestPrivacyFilter_Apply(t *testing.T) {
	snap := &Snapshot{
		Rows: []Row{
			{
				Process: ProcessFact{PID: 42, TTY: "pts/1", Cwd: "/home/user/work/app", ExplicitSessionID: "ses_flag"},
				Session: &SessionFact{ID: "ses_abc", Directory: "/home/user/work/app"},
			},
			{
				Process: ProcessFact{PID: 43, Cwd: "/home/user/secret/vault"},
				Session: &SessionFact{ID: "ses_def", Directory: "/home/user/secret/vault"},
			},
		},
	}

	f := PrivacyFilter{
		MaskDirectories: true,
		MaskSessionIDs:  true,
		MaskPIDs:        true,
		MaskTTYs:        true,
		BlockedPaths:    []string{"/home/user/secret"},
	}

	masked := f.Apply(snap)

	if len(masked.Rows) != 1 {
		t.Fatalf("len(masked.Rows) = %d, want 1 (blocked row removed)", len(masked.Rows))
	}

	row := masked.Rows[0]
	if row.Process.PID != 0 {
		t.Errorf("PID = %d, want 0 (masked)", row.Process.PID)
	}
	if row.Process.TTY != "" {
		t.Errorf("TTY = %q, want empty (masked)", row.Process.TTY)
	}
	if row.Process.Cwd != "app" {
		t.Errorf("Cwd = %q, want basename %q", row.Process.Cwd, "app")
	}
	if row.Session.Directory != "app" {
		t.Errorf("Directory = %q, want basename %q", row.Session.Directory, "app")
	}
	if row.Session.ID == "ses_abc" || len(row.Session.ID) != 12 {
		t.Errorf("session ID = %q, want 12-char hash", row.Session.ID)
	}
	if row.Process.ExplicitSessionID == "ses_flag" {
		t.Errorf("ExplicitSessionID not masked: %q", row.Process.ExplicitSessionID)
	}

	// The original snapshot must be untouched.
	if snap.Rows[0].Process.PID != 42 || snap.Rows[0].Session.ID != "ses_abc" {
		t.Error("Apply mutated the original snapshot")
	}
	if len(snap.Rows) != 2 {
		t.Errorf("original row count changed: %d", len(snap.Rows))
	}
}

func TestPrivacyFilter_ApplyNoopSharesSnapshot(t *testing.T) {
	f := PrivacyFilter{}
	snap := &Snapshot{Rows: []Row{{Process: ProcessFact{PID: 1}}}}

	if got := f.Apply(snap); got != snap {
		t.Error("no-op filter should return the snapshot unchanged")
	}
}

func TestPrivacyFilter_IsNoop(t *testing.T) {
	tests := []struct {
		name   string
		filter PrivacyFilter
		want   bool
	}{
		{"zero value", PrivacyFilter{}, true},
		{"mask dirs", PrivacyFilter{MaskDirectories: true}, false},
		{"mask ids", PrivacyFilter{MaskSessionIDs: true}, false},
		{"blocked paths", PrivacyFilter{BlockedPaths: []string{"/tmp"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.IsNoop(); got != tt.want {
				t.Errorf("IsNoop() = %v, want %v", got, tt.want)
			}
		})
	}
}
