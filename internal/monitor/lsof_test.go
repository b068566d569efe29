package monitor

import "testing"

const lsofFixture = `COMMAND   PID USER   FD   TYPE DEVICE SIZE/OFF    NODE NAME
opencode 41234 user  cwd    DIR  259,2     4096 1234567 /home/u/projects/api
opencode 41234 user  txt    REG  259,2 45678912 2345678 /usr/local/bin/opencode
opencode 41234 user    3u   REG  259,2    91011 3456789 /home/u/.local/share/opencode/log/2026-02-20T145658.log
opencode 41250 user  cwd    DIR  259,2     4096 1234568 /home/u/projects/web
opencode 41250 user    4r   REG  259,2     2048 3456790 /home/u/.local/share/opencode/log/2025-12-31T235959.log (deleted)
opencode 41250 user    7u  IPv4 987654      0t0     TCP localhost:41000 (LISTEN)
opencode 41250 user    8w   REG  259,2      512 3456791 /home/u/projects/web/build.log
opencode 41301 user    5r   REG  259,2      256 3456792 /home/u/.local/share/opencode/log/notes.txt
`

func TestParseLsofCwdAndLog(t *testing.T) {
	handles := parseLsof(lsofFixture)

	h, ok := handles[41234]
	if !ok {
		t.Fatal("pid 41234 missing from handles")
	}
	if h.cwd != "/home/u/projects/api" {
		t.Errorf("cwd = %q, want %q", h.cwd, "/home/u/projects/api")
	}
	want := "/home/u/.local/share/opencode/log/2026-02-20T145658.log"
	if h.logPath != want {
		t.Errorf("logPath = %q, want %q", h.logPath, want)
	}
}

func TestParseLsofKeepsUnlinkedLog(t *testing.T) {
	// An unlinked-but-open log keeps its filename in lsof output with a
	// trailing "(deleted)" marker. That filename is the only remaining
	// source of the process start time, so it must survive parsing.
	handles := parseLsof(lsofFixture)

	h, ok := handles[41250]
	if !ok {
		t.Fatal("pid 41250 missing from handles")
	}
	want := "/home/u/.local/share/opencode/log/2025-12-31T235959.log"
	if h.logPath != want {
		t.Errorf("logPath = %q, want %q", h.logPath, want)
	}
	if h.cwd != "/home/u/projects/web" {
		t.Errorf("cwd = %q, want %q", h.cwd, "/home/u/projects/web")
	}
}

func TestParseLsofIgnoresOtherFiles(t *testing.T) {
	handles := parseLsof(lsofFixture)

	// build.log lives outside opencode/log/ and must not shadow anything.
	if h := handles[41250]; h.logPath == "/home/u/projects/web/build.log" {
		t.Error("picked up a .log outside the opencode log directory")
	}
	// notes.txt sits inside opencode/log/ but is not a .log file.
	if h, ok := handles[41301]; ok && h.logPath != "" {
		t.Errorf("pid 41301 logPath = %q, want empty", h.logPath)
	}
}

func TestParseLsofMalformed(t *testing.T) {
	out := `COMMAND   PID USER   FD   TYPE DEVICE SIZE/OFF    NODE NAME
short line
opencode notpid user cwd DIR 259,2 4096 99 /tmp
opencode 41400 user  cwd    DIR  259,2     4096 1234569 /home/u/x
`
	handles := parseLsof(out)
	if len(handles) != 1 {
		t.Fatalf("got %d handles, want 1: %+v", len(handles), handles)
	}
	if handles[41400].cwd != "/home/u/x" {
		t.Errorf("cwd = %q, want %q", handles[41400].cwd, "/home/u/x")
	}
}

func TestParseLsofEmpty(t *testing.T) {
	if handles := parseLsof(""); len(handles) != 0 {
		t.Errorf("got %d handles from empty output, want 0", len(handles))
	}
}
