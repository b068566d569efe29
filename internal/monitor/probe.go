package monitor

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/opencode-htop/octop/internal/session"
)

const commandTimeout = 5 * time.Second

// sessionFlagRe extracts the session id passed with the -s flag. The flag
// can sit anywhere in the argument vector.
var sessionFlagRe = regexp.MustCompile(`(?:^|\s)-s\s+(ses_\S+)`)

// ProcSource discovers opencode processes and annotates them with handle
// information. Probe returns bare facts from the process table; Resolve
// fills in cwd, log path, and the start time decoded from the log name.
type ProcSource interface {
	Name() string
	Probe(ctx context.Context) ([]session.ProcessFact, error)
	Resolve(ctx context.Context, procs []session.ProcessFact) error
}

// PSSource probes with ps(1) and resolves handles with a single batched
// lsof(1) call per tick.
type PSSource struct{}

func NewPSSource() *PSSource { return &PSSource{} }

func (s *PSSource) Name() string { return "ps" }

func (s *PSSource) Probe(ctx context.Context) ([]session.ProcessFact, error) {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, "ps", "axo", "pid,pcpu,rss,tty,etime,args").Output()
	if err != nil {
		return nil, fmt.Errorf("ps: %w", err)
	}
	return parsePS(string(out)), nil
}

// parsePS extracts opencode processes from ps output. Keep rules are in
// matchOpencodeArgs; a script merely named *opencode* does not count.
// Malformed rows are skipped; they never fail the probe.
func parsePS(out string) []session.ProcessFact {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) < 2 {
		return nil
	}

	var procs []session.ProcessFact
	for _, line := range lines[1:] {
		fields := strings.Fields(line)
		if len(fields) < 6 {
			continue
		}
		args := strings.Join(fields[5:], " ")
		argv, ok := matchOpencodeArgs(args)
		if !ok {
			continue
		}

		pid, err := strconv.Atoi(fields[0])
		if err != nil || pid <= 0 {
			continue
		}
		cpu, _ := strconv.ParseFloat(fields[1], 64)
		rssKB, _ := strconv.ParseInt(fields[2], 10, 64)

		fact := session.ProcessFact{
			PID:           pid,
			CPUPercent:    cpu,
			RSSBytes:      rssKB * 1024,
			TTY:           normalizeTTY(fields[3]),
			ElapsedRaw:    fields[4],
			Cmdline:       args,
			IsToolProcess: isToolArgs(argv),
		}
		if m := sessionFlagRe.FindStringSubmatch(args); m != nil {
			fact.ExplicitSessionID = m[1]
		}
		procs = append(procs, fact)
	}
	return procs
}

// matchOpencodeArgs applies the keep rules shared by every source: args
// contain the substring "opencode", exclude the monitor itself and grep
// artifacts, and the basename of argv[0] is literally "opencode". The
// argv[0] rule already rejects this binary; arguments that merely contain
// similar text (a directory named octopus-api, say) must stay in.
func matchOpencodeArgs(args string) ([]string, bool) {
	if !strings.Contains(args, "opencode") {
		return nil, false
	}
	if strings.Contains(args, "opencode-htop") || strings.Contains(args, "grep") {
		return nil, false
	}
	argv := strings.Fields(args)
	if len(argv) == 0 || filepath.Base(argv[0]) != "opencode" {
		return nil, false
	}
	return argv, true
}

// isToolArgs reports whether the argument vector is a one-shot tool
// invocation (opencode run ...), which never hosts an interactive session.
func isToolArgs(argv []string) bool {
	return len(argv) > 1 && argv[1] == "run"
}

// normalizeTTY maps the ps "no terminal" markers to the empty string.
func normalizeTTY(tty string) string {
	if tty == "?" || tty == "??" || tty == "-" {
		return ""
	}
	return tty
}
