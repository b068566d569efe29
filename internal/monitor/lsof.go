package monitor

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/opencode-htop/octop/internal/session"
)

// handleInfo is the per-PID result of one batched lsof pass.
type handleInfo struct {
	cwd     string
	logPath string
}

// Resolve annotates the probed facts with cwd, log path, and the start
// time decoded from the log filename. All PIDs share one lsof invocation;
// per-PID calls cost ~200ms each and would blow the tick budget.
func (s *PSSource) Resolve(ctx context.Context, procs []session.ProcessFact) error {
	if len(procs) == 0 {
		return nil
	}

	pids := make([]string, len(procs))
	for i, p := range procs {
		pids[i] = strconv.Itoa(p.PID)
	}

	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, "lsof", "-p", strings.Join(pids, ",")).Output()
	if err != nil {
		// Leave every fact unresolved; the snapshot proceeds without
		// cwd or start times.
		return fmt.Errorf("lsof: %w", err)
	}

	handles := parseLsof(string(out))
	for i := range procs {
		info, ok := handles[procs[i].PID]
		if !ok {
			continue
		}
		procs[i].Cwd = info.cwd
		procs[i].LogPath = info.logPath
		if info.logPath != "" {
			procs[i].StartTimeMS = DecodeLogTime(info.logPath)
		}
	}
	return nil
}

// parseLsof extracts cwd and opencode log paths per PID. A row contributes
// cwd iff its fd column is the literal "cwd"; it contributes a log path
// iff the path contains both ".log" and "opencode/log/". Unlinked files
// still appear here — the kernel keeps the inode alive while the fd is
// open — and their paths must be kept: the log name is the only surviving
// source of process start time.
func parseLsof(out string) map[int]handleInfo {
	handles := make(map[int]handleInfo)
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 9 {
			continue
		}
		pid, err := strconv.Atoi(fields[1])
		if err != nil {
			continue
		}

		path := fields[len(fields)-1]
		// Linux lsof appends "(deleted)" as a trailing field for
		// unlinked paths; step back to the real path.
		if path == "(deleted)" && len(fields) >= 10 {
			path = fields[len(fields)-2]
		}

		info := handles[pid]
		if fields[3] == "cwd" {
			info.cwd = path
		}
		if strings.Contains(path, ".log") && strings.Contains(path, "opencode/log/") {
			info.logPath = path
		}
		handles[pid] = info
	}
	return handles
}
