package monitor

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/opencode-htop/octop/internal/session"
)

// NativeSource probes through the process table directly (procfs on
// Linux) instead of shelling out to ps and lsof. The keep rules and the
// start-time contract are identical to PSSource: start time still comes
// from the open log filename, never from the kernel's create time, so
// tier-2 correlation behaves the same on either source.
type NativeSource struct{}

func NewNativeSource() *NativeSource { return &NativeSource{} }

func (s *NativeSource) Name() string { return "native" }

func (s *NativeSource) Probe(ctx context.Context) ([]session.ProcessFact, error) {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	all, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("process list: %w", err)
	}

	var procs []session.ProcessFact
	for _, p := range all {
		args, err := p.CmdlineWithContext(ctx)
		if err != nil || args == "" {
			continue
		}
		argv, ok := matchOpencodeArgs(args)
		if !ok {
			continue
		}

		fact := session.ProcessFact{
			PID:           int(p.Pid),
			Cmdline:       args,
			IsToolProcess: isToolArgs(argv),
		}
		if cpu, err := p.CPUPercentWithContext(ctx); err == nil {
			fact.CPUPercent = cpu
		}
		if mem, err := p.MemoryInfoWithContext(ctx); err == nil && mem != nil {
			fact.RSSBytes = int64(mem.RSS)
		}
		if tty, err := p.TerminalWithContext(ctx); err == nil {
			fact.TTY = normalizeTTY(strings.TrimPrefix(tty, "/dev/"))
		}
		if m := sessionFlagRe.FindStringSubmatch(args); m != nil {
			fact.ExplicitSessionID = m[1]
		}
		procs = append(procs, fact)
	}
	return procs, nil
}

// Resolve reads cwd and open log handles per process. Unlike the lsof
// path there is no batching concern: procfs reads are local and cheap.
func (s *NativeSource) Resolve(ctx context.Context, procs []session.ProcessFact) error {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	for i := range procs {
		p, err := process.NewProcessWithContext(ctx, int32(procs[i].PID))
		if err != nil {
			continue
		}
		if cwd, err := p.CwdWithContext(ctx); err == nil {
			procs[i].Cwd = cwd
		}
		files, err := p.OpenFilesWithContext(ctx)
		if err != nil {
			continue
		}
		for _, f := range files {
			path := strings.TrimSuffix(f.Path, " (deleted)")
			if strings.Contains(path, ".log") && strings.Contains(path, "opencode/log/") {
				procs[i].LogPath = path
				procs[i].StartTimeMS = DecodeLogTime(path)
				break
			}
		}
	}
	return nil
}

// SelectSource picks the probing strategy for the configured mode:
// "always" forces the native source, "never" forces ps/lsof, and "auto"
// uses ps/lsof when both binaries are present.
func SelectSource(mode string) ProcSource {
	switch mode {
	case "always":
		return NewNativeSource()
	case "never":
		return NewPSSource()
	}
	if _, err := exec.LookPath("ps"); err != nil {
		return NewNativeSource()
	}
	if _, err := exec.LookPath("lsof"); err != nil {
		return NewNativeSource()
	}
	return NewPSSource()
}
