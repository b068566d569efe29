package monitor

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const tmuxTimeout = 2 * time.Second

// PaneInfo identifies the tmux pane that owns a terminal.
type PaneInfo struct {
	Target  string // "session:window.pane", accepted by -t everywhere
	Session string
	Title   string
}

// ListPanes maps TTY basenames (e.g. "pts/3") to their tmux panes.
// Returns an empty map when tmux is absent or no server is running.
func ListPanes(ctx context.Context) map[string]PaneInfo {
	ctx, cancel := context.WithTimeout(ctx, tmuxTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, "tmux", "list-panes", "-a", "-F",
		"#{pane_tty} #{session_name}:#{window_index}.#{pane_index} #{window_name}").Output()
	if err != nil {
		return nil
	}
	return parsePanes(string(out))
}

func parsePanes(out string) map[string]PaneInfo {
	panes := make(map[string]PaneInfo)
	for _, line := range strings.Split(out, "\n") {
		parts := strings.SplitN(strings.TrimSpace(line), " ", 3)
		if len(parts) < 2 {
			continue
		}
		tty := strings.TrimPrefix(parts[0], "/dev/")
		info := PaneInfo{Target: parts[1]}
		if sess, _, ok := strings.Cut(parts[1], ":"); ok {
			info.Session = sess
		}
		if len(parts) == 3 {
			info.Title = parts[2]
		}
		panes[tty] = info
	}
	return panes
}

// CapturePane returns the visible contents of the pane attached to tty,
// or nil when the tty has no pane. The caller renders a fallback instead.
func CapturePane(ctx context.Context, tty string) []string {
	if tty == "" {
		return nil
	}
	pane, ok := ListPanes(ctx)[tty]
	if !ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, tmuxTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, "tmux", "capture-pane", "-t", pane.Target, "-p").Output()
	if err != nil {
		return nil
	}
	lines := strings.Split(strings.TrimRight(string(out), "\n"), "\n")
	return lines
}

// FocusPane switches the attached tmux client to the pane owning tty.
func FocusPane(ctx context.Context, tty string) error {
	if tty == "" {
		return fmt.Errorf("no tty to focus")
	}
	pane, ok := ListPanes(ctx)[tty]
	if !ok {
		return fmt.Errorf("no tmux pane on %s", tty)
	}

	ctx, cancel := context.WithTimeout(ctx, tmuxTimeout)
	defer cancel()
	if err := exec.CommandContext(ctx, "tmux", "select-window", "-t", pane.Target).Run(); err != nil {
		return fmt.Errorf("select-window: %w", err)
	}
	if err := exec.CommandContext(ctx, "tmux", "select-pane", "-t", pane.Target).Run(); err != nil {
		return fmt.Errorf("select-pane: %w", err)
	}
	return nil
}
