package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/opencode-htop/octop/internal/client"
	"github.com/opencode-htop/octop/internal/config"
	"github.com/opencode-htop/octop/internal/mock"
	"github.com/opencode-htop/octop/internal/monitor"
	"github.com/opencode-htop/octop/internal/session"
	"github.com/opencode-htop/octop/internal/tui"
	"github.com/opencode-htop/octop/internal/ws"
)

const version = "0.1.0"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "sessions":
			os.Exit(runSessions(os.Args[2:]))
		case "serve":
			os.Exit(runServe(os.Args[2:]))
		case "attach":
			os.Exit(runAttach(os.Args[2:]))
		}
	}
	os.Exit(runTUI(os.Args[1:]))
}

// runTUI is the default command: monitor local processes and render the
// dashboard.
func runTUI(args []string) int {
	fs := flag.NewFlagSet("octop", flag.ExitOnError)
	configPath := fs.String("config", "", "path to octop config file")
	mockMode := fs.Bool("mock", false, "render synthetic sessions instead of monitoring")
	fs.Parse(args)

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: load config: %v\n", err)
		return 1
	}

	cleanup := setupTUILogging()
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := session.NewStore()
	opts := tui.Options{Config: cfg, Store: store}

	var mon *monitor.Monitor
	if *mockMode {
		opts.Source = "mock"
	} else {
		if dbPath := cfg.ResolvedDBPath(); !dbExists(dbPath) {
			fmt.Fprintf(os.Stderr, "error: opencode db not found at %s\n", dbPath)
			return 1
		}
		mon = monitor.New(cfg, store, monitor.SelectSource(cfg.NativeProbe))
		opts.Monitor = mon
		opts.Reader = mon.Reader()
		opts.Source = mon.SourceName()
	}

	// Subscribe (inside tui.New) before the first publish so the opening
	// snapshot is not missed.
	model := tui.New(opts)
	if *mockMode {
		mock.NewGenerator(store).Start(ctx)
	} else {
		go mon.Run(ctx)
	}

	setProcessTitle()
	return runProgram(model)
}

// runSessions performs one pipeline pass and prints the rows as JSON.
func runSessions(args []string) int {
	fs := flag.NewFlagSet("sessions", flag.ExitOnError)
	configPath := fs.String("config", "", "path to octop config file")
	all := fs.Bool("all", false, "include tool and sessionless processes")
	fs.BoolVar(all, "a", *all, "shorthand for --all")
	includeNI := fs.Bool("include-noninteractive", false, "include non-interactive sessions")
	fs.Parse(args)

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: load config: %v\n", err)
		return 1
	}
	dbPath := cfg.ResolvedDBPath()
	if !dbExists(dbPath) {
		fmt.Fprintf(os.Stderr, "error: opencode db not found at %s\n", dbPath)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	store := session.NewStore()
	mon := monitor.New(cfg, store, monitor.SelectSource(cfg.NativeProbe))
	snap := mon.Collect(ctx)

	sortKey, ok := session.ParseSortKey(cfg.View.SortKey)
	if !ok {
		sortKey = session.ByStatus
	}
	rows := session.Apply(snap, session.Policy{
		ShowAll:            *all,
		ShowNonInteractive: *includeNI,
		Key:                sortKey,
		Descending:         cfg.View.SortDescending,
	})

	out, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: encode rows: %v\n", err)
		return 1
	}
	fmt.Println(string(out))
	return 0
}

// runServe runs the monitor headless and exposes it over WebSocket/HTTP.
func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "path to octop config file")
	addr := fs.String("addr", "", "listen address (overrides config)")
	token := fs.String("token", "", "bearer token (overrides config)")
	mockMode := fs.Bool("mock", false, "serve synthetic sessions")
	fs.Parse(args)

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: load config: %v\n", err)
		return 1
	}
	if *addr != "" {
		cfg.Serve.Addr = *addr
	}
	if *token != "" {
		cfg.Serve.AuthToken = *token
	}

	// Never expose an unauthenticated non-loopback listener.
	if cfg.Serve.AuthToken == "" && !isLoopback(cfg.Serve.Addr) {
		cfg.Serve.AuthToken = config.GenerateToken()
		log.Printf("[serve] generated auth token: %s", cfg.Serve.AuthToken)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := session.NewStore()
	privacy := cfg.Serve.Privacy.NewPrivacyFilter()

	sourceName := "mock"
	var mon *monitor.Monitor
	if !*mockMode {
		if dbPath := cfg.ResolvedDBPath(); !dbExists(dbPath) {
			log.Printf("[serve] opencode db not found at %s; serving process facts only", dbPath)
		}
		mon = monitor.New(cfg, store, monitor.SelectSource(cfg.NativeProbe))
		sourceName = mon.SourceName()
	}

	broadcaster := ws.NewBroadcaster(store, privacy, ws.HelloPayload{
		ServerVersion:     version,
		Source:            sourceName,
		RefreshIntervalMS: cfg.RefreshIntervalMS,
	})
	server := ws.NewServer(store, broadcaster, privacy, cfg.Serve.AllowedOrigins, cfg.Serve.AuthToken)

	if *mockMode {
		mock.NewGenerator(store).Start(ctx)
	} else {
		go mon.Run(ctx)
	}
	go broadcaster.Run(ctx)

	mux := http.NewServeMux()
	server.SetupRoutes(mux)

	var sigCode atomic.Int32
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	go func() {
		sig := <-sigCh
		if s, ok := sig.(syscall.Signal); ok {
			sigCode.Store(int32(128 + int(s)))
		}
		log.Printf("[serve] %v: shutting down", sig)
		cancel()
	}()

	log.Printf("[serve] octop %s listening on %s (source %s)", version, cfg.Serve.Addr, sourceName)
	if err := ws.ListenAndServe(ctx, cfg.Serve.Addr, mux); err != nil {
		fmt.Fprintf(os.Stderr, "error: serve: %v\n", err)
		return 1
	}
	return int(sigCode.Load())
}

// runAttach follows a remote serve instance with the same dashboard.
func runAttach(args []string) int {
	fs := flag.NewFlagSet("attach", flag.ExitOnError)
	configPath := fs.String("config", "", "path to octop config file")
	wsURL := fs.String("url", "ws://127.0.0.1:7733/ws", "WebSocket URL of an octop serve instance")
	token := fs.String("token", "", "bearer token for the serve instance")
	fs.Parse(args)

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: load config: %v\n", err)
		return 1
	}

	cleanup := setupTUILogging()
	defer cleanup()

	opts := tui.Options{
		Config: cfg,
		WS:     client.NewWSClient(*wsURL, *token),
		HTTP:   client.NewHTTPClient(deriveHTTPBase(*wsURL), *token),
		Source: "remote",
	}

	setProcessTitle()
	return runProgram(tui.New(opts))
}

// runProgram runs the Bubble Tea program, converting SIGINT/SIGTERM/SIGHUP
// into a clean quit. Ctrl-C inside the TUI arrives as a key (raw mode) and
// exits 0; an externally delivered signal exits 128+signum after the
// terminal is restored.
func runProgram(m tui.Model) int {
	p := tea.NewProgram(m, tea.WithAltScreen())

	var sigCode atomic.Int32
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	done := make(chan struct{})
	go func() {
		select {
		case sig := <-sigCh:
			if s, ok := sig.(syscall.Signal); ok {
				sigCode.Store(int32(128 + int(s)))
			}
			p.Quit()
		case <-done:
		}
	}()

	_, err := p.Run()
	close(done)
	signal.Stop(sigCh)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return int(sigCode.Load())
}

// setupTUILogging sends the standard logger to a file when OCTOP_DEBUG is
// set and discards it otherwise; a TUI must not log to its own screen.
func setupTUILogging() func() {
	if os.Getenv("OCTOP_DEBUG") != "" {
		f, err := tea.LogToFile("octop-debug.log", "octop")
		if err == nil {
			return func() { f.Close() }
		}
	}
	log.SetOutput(io.Discard)
	return func() {}
}

// setProcessTitle renames the terminal/tmux window to opencode-htop so the
// prober's self-exclusion matches this process. The tmux escape drives
// automatic-rename; the xterm escape covers plain terminals.
func setProcessTitle() {
	if os.Getenv("TMUX") != "" {
		fmt.Fprint(os.Stdout, "\033kopencode-htop\033\\")
		return
	}
	fmt.Fprint(os.Stdout, "\033]2;opencode-htop\007")
}

func dbExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func isLoopback(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}
	if host == "localhost" || host == "" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// deriveHTTPBase converts ws://host:port/ws → http://host:port
func deriveHTTPBase(wsURL string) string {
	u, err := url.Parse(wsURL)
	if err != nil {
		return "http://127.0.0.1:7733"
	}
	scheme := "http"
	if strings.HasPrefix(u.Scheme, "wss") {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s", scheme, u.Host)
}
