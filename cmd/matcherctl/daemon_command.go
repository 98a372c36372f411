package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/windlayer/matcher/internal/daemon"
	"github.com/windlayer/matcher/internal/ipc"
	"github.com/windlayer/matcher/internal/matcher"
	"github.com/windlayer/matcher/internal/policyconfig"
	"github.com/windlayer/matcher/internal/state"
	"github.com/windlayer/matcher/internal/timer"
	"github.com/windlayer/matcher/internal/x11compat"
)

func runDaemon(args []string) int {
	fs := flag.NewFlagSet("daemon", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("path", "", "Config file path (default: ~/.config/matcherctl/config.yaml)")
	statePath := fs.String("state", "", "State file path (default: ~/.local/state/matcherctl/slots.json)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: matcherctl daemon [--path PATH] [--state PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Run the matcher daemon in the foreground.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfgPath, err := resolveConfigPath(*path)
	if err != nil {
		log.Error("resolve config path", "error", err)
		return 1
	}
	statePathResolved := *statePath
	if statePathResolved == "" {
		statePathResolved, err = defaultStatePath()
		if err != nil {
			log.Error("resolve state path", "error", err)
			return 1
		}
	}

	eff, err := policyconfig.LoadFromPath(cfgPath)
	if err != nil {
		log.Error("load configuration", "error", err)
		return 1
	}
	log.Info("configuration loaded", "path", cfgPath)

	conn, err := x11compat.NewConnection()
	if err != nil {
		log.Error("connect to display", "error", err)
		return 1
	}
	defer conn.Close()
	log.Info("connected to X display")

	topo := x11compat.NewTopology(conn)
	if err := topo.Refresh(); err != nil {
		log.Error("enumerate monitors", "error", err)
		return 1
	}

	store := state.NewStore(statePathResolved)
	if err := store.Load(); err != nil {
		log.Warn("load slot state", "error", err)
	}

	harness := timer.NewHarness()
	defer harness.CancelAll()

	exec := x11compat.NewExecutor(conn, log)

	disp := matcher.New(matcher.Config{
		Store:    store,
		Resolver: eff.Resolver,
		Topology: topo,
		Options:  eff.Options,
		Timers:   harness,
		Executor: exec,
		Log:      log,
		OnResult: func(res matcher.Result) {
			logResult(log, res)
		},
	})
	exec.SetCompletionHook(harness, eff.Options.OperationSettleDelay, disp.OperationsComplete)

	source := x11compat.NewEventSource(conn, topo, disp, log)
	if err := source.Start(); err != nil {
		log.Error("start event source", "error", err)
		return 1
	}
	log.Info("event source started")

	ipcServer, err := ipc.NewServer(store, topo, func() error {
		newEff, err := policyconfig.LoadFromPath(cfgPath)
		if err != nil {
			return err
		}
		// The dispatcher reads the resolver under the store lock, so the new
		// rules are copied into the shared Resolver under that lock. Numeric
		// tunables keep the values loaded at startup.
		store.Lock()
		*eff.Resolver = *newEff.Resolver
		store.Unlock()
		return nil
	}, log)
	if err != nil {
		log.Error("create ipc server", "error", err)
		return 1
	}
	if err := ipcServer.Start(); err != nil {
		log.Error("start ipc server", "error", err)
		return 1
	}
	defer ipcServer.Stop()

	tickerCtx, tickerCancel := context.WithCancel(context.Background())
	defer tickerCancel()
	ticker := daemon.NewTicker(daemon.TickerConfig{
		Interval: 200 * time.Millisecond,
		Logger:   log,
	}, disp, func(res matcher.Result) {
		logResult(log, res)
	})
	go ticker.Run(tickerCtx)

	monitorTicker := timer.NewTicker(5*time.Second, source.PollMonitors)
	go monitorTicker.Run(tickerCtx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("shutting down")
		tickerCancel()
		ipcServer.Stop()
		if err := store.Save(); err != nil {
			log.Error("save slot state", "error", err)
		}
		harness.CancelAll()
		conn.Close()
		os.Exit(0)
	}()

	log.Info("entering event loop")
	conn.EventLoop()
	return 0
}

func logResult(log *slog.Logger, res matcher.Result) {
	for _, ev := range res.Events {
		log.Info("event", "kind", ev.Kind, "window", ev.WinID)
	}
	if len(res.Operations) > 0 {
		log.Debug("operations dispatched", "count", len(res.Operations))
	}
}
