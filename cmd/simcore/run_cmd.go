package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ironclad-games/skirmish-core/internal/debugbridge"
	"github.com/ironclad-games/skirmish-core/internal/movement"
	"github.com/ironclad-games/skirmish-core/internal/nav"
	"github.com/ironclad-games/skirmish-core/internal/task"
	"github.com/ironclad-games/skirmish-core/logging"
	"github.com/ironclad-games/skirmish-core/logging/sinks"
)

const routerCloseTimeout = 5 * time.Second

var (
	runWidth, runHeight   float64
	runCellSize           float64
	runActorRadius        float64
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the movement loop and task kernel and block until interrupted",
	RunE:  runSimcore,
}

func init() {
	runCmd.Flags().Float64Var(&runWidth, "width", 1024, "navigation grid width")
	runCmd.Flags().Float64Var(&runHeight, "height", 1024, "navigation grid height")
	runCmd.Flags().Float64Var(&runCellSize, "cell-size", 32, "navigation grid cell size")
	runCmd.Flags().Float64Var(&runActorRadius, "actor-radius", 8, "default actor radius used for nav-blocker accounting")
}

func runSimcore(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logCfg := logging.DefaultConfig()
	namedSinks := []logging.NamedSink{
		{Name: "console", Sink: sinks.NewConsoleSink(os.Stdout, logCfg.Console)},
	}

	var bridge *debugbridge.Bridge
	if cfg.DebugBridge.Enabled {
		bridge = debugbridge.New()
		namedSinks = append(namedSinks, logging.NamedSink{Name: "debugbridge", Sink: bridge})
	}

	router, err := logging.NewRouter(nil, logCfg, namedSinks)
	if err != nil {
		return fmt.Errorf("simcore: start logging router: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	grid := nav.NewGrid(nil, runWidth, runHeight, runCellSize, runActorRadius)
	core := movement.Init(movement.Options{Nav: grid, Config: cfg.Movement, Publisher: router})
	defer core.Shutdown()

	loop := movement.NewLoop(core, cfg.MoveTickInterval(), router)
	go loop.Run(ctx, ctx.Done())

	kernel := task.New(ctx, router, nil)
	kernel.StartTickSource(cfg.MoveTickInterval())
	defer kernel.Shutdown()

	var httpServer *http.Server
	if bridge != nil {
		mux := http.NewServeMux()
		mux.HandleFunc("/ws", bridge.ServeHTTP)
		httpServer = &http.Server{Addr: cfg.DebugBridge.Addr, Handler: mux}
		go func() {
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				fmt.Fprintf(os.Stderr, "simcore: debug bridge: %v\n", err)
			}
		}()
		fmt.Printf("debug bridge listening on %s/ws\n", cfg.DebugBridge.Addr)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	cancel()
	if httpServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), routerCloseTimeout)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}
	closeCtx, closeCancel := context.WithTimeout(context.Background(), routerCloseTimeout)
	defer closeCancel()
	return router.Close(closeCtx)
}
