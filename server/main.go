package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/burntcarrot/treesync/internal/host"
	"github.com/burntcarrot/treesync/internal/telemetry"
	"github.com/burntcarrot/treesync/params"
	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

func main() {
	// Parse flags.
	addr := flag.String("addr", ":8080", "Server's network address")
	path := flag.String("path", "/ui", "WebSocket path clients connect to")
	treeID := flag.String("tree", "PARAMETERS", "Id announced for the parameters tree")
	vertices := flag.Int("vertices", 6, "Number of vertices in the initial polygon")
	metrics := flag.Bool("metrics", true, "Serve Prometheus metrics on /metrics")
	debug := flag.Bool("debug", false, "Log every parameter change")
	flag.Parse()

	if *debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	h := host.New(*treeID, params.NewTree(*treeID, *vertices))

	mux := http.NewServeMux()
	mux.Handle(*path, h)
	if *metrics {
		mux.Handle("/metrics", telemetry.MetricsHandler())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Handle connection events.
	go func() {
		_ = h.Run(ctx)
	}()

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	// Start the server.
	color.Green("%s >> serving tree %q on %s%s\n", time.Now().Format(time.ANSIC), *treeID, *addr, *path)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("Error starting server, exiting. ", err)
	}
	color.Yellow("Server stopped.")
}
