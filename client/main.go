package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/burntcarrot/treesync/commons"
	"github.com/burntcarrot/treesync/dispatch"
	"github.com/burntcarrot/treesync/internal/telemetry"
	"github.com/burntcarrot/treesync/tui"
	"github.com/burntcarrot/treesync/valuetree"
	"github.com/burntcarrot/treesync/wire"
	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

var (
	flags  Flags
	logger = logrus.New()
)

func main() {
	flags = parseFlags()

	logFile, debugLogFile, err := setupLogger(logger)
	if err != nil {
		fmt.Printf("Failed to setup logger, exiting: %s\n", err)
		os.Exit(1)
	}
	defer closeLogFiles(logFile, debugLogFile)

	if flags.Debug {
		logger.SetLevel(logrus.DebugLevel)
	}
	wire.SetLogger(logger)
	valuetree.SetLogger(logger)
	dispatch.SetLogger(logger)

	if flags.Metrics != "" {
		go serveMetrics(flags.Metrics)
	}

	conn, _, err := createConn(flags)
	if err != nil {
		color.Red("Connection error, exiting: %s\n", err)
		return
	}
	defer conn.Close()

	e := newEngine(conn, flags.Tree)
	msgs := getMsgChan(conn)

	if err := e.requestSync(); err != nil {
		color.Red("Failed to request the initial sync: %s\n", err)
		return
	}

	if flags.TUI {
		if err := runInspector(e, msgs); err != nil {
			color.Red("Inspector error: %s\n", err)
		}
		return
	}

	color.Green("Connected to %s, synchronising tree %q\n", flags.Server, flags.Tree)
	e.replica.Observe(func() {
		printTree(e.replica.Snapshot())
	})

	e.run(msgs)
	color.Red("Host closed the connection. Exiting...")
}

// runInspector shows the replica in the terminal inspector until the user quits.
func runInspector(e *engine, msgs <-chan commons.Message) error {
	inspector := tui.NewInspector(flags.Tree, tui.WithSet(e.set), tui.WithResync(e.requestSync))

	e.replica.Observe(func() {
		inspector.Show(tui.TreeMsg{
			Tree:      e.replica.Snapshot().String(),
			Synced:    e.replica.Synced(),
			OutOfSync: e.replica.OutOfSync(),
		})
	})

	go func() {
		e.run(msgs)
		inspector.Quit()
	}()

	return inspector.Run()
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", telemetry.MetricsHandler())

	logger.Infof("serving metrics on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Errorf("metrics server: %v", err)
	}
}
