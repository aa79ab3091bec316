package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/burntcarrot/treesync/valuetree"
	"github.com/fatih/color"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/writer"
)

// Flags represents the command-line flags that are passed to treesync's client.
type Flags struct {
	Server  string
	Path    string
	Secure  bool
	Tree    string
	Debug   bool
	TUI     bool
	Metrics string
}

// parseFlags parses command-line flags.
func parseFlags() Flags {
	serverAddr := flag.String("server", "localhost:8080", "The network address of the host")
	path := flag.String("path", "/ui", "The WebSocket path on the host")
	useSecureConn := flag.Bool("secure", false, "Enable a secure WebSocket connection (wss://)")
	treeID := flag.String("tree", "PARAMETERS", "The id of the tree to synchronise")
	enableDebug := flag.Bool("debug", false, "Enable debugging mode to show more verbose logs")
	enableTUI := flag.Bool("tui", false, "Show the replica in a terminal inspector")
	metricsAddr := flag.String("metrics", "", "Serve Prometheus metrics on this address (disabled when empty)")

	flag.Parse()

	return Flags{
		Server:  *serverAddr,
		Path:    *path,
		Secure:  *useSecureConn,
		Tree:    *treeID,
		Debug:   *enableDebug,
		TUI:     *enableTUI,
		Metrics: *metricsAddr,
	}
}

// createConn creates a WebSocket connection.
func createConn(flags Flags) (*websocket.Conn, *http.Response, error) {
	u := url.URL{Scheme: "ws", Host: flags.Server, Path: flags.Path}
	if flags.Secure {
		u.Scheme = "wss"
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 2 * time.Minute,
	}

	return dialer.Dial(u.String(), nil)
}

// ensureDirExists ensures that a directory exists, and if it isn't present, it tries to create a new one.
func ensureDirExists(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return true, nil
	}

	err := os.Mkdir(path, 0700)
	if err != nil {
		return false, err
	}

	return true, nil
}

// setupLogger sends warnings and errors to treesync.log, and everything
// below to treesync-debug.log, both under ~/.treesync when it is available.
func setupLogger(logger *logrus.Logger) (*os.File, *os.File, error) {
	logPath := "treesync.log"
	debugLogPath := "treesync-debug.log"

	homeDir, err := os.UserHomeDir()
	if err == nil {
		dir := filepath.Join(homeDir, ".treesync")

		dirExists, err := ensureDirExists(dir)
		if err != nil {
			return nil, nil, err
		}
		if dirExists {
			logPath = filepath.Join(dir, logPath)
			debugLogPath = filepath.Join(dir, debugLogPath)
		}
	}

	logFile, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644) // skipcq: GSC-G302
	if err != nil {
		return nil, nil, err
	}

	debugLogFile, err := os.OpenFile(debugLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644) // skipcq: GSC-G302
	if err != nil {
		logFile.Close()
		return nil, nil, err
	}

	logger.SetOutput(io.Discard)
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.AddHook(&writer.Hook{
		Writer: logFile,
		LogLevels: []logrus.Level{
			logrus.WarnLevel,
			logrus.ErrorLevel,
			logrus.FatalLevel,
			logrus.PanicLevel,
		},
	})
	logger.AddHook(&writer.Hook{
		Writer: debugLogFile,
		LogLevels: []logrus.Level{
			logrus.TraceLevel,
			logrus.DebugLevel,
			logrus.InfoLevel,
		},
	})

	return logFile, debugLogFile, nil
}

// closeLogFiles closes the log files created by the client.
// closeLogFiles is meant to be used for defer calls.
func closeLogFiles(logFile, debugLogFile *os.File) {
	if err := logFile.Close(); err != nil {
		fmt.Printf("Failed to close log file: %s", err)
		return
	}

	if err := debugLogFile.Close(); err != nil {
		fmt.Printf("Failed to close debug log file: %s", err)
		return
	}
}

// printTree writes the replica to stdout, and to the debug log in debug mode.
func printTree(tree *valuetree.Tree) {
	color.Cyan("%s", tree)

	if flags.Debug {
		logger.Infof("---TREE STATE---\n%s", tree)
	}
}
