package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vctt94/bisonbotkit/logging"

	"github.com/squeakgame/squeak/pkg/gateway"
	"github.com/squeakgame/squeak/pkg/server"
	"github.com/squeakgame/squeak/pkg/utils"
)

func main() {
	var (
		datadir    string
		dbPath     string
		host       string
		port       int
		portFile   string
		debugLevel string
	)
	flag.StringVar(&datadir, "datadir", "", "Data directory (defaults to ~/.squeaksrv)")
	flag.StringVar(&dbPath, "db", "", "Path to SQLite database file (created if missing)")
	flag.StringVar(&host, "host", "127.0.0.1", "Host to listen on")
	flag.IntVar(&port, "port", 8080, "Port to listen on (0 for random free port)")
	flag.StringVar(&portFile, "portfile", "", "If set, write selected port to this file")
	flag.StringVar(&debugLevel, "debuglevel", "info", "Logging level: trace, debug, info, warn, error")
	flag.Parse()

	if datadir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to resolve home dir: %v\n", err)
			os.Exit(1)
		}
		datadir = filepath.Join(home, ".squeaksrv")
	}
	if err := utils.EnsureDataDirExists(datadir); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if dbPath == "" {
		dbPath = filepath.Join(datadir, "squeak.sqlite")
	}

	// Init DB
	db, err := server.NewDatabase(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init db: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// Logging backend
	logBackend, err := logging.NewLogBackend(logging.LogConfig{
		LogFile:    filepath.Join(datadir, "logs", "squeaksrv.log"),
		DebugLevel: debugLevel,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logging: %v\n", err)
		os.Exit(1)
	}
	log := logBackend.Logger("MAIN")

	// Create server and websocket gateway
	squeakSrv := server.NewServer(db, logBackend)
	gw := gateway.New(squeakSrv, logBackend)

	mux := http.NewServeMux()
	gw.Register(mux)

	lis, err := net.Listen("tcp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to listen: %v\n", err)
		os.Exit(1)
	}

	// Optionally write chosen port
	if portFile != "" {
		_, p, _ := net.SplitHostPort(lis.Addr().String())
		_ = os.WriteFile(portFile, []byte(p), 0600)
	}

	httpSrv := &http.Server{Handler: mux}
	errChan := make(chan error, 1)
	go func() {
		errChan <- httpSrv.Serve(lis)
	}()
	log.Infof("Listening on %s", lis.Addr())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Infof("Received %v, shutting down", sig)
	case err := <-errChan:
		log.Errorf("HTTP server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		log.Errorf("HTTP shutdown: %v", err)
	}
	squeakSrv.Stop()
}
