package main

import (
	"flag"
	"log"
	"net/http"
	"path/filepath"

	"redraft/engine/internal/appdirs"
	"redraft/engine/internal/envfile"
	"redraft/engine/internal/envutil"
	"redraft/engine/internal/logging"
	"redraft/engine/internal/store"
)

func main() {
	envfile.Load()
	var addr, dbPath string
	flag.StringVar(&addr, "addr", envutil.String("REDRAFT_STORE_ADDR", "127.0.0.1:9600"), "listen address")
	flag.StringVar(&dbPath, "db", "", "SQLite database path (default <data-dir>/store.db)")
	flag.Parse()

	logger := logging.Stderr(envutil.Bool("REDRAFT_DEBUG")).With("component", "store")
	if dbPath == "" {
		dataDir, err := appdirs.DataDir()
		if err != nil {
			log.Fatalf("store init failed: %v", err)
		}
		dbPath = filepath.Join(dataDir, "store.db")
	}

	db, err := store.OpenDB(dbPath)
	if err != nil {
		logger.Error("store.open_failed", "path", dbPath, "error", err.Error())
		log.Fatalf("store init failed: %v", err)
	}
	defer db.Close()

	server := store.NewServer(db, store.WithLogger(logger))
	logger.Info("store.listening", "addr", addr, "db", dbPath)
	if err := http.ListenAndServe(addr, server.Handler()); err != nil {
		logger.Error("store.server_error", "error", err.Error())
		log.Fatalf("store server error: %v", err)
	}
}
