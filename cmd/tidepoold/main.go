package main

import (
	"flag"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tidepool/config"
	"tidepool/core"
	"tidepool/core/types"
	"tidepool/observability/logging"
	"tidepool/rpc"
	"tidepool/storage"
)

const envVar = "TIDEPOOL_ENV"

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	useMemDB := flag.Bool("memdb", false, "DEV ONLY: run against an in-memory database")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv(envVar))
	logger := logging.Setup("tidepoold", env)

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	var db storage.Database
	if *useMemDB {
		db = storage.NewMemDB()
	} else {
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			logger.Error("failed to create data dir", "error", err)
			os.Exit(1)
		}
		leveldb, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "state"))
		if err != nil {
			logger.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		db = leveldb
	}
	defer db.Close()

	node := core.NewNode(db)
	node.SetEventHandler(func(evt *types.Event) {
		args := make([]any, 0, 2*len(evt.Attributes))
		for key, value := range evt.Attributes {
			args = append(args, key, value)
		}
		logger.Info(evt.Type, args...)
	})

	if admin, ok, err := cfg.GenesisAdminAddress(); err != nil {
		logger.Error("invalid genesis admin", "error", err)
		os.Exit(1)
	} else if ok {
		if err := node.EnsureGenesisAdmin(admin); err != nil {
			logger.Error("failed to seed genesis admin", "error", err)
			os.Exit(1)
		}
	}

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info("metrics listener starting", "addr", cfg.MetricsAddress)
		if err := http.ListenAndServe(cfg.MetricsAddress, mux); err != nil {
			logger.Error("metrics listener stopped", "error", err)
		}
	}()

	server := rpc.NewServer(node)
	logger.Info("rpc listener starting", "addr", cfg.RPCAddress)
	if err := server.Start(cfg.RPCAddress); err != nil {
		logger.Error("rpc listener stopped", "error", err)
		os.Exit(1)
	}
}
