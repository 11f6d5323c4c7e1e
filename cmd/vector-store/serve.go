package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/scylladb/vector-store/internal/dbclient/cql"
	"github.com/scylladb/vector-store/internal/engine"
	"github.com/scylladb/vector-store/internal/httpapi"
	"github.com/scylladb/vector-store/internal/logging"
	"github.com/scylladb/vector-store/internal/metrics"
	"github.com/scylladb/vector-store/internal/monitorindexes"
	"github.com/scylladb/vector-store/internal/nodestate"
	"github.com/scylladb/vector-store/internal/vectorindex"
	"github.com/scylladb/vector-store/pkg/config"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the vector-store node: connect to ScyllaDB, serve ANN search over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe() error {
	cfg, err := config.LoadFile(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	log := logging.GetLogger("main")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	node := nodestate.New(ctx)
	node.SendEvent(ctx, nodestate.EventConnectingToDb())

	log.Info("connecting to scylla", "uri", cfg.Scylla.URI)
	db, err := cql.Open(cql.Config{URI: cfg.Scylla.URI})
	if err != nil {
		return fmt.Errorf("connecting to scylla: %w", err)
	}
	defer db.Close()
	node.SendEvent(ctx, nodestate.EventConnectedToDb())

	m := metrics.NewRegistry()

	factory, err := buildIndexFactory(cfg.VectorIndex)
	if err != nil {
		return fmt.Errorf("configuring vector index backend: %w", err)
	}

	eng := engine.New(ctx, db, factory, node, m, cfg.Server.BackgroundThreads)

	go monitorindexes.Run(ctx, db, eng, node)

	server := httpapi.NewServer(cfg, eng, node, m)

	if err := server.StartWithContext(ctx, shutdownTimeout); err != nil {
		return fmt.Errorf("serving: %w", err)
	}
	return nil
}

// buildIndexFactory selects the ANN backend every declared index is built
// against. The "qdrant" backend shares a single collection across every
// index on this node: vectorindex.Factory has no IndexId parameter to key a
// per-index collection off of, so there is nothing short of changing that
// interface that would let two indexes get separate collections here.
func buildIndexFactory(cfg config.VectorIndexConfig) (vectorindex.Factory, error) {
	switch cfg.Backend {
	case "bruteforce", "":
		return vectorindex.NewBruteForce(), nil
	case "qdrant":
		return vectorindex.NewQdrant(vectorindex.QdrantConfig{
			URL:     cfg.QdrantURL,
			Timeout: time.Duration(cfg.QdrantTimeoutSeconds) * time.Second,
		}, "vector-store"), nil
	default:
		return nil, fmt.Errorf("unknown vector index backend %q", cfg.Backend)
	}
}
