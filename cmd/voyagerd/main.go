// Command voyagerd is the relayer daemon: it loads configuration, opens
// the op queue's Postgres store (and optional Firestore mirror), wires a
// consensus-module plugin per configured chain, registers any
// out-of-process chain backends reachable over the plugin RPC protocol,
// starts the worker pool draining the queue, and serves the admin HTTP
// API. Grounded on the teacher's main.go composition-root shape (flag
// parsing, phased startup logging, small adapter types defined inline),
// generalized from a single BFT validator process to a multi-chain
// relayer daemon.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/unionlabs/voyager/pkg/config"
	"github.com/unionlabs/voyager/pkg/consensusmod"
	"github.com/unionlabs/voyager/pkg/ibc"
	"github.com/unionlabs/voyager/pkg/metrics"
	"github.com/unionlabs/voyager/pkg/opqueue"
	"github.com/unionlabs/voyager/pkg/plugin"
	pluginrpc "github.com/unionlabs/voyager/pkg/plugin/rpc"
	"github.com/unionlabs/voyager/pkg/server"
)

// relayBuckets are the opqueue buckets the worker pool drains. "relay"
// carries ordinary handshake/packet datagrams; "submit" carries the
// terminal tx-submission Call ops a DatagramAssembler's Seq bottoms out
// in, kept separate so a burst of submissions never starves new relay
// work from being picked up.
var relayBuckets = []string{"relay", "submit"}

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	var (
		chainsPath = flag.String("chains", "", "path to chains.yaml (overrides VOYAGER_CHAINS_CONFIG)")
		showHelp   = flag.Bool("help", false, "show help message")
	)
	flag.Parse()

	if *showHelp {
		printHelp()
		return
	}

	log.Printf("voyagerd: starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("voyagerd: load config: %v", err)
	}
	if *chainsPath != "" {
		cfg.ChainsConfigPath = *chainsPath
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("voyagerd: %v", err)
	}

	log.Printf("voyagerd: relaying between %d configured chains", len(cfg.Chains))

	store, err := opqueue.NewPostgresStore(opqueue.PostgresConfig{
		DSN:             cfg.DatabaseURL,
		MaxOpenConns:    cfg.DatabaseMaxOpenConns,
		MaxIdleConns:    cfg.DatabaseMaxIdleConns,
		ConnMaxLifetime: cfg.DatabaseConnMaxLifetime,
	})
	if err != nil {
		log.Fatalf("voyagerd: open queue store: %v", err)
	}
	queue := opqueue.New(store)
	log.Printf("voyagerd: connected to opqueue Postgres store")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.FirestoreEnabled {
		mirror, err := opqueue.NewFirestoreMirror(ctx, opqueue.FirestoreMirrorConfig{
			ProjectID:       cfg.FirebaseProjectID,
			CredentialsFile: cfg.FirebaseCredentialsFile,
			Enabled:         true,
			Collection:      "opqueue_items",
			Logger:          log.New(log.Writer(), "[OpQueueMirror] ", log.LstdFlags),
		})
		if err != nil {
			log.Printf("voyagerd: firestore mirror disabled: %v", err)
		} else {
			defer mirror.Close()
			log.Printf("voyagerd: firestore mirror active")
		}
	}

	registry := plugin.NewRegistry()
	registerChainPlugins(registry, cfg.Chains)

	promReg := prometheus.NewRegistry()
	metrics.Register(promReg)

	callbacks := opqueue.NewCallbacks()
	router := plugin.NewRouter(registry, callbacks)

	workerCfg := opqueue.DefaultWorkerConfig(relayBuckets)
	workerCfg.Concurrency = cfg.WorkerConcurrency
	workerCfg.PollInterval = cfg.WorkerPollInterval
	worker := opqueue.NewWorker(queue, router, workerCfg)
	worker.Start(ctx)
	defer worker.Stop()
	log.Printf("voyagerd: worker pool started, concurrency=%d", cfg.WorkerConcurrency)

	srv := server.New(server.Config{
		Queue:      queue,
		Registry:   registry,
		Buckets:    relayBuckets,
		Prometheus: promReg,
	})
	httpServer := &http.Server{Addr: cfg.ListenAddr, Handler: srv.Handler()}
	go func() {
		log.Printf("voyagerd: admin API listening on %s", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("voyagerd: admin API stopped: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("voyagerd: shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = httpServer.Shutdown(shutdownCtx)
	cancel()
}

// registerChainPlugins wires one plugin per configured chain: a
// consensusmod.Module for any chain relaying over the cometbft-tracked
// IBC interfaces (the only consensus format this binary speaks natively),
// and an out-of-process RPC client for any chain whose HandlerAddr has an
// "rpc:" prefix (the rest is dialed as a TCP address), deferring to that
// process for everything
// (header fetch, proof fetch, submission) the native module can't do.
// Registration failures are logged, not fatal: a relayer instance missing
// one leg of a pair still serves its admin API and the legs it has.
func registerChainPlugins(registry *plugin.Registry, chains []config.ChainConfig) {
	for _, chain := range chains {
		switch {
		case strings.HasPrefix(chain.HandlerAddr, "rpc:"):
			addr := strings.TrimPrefix(chain.HandlerAddr, "rpc:")
			client, err := pluginrpc.Dial("tcp", addr)
			if err != nil {
				log.Printf("voyagerd: chain %s: dial plugin at %s: %v", chain.ChainID, addr, err)
				continue
			}
			if err := registry.Register(client); err != nil {
				log.Printf("voyagerd: chain %s: register rpc plugin: %v", chain.ChainID, err)
				continue
			}
			log.Printf("voyagerd: chain %s: registered out-of-process plugin at %s", chain.ChainID, addr)

		case strings.HasPrefix(chain.Interface, "ibc-go") || chain.Interface == "ibc-cosmwasm":
			mod, err := consensusmod.New(ibc.ChainId(chain.ChainID), chain.RPCURL)
			if err != nil {
				log.Printf("voyagerd: chain %s: consensus module: %v", chain.ChainID, err)
				continue
			}
			if err := registry.Register(mod); err != nil {
				log.Printf("voyagerd: chain %s: register consensus module: %v", chain.ChainID, err)
				continue
			}
			log.Printf("voyagerd: chain %s: registered cometbft consensus module", chain.ChainID)

		default:
			log.Printf("voyagerd: chain %s: interface %q has no built-in plugin; configure an rpc: handler_addr to supply one out-of-process", chain.ChainID, chain.Interface)
		}
	}
}

func printHelp() {
	fmt.Println(`voyagerd - cross-chain IBC relayer daemon

Usage:
  voyagerd [flags]

Flags:
  --chains string   path to chains.yaml (overrides VOYAGER_CHAINS_CONFIG)
  --help            show this help message

Environment:
  VOYAGER_LISTEN_ADDR          admin HTTP API address (default 0.0.0.0:7777)
  VOYAGER_METRICS_ADDR         reserved for a future standalone metrics listener
  VOYAGER_DATABASE_URL         Postgres DSN for the op queue store (required)
  VOYAGER_CHAINS_CONFIG        path to chains.yaml (default ./chains.yaml)
  VOYAGER_WORKER_CONCURRENCY   worker pool size (default 4)
  VOYAGER_WORKER_POLL_INTERVAL worker poll interval (default 2s)
  VOYAGER_FIRESTORE_ENABLED    open the Firestore mirror client (default false);
                               queue transitions are not written to it`)
}
