package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/jolovicdev/kaidos/app/cli"
	"github.com/jolovicdev/kaidos/app/services/node/handlers"
	"github.com/jolovicdev/kaidos/foundation/blockchain/genesis"
	"github.com/jolovicdev/kaidos/foundation/blockchain/peer"
	"github.com/jolovicdev/kaidos/foundation/blockchain/signature"
	"github.com/jolovicdev/kaidos/foundation/blockchain/state"
	"github.com/jolovicdev/kaidos/foundation/blockchain/storage"
	"github.com/jolovicdev/kaidos/foundation/blockchain/storage/disk"
	"github.com/jolovicdev/kaidos/foundation/blockchain/storage/memory"
	"github.com/jolovicdev/kaidos/foundation/blockchain/worker"
	"github.com/jolovicdev/kaidos/foundation/events"
	"github.com/jolovicdev/kaidos/foundation/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// build is the git version of this program, set with build flags.
var build = "develop"

var (
	startHost      string
	startPort      int
	knownPeersFlag []string
	inMemory       bool
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Run the node's mining, peer-sync, and HTTP API server",
	Run: func(cmd *cobra.Command, args []string) {
		log, err := logger.New("NODE")
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		defer log.Sync()

		if err := runStart(log); err != nil {
			log.Errorw("startup", "ERROR", err)
			log.Sync()
			cli.Fail(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
	startCmd.Flags().StringVar(&startHost, "host", "0.0.0.0", "Address the API server binds to.")
	startCmd.Flags().IntVar(&startPort, "port", 9080, "Port the API server binds to.")
	startCmd.Flags().StringSliceVar(&knownPeersFlag, "peer", nil, "Known peer host:port, may be repeated.")
	startCmd.Flags().BoolVar(&inMemory, "in-memory", false, "Use an in-memory store instead of the on-disk one under --data-dir.")
}

func runStart(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	cfg := struct {
		conf.Version
		Web struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:10s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			DebugHost       string        `conf:"default:0.0.0.0:7080"`
		}
		State struct {
			PeerSetCap int `conf:"default:32"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "a small UTXO chain for learning how one works end to end",
		},
	}

	const prefix = "NODE"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	apiHost := fmt.Sprintf("%s:%d", startHost, startPort)

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out, "api_host", apiHost, "data_dir", dataDir)

	// =========================================================================
	// Miner identity

	privateKey, err := loadOrCreateMinerKey(filepath.Join(dataDir, "miner.key"))
	if err != nil {
		return fmt.Errorf("loading miner key: %w", err)
	}

	minerAddr, err := signature.PublicKeyToAddress(privateKey.Public().String())
	if err != nil {
		return fmt.Errorf("deriving miner address: %w", err)
	}
	log.Infow("startup", "status", "miner address", "address", minerAddr)

	// =========================================================================
	// Peers and genesis

	peerSet := peer.NewPeerSet(cfg.State.PeerSetCap)
	for _, host := range knownPeersFlag {
		if host == "" {
			continue
		}
		if _, err := peerSet.Add(peer.New(host)); err != nil {
			log.Warnw("startup", "status", "peer not added", "host", host, "ERROR", err)
		}
	}

	gen, err := genesis.Load(filepath.Join(dataDir, "genesis.json"))
	if err != nil {
		return fmt.Errorf("loading genesis: %w", err)
	}

	var store storage.Storer
	if inMemory {
		store = memory.New()
	} else {
		store, err = disk.Open(filepath.Join(dataDir, "chain.db"))
		if err != nil {
			return fmt.Errorf("opening storage: %w", err)
		}
	}

	// =========================================================================
	// Events and state

	evts := events.New()
	ev := func(v string, args ...any) {
		s := fmt.Sprintf(v, args...)
		log.Infow(s, "traceid", "00000000-0000-0000-0000-000000000000")
		evts.Send(s)
	}

	st, err := state.New(state.Config{
		MinerAddress: minerAddr,
		Host:         apiHost,
		Genesis:      gen,
		KnownPeers:   peerSet,
		Storage:      store,
		EvHandler:    ev,
	})
	if err != nil {
		return fmt.Errorf("constructing state: %w", err)
	}
	defer st.Shutdown()

	w := worker.Run(st, cfg.State.PeerSetCap, worker.EventHandler(ev))
	defer w.Shutdown()

	if st.MempoolCount() > 0 {
		log.Infow("startup", "status", "mining pending mempool restored from disk", "count", st.MempoolCount())
		w.SignalStartMining()
	}

	// =========================================================================
	// Debug service

	log.Infow("startup", "status", "debug router started", "host", cfg.Web.DebugHost)
	go func() {
		if err := http.ListenAndServe(cfg.Web.DebugHost, handlers.DebugMux()); err != nil {
			log.Errorw("shutdown", "status", "debug router closed", "host", cfg.Web.DebugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// API service

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	mux := handlers.Mux(handlers.MuxConfig{
		Shutdown: shutdown,
		Log:      log,
		State:    st,
		Evts:     evts,
	})

	api := http.Server{
		Addr:         apiHost,
		Handler:      mux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	go func() {
		log.Infow("startup", "status", "api router started", "host", api.Addr)
		serverErrors <- api.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		if err := api.Shutdown(ctx); err != nil {
			api.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	return nil
}

// loadOrCreateMinerKey loads the miner's private key from path, generating
// and persisting a fresh one on first run.
func loadOrCreateMinerKey(path string) (signature.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		return signature.PrivateKeyFromHex(string(data))
	}
	if !os.IsNotExist(err) {
		return signature.PrivateKey{}, err
	}

	priv, err := signature.GenerateKey()
	if err != nil {
		return signature.PrivateKey{}, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return signature.PrivateKey{}, err
	}
	if err := os.WriteFile(path, []byte(priv.String()), 0o600); err != nil {
		return signature.PrivateKey{}, err
	}

	return priv, nil
}
