package main

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/supernode-chain/corevm/internal/chainlog"
	"github.com/supernode-chain/corevm/internal/chaintypes"
	"github.com/supernode-chain/corevm/internal/consensus"
	"github.com/supernode-chain/corevm/internal/difficulty"
	"github.com/supernode-chain/corevm/internal/mempool"
	"github.com/supernode-chain/corevm/internal/p2p"
	"github.com/supernode-chain/corevm/internal/store"
)

// ServerConfig holds HTTP server configuration, carried over field-for-
// field from cmd/fullnode/main.go's ServerConfig.
type ServerConfig struct {
	Address      string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultServerConfig returns default server configuration.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Address:      "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

func main() {
	logger := chainlog.New("chainnode", chainlog.LevelInfo)

	storeConfig := store.DefaultConfig()
	if dbPath := os.Getenv("CHAINNODE_SQLITE_PATH"); dbPath != "" {
		storeConfig.Backend = store.BackendSQLite
		storeConfig.SQLitePath = dbPath
	}

	serverConfig := DefaultServerConfig()
	if addr := os.Getenv("CHAINNODE_ADDRESS"); addr != "" {
		serverConfig.Address = addr
	}
	if portStr := os.Getenv("CHAINNODE_PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil {
			serverConfig.Port = port
		}
	}

	db, err := store.Open(storeConfig)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer db.Close()

	pool := mempool.New(16384)

	pub, priv, err := loadOrGenerateKeypair()
	if err != nil {
		log.Fatalf("failed to load keypair: %v", err)
	}

	driver, stopDriver, err := maybeStartDriver(pub, priv, db, pool, logger)
	if err != nil {
		log.Fatalf("failed to start consensus driver: %v", err)
	}
	if stopDriver != nil {
		defer stopDriver()
	}

	rpcServer := &Server{Store: db, Mempool: pool}
	if driver != nil {
		rpcServer.StatusFn = func() NetworkStatus {
			st := driver.Status()
			return NetworkStatus{Phase: string(st.Phase), Height: st.Height, Round: st.Round, Epoch: st.Epoch}
		}
	}

	router := mux.NewRouter()
	router.Handle("/rpc", rpcServer).Methods(http.MethodPost)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)

	corsHandler := cors.Default().Handler(router)
	loggedHandler := handlers.LoggingHandler(os.Stdout, corsHandler)

	httpServer := &http.Server{
		Addr:         serverConfig.Address + ":" + strconv.Itoa(serverConfig.Port),
		Handler:      loggedHandler,
		ReadTimeout:  serverConfig.ReadTimeout,
		WriteTimeout: serverConfig.WriteTimeout,
		IdleTimeout:  serverConfig.IdleTimeout,
	}

	go func() {
		logger.Info("starting chainnode RPC server", map[string]interface{}{"addr": httpServer.Addr})
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down chainnode", nil)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", map[string]interface{}{"error": err.Error()})
	}
}

// loadOrGenerateKeypair reads an Ed25519 seed from CHAINNODE_SEED_HEX
// (64 hex chars) or generates an ephemeral keypair, matching
// chainerrors.ErrMissingKeypair's bootstrap-category intent without
// forcing an operator to provision one for a standalone/dev run.
func loadOrGenerateKeypair() (ed25519.PublicKey, ed25519.PrivateKey, error) {
	if seedHex := os.Getenv("CHAINNODE_SEED_HEX"); seedHex != "" {
		seed, err := hex.DecodeString(seedHex)
		if err != nil {
			return nil, nil, fmt.Errorf("decode CHAINNODE_SEED_HEX: %w", err)
		}
		if len(seed) != ed25519.SeedSize {
			return nil, nil, fmt.Errorf("CHAINNODE_SEED_HEX: expected %d bytes, got %d", ed25519.SeedSize, len(seed))
		}
		priv := ed25519.NewKeyFromSeed(seed)
		return priv.Public().(ed25519.PublicKey), priv, nil
	}
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, nil, err
	}
	return pub, priv, nil
}

// maybeStartDriver wires a single-member consensus driver when
// CHAINNODE_SOLO=1 is set, for standalone/dev operation; a multi-node
// deployment instead wires p2p.ConsensusGossip and a real
// consensus.CommitteeProvider (left to the deployment's own entrypoint
// per §9 open question 4, external committee rotation).
func maybeStartDriver(pub ed25519.PublicKey, priv ed25519.PrivateKey, db store.Store, pool *mempool.Pool, logger *chainlog.Logger) (*consensus.Driver, func(), error) {
	if os.Getenv("CHAINNODE_SOLO") != "1" {
		return nil, nil, nil
	}

	adapter := store.NewConsensusAdapter(db, func(op string, err error) {
		logger.Warn("store adapter error", map[string]interface{}{"op": op, "error": err.Error()})
	})

	cfg := consensus.DefaultConfig()
	cfg.CommitteeSize = 1
	cfg.RewardedTopX = 1

	diffCtl := difficulty.New(cfg.DifficultyWindow, cfg.BlockTimeMs, chaintypes.DifficultyTargetFromUint64(1<<32))

	host := p2p.NewP2PHost(nil)
	if err := host.Start(context.Background()); err != nil {
		return nil, nil, err
	}

	deps := consensus.Deps{
		PublicKey:  pub,
		PrivateKey: priv,
		Gossip:     p2p.NewConsensusGossip(host),
		Committee:  soloCommittee{member: consensus.CommitteeMember{PublicKey: pub, Stake: 1, UptimeRatio: 1}},
		Blocks:     adapter,
		Chain:      adapter,
		Accounts:   adapter,
		Mempool:    pool,
		Difficulty: diffCtl,
		Log:        logger,
	}

	driver := consensus.New(cfg, deps)
	if err := driver.Start(context.Background()); err != nil {
		host.Stop(context.Background())
		return nil, nil, err
	}

	stop := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		driver.Stop(ctx)
		host.Stop(ctx)
	}
	return driver, stop, nil
}

type soloCommittee struct {
	member consensus.CommitteeMember
}

func (s soloCommittee) Snapshot(epoch uint64) []consensus.CommitteeMember {
	return []consensus.CommitteeMember{s.member}
}
