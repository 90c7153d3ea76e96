// cmd/orandd is the randomness service daemon: it loads configuration,
// opens the relational store, bootstraps the operator keyring if it does
// not already exist, and serves the JSON-RPC surface of SPEC_FULL.md §6
// until a termination signal arrives.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/orandlabs/orand/internal/config"
	"github.com/orandlabs/orand/internal/epoch"
	"github.com/orandlabs/orand/internal/rpc"
	"github.com/orandlabs/orand/internal/store"
	"github.com/orandlabs/orand/internal/vrf"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync() //nolint:errcheck

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config load failed", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Store ────────────────────────────────────────────────────────────────
	st, err := store.Open(cfg.Database.DSN)
	if err != nil {
		log.Fatal("store open failed", zap.Error(err))
	}
	if err := st.Migrate(ctx); err != nil {
		log.Fatal("store migrate failed", zap.Error(err))
	}

	// ── Operator keyring bootstrap ──────────────────────────────────────────
	opKP, err := bootstrapOperatorKeyring(ctx, st, cfg, log)
	if err != nil {
		log.Fatal("operator keyring bootstrap failed", zap.Error(err))
	}
	defer opKP.Zero()

	log.Info("operator public key", zap.String("public_key", opKP.Public.PublicKeyHex()))

	ctrl := epoch.New(st, opKP.Secret, cfg.Testnet, log)
	rpcServer := rpc.NewServer(st, ctrl, cfg.Keyring.AdminUser, log)

	// ── HTTP server ───────────────────────────────────────────────────────────
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	rpcServer.Register(r.Group("/"))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Info("HTTP server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	log.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	}
	log.Info("shutdown complete")
}

// bootstrapOperatorKeyring mirrors original_source/node/main.rs's startup
// sequence: look up the admin keyring by username, creating it with a fresh
// (or env-provided) keypair on first run, then load its secret key as the
// operator's signing identity.
func bootstrapOperatorKeyring(ctx context.Context, st store.Store, cfg *config.Config, log *zap.Logger) (*vrf.KeyPair, error) {
	k, err := st.GetKeyring(ctx, cfg.Keyring.AdminUser)
	if err == nil {
		return vrf.KeyPairFromHex(k.SecretKey)
	}
	if !errors.Is(err, store.ErrKeyringNotFound) {
		return nil, err
	}

	var kp *vrf.KeyPair
	if cfg.Keyring.OperatorSecretKeyHex != "" {
		kp, err = vrf.KeyPairFromHex(cfg.Keyring.OperatorSecretKeyHex)
	} else {
		kp, err = vrf.NewKeyPair()
	}
	if err != nil {
		return nil, fmt.Errorf("load operator keypair: %w", err)
	}

	hmacSecret, err := randomHexSecret(32)
	if err != nil {
		return nil, err
	}
	skBytes := kp.Secret.Bytes()
	_, err = st.CreateKeyring(ctx, cfg.Keyring.AdminUser, hmacSecret, kp.Public.PublicKeyHex(), hex.EncodeToString(skBytes[:]))
	if err != nil {
		return nil, err
	}
	log.Info("bootstrapped operator keyring", zap.String("username", cfg.Keyring.AdminUser))
	return kp, nil
}

// randomHexSecret draws n cryptographically random bytes and hex-encodes
// them, used for a freshly bootstrapped keyring's HMAC secret.
func randomHexSecret(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate hmac secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
