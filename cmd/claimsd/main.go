// Package main serves the claims HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kylejryan/claims-intake-backend/internal/authz"
	"github.com/kylejryan/claims-intake-backend/internal/awsutil"
	"github.com/kylejryan/claims-intake-backend/internal/config"
	"github.com/kylejryan/claims-intake-backend/internal/ddb"
	"github.com/kylejryan/claims-intake-backend/internal/identity"
	"github.com/kylejryan/claims-intake-backend/internal/notify"
	"github.com/kylejryan/claims-intake-backend/internal/s3io"
	"github.com/kylejryan/claims-intake-backend/internal/server"

	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

const shutdownTimeout = 10 * time.Second

// main loads configuration, wires the AWS clients and serves until SIGINT or SIGTERM.
func main() {
	env := config.MustLoad()
	slog.SetDefault(config.NewLogger(env.LogLevel))
	if err := env.RequireIdentity(); err != nil {
		slog.Error("claimsd: config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, env); err != nil {
		slog.Error("claimsd: exit", "error", err)
		os.Exit(1)
	}
}

// run builds every component once and blocks until ctx is done.
func run(ctx context.Context, env config.Env) error {
	cfg, err := awsutil.Load(ctx, env.Region, env.Endpoint)
	if err != nil {
		return fmt.Errorf("load aws config: %w", err)
	}

	s3c := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = awsutil.PathStyle(env.Endpoint)
	})
	repo := ddb.NewRepo(dynamodb.NewFromConfig(cfg), env.Table)
	attachments := s3io.NewStore(s3c, env.Bucket, env.PresignTTL())
	publisher := notify.NewPublisher(sns.NewFromConfig(cfg), env.TopicARN)

	if env.DevBypassAuth {
		slog.Warn("claimsd: DEV_BYPASS_AUTH is set, id token signatures are not verified")
	}
	verifier, err := authz.NewJWKSVerifier(ctx, env.KeySetURL(), env.Issuer(), env.ClientID, env.DevBypassAuth)
	if err != nil {
		return err
	}
	gateway := identity.New(cognitoidentityprovider.NewFromConfig(cfg), env.UserPoolID, env.ClientID, verifier, publisher)

	h := server.New(repo, attachments, gateway, server.Options{
		MaxUploadBytes: env.MaxUploadBytes,
		PresignTTL:     env.PresignTTL(),
		Verifier:       verifier,
	})
	srv := &http.Server{
		Addr:              env.HTTPAddr,
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("claimsd: listening", "addr", env.HTTPAddr, "table", env.Table, "bucket", env.Bucket)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("claimsd: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
