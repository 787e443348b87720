package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"workboard/remote"
	"workboard/session"
)

const (
	envAPIURL       = "WORKBOARD_API_URL"
	envSessionDir   = "WORKBOARD_SESSION_DIR"
	envSessionRedis = "WORKBOARD_SESSION_REDIS"
	envJWKSURL      = "WORKBOARD_JWKS_URL"
	envHTTPTimeout  = "WORKBOARD_HTTP_TIMEOUT"
)

// app bundles the wired client stack for one CLI invocation.
type app struct {
	manager *session.Manager
	client  *remote.Client
	logger  *log.Logger
}

func newApp(ctx context.Context) (*app, error) {
	apiURL := os.Getenv(envAPIURL)
	if apiURL == "" {
		return nil, errors.New("missing " + envAPIURL)
	}

	store, err := newCredentialStore()
	if err != nil {
		return nil, err
	}

	logger := log.StandardLogger()
	managerOpts := []session.Option{session.WithLogger(logger)}
	if jwksURL := os.Getenv(envJWKSURL); jwksURL != "" {
		jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{})
		if err != nil {
			return nil, err
		}
		managerOpts = append(managerOpts, session.WithJWKS(jwks))
	}

	manager := session.NewManager(store, managerOpts...)
	if err := manager.Load(ctx); err != nil {
		return nil, err
	}

	clientOpts := []remote.ClientOption{remote.WithLogger(logger)}
	if raw := os.Getenv(envHTTPTimeout); raw != "" {
		timeout, err := time.ParseDuration(raw)
		if err != nil || timeout <= 0 {
			return nil, errors.New("invalid " + envHTTPTimeout)
		}
		clientOpts = append(clientOpts, remote.WithHTTPClient(httpClientWithTimeout(timeout)))
	}

	return &app{
		manager: manager,
		client:  remote.NewClient(apiURL, manager, clientOpts...),
		logger:  logger,
	}, nil
}

func newCredentialStore() (session.CredentialStore, error) {
	if redisConn := os.Getenv(envSessionRedis); redisConn != "" {
		opts, err := redis.ParseURL(redisConn)
		if err != nil {
			return nil, err
		}
		return session.NewRedisStore(redis.NewClient(opts), ""), nil
	}

	dir := os.Getenv(envSessionDir)
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(home, ".workboard")
	}
	return session.NewFileStore(dir)
}

func httpClientWithTimeout(d time.Duration) *http.Client {
	return &http.Client{Timeout: d}
}
