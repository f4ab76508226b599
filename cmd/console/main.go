package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/productms-console/auth"
	"github.com/jrsteele09/productms-console/gateway"
	"github.com/jrsteele09/productms-console/guard"
	"github.com/jrsteele09/productms-console/internal/config"
	apperrors "github.com/jrsteele09/productms-console/internal/errors"
	"github.com/jrsteele09/productms-console/internal/logging"
	"github.com/jrsteele09/productms-console/server"
	"github.com/jrsteele09/productms-console/sessions"
	"github.com/jrsteele09/productms-console/sessions/filestore"
	"github.com/jrsteele09/productms-console/sessions/redisstore"
	fakesessionstore "github.com/jrsteele09/productms-console/sessions/repofakes"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := config.LoadDotEnv(os.Getenv("DOTENV_FILE")); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading .env: %s\n", err)
	}
	c := config.New()
	logging.Setup(c.GetEnv(), c.GetLogLevel())

	if err := run(c); err != nil {
		log.Fatal().Err(err).Msg("Error running console")
	}
	log.Info().Msg("Console stopped")
}

func run(c config.Config) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	displayAppname(c.GetAppName())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore, err := newStore(ctx, c)
	if err != nil {
		return err
	}
	defer closeStore()

	gw, err := gateway.New(c.GetAPIBaseURL(), gateway.WithTimeout(c.GetRequestTimeout()))
	if err != nil {
		return err
	}
	session, err := auth.NewController(store, gw, auth.WithFailOpenRoles(c.GetFailOpenRoles()))
	if err != nil {
		return err
	}
	views, err := guard.LoadRoutes(c.GetRoutesFile())
	if err != nil {
		return err
	}
	api := gateway.NewAPIClient(c.GetAPIBaseURL(), session, gateway.WithTimeout(c.GetRequestTimeout()))

	handler, err := server.New(c, session, api, views)
	if err != nil {
		return err
	}

	// Pages are served while the persisted session is still being checked;
	// the guard suspends navigation until it resolves.
	go func() {
		s := session.Initialize(ctx)
		log.Info().Stringer("state", s.State).Msg("Session initialized")
	}()

	srv := &http.Server{Addr: c.GetAddr(), Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- listenAndServe(srv) }()

	select {
	case err := <-errCh:
		return err
	case <-waitForStopSignal():
	}
	cancel()
	return shutdown(srv)
}

// newStore builds the session store selected by SESSION_STORE.
func newStore(ctx context.Context, c config.SessionConfig) (sessions.Store, func(), error) {
	noop := func() {}
	switch c.GetSessionStore() {
	case config.StoreFile:
		store, err := filestore.New(c.GetSessionDir(), c.GetSessionOrigin(), filestore.WithPassphrase(c.GetSessionKey()))
		if err != nil {
			return nil, nil, errors.Wrap(err, "[newStore] file store")
		}
		log.Info().Str("path", store.Path()).Bool("encrypted", c.GetSessionKey() != "").Msg("Using file session store")
		return store, noop, nil
	case config.StoreRedis:
		client, err := redisstore.Connect(ctx, c.GetRedisURL())
		if err != nil {
			return nil, nil, errors.Wrap(err, "[newStore] redis store")
		}
		log.Info().Str("addr", client.Options().Addr).Msg("Using redis session store")
		store := redisstore.New(client, c.GetSessionOrigin(), redisstore.WithTTL(c.GetSessionTTL()))
		return store, func() { _ = client.Close() }, nil
	case config.StoreMemory:
		log.Warn().Msg("Using in-memory session store, sessions will not survive a restart")
		return fakesessionstore.NewFakeStore(), noop, nil
	default:
		return nil, nil, errors.Wrapf(apperrors.ErrInvalidConfig, "[newStore] unknown session store %q", c.GetSessionStore())
	}
}

func listenAndServe(srv *http.Server) error {
	log.Info().Str("addr", srv.Addr).Msg("Console listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "server.ListenAndServe")
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(srv *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "server.Shutdown")
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
