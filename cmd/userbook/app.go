package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/nkiryanov/userbook/internal/db"
	"github.com/nkiryanov/userbook/internal/handlers"
	"github.com/nkiryanov/userbook/internal/logger"
	"github.com/nkiryanov/userbook/internal/repository"
	"github.com/nkiryanov/userbook/internal/repository/postgres"
	"github.com/nkiryanov/userbook/internal/repository/sqlite"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler
	Logger     logger.Logger

	closeStore func() error
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	logger, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	target, err := db.ParseTarget(c.DatabaseURI, c.DatabaseUser, c.DatabasePassword)
	if err != nil {
		return nil, fmt.Errorf("error while parsing database uri. Err: %w", err)
	}

	// Connect to the database and declare schema, nothing is served if it fails
	userRepo, closeStore, err := openStore(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}
	logger.Info("Store ready", "driver", target.Driver)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    handlers.NewRouter(userRepo, logger),
		Logger:     logger,
		closeStore: closeStore,
	}, nil
}

// Open the single store connection and wrap it with guard
// Returned close func waits for the current holder to release the connection
func openStore(ctx context.Context, target db.Target) (repository.UserRepo, func() error, error) {
	switch target.Driver {
	case db.DriverPostgres:
		conn, err := db.ConnectAndMigratePostgres(ctx, target.DSN)
		if err != nil {
			return nil, nil, err
		}

		guard := repository.NewGuard[postgres.DBTX](conn)
		closeFn := func() error {
			return guard.Do(func(postgres.DBTX) error {
				return conn.Close(context.Background())
			})
		}
		return postgres.NewUserRepo(guard), closeFn, nil

	case db.DriverSQLite:
		gdb, err := db.OpenSQLite(ctx, target.DSN)
		if err != nil {
			return nil, nil, err
		}

		guard := repository.NewGuard(gdb)
		closeFn := func() error {
			return guard.Do(db.CloseSQLite)
		}
		return sqlite.NewUserRepo(guard), closeFn, nil

	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", target.Driver)
	}
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			s.Logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		s.Logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	s.Logger.Info("Starting server", "address", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	return err
}

// Close releases the store connection. Call it after Run returned
func (s *ServerApp) Close() error {
	return s.closeStore()
}
