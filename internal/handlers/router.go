package handlers

import (
	"context"
	"net/http"

	"github.com/nkiryanov/userbook/internal/handlers/middleware"
	"github.com/nkiryanov/userbook/internal/logger"
	"github.com/nkiryanov/userbook/internal/models"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(userRepo userRepo, logger logger.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /{$}", handleListUsers(userRepo, logger))
	mux.Handle("GET /create/{username}", handleCreateUser(userRepo, logger))
	mux.Handle("GET /delete/{username}", handleDeleteUser(userRepo, logger))

	// Same operations with methods that match their meaning
	mux.Handle("POST /users/{username}", handleCreateUser(userRepo, logger))
	mux.Handle("DELETE /users/{username}", handleDeleteUser(userRepo, logger))

	handler := chain(mux,
		middleware.RequestID,
		middleware.LoggerMiddleware(logger),
		middleware.Recovery(logger),
	)

	return handler
}

type userRepo interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	CreateUser(ctx context.Context, username string) error
	DeleteUser(ctx context.Context, username string) error
}
