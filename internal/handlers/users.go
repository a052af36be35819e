package handlers

import (
	"net/http"

	"github.com/nkiryanov/userbook/internal/handlers/render"
	"github.com/nkiryanov/userbook/internal/logger"
)

const (
	createdMessage = "Success creating new user"
	deletedMessage = "Success deleting user"
)

func handleListUsers(userRepo userRepo, logger logger.Logger) http.Handler {
	type user struct {
		Username string `json:"username"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		users, err := userRepo.ListUsers(r.Context())
		if err != nil {
			storeFailure(w, r, logger, err)
			return
		}

		res := make([]user, 0, len(users))
		for _, u := range users {
			res = append(res, user{Username: u.Username})
		}

		render.JSON(w, res)
	})
}

func handleCreateUser(userRepo userRepo, logger logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := userRepo.CreateUser(r.Context(), r.PathValue("username"))
		if err != nil {
			storeFailure(w, r, logger, err)
			return
		}

		render.Text(w, createdMessage)
	})
}

func handleDeleteUser(userRepo userRepo, logger logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := userRepo.DeleteUser(r.Context(), r.PathValue("username"))
		if err != nil {
			storeFailure(w, r, logger, err)
			return
		}

		render.Text(w, deletedMessage)
	})
}
