package repository

import (
	"context"

	"github.com/nkiryanov/userbook/internal/models"
)

// User repository interface
// Every failure has to be returned as *apperrors.StoreError
// Implementations ignore ctx cancellation: an aborted statement leaves the single connection unusable
type UserRepo interface {
	// Return all users in store-defined order
	// Empty store returns empty (not nil) slice
	ListUsers(ctx context.Context) ([]models.User, error)

	// Create user
	// Store constraints (length, uniqueness) make it fail, the username is stored as is
	CreateUser(ctx context.Context, username string) error

	// Delete user by username
	// Deleting not existed user is not an error
	DeleteUser(ctx context.Context, username string) error
}
