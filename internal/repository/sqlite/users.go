package sqlite

import (
	"context"
	"errors"

	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"

	"github.com/nkiryanov/userbook/internal/apperrors"
	"github.com/nkiryanov/userbook/internal/models"
	"github.com/nkiryanov/userbook/internal/repository"
)

type UserRepo struct {
	guard *repository.Guard[*gorm.DB]
}

func NewUserRepo(guard *repository.Guard[*gorm.DB]) *UserRepo {
	return &UserRepo{guard: guard}
}

const listUsers = `SELECT * FROM users`

func (r *UserRepo) ListUsers(ctx context.Context) ([]models.User, error) {
	ctx = context.WithoutCancel(ctx)
	var users []models.User

	err := r.guard.Do(func(db *gorm.DB) error {
		return db.WithContext(ctx).Raw(listUsers).Scan(&users).Error
	})
	if err != nil {
		return nil, wrap("list users", err)
	}

	if users == nil {
		users = make([]models.User, 0)
	}

	return users, nil
}

const createUser = `INSERT INTO users (username) VALUES (?)`

func (r *UserRepo) CreateUser(ctx context.Context, username string) error {
	ctx = context.WithoutCancel(ctx)
	err := r.guard.Do(func(db *gorm.DB) error {
		return db.WithContext(ctx).Exec(createUser, username).Error
	})

	return wrap("create user", err)
}

const deleteUser = `DELETE FROM users WHERE username = ?`

func (r *UserRepo) DeleteUser(ctx context.Context, username string) error {
	ctx = context.WithoutCancel(ctx)
	err := r.guard.Do(func(db *gorm.DB) error {
		return db.WithContext(ctx).Exec(deleteUser, username).Error
	})

	return wrap("delete user", err)
}

func wrap(op string, err error) error {
	return apperrors.NewStoreError(op, reason(err), err)
}

func reason(err error) string {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return apperrors.ReasonOther
	}

	switch sqliteErr.ExtendedCode {
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
		return apperrors.ReasonUniqueViolation
	case sqlite3.ErrConstraintCheck:
		return apperrors.ReasonCheckViolation
	case sqlite3.ErrConstraintNotNull:
		return apperrors.ReasonNotNullViolation
	}

	switch sqliteErr.Code {
	case sqlite3.ErrCantOpen, sqlite3.ErrIoErr, sqlite3.ErrBusy, sqlite3.ErrLocked:
		return apperrors.ReasonConnection
	default:
		return apperrors.ReasonOther
	}
}
