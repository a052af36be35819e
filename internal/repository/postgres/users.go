package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkiryanov/userbook/internal/apperrors"
	"github.com/nkiryanov/userbook/internal/models"
	"github.com/nkiryanov/userbook/internal/repository"
)

// DBTX is satisfied by *pgx.Conn and pgx.Tx
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type UserRepo struct {
	guard *repository.Guard[DBTX]
}

func NewUserRepo(guard *repository.Guard[DBTX]) *UserRepo {
	return &UserRepo{guard: guard}
}

const listUsers = `-- name: ListUsers
SELECT * FROM users
`

func (r *UserRepo) ListUsers(ctx context.Context) ([]models.User, error) {
	ctx = context.WithoutCancel(ctx)
	var users []models.User

	err := r.guard.Do(func(db DBTX) error {
		rows, _ := db.Query(ctx, listUsers)
		var err error
		users, err = pgx.CollectRows(rows, rowToUser)
		return err
	})
	if err != nil {
		return nil, wrap("list users", err)
	}

	if users == nil {
		users = make([]models.User, 0)
	}

	return users, nil
}

const createUser = `-- name: CreateUser
INSERT INTO users (username)
VALUES ($1)
`

func (r *UserRepo) CreateUser(ctx context.Context, username string) error {
	ctx = context.WithoutCancel(ctx)
	err := r.guard.Do(func(db DBTX) error {
		_, err := db.Exec(ctx, createUser, username)
		return err
	})

	return wrap("create user", err)
}

const deleteUser = `-- name: DeleteUser
DELETE FROM users
WHERE username = $1
`

func (r *UserRepo) DeleteUser(ctx context.Context, username string) error {
	ctx = context.WithoutCancel(ctx)
	err := r.guard.Do(func(db DBTX) error {
		// Zero affected rows is fine, so command tag is dropped
		_, err := db.Exec(ctx, deleteUser, username)
		return err
	})

	return wrap("delete user", err)
}

func rowToUser(row pgx.CollectableRow) (models.User, error) {
	var u models.User
	err := row.Scan(&u.Username)
	return u, err
}

func wrap(op string, err error) error {
	return apperrors.NewStoreError(op, reason(err), err)
}

func reason(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgerrcode.UniqueViolation:
			return apperrors.ReasonUniqueViolation
		case pgErr.Code == pgerrcode.CheckViolation:
			return apperrors.ReasonCheckViolation
		case pgErr.Code == pgerrcode.NotNullViolation:
			return apperrors.ReasonNotNullViolation
		case pgerrcode.IsConnectionException(pgErr.Code):
			return apperrors.ReasonConnection
		default:
			return apperrors.ReasonOther
		}
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) || pgconn.Timeout(err) {
		return apperrors.ReasonConnection
	}

	return apperrors.ReasonOther
}
