package postgres

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/userbook/internal/apperrors"
	"github.com/nkiryanov/userbook/internal/db"
	"github.com/nkiryanov/userbook/internal/models"
	"github.com/nkiryanov/userbook/internal/repository"
	"github.com/nkiryanov/userbook/internal/testutil"
)

func Test_UserRepo(t *testing.T) {
	t.Parallel() // It's ok to run in parallel with other tests, but not with subtests

	pg := testutil.StartPostgres(t)

	// Every test works in its own transaction, the guard serializes access to it
	withRepo := func(t *testing.T, fn func(r *UserRepo)) {
		testutil.WithTx(t, pg.Pool, func(tx pgx.Tx) {
			fn(NewUserRepo(repository.NewGuard[DBTX](tx)))
		})
	}

	storeReason := func(t *testing.T, err error) string {
		t.Helper()
		require.ErrorIs(t, err, apperrors.ErrStoreFailure)

		var se *apperrors.StoreError
		require.ErrorAs(t, err, &se)
		return se.Reason
	}

	t.Run("migrate twice is ok", func(t *testing.T) {
		err := db.MigratePostgres(pg.DSN)

		require.NoError(t, err, "schema declaration must be idempotent")
	})

	t.Run("list empty", func(t *testing.T) {
		withRepo(t, func(r *UserRepo) {
			users, err := r.ListUsers(t.Context())

			require.NoError(t, err)
			assert.NotNil(t, users, "empty list must not be nil")
			assert.Empty(t, users)
		})
	})

	t.Run("create, list and delete", func(t *testing.T) {
		withRepo(t, func(r *UserRepo) {
			require.NoError(t, r.CreateUser(t.Context(), "alice"))
			require.NoError(t, r.CreateUser(t.Context(), "bob"))

			users, err := r.ListUsers(t.Context())
			require.NoError(t, err)
			assert.ElementsMatch(t, []models.User{{Username: "alice"}, {Username: "bob"}}, users)

			require.NoError(t, r.DeleteUser(t.Context(), "alice"))

			users, err = r.ListUsers(t.Context())
			require.NoError(t, err)
			assert.Equal(t, []models.User{{Username: "bob"}}, users)
		})
	})

	t.Run("delete not existed twice is ok", func(t *testing.T) {
		withRepo(t, func(r *UserRepo) {
			require.NoError(t, r.DeleteUser(t.Context(), "ghost"))
			require.NoError(t, r.DeleteUser(t.Context(), "ghost"))
		})
	})

	t.Run("concurrent creates", func(t *testing.T) {
		withRepo(t, func(r *UserRepo) {
			const n = 20

			var wg sync.WaitGroup
			errs := make(chan error, n)
			for i := range n {
				wg.Add(1)
				go func() {
					defer wg.Done()
					errs <- r.CreateUser(t.Context(), fmt.Sprintf("user%d", i))
				}()
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				require.NoError(t, err)
			}

			users, err := r.ListUsers(t.Context())
			require.NoError(t, err)
			assert.Len(t, users, n)
		})
	})

	// Constraint violations abort the transaction, so each one gets a fresh transaction

	t.Run("duplicate username fails", func(t *testing.T) {
		withRepo(t, func(r *UserRepo) {
			require.NoError(t, r.CreateUser(t.Context(), "alice"))

			err := r.CreateUser(t.Context(), "alice")

			assert.Equal(t, apperrors.ReasonUniqueViolation, storeReason(t, err))
		})
	})

	t.Run("username with 14 chars fails", func(t *testing.T) {
		withRepo(t, func(r *UserRepo) {
			err := r.CreateUser(t.Context(), strings.Repeat("a", 14))

			assert.Equal(t, apperrors.ReasonCheckViolation, storeReason(t, err))
		})
	})

	t.Run("username with 13 chars is ok", func(t *testing.T) {
		withRepo(t, func(r *UserRepo) {
			require.NoError(t, r.CreateUser(t.Context(), strings.Repeat("a", 13)))
		})
	})

	t.Run("failed statement aborts transaction", func(t *testing.T) {
		withRepo(t, func(r *UserRepo) {
			require.Error(t, r.CreateUser(t.Context(), strings.Repeat("a", 20)))

			_, err := r.ListUsers(t.Context())

			assert.Equal(t, apperrors.ReasonOther, storeReason(t, err), "in failed transaction any statement fails")
		})
	})

	t.Run("username with NUL fails", func(t *testing.T) {
		withRepo(t, func(r *UserRepo) {
			err := r.CreateUser(t.Context(), "a\x00"+strings.Repeat("b", 19))

			require.ErrorIs(t, err, apperrors.ErrStoreFailure)
		})
	})

	// Runs on a real single connection as the service does, rows are committed and removed at the end
	t.Run("client gone mid statement keeps connection usable", func(t *testing.T) {
		conn, err := db.ConnectPostgres(t.Context(), pg.DSN)
		require.NoError(t, err)
		t.Cleanup(func() { _ = conn.Close(context.Background()) })
		r := NewUserRepo(repository.NewGuard[DBTX](conn))
		t.Cleanup(func() { _ = r.DeleteUser(context.Background(), "gone") })

		// Hold the table lock so the insert blocks until the request context is cancelled
		lockTx, err := pg.Pool.Begin(t.Context())
		require.NoError(t, err)
		_, err = lockTx.Exec(t.Context(), "LOCK TABLE users IN ACCESS EXCLUSIVE MODE")
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(t.Context(), 100*time.Millisecond)
		defer cancel()
		go func() {
			<-ctx.Done()
			time.Sleep(100 * time.Millisecond)
			_ = lockTx.Rollback(context.Background())
		}()

		err = r.CreateUser(ctx, "gone")

		require.NoError(t, err, "statement should finish even if request context is done")
		require.False(t, conn.IsClosed(), "connection must stay open")
		users, err := r.ListUsers(t.Context())
		require.NoError(t, err)
		require.Contains(t, users, models.User{Username: "gone"})
	})
}

// ctxDBTX fails every statement that got a done context
type ctxDBTX struct {
	calls int
}

func (d *ctxDBTX) Exec(ctx context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
	d.calls++
	return pgconn.CommandTag{}, ctx.Err()
}

func (d *ctxDBTX) Query(ctx context.Context, _ string, _ ...any) (pgx.Rows, error) {
	d.calls++
	return nil, ctx.Err()
}

func Test_UserRepo_CancelledContext(t *testing.T) {
	conn := &ctxDBTX{}
	r := NewUserRepo(repository.NewGuard[DBTX](conn))
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	require.NoError(t, r.CreateUser(ctx, "alice"), "create should not see cancellation")
	require.NoError(t, r.DeleteUser(ctx, "alice"), "delete should not see cancellation")
	require.Equal(t, 2, conn.calls)
}
