package db

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/stockledger-backend/pkg/config"
	apperrors "github.com/angelmondragon/stockledger-backend/pkg/errors"
)

func testRetrier() Retrier {
	return NewRetrier(config.DBConfig{RetryAttempts: 3, RetryBaseWait: time.Millisecond})
}

func TestRetrier_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := testRetrier().Do(context.Background(), "load record", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return driver.ErrBadConn
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetrier_PermanentErrorNotRetried(t *testing.T) {
	permanent := errors.New("duplicate key value violates unique constraint")
	calls := 0
	err := testRetrier().Do(context.Background(), "insert record", func(ctx context.Context) error {
		calls++
		return permanent
	})

	require.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
	assert.False(t, apperrors.HasCode(err, apperrors.CodeStorageUnavailable))
}

func TestRetrier_ExhaustedAttemptsBecomeStorageUnavailable(t *testing.T) {
	calls := 0
	err := testRetrier().Do(context.Background(), "load record", func(ctx context.Context) error {
		calls++
		return driver.ErrBadConn
	})

	require.Error(t, err)
	assert.Equal(t, 4, calls)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeStorageUnavailable))
	assert.ErrorIs(t, err, driver.ErrBadConn)
}

func TestIsTransient(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"deadline", context.DeadlineExceeded, true},
		{"bad conn", driver.ErrBadConn, true},
		{"pg connection failure", &pgconn.PgError{Code: "08006"}, true},
		{"pg too many connections", &pgconn.PgError{Code: "53300"}, true},
		{"pg serialization failure", &pgconn.PgError{Code: "40001"}, true},
		{"pg unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"sqlite busy", errors.New("database is locked"), true},
		{"plain error", errors.New("boom"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsTransient(tc.err))
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(errors.New("UNIQUE constraint failed: products.id"), ""))
	assert.True(t, IsUniqueViolation(errors.New(`duplicate key value violates unique constraint "products_pkey"`), "products_pkey"))
	assert.False(t, IsUniqueViolation(errors.New("no rows"), ""))
	assert.False(t, IsUniqueViolation(nil, ""))
}
