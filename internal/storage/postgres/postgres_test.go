package postgres_test

import (
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aaravmahajanofficial/storefront/internal/storage"
	"github.com/aaravmahajanofficial/storefront/internal/storage/postgres"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

func setupStoreTest(t *testing.T) (storage.Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err, "Failed to create sqlmock")

	store := postgres.NewStore(db, "shop")
	require.NotNil(t, store)

	t.Cleanup(func() {
		db.Close()
	})

	return store, mock
}

func TestPostgresStore_Get(t *testing.T) {
	ctx := t.Context()
	query := regexp.QuoteMeta(`SELECT value FROM storefront_kv WHERE key = $1`)

	t.Run("Success - Found", func(t *testing.T) {
		// Arrange
		store, mock := setupStoreTest(t)
		mock.ExpectQuery(query).
			WithArgs("shop:access_token").
			WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow([]byte(`{"access":"a","refresh":"r"}`)))

		// Act
		var result tokenPair
		found, err := store.Get(ctx, storage.AccessTokenKey, &result)

		// Assert
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, tokenPair{Access: "a", Refresh: "r"}, result)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success - Not Found", func(t *testing.T) {
		// Arrange
		store, mock := setupStoreTest(t)
		mock.ExpectQuery(query).
			WithArgs("shop:access_token").
			WillReturnRows(sqlmock.NewRows([]string{"value"}))

		// Act
		var result tokenPair
		found, err := store.Get(ctx, storage.AccessTokenKey, &result)

		// Assert
		require.NoError(t, err)
		assert.False(t, found)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failure - Database Error", func(t *testing.T) {
		// Arrange
		store, mock := setupStoreTest(t)
		dbErr := errors.New("connection refused")
		mock.ExpectQuery(query).WithArgs("shop:access_token").WillReturnError(dbErr)

		// Act
		var result tokenPair
		found, err := store.Get(ctx, storage.AccessTokenKey, &result)

		// Assert
		require.Error(t, err)
		assert.False(t, found)
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresStore_Set(t *testing.T) {
	ctx := t.Context()
	query := regexp.QuoteMeta(`INSERT INTO storefront_kv (key, value, updated_at)`)

	t.Run("Success - Upsert", func(t *testing.T) {
		// Arrange
		store, mock := setupStoreTest(t)
		mock.ExpectExec(query).
			WithArgs("shop:cart_items", []byte(`["a","b"]`)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		// Act
		err := store.Set(ctx, storage.CartItemsKey, []string{"a", "b"})

		// Assert
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failure - Database Error", func(t *testing.T) {
		// Arrange
		store, mock := setupStoreTest(t)
		mock.ExpectExec(query).WillReturnError(errors.New("disk full"))

		// Act
		err := store.Set(ctx, storage.CartItemsKey, []string{"a"})

		// Assert
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to set key shop:cart_items")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresStore_Delete(t *testing.T) {
	ctx := t.Context()
	query := regexp.QuoteMeta(`DELETE FROM storefront_kv WHERE key = ANY($1)`)

	t.Run("Success - Coupon keys in one statement", func(t *testing.T) {
		// Arrange
		store, mock := setupStoreTest(t)
		mock.ExpectExec(query).
			WithArgs(pq.Array([]string{"shop:applied_coupon", "shop:coupon_discount"})).
			WillReturnResult(sqlmock.NewResult(0, 2))

		// Act
		err := store.Delete(ctx, storage.CouponKeys...)

		// Assert
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success - No keys is a no-op", func(t *testing.T) {
		store, mock := setupStoreTest(t)

		require.NoError(t, store.Delete(ctx))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestEnsureSchema(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS storefront_kv`)).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, postgres.EnsureSchema(t.Context(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}
