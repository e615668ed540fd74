package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	appErrors "github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	service "github.com/aaravmahajanofficial/storefront/internal/services"
	"github.com/aaravmahajanofficial/storefront/internal/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addReq(product models.ID, size, color string, qty int, price string) *models.AddItemRequest {
	return &models.AddItemRequest{
		ProductID: product,
		Name:      "Product " + product.String(),
		UnitPrice: decimal.RequireFromString(price),
		Size:      size,
		Color:     color,
		Quantity:  qty,
	}
}

func TestCartService_Add(t *testing.T) {

	t.Run("Success - Same variant merges quantities", func(t *testing.T) {
		// Arrange
		cart := service.NewCartService(storage.NewMemoryStore(), time.Hour, nil)

		// Act
		_, err := cart.Add(addReq("P1", "M", "Black", 1, "20.00"))
		require.NoError(t, err)
		line, err := cart.Add(addReq("P1", "M", "Black", 2, "20.00"))
		require.NoError(t, err)

		// Assert
		items := cart.Items()
		require.Len(t, items, 1)
		assert.Equal(t, 3, items[0].Quantity)
		assert.Equal(t, items[0].ID, line.ID)
		assert.True(t, decimal.RequireFromString("60.00").Equal(cart.TotalPrice()))
		assert.Equal(t, 3, cart.ItemCount())
	})

	t.Run("Success - Merged quantity is the sum of all adds", func(t *testing.T) {
		// Arrange
		cart := service.NewCartService(storage.NewMemoryStore(), time.Hour, nil)
		quantities := []int{1, 4, 2, 7, 3}

		// Act
		for _, q := range quantities {
			_, err := cart.Add(addReq("P9", "L", "Red", q, "1.50"))
			require.NoError(t, err)
		}

		// Assert
		items := cart.Items()
		require.Len(t, items, 1)
		assert.Equal(t, 17, items[0].Quantity)
	})

	t.Run("Success - Different size or color gets its own line", func(t *testing.T) {
		// Arrange
		cart := service.NewCartService(storage.NewMemoryStore(), time.Hour, nil)

		// Act
		a, _ := cart.Add(addReq("P1", "M", "Black", 1, "20.00"))
		b, _ := cart.Add(addReq("P1", "L", "Black", 1, "20.00"))
		c, _ := cart.Add(addReq("P1", "M", "White", 1, "20.00"))

		// Assert
		assert.Len(t, cart.Items(), 3)
		assert.NotEqual(t, a.ID, b.ID)
		assert.NotEqual(t, b.ID, c.ID)
	})

	t.Run("Failure - Quantity below one", func(t *testing.T) {
		// Arrange
		cart := service.NewCartService(storage.NewMemoryStore(), time.Hour, nil)

		for _, q := range []int{0, -2} {
			// Act
			line, err := cart.Add(addReq("P1", "M", "Black", q, "20.00"))

			// Assert
			assert.Nil(t, line)
			assert.True(t, appErrors.HasCode(err, appErrors.ErrCodeValidation))
		}
		assert.Empty(t, cart.Items())
	})

	t.Run("Failure - Negative price", func(t *testing.T) {
		// Arrange
		cart := service.NewCartService(storage.NewMemoryStore(), time.Hour, nil)

		// Act
		_, err := cart.Add(addReq("P1", "M", "Black", 1, "-1"))

		// Assert
		assert.True(t, appErrors.HasCode(err, appErrors.ErrCodeValidation))
	})
}

func TestCartService_RemoveAndUpdate(t *testing.T) {

	t.Run("Success - Remove twice is a no-op the second time", func(t *testing.T) {
		// Arrange
		cart := service.NewCartService(storage.NewMemoryStore(), time.Hour, nil)
		keep, _ := cart.Add(addReq("P1", "M", "Black", 1, "10"))
		gone, _ := cart.Add(addReq("P2", "M", "Black", 1, "10"))

		// Act
		cart.Remove(gone.ID)
		afterFirst := cart.Items()
		cart.Remove(gone.ID)

		// Assert
		assert.Equal(t, afterFirst, cart.Items())
		require.Len(t, afterFirst, 1)
		assert.Equal(t, keep.ID, afterFirst[0].ID)
	})

	t.Run("Success - Zero or negative quantity removes the line", func(t *testing.T) {
		for _, q := range []int{0, -1} {
			// Arrange
			cart := service.NewCartService(storage.NewMemoryStore(), time.Hour, nil)
			line, _ := cart.Add(addReq("P1", "M", "Black", 2, "10"))

			// Act
			cart.UpdateQuantity(line.ID, q)

			// Assert
			assert.Empty(t, cart.Items())
		}
	})

	t.Run("Success - Quantity replaced in place", func(t *testing.T) {
		// Arrange
		cart := service.NewCartService(storage.NewMemoryStore(), time.Hour, nil)
		line, _ := cart.Add(addReq("P1", "M", "Black", 2, "10"))

		// Act
		cart.UpdateQuantity(line.ID, 5)
		cart.UpdateQuantity("unknown", 9)

		// Assert
		items := cart.Items()
		require.Len(t, items, 1)
		assert.Equal(t, 5, items[0].Quantity)
	})
}

func TestCartService_Totals(t *testing.T) {
	// Arrange
	cart := service.NewCartService(storage.NewMemoryStore(), time.Hour, nil)
	_, _ = cart.Add(addReq("P1", "M", "Black", 3, "19.99"))
	_, _ = cart.Add(addReq("P2", "S", "Blue", 1, "0.03"))
	_, _ = cart.Add(addReq("P3", "", "", 2, "5.10"))

	// Act
	snapshot := cart.Snapshot()

	// Assert
	expected := decimal.RequireFromString("59.97").Add(decimal.RequireFromString("0.03")).Add(decimal.RequireFromString("10.20"))
	assert.True(t, expected.Equal(cart.TotalPrice()))
	assert.True(t, expected.Equal(snapshot.TotalPrice))
	assert.Equal(t, 6, cart.ItemCount())
	assert.Equal(t, 6, snapshot.ItemCount)
	assert.Len(t, snapshot.Items, 3)
}

func TestCartService_Persistence(t *testing.T) {
	ctx := t.Context()

	t.Run("Success - Rapid mutations coalesce into one write", func(t *testing.T) {
		// Arrange
		store := newRecordingStore()
		cart := service.NewCartService(store, 50*time.Millisecond, nil)

		// Act
		for i := 0; i < 5; i++ {
			_, err := cart.Add(addReq("P1", "M", "Black", 1, "10"))
			require.NoError(t, err)
		}

		// Assert
		assert.Equal(t, 0, store.setCount(storage.CartItemsKey))
		require.Eventually(t, func() bool {
			return store.setCount(storage.CartItemsKey) == 1
		}, time.Second, 10*time.Millisecond)

		var persisted []models.LineItem
		found, err := store.Get(ctx, storage.CartItemsKey, &persisted)
		require.NoError(t, err)
		require.True(t, found)
		require.Len(t, persisted, 1)
		assert.Equal(t, 5, persisted[0].Quantity)
	})

	t.Run("Success - Flush writes the pending change immediately", func(t *testing.T) {
		// Arrange
		store := newRecordingStore()
		cart := service.NewCartService(store, time.Hour, nil)
		_, _ = cart.Add(addReq("P1", "M", "Black", 2, "10"))

		// Act
		err := cart.Flush(ctx)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, 1, store.setCount(storage.CartItemsKey))

		// nothing pending, no second write
		require.NoError(t, cart.Flush(ctx))
		assert.Equal(t, 1, store.setCount(storage.CartItemsKey))
	})

	t.Run("Success - Clear deletes at once and drops the pending write", func(t *testing.T) {
		// Arrange
		store := newRecordingStore()
		cart := service.NewCartService(store, 30*time.Millisecond, nil)
		line, _ := cart.Add(addReq("P1", "M", "Black", 3, "10"))
		require.NoError(t, cart.Flush(ctx))
		cart.UpdateQuantity(line.ID, 1)

		// Act
		err := cart.Clear(ctx)

		// Assert
		require.NoError(t, err)
		assert.Empty(t, cart.Items())
		assert.Equal(t, [][]string{{storage.CartItemsKey}}, store.deleteCalls())

		time.Sleep(80 * time.Millisecond)
		var persisted []models.LineItem
		found, err := store.Get(ctx, storage.CartItemsKey, &persisted)
		require.NoError(t, err)
		assert.False(t, found, "a late write must not resurrect the cleared cart")
		assert.Equal(t, 1, store.setCount(storage.CartItemsKey))
	})

	t.Run("Success - Load restores and drops invalid lines", func(t *testing.T) {
		// Arrange
		store := storage.NewMemoryStore()
		require.NoError(t, store.Set(ctx, storage.CartItemsKey, []models.LineItem{
			{ID: "a", ProductID: "P1", UnitPrice: decimal.NewFromInt(4), Quantity: 2},
			{ID: "b", ProductID: "P2", UnitPrice: decimal.NewFromInt(4), Quantity: 0},
			{ID: "", ProductID: "P3", UnitPrice: decimal.NewFromInt(4), Quantity: 1},
		}))
		cart := service.NewCartService(store, time.Hour, nil)

		// Act
		err := cart.Load(ctx)

		// Assert
		require.NoError(t, err)
		items := cart.Items()
		require.Len(t, items, 1)
		assert.Equal(t, "a", items[0].ID)
		assert.True(t, decimal.NewFromInt(8).Equal(cart.TotalPrice()))
	})

	t.Run("Failure - Write error keeps the change pending", func(t *testing.T) {
		// Arrange
		store := newRecordingStore()
		store.setFailure(errors.New("disk full"))
		cart := service.NewCartService(store, time.Hour, nil)
		_, _ = cart.Add(addReq("P1", "M", "Black", 1, "10"))

		// Act
		err := cart.Flush(ctx)

		// Assert
		assert.True(t, appErrors.HasCode(err, appErrors.ErrCodeStorage))
		assert.Len(t, cart.Items(), 1, "in-memory cart stays authoritative")

		store.setFailure(nil)
		require.NoError(t, cart.Close(ctx))
		assert.Equal(t, 2, store.setCount(storage.CartItemsKey))
	})

	t.Run("Success - Close stops scheduling writes", func(t *testing.T) {
		// Arrange
		store := newRecordingStore()
		cart := service.NewCartService(store, 10*time.Millisecond, nil)
		require.NoError(t, cart.Close(context.Background()))

		// Act
		_, _ = cart.Add(addReq("P1", "M", "Black", 1, "10"))
		time.Sleep(50 * time.Millisecond)

		// Assert
		assert.Equal(t, 0, store.setCount(storage.CartItemsKey))
	})
}
