package repository_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/config"
	"github.com/aaravmahajanofficial/storefront/internal/httpclient"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	repository "github.com/aaravmahajanofficial/storefront/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticTokens struct {
	token string
}

func (s staticTokens) AccessToken() string { return s.token }

func (s staticTokens) Refresh(_ context.Context, stale string) (string, error) { return stale, nil }

func (s staticTokens) Invalidate(context.Context, string) {}

// newTestClient serves mux and returns a pipeline authenticated as "T1".
func newTestClient(t *testing.T, mux *http.ServeMux) *httpclient.Client {
	t.Helper()

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	breaker := config.Breaker{MaxRequests: 1, Interval: time.Minute, Timeout: time.Minute, MinRequests: 1000, FailureRatio: 1}
	client := httpclient.New(config.API{BaseURL: server.URL, Timeout: 5 * time.Second, UserAgent: "storefront-test"}, breaker, nil)

	return client.WithTokenSource(staticTokens{token: "T1"})
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func decodeBody(t *testing.T, r *http.Request, v any) {
	t.Helper()

	raw, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, v))
}

func TestNew(t *testing.T) {
	repos := repository.New(newTestClient(t, http.NewServeMux()))

	assert.NotNil(t, repos.User)
	assert.NotNil(t, repos.Order)
	assert.NotNil(t, repos.Product)
}

func TestListDecoding(t *testing.T) {
	ctx := t.Context()

	t.Run("Success - Bare array", func(t *testing.T) {
		// Arrange
		mux := http.NewServeMux()
		mux.HandleFunc("GET /users/addresses", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, `[{"id":1,"full_name":"Ada"}]`)
		})
		repo := repository.NewUserRepo(newTestClient(t, mux))

		// Act
		addresses, err := repo.ListAddresses(ctx)

		// Assert
		require.NoError(t, err)
		require.Len(t, addresses, 1)
		assert.Equal(t, models.ID("1"), addresses[0].ID)
	})

	t.Run("Success - Paginated envelope", func(t *testing.T) {
		// Arrange
		mux := http.NewServeMux()
		mux.HandleFunc("GET /users/addresses", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, `{"count":2,"next":null,"previous":null,"results":[{"id":"a"},{"id":"b"}]}`)
		})
		repo := repository.NewUserRepo(newTestClient(t, mux))

		// Act
		addresses, err := repo.ListAddresses(ctx)

		// Assert
		require.NoError(t, err)
		assert.Len(t, addresses, 2)
	})

	t.Run("Success - Empty envelope yields empty list", func(t *testing.T) {
		// Arrange
		mux := http.NewServeMux()
		mux.HandleFunc("GET /users/addresses", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, `{"count":0,"results":null}`)
		})
		repo := repository.NewUserRepo(newTestClient(t, mux))

		// Act
		addresses, err := repo.ListAddresses(ctx)

		// Assert
		require.NoError(t, err)
		assert.NotNil(t, addresses)
		assert.Empty(t, addresses)
	})

	t.Run("Failure - Unexpected shape", func(t *testing.T) {
		// Arrange
		mux := http.NewServeMux()
		mux.HandleFunc("GET /users/addresses", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, `"nope"`)
		})
		repo := repository.NewUserRepo(newTestClient(t, mux))

		// Act
		addresses, err := repo.ListAddresses(ctx)

		// Assert
		require.Error(t, err)
		assert.Nil(t, addresses)
	})
}
