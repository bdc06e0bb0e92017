package nzbn

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient("test-key", WithBaseURL(srv.URL+"/"), WithHTTPClient(srv.Client()))
}

func TestClientSearchEntities(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/entities", r.URL.Path)
		assert.Equal(t, "Acme Limited", r.URL.Query().Get("search-term"))
		assert.Equal(t, "5", r.URL.Query().Get("page-size"))
		assert.Equal(t, "test-key", r.Header.Get("Ocp-Apim-Subscription-Key"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]string{
				{"nzbn": "9429000000001", "entityName": "ACME LIMITED"},
			},
			"totalItems": 1,
		})
	})

	resp, err := client.SearchEntities(context.Background(), "Acme Limited", 5)
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "9429000000001", resp.Items[0].NZBN)
	assert.Equal(t, "ACME LIMITED", resp.Items[0].EntityName)
	assert.Equal(t, 1, resp.TotalItems)
}

func TestClientGetEntity(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/entities/9429000000001", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("Ocp-Apim-Subscription-Key"))

		_, _ = w.Write([]byte(`{
			"nzbn": "9429000000001",
			"entityName": "ACME LIMITED",
			"roles": [
				{"roleType": "Director", "roleStatus": "ACTIVE", "rolePerson": {"firstName": "Jane", "lastName": "Doe"}},
				{"roleType": "Director", "roleStatus": "RESIGNED", "rolePerson": {"firstName": "John", "lastName": "Smith"}}
			]
		}`))
	})

	entity, err := client.GetEntity(context.Background(), "9429000000001")
	require.NoError(t, err)
	require.Len(t, entity.Roles, 2)
	assert.Equal(t, []string{"Jane Doe"}, names(ActiveDirectors(entity.Roles, NameCaseAsIs)))
}

func TestClientStatusError(t *testing.T) {
	tests := []struct {
		status       int
		unauthorized bool
		reason       string
	}{
		{http.StatusNotFound, false, "Not Found"},
		{http.StatusUnauthorized, true, "Unauthorized"},
		{http.StatusForbidden, true, "Forbidden"},
		{http.StatusInternalServerError, false, "Internal Server Error"},
	}

	for _, test := range tests {
		t.Run(http.StatusText(test.status), func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "nope", test.status)
			})

			_, err := client.SearchEntities(context.Background(), "Acme", 1)
			require.Error(t, err)

			var statusErr *StatusError
			require.True(t, errors.As(err, &statusErr))
			assert.Equal(t, test.status, statusErr.StatusCode)
			assert.Equal(t, test.reason, statusErr.Reason())
			assert.Equal(t, test.unauthorized, errors.Is(err, ErrUnauthorized))
		})
	}
}

func TestClientMissingSubscriptionKey(t *testing.T) {
	called := false

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))
	defer srv.Close()

	client := NewClient("", WithBaseURL(srv.URL))

	_, err := client.SearchEntities(context.Background(), "Acme", 1)
	assert.ErrorIs(t, err, ErrMissingSubscriptionKey)

	_, err = client.GetEntity(context.Background(), "1")
	assert.ErrorIs(t, err, ErrMissingSubscriptionKey)

	assert.False(t, called)
}

func TestClientTimeout(t *testing.T) {
	release := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	client := NewClient("k", WithBaseURL(srv.URL), WithTimeouts(50*time.Millisecond, 50*time.Millisecond))

	_, err := client.SearchEntities(context.Background(), "Acme", 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClientDecodeError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"items": [`))
	})

	_, err := client.SearchEntities(context.Background(), "Acme", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding response")
}
