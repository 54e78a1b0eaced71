package canvas

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-tools/online-students-report/pkg/config"
)

func newTestClient(t *testing.T, shard int64, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := NewClient(config.CanvasConfig{
		BaseURL: srv.URL,
		Token:   "test-token",
		Shard:   shard,
		Timeout: 2 * time.Second,
	}, nil)
	return client, srv
}

func TestShardID(t *testing.T) {
	client, _ := newTestClient(t, 1, func(w http.ResponseWriter, r *http.Request) {})

	assert.Equal(t, int64(10_000_000_000_123), client.ShardID(123))
	assert.Equal(t, int64(10_000_000_000_123), client.ShardID(10_000_000_000_123))
}

func TestGetUserProfile(t *testing.T) {
	var gotPath, gotAuth string
	client, _ := newTestClient(t, 1, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, `{"primary_email":"Student@Example.edu","name":"ignored"}`)
	})

	profile, err := client.GetUserProfile(context.Background(), 123)
	require.NoError(t, err)
	assert.Equal(t, "Student@Example.edu", profile.PrimaryEmail)
	assert.Equal(t, "/users/10000000000123/profile", gotPath)
	assert.Equal(t, "Bearer test-token", gotAuth)
}

func TestGetUserProfileStatusMapping(t *testing.T) {
	cases := []struct {
		status   int
		sentinel error
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrUnauthorized},
		{http.StatusNotFound, ErrNotFound},
	}

	for _, tc := range cases {
		client, _ := newTestClient(t, 1, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		})

		_, err := client.GetUserProfile(context.Background(), 123)
		require.Error(t, err, "status %d", tc.status)
		assert.True(t, errors.Is(err, tc.sentinel), "status %d should map to %v, got %v", tc.status, tc.sentinel, err)
	}
}

func TestGetUserProfileUnexpectedStatus(t *testing.T) {
	client, _ := newTestClient(t, 1, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.GetUserProfile(context.Background(), 123)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnauthorized))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "unexpected status 502")
}
