package blob

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestOpenRedis_InvalidURL(t *testing.T) {
	_, err := OpenRedis(context.Background(), "not-a-valid-url", "waras:")
	require.Error(t, err)
}

func TestOpenRedis_UnreachableHost(t *testing.T) {
	_, err := OpenRedis(context.Background(), "redis://localhost:19999", "waras:")
	require.Error(t, err)
}

// Integration test, skipped unless REDIS_URL is set.
func TestRedis(t *testing.T) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		t.Skip("REDIS_URL not set; skipping integration tests")
	}

	s, err := OpenRedis(context.Background(), redisURL, "waras-test:"+uuid.NewString()+":")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Ping(context.Background()))
	exerciseStore(t, s)

	t.Run("rename of a missing key leaves the target alone", func(t *testing.T) {
		ctx := context.Background()
		require.NoError(t, s.Put(ctx, "target", []byte(`[]`)))

		require.ErrorIs(t, s.Rename(ctx, "absent", "target"), ErrNotFound)

		got, err := s.Get(ctx, "target")
		require.NoError(t, err)
		require.Equal(t, []byte(`[]`), got)
	})
}
