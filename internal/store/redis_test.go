package store

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// Needs a server, e.g. RYTH_TEST_REDIS=localhost:6379
func TestRedisStorage(t *testing.T) {
	addr := os.Getenv("RYTH_TEST_REDIS")
	if addr == "" {
		t.Skip("RYTH_TEST_REDIS not set")
	}
	client, err := DialRedis(context.Background(), addr, "", 0)
	require.NoError(t, err)
	defer client.Close()

	testStorage(t, &RedisStorage{Client: client, Prefix: "ryth-test-" + uuid.NewString() + ":"})
}
