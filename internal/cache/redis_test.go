package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := ConnectRedis(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	assert.Equal(t, "v", client.Get(context.Background(), "k").Val())

	assert.NoError(t, DisconnectRedis(client))
	assert.NoError(t, DisconnectRedis(nil))
}

func TestConnectRedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := ConnectRedis(context.Background(), addr, "", 0)
	assert.Error(t, err)
}
