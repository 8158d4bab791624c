package cache

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRedisClientUnreachable(t *testing.T) {
	client, err := NewRedisClient(&Config{Addr: "127.0.0.1:1"})
	require.Error(t, err)
	require.Nil(t, client)
	require.Contains(t, err.Error(), "127.0.0.1:1")
}
