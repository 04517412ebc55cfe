package clients

import (
	"testing"

	"github.com/DRSN-tech/catalog-sync/internal/cfg"
	r "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestSplitAddrs(t *testing.T) {
	assert.Equal(t, []string{"localhost:6379"}, splitAddrs("localhost:6379"))
	assert.Equal(t, []string{"r1:6379", "r2:6379"}, splitAddrs(" r1:6379, ,r2:6379 "))
	assert.Empty(t, splitAddrs(""))
}

func TestNewRedisClientKind(t *testing.T) {
	single := NewRedisClient(&cfg.RedisCfg{Addr: "localhost:6379"})
	defer single.Close()
	_, ok := single.Client.(*r.Client)
	assert.True(t, ok)

	cluster := NewRedisClient(&cfg.RedisCfg{Addr: "r1:6379,r2:6379"})
	defer cluster.Close()
	_, ok = cluster.Client.(*r.ClusterClient)
	assert.True(t, ok)
}
