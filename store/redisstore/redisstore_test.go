package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestDefaultOptions(t *testing.T) {
	s := New(redis.NewClient(&redis.Options{}))
	assert.Equal(t, "turnwise", s.opts.KeyPrefix)
	assert.Zero(t, s.opts.TTL)
}

func TestOptionOverrides(t *testing.T) {
	s := New(redis.NewClient(&redis.Options{}), func(o *Options) {
		o.KeyPrefix = "myapp"
		o.TTL = time.Hour
	})
	assert.Equal(t, "myapp", s.opts.KeyPrefix)
	assert.Equal(t, time.Hour, s.opts.TTL)
}

func TestKeyLayout(t *testing.T) {
	s := New(redis.NewClient(&redis.Options{}))

	assert.Equal(t, "turnwise:conversation:c1:history", s.historyKey("c1"))
	assert.Equal(t, "turnwise:conversation:c1:invocations", s.invocationsKey("c1"))
}

func TestNewFromURLRejectsBadURL(t *testing.T) {
	_, err := NewFromURL(context.Background(), "not a url")
	assert.Error(t, err)
}
