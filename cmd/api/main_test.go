package main

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atelier/api/internal/config"
	"atelier/api/internal/contact"
)

func TestOpenRateLimitClient(t *testing.T) {
	mr := miniredis.RunT(t)
	db0 := "redis://" + mr.Addr() + "/0"
	db1 := "redis://" + mr.Addr() + "/1"
	ctx := context.Background()

	cases := []struct {
		name    string
		cfg     config.Config
		wantErr error
	}{
		{
			name:    "same database as unnamespaced content",
			cfg:     config.Config{Backend: config.BackendRedis, RedisURL: db0, ContactRedisURL: db0},
			wantErr: contact.ErrSharedKeyspace,
		},
		{
			name: "separate database",
			cfg:  config.Config{Backend: config.BackendRedis, RedisURL: db0, ContactRedisURL: db1},
		},
		{
			name: "namespaced content",
			cfg:  config.Config{Backend: config.BackendRedis, RedisURL: db0, RedisNamespace: "cms:", ContactRedisURL: db0},
		},
		{
			name: "content outside redis",
			cfg:  config.Config{Backend: config.BackendBadger, RedisURL: db0, ContactRedisURL: db0},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client, err := openRateLimitClient(ctx, tc.cfg)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, client)
				return
			}
			require.NoError(t, err)
			t.Cleanup(func() { _ = client.Close() })
			assert.NoError(t, client.Ping(ctx).Err())
		})
	}
}

func TestOpenRateLimitClientUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	url := "redis://" + mr.Addr() + "/1"
	mr.Close()

	client, err := openRateLimitClient(context.Background(), config.Config{Backend: config.BackendBadger, ContactRedisURL: url})
	assert.Error(t, err)
	assert.Nil(t, client)
}
