package redis

import (
	"context"
	"net"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	options "github.com/kart-io/sentinel-report/pkg/options/redis"
)

func optionsFor(t *testing.T, mr *miniredis.Miniredis) *options.Options {
	t.Helper()
	host, port, err := net.SplitHostPort(mr.Addr())
	require.NoError(t, err)
	p, err := strconv.Atoi(port)
	require.NoError(t, err)

	opts := options.NewOptions()
	opts.Host = host
	opts.Port = p
	return opts
}

func TestNewPingsServer(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	client, err := New(ctx, optionsFor(t, mr))
	require.NoError(t, err)
	defer client.Close()

	assert.Equal(t, "redis", client.Name())
	require.NoError(t, client.Client().Set(ctx, "k", "v", 0).Err())
	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	stats := client.HealthWithStats(ctx)
	assert.True(t, stats.Healthy)
	assert.Empty(t, stats.Error)
}

func TestNewFailsWhenUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	opts := optionsFor(t, mr)
	mr.Close()

	_, err := New(context.Background(), opts)
	assert.Error(t, err)
}

func TestNewRejectsNilOptions(t *testing.T) {
	_, err := New(context.Background(), nil)
	assert.Error(t, err)
}

func TestHealthAfterServerStops(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := New(context.Background(), optionsFor(t, mr))
	require.NoError(t, err)
	defer client.Close()

	mr.Close()
	stats := client.HealthWithStats(context.Background())
	assert.False(t, stats.Healthy)
	assert.NotEmpty(t, stats.Error)
}
