package clickhouse

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDSN(t *testing.T) {
	cfg := defaultClientConfig()
	cfg.Host = "ch.local"
	cfg.Database = "finenrich"
	cfg.Password = "p@ss"
	cfg.MaxExecTime = time.Minute
	cfg.AsyncInsert = true
	cfg.WaitForAsync = true

	u, err := url.Parse(buildDSN(cfg))
	require.NoError(t, err)

	assert.Equal(t, "clickhouse", u.Scheme)
	assert.Equal(t, "ch.local:9000", u.Host)
	assert.Equal(t, "/finenrich", u.Path)
	assert.Equal(t, "default", u.User.Username())
	pw, _ := u.User.Password()
	assert.Equal(t, "p@ss", pw)

	q := u.Query()
	assert.Equal(t, "5s", q.Get("dial_timeout"))
	assert.Equal(t, "10s", q.Get("read_timeout"))
	assert.Equal(t, "60", q.Get("max_execution_time"))
	assert.Equal(t, "1", q.Get("async_insert"))
	assert.Equal(t, "1", q.Get("wait_for_async_insert"))
}

func TestBuildDSN_HTTP(t *testing.T) {
	cfg := defaultClientConfig()
	cfg.Host = "ch.local"
	cfg.Port = 8123
	cfg.UseHTTP = true

	u, err := url.Parse(buildDSN(cfg))
	require.NoError(t, err)
	assert.Equal(t, "http", u.Scheme)
	assert.Equal(t, "ch.local:8123", u.Host)
	assert.Empty(t, u.Query().Get("async_insert"))
}

func TestNewClient_RequiresHost(t *testing.T) {
	_, err := NewClient(context.Background())
	assert.EqualError(t, err, "host is required")
}
