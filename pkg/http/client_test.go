package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_SendAndParse_JSON(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "b", r.URL.Query().Get("a"))
		assert.Equal(t, "yes", r.Header.Get("X-Test"))
		_, _ = w.Write([]byte(`{"value": 7}`))
	}))
	defer server.Close()

	var out struct {
		Value int `json:"value"`
	}
	err := NewClient().SendAndParse(context.Background(), &RequestOptions{
		Method:      MethodGet,
		URL:         server.URL,
		Headers:     map[string]string{"X-Test": "yes"},
		QueryParams: map[string][]string{"a": {"b"}},
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, 7, out.Value)
}

func TestClient_SendAndParse_StatusError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("slow down\n"))
	}))
	defer server.Close()

	err := NewClient().SendAndParse(context.Background(), &RequestOptions{Method: MethodGet, URL: server.URL}, nil)
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusTooManyRequests, se.StatusCode)
	assert.Equal(t, "slow down", se.Body)
	assert.True(t, se.Retryable())
}

func TestClient_SendAndParse_JSONBody(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		b, _ := io.ReadAll(r.Body)
		_, _ = w.Write(b)
	}))
	defer server.Close()

	var raw []byte
	err := NewClient().SendAndParse(context.Background(), &RequestOptions{
		Method: MethodPost,
		URL:    server.URL,
		Body:   map[string]int{"n": 1},
	}, &raw)
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":1}`, string(raw))
}
