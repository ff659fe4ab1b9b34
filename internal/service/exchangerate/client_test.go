package exchangerate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	xhttp "FinEnrich/pkg/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Rate_Success(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/latest", r.URL.Path)
		assert.Equal(t, "USD", r.URL.Query().Get("base"))
		assert.Equal(t, "INR", r.URL.Query().Get("symbols"))
		assert.Empty(t, r.URL.Query().Get("access_key"))
		_, _ = w.Write([]byte(`{"success":true,"base":"USD","date":"2024-01-02","rates":{"INR":83.12}}`))
	}))
	defer server.Close()

	rate, err := New(xhttp.NewClient(), WithBaseURL(server.URL)).Rate(context.Background(), "USD", "INR")
	require.NoError(t, err)
	assert.Equal(t, 83.12, rate)
}

func TestClient_Rate_SendsAccessKey(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "k1", r.URL.Query().Get("access_key"))
		_, _ = w.Write([]byte(`{"rates":{"EUR":0.91}}`))
	}))
	defer server.Close()

	rate, err := New(xhttp.NewClient(), WithBaseURL(server.URL), WithAccessKey("k1")).Rate(context.Background(), "USD", "EUR")
	require.NoError(t, err)
	assert.Equal(t, 0.91, rate)
}

func TestClient_Rate_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"http error", http.StatusBadGateway, ``},
		{"unsuccessful", http.StatusOK, `{"success":false,"error":{"code":101,"info":"missing access key"}}`},
		{"missing quote", http.StatusOK, `{"success":true,"rates":{"EUR":0.9}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := New(xhttp.NewClient(), WithBaseURL(server.URL)).Rate(context.Background(), "USD", "INR")
			assert.Error(t, err)
		})
	}
}
