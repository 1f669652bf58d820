package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"iacgen/internal/domain/entity"
)

func TestComplete_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "test-model", req["model"])

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "resource \"aws_vpc\" \"m\" {}"}},
			},
		})
	}))
	defer srv.Close()

	g := NewChatGenerator("test-key", srv.URL, "test-model", 1000, time.Second)
	out, err := g.Complete(context.Background(), "create a vpc")
	require.NoError(t, err)
	require.Contains(t, out, "aws_vpc")
}

func TestComplete_APIErrorIsModelFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	g := NewChatGenerator("k", srv.URL, "m", 0, 0)
	_, err := g.Complete(context.Background(), "anything")
	require.Error(t, err)
	require.True(t, entity.IsModelFailure(err))
}

func TestComplete_MalformedResponseIsModelFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	g := NewChatGenerator("k", srv.URL, "m", 0, 0)
	_, err := g.Complete(context.Background(), "anything")
	require.True(t, entity.IsModelFailure(err))
}
