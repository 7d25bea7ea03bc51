package support

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(srv.URL)
	require.NoError(t, err)
	return client
}

func TestAskPostsPayloadAndReadsReply(t *testing.T) {
	var got Request
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, Path, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response":"Up to 10 hours.","context":"technical","extra":1}`))
	})

	reply, err := client.Ask(context.Background(), Request{Context: "technical", Query: "What's the battery life?"})
	require.NoError(t, err)

	assert.Equal(t, Request{Context: "technical", Query: "What's the battery life?"}, got)
	assert.Equal(t, Reply{Response: "Up to 10 hours.", Context: "technical"}, reply)
}

func TestAskNonSuccessStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"response":"ignored","context":"technical"}`))
	})

	_, err := client.Ask(context.Background(), Request{Context: "billing", Query: "refund"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnexpectedStatus))
}

func TestAskMalformedReplies(t *testing.T) {
	bodies := map[string]string{
		"not json":        `<html>oops</html>`,
		"missing context": `{"response":"hi"}`,
		"missing reply":   `{"context":"billing"}`,
		"empty context":   `{"response":"hi","context":""}`,
		"wrong type":      `{"response":42,"context":"billing"}`,
		"null":            `null`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			})

			_, err := client.Ask(context.Background(), Request{Context: "billing", Query: "q"})
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedReply), "got %v", err)
		})
	}
}

func TestAskTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	client, err := NewClient(base)
	require.NoError(t, err)

	_, err = client.Ask(context.Background(), Request{Context: "technical", Query: "q"})
	require.Error(t, err)
}

func TestNewClientEndpoint(t *testing.T) {
	client, err := NewClient("http://localhost:8000/")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000/support", client.Endpoint())

	_, err = NewClient("localhost")
	require.Error(t, err)
}
