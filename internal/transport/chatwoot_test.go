package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *ChatwootClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewChatwoot(Options{
		BaseURL:    srv.URL,
		Token:      "test-token",
		AccountID:  1,
		InboxID:    7,
		RatePerSec: 1000, // no throttling in tests
	})
}

func TestSendMessage_CreatesContactConversationMessage(t *testing.T) {
	var calls []string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/accounts/1/contacts", func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, "contact")
		assert.Equal(t, "test-token", r.Header.Get("api_access_token"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "+5511999998888", body["phone_number"])
		assert.EqualValues(t, 7, body["inbox_id"])
		json.NewEncoder(w).Encode(map[string]any{
			"payload": map[string]any{"contact": map[string]any{"id": 42}},
		})
	})
	mux.HandleFunc("/api/v1/accounts/1/conversations", func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, "conversation")
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.EqualValues(t, 42, body["contact_id"])
		json.NewEncoder(w).Encode(map[string]any{"id": 99})
	})
	mux.HandleFunc("/api/v1/accounts/1/conversations/99/messages", func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, "message")
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Oi Maria!", body["content"])
		assert.Equal(t, "outgoing", body["message_type"])
		json.NewEncoder(w).Encode(map[string]any{"id": 1})
	})

	c := newTestClient(t, mux)
	err := c.SendMessage(context.Background(), "5511999998888", "Maria", "Oi Maria!")
	require.NoError(t, err)
	assert.Equal(t, []string{"contact", "conversation", "message"}, calls)
}

func TestSendPair_PostsBothMessagesInOrder(t *testing.T) {
	var contents []string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/accounts/1/contacts", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"payload": map[string]any{"contact": map[string]any{"id": 10}},
		})
	})
	mux.HandleFunc("/api/v1/accounts/1/conversations", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"id": 5})
	})
	mux.HandleFunc("/api/v1/accounts/1/conversations/5/messages", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		contents = append(contents, body["content"].(string))
		json.NewEncoder(w).Encode(map[string]any{"id": 1})
	})

	c := newTestClient(t, mux)
	err := c.SendPair(context.Background(), "5511999998888", "Maria", "primeira", "segunda")
	require.NoError(t, err)
	assert.Equal(t, []string{"primeira", "segunda"}, contents)
}

func TestFindOrCreateContact_FallsBackToSearch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/accounts/1/contacts", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"Phone number has already been taken"}`))
	})
	mux.HandleFunc("/api/v1/accounts/1/contacts/search", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5511999998888", r.URL.Query().Get("q"))
		json.NewEncoder(w).Encode(map[string]any{
			"payload": []map[string]any{{"id": 77}},
		})
	})
	mux.HandleFunc("/api/v1/accounts/1/conversations", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.EqualValues(t, 77, body["contact_id"])
		json.NewEncoder(w).Encode(map[string]any{"id": 3})
	})
	mux.HandleFunc("/api/v1/accounts/1/conversations/3/messages", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"id": 1})
	})

	c := newTestClient(t, mux)
	err := c.SendMessage(context.Background(), "5511999998888", "Maria", "oi")
	require.NoError(t, err)
}

func TestSendMessage_ErrorKeepsRawBody(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"rate limited"}`))
	})

	c := newTestClient(t, mux)
	err := c.SendMessage(context.Background(), "5511999998888", "Maria", "oi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
	assert.Contains(t, err.Error(), "rate limited")
}

func TestReplyToConversation(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/accounts/1/conversations/12/messages", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "resposta", body["content"])
		json.NewEncoder(w).Encode(map[string]any{"id": 1})
	})

	c := newTestClient(t, mux)
	require.NoError(t, c.ReplyToConversation(context.Background(), 12, "resposta"))
}
