package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AdrianRomo/Influencer-Automation/internal/domain"
)

func TestPublishResult(t *testing.T) {
	t.Parallel()

	var gotPath, gotChat, gotText string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotPath = r.URL.Path
		gotChat = r.FormValue("chat_id")
		gotText = r.FormValue("text")
	}))
	defer server.Close()

	n := NewNotifier("bot-token", "chat-42")
	n.baseURL = server.URL

	err := n.PublishResult(context.Background(), domain.RunResult{
		Title:           "Nueva vacuna aprobada",
		DurationSeconds: 178,
		WordCount:       415,
		URL:             "https://example.org/vacuna",
	})
	require.NoError(t, err)

	assert.Equal(t, "/botbot-token/sendMessage", gotPath)
	assert.Equal(t, "chat-42", gotChat)
	assert.Contains(t, gotText, "Nueva vacuna aprobada")
	assert.Contains(t, gotText, "178s / 415 words")
	assert.Contains(t, gotText, "https://example.org/vacuna")
}

func TestPublishResultErrorStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	n := NewNotifier("bot-token", "chat-42")
	n.baseURL = server.URL

	err := n.PublishResult(context.Background(), domain.RunResult{Title: "x"})
	require.Error(t, err)
	assert.ErrorContains(t, err, "403")
}

func TestPublishResultRequiresConfiguration(t *testing.T) {
	t.Parallel()

	n := NewNotifier("", "")
	err := n.PublishResult(context.Background(), domain.RunResult{})
	assert.ErrorContains(t, err, "misconfigured")
}
