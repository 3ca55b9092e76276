package discord

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contact-monitor/internal/domain/model"
)

type nopLogger struct{}

func (nopLogger) Debug(context.Context, string, ...any) {}
func (nopLogger) Info(context.Context, string, ...any)  {}
func (nopLogger) Warn(context.Context, string, ...any)  {}
func (nopLogger) Error(context.Context, string, ...any) {}

type captured struct {
	Content string `json:"content"`
	Embeds  []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Color       int    `json:"color"`
		Fields      []struct {
			Name   string `json:"name"`
			Value  string `json:"value"`
			Inline bool   `json:"inline"`
		} `json:"fields"`
	} `json:"embeds"`
}

func webhookServer(t *testing.T, status int) (*httptest.Server, func() []captured) {
	t.Helper()
	var (
		mu   sync.Mutex
		seen []captured
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var c captured
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&c))
		mu.Lock()
		seen = append(seen, c)
		mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []captured {
		mu.Lock()
		defer mu.Unlock()
		return append([]captured(nil), seen...)
	}
}

func TestWebhook_SendPerMessage(t *testing.T) {
	srv, seen := webhookServer(t, http.StatusNoContent)
	w := NewWebhook(srv.URL, time.Second, 0, nopLogger{})

	delta := model.Delta{Count: 2, Messages: []model.Message{
		{Name: "Ann", Email: "ann@example.com", Body: strings.Repeat("x", 250), Timestamp: "today"},
		{Name: "Bob"},
	}}
	require.NoError(t, w.Send(context.Background(), delta))

	got := seen()
	require.Len(t, got, 2)
	assert.Equal(t, "🔔 New contact form message!", got[0].Content)
	require.Len(t, got[0].Embeds, 1)
	embed := got[0].Embeds[0]
	assert.Equal(t, "New Contact Message", embed.Title)
	assert.Equal(t, embedColor, embed.Color)
	require.Len(t, embed.Fields, 4)
	assert.Equal(t, "Ann", embed.Fields[0].Value)
	assert.True(t, embed.Fields[0].Inline)
	assert.Equal(t, strings.Repeat("x", 200)+"...", embed.Fields[2].Value)
	assert.False(t, embed.Fields[2].Inline)

	assert.Equal(t, "Unknown", got[1].Embeds[0].Fields[1].Value)
}

func TestWebhook_SendSummary(t *testing.T) {
	srv, seen := webhookServer(t, http.StatusNoContent)
	w := NewWebhook(srv.URL, time.Second, 0, nopLogger{})

	require.NoError(t, w.Send(context.Background(), model.Delta{Count: 3, Link: "https://example.com/admin"}))

	got := seen()
	require.Len(t, got, 1)
	assert.Equal(t, "🔔 3 new contact form message(s)!", got[0].Content)
	assert.Equal(t, "New Contact Messages (3)", got[0].Embeds[0].Title)
	assert.Contains(t, got[0].Embeds[0].Description, "https://example.com/admin")
}

func TestWebhook_Non204IsFailure(t *testing.T) {
	srv, seen := webhookServer(t, http.StatusOK)
	w := NewWebhook(srv.URL, time.Second, 0, nopLogger{})

	err := w.Send(context.Background(), model.Delta{Count: 2, Messages: []model.Message{{Name: "a"}, {Name: "b"}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 200")
	assert.Len(t, seen(), 1, "stops at the first failed post")
}

func TestWebhook_EmptyURL(t *testing.T) {
	w := NewWebhook("", time.Second, 1, nopLogger{})
	require.Error(t, w.Send(context.Background(), model.Delta{Count: 1}))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "héllo", truncate("héllo", 5))
	assert.Equal(t, "hé...", truncate("héllo", 2))
}
