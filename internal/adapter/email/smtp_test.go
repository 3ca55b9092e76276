package email

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	mail "github.com/wneessen/go-mail"

	"contact-monitor/internal/domain/model"
)

type nopLogger struct{}

func (nopLogger) Debug(context.Context, string, ...any) {}
func (nopLogger) Info(context.Context, string, ...any)  {}
func (nopLogger) Warn(context.Context, string, ...any)  {}
func (nopLogger) Error(context.Context, string, ...any) {}

func newTestChannel(capture *[]*mail.Msg, err error) *Channel {
	return New(Options{Host: "smtp.example.com", Port: 587, Username: "me@example.com", To: "owner@example.com"}, nopLogger{}).
		WithSender(func(_ context.Context, msgs ...*mail.Msg) error {
			*capture = append(*capture, msgs...)
			return err
		})
}

func render(t *testing.T, m *mail.Msg) string {
	t.Helper()
	var buf bytes.Buffer
	_, err := m.WriteTo(&buf)
	require.NoError(t, err)
	return buf.String()
}

func TestChannel_SendPerMessage(t *testing.T) {
	var sent []*mail.Msg
	c := newTestChannel(&sent, nil)

	delta := model.Delta{Count: 2, Messages: []model.Message{
		{Name: "Ann", Email: "ann@example.com", Body: "Please call me", Timestamp: "2026-01-01"},
		{Email: "anon@example.com"},
	}}
	require.NoError(t, c.Send(context.Background(), delta))
	require.Len(t, sent, 2)

	assert.Equal(t, []string{"New Contact Message from Ann"}, sent[0].GetGenHeader(mail.HeaderSubject))
	first := render(t, sent[0])
	assert.Contains(t, first, "Name: Ann")
	assert.Contains(t, first, "Please call me")
	assert.Contains(t, first, "owner@example.com")

	assert.Equal(t, []string{"New Contact Message from Unknown"}, sent[1].GetGenHeader(mail.HeaderSubject))
	assert.Contains(t, render(t, sent[1]), "No message content")
}

func TestChannel_SendSummary(t *testing.T) {
	var sent []*mail.Msg
	c := newTestChannel(&sent, nil)

	require.NoError(t, c.Send(context.Background(), model.Delta{Count: 4, Link: "https://example.com/admin"}))
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"New Contact Messages (4)"}, sent[0].GetGenHeader(mail.HeaderSubject))
	assert.Contains(t, render(t, sent[0]), "https://example.com/admin")
}

func TestChannel_SendError(t *testing.T) {
	var sent []*mail.Msg
	c := newTestChannel(&sent, errors.New("535 authentication failed"))

	err := c.Send(context.Background(), model.Delta{Count: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "535")
}

func TestChannel_BadAddress(t *testing.T) {
	c := New(Options{Username: "not an address", To: "owner@example.com"}, nopLogger{})
	err := c.Send(context.Background(), model.Delta{Count: 1})
	require.Error(t, err)
}
