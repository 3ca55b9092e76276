package source

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contact-monitor/internal/domain/model"
)

const renderedJSON = `<html><head></head><body><pre style="word-wrap: break-word;">{"success":true,"messages":[{"name":"Ann","message":"a {brace} &amp; \"quote\""},{"name":"Bob"}]}</pre></body></html>`

func TestBrowserFetcher_Fetch(t *testing.T) {
	ctx := context.Background()

	t.Run("parses rendered json", func(t *testing.T) {
		var gotTarget string
		f := NewBrowserFetcher("https://example.com/api.php", "key", BrowserOptions{}, fastRetry(1), nopLogger{}).
			WithLoader(func(_ context.Context, target string) (string, error) {
				gotTarget = target
				return renderedJSON, nil
			})

		snap, err := f.Fetch(ctx)
		require.NoError(t, err)

		assert.Equal(t, "https://example.com/api.php?api_key=key", gotTarget)
		require.Equal(t, 2, snap.Count)
		assert.Equal(t, `a {brace} & "quote"`, snap.Messages[0].Body)
	})

	t.Run("challenge then success", func(t *testing.T) {
		calls := 0
		f := NewBrowserFetcher("https://example.com/api.php", "key", BrowserOptions{}, fastRetry(3), nopLogger{}).
			WithLoader(func(context.Context, string) (string, error) {
				calls++
				if calls < 3 {
					return `<html><body>This site requires Javascript</body></html>`, nil
				}
				return renderedJSON, nil
			})

		snap, err := f.Fetch(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, snap.Count)
		assert.Equal(t, 3, calls)
	})

	t.Run("unauthorized", func(t *testing.T) {
		f := NewBrowserFetcher("https://example.com/api.php", "key", BrowserOptions{}, fastRetry(3), nopLogger{}).
			WithLoader(func(context.Context, string) (string, error) {
				return `<html><body>Unauthorized</body></html>`, nil
			})

		_, err := f.Fetch(ctx)
		require.ErrorIs(t, err, model.ErrUnauthorized)
	})

	t.Run("loader failure", func(t *testing.T) {
		calls := 0
		f := NewBrowserFetcher("https://example.com/api.php", "key", BrowserOptions{}, fastRetry(2), nopLogger{}).
			WithLoader(func(context.Context, string) (string, error) {
				calls++
				return "", errors.New("chrome not found")
			})

		_, err := f.Fetch(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "chrome not found")
		assert.Equal(t, 2, calls)
	})
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{name: "plain", in: `{"a":1}`, want: `{"a":1}`, ok: true},
		{name: "prefix and suffix", in: `junk {"a":{"b":2}} tail }`, want: `{"a":{"b":2}}`, ok: true},
		{name: "braces in strings", in: `{"a":"}{","b":"\"}"}`, want: `{"a":"}{","b":"\"}"}`, ok: true},
		{name: "unterminated", in: `{"a":{"b":1}`, ok: false},
		{name: "none", in: `<html></html>`, ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractJSONObject(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPageText_SkipsScripts(t *testing.T) {
	got := pageText(`<html><head><script>var x = {"a":1};</script></head><body><p>Hello</p> <b>world</b></body></html>`)
	assert.Equal(t, "Hello world", got)
}

func TestRetry_StopsOnPermanentError(t *testing.T) {
	calls := 0
	_, err := retry(context.Background(), fastRetry(5), nopLogger{}, "test", func(context.Context) (int, error) {
		calls++
		return 0, errors.New("permanent")
	})
	require.EqualError(t, err, "permanent")
	assert.Equal(t, 1, calls)
}

func TestRetry_Exponential(t *testing.T) {
	calls := 0
	p := RetryPolicy{MaxAttempts: 3, Exponential: true}
	v, err := retry(context.Background(), p, nopLogger{}, "test", func(context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, transient(errors.New("flaky"))
		}
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestRetry_CanceledContextNotRetried(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := retry(ctx, fastRetry(3), nopLogger{}, "test", func(context.Context) (int, error) {
		calls++
		return 0, transient(context.Canceled)
	})
	require.Error(t, err)
	assert.LessOrEqual(t, calls, 1)
}
