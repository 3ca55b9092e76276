package source

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/net/html"

	"contact-monitor/internal/domain/model"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"

// Markers of the JavaScript WAF page served in place of real content.
var challengeMarkers = []string{"requires Javascript", "aes.js"}

// maxBody caps how much of a response is read.
const maxBody = 4 << 20

func isChallenge(body string) bool {
	for _, m := range challengeMarkers {
		if strings.Contains(body, m) {
			return true
		}
	}
	return false
}

func setBrowserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("DNT", "1")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "none")
	req.Header.Set("Sec-Fetch-User", "?1")
	req.Header.Set("Cache-Control", "max-age=0")
}

// envelope is the JSON body returned by the messages API.
type envelope struct {
	Success  bool            `json:"success"`
	Messages []model.Message `json:"messages"`
	Error    string          `json:"error"`
}

func parseEnvelope(data []byte) (model.Snapshot, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return model.Snapshot{}, fmt.Errorf("decode response: %w", err)
	}
	if !env.Success {
		reason := env.Error
		if reason == "" {
			reason = "Unknown error"
		}
		if strings.Contains(strings.ToLower(reason), "unauthorized") {
			return model.Snapshot{}, fmt.Errorf("%w: %s", model.ErrUnauthorized, reason)
		}
		return model.Snapshot{}, fmt.Errorf("api error: %s", reason)
	}
	if env.Messages == nil {
		env.Messages = []model.Message{}
	}
	return model.ListSnapshot(env.Messages), nil
}

// extractJSONObject returns the first balanced JSON object starting at `{"`.
func extractJSONObject(text string) (string, bool) {
	start := strings.Index(text, `{"`)
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// pageText flattens an HTML document into its text content. Input that does
// not parse is returned unchanged.
func pageText(src string) string {
	node, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return src
	}
	var builder strings.Builder
	extractText(node, &builder)
	return builder.String()
}

func extractText(node *html.Node, builder *strings.Builder) {
	if node.Type == html.ElementNode && (node.Data == "script" || node.Data == "style") {
		return
	}
	if node.Type == html.TextNode {
		builder.WriteString(node.Data)
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		extractText(child, builder)
	}
}
