package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"

	"contact-monitor/internal/domain/model"
	"contact-monitor/internal/domain/ports"
)

const (
	dashboardMarker = "Contact Form Messages"
	messageDiv      = `<div class="message">`
)

var totalMessagesRE = regexp.MustCompile(`Total Messages:\s*(\d+)`)

// AdminScraper logs into the admin panel and reads the message count from
// the dashboard HTML.
type AdminScraper struct {
	adminURL string
	password string
	timeout  time.Duration
	retry    RetryPolicy
	logger   ports.Logger
}

var _ ports.Fetcher = (*AdminScraper)(nil)

// NewAdminScraper creates a scraper for the admin panel at adminURL.
func NewAdminScraper(adminURL, password string, timeout time.Duration, retry RetryPolicy, logger ports.Logger) *AdminScraper {
	return &AdminScraper{
		adminURL: adminURL,
		password: password,
		timeout:  timeout,
		retry:    retry,
		logger:   logger,
	}
}

type adminPage struct {
	body string
	url  *url.URL
}

// Fetch logs in when needed and returns the dashboard message count.
func (s *AdminScraper) Fetch(ctx context.Context) (model.Snapshot, error) {
	client, err := s.newClient()
	if err != nil {
		return model.Snapshot{}, err
	}

	s.logger.Info(ctx, "accessing admin panel", "url", s.adminURL)
	page, err := retry(ctx, s.retry, s.logger, "admin", func(ctx context.Context) (adminPage, error) {
		return s.get(ctx, client)
	})
	if err != nil {
		return model.Snapshot{}, err
	}

	switch form, hasForm := findLoginForm(page.body, page.url); {
	case strings.Contains(page.body, dashboardMarker):
		s.logger.Debug(ctx, "already logged in")
	case hasForm:
		s.logger.Info(ctx, "submitting admin login")
		page, err = s.login(ctx, client, form)
		if err != nil {
			return model.Snapshot{}, err
		}
		if !strings.Contains(page.body, dashboardMarker) {
			return model.Snapshot{}, fmt.Errorf("%w: admin login rejected, check password", model.ErrUnauthorized)
		}
	default:
		return model.Snapshot{}, fmt.Errorf("unexpected admin page content: %s", snippet([]byte(page.body)))
	}

	count := parseMessageCount(page.body)
	s.logger.Info(ctx, "read admin message count", "count", count)
	return model.CountSnapshot(count), nil
}

func (s *AdminScraper) newClient() (*http.Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	return &http.Client{Timeout: s.timeout, Jar: jar}, nil
}

func (s *AdminScraper) get(ctx context.Context, client *http.Client) (adminPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.adminURL, http.NoBody)
	if err != nil {
		return adminPage{}, fmt.Errorf("create request: %w", err)
	}
	setBrowserHeaders(req)
	return s.do(client, req)
}

func (s *AdminScraper) login(ctx context.Context, client *http.Client, form loginForm) (adminPage, error) {
	values := form.values
	values.Set(form.passwordField, s.password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, form.action, strings.NewReader(values.Encode()))
	if err != nil {
		return adminPage{}, fmt.Errorf("create login request: %w", err)
	}
	setBrowserHeaders(req)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return s.do(client, req)
}

func (s *AdminScraper) do(client *http.Client, req *http.Request) (adminPage, error) {
	resp, err := client.Do(req)
	if err != nil {
		return adminPage{}, transient(fmt.Errorf("perform request: %w", err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return adminPage{}, transient(fmt.Errorf("read response: %w", err))
	}
	if err := classifyStatus(resp.StatusCode, data); err != nil {
		return adminPage{}, err
	}

	body := string(data)
	if isChallenge(body) {
		return adminPage{}, transient(model.ErrChallengeDetected)
	}
	return adminPage{body: body, url: resp.Request.URL}, nil
}

// parseMessageCount prefers the "Total Messages: N" banner and falls back to
// counting message blocks.
func parseMessageCount(body string) int {
	if m := totalMessagesRE.FindStringSubmatch(body); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n
		}
	}
	return strings.Count(body, messageDiv)
}

type loginForm struct {
	action        string
	passwordField string
	values        url.Values
}

// findLoginForm looks for a form holding a password input and collects its
// other named inputs so hidden tokens are submitted back.
func findLoginForm(body string, base *url.URL) (loginForm, bool) {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return loginForm{}, false
	}

	var found *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode && n.Data == "form" && passwordInput(n) != nil {
			found = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	if found == nil {
		return loginForm{}, false
	}

	form := loginForm{passwordField: "password", values: url.Values{}}
	if name := attr(passwordInput(found), "name"); name != "" {
		form.passwordField = name
	}

	action := attr(found, "action")
	switch {
	case base == nil:
		form.action = action
	case action == "":
		form.action = base.String()
	default:
		ref, err := url.Parse(action)
		if err != nil {
			return loginForm{}, false
		}
		form.action = base.ResolveReference(ref).String()
	}

	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "input" {
			name := attr(n, "name")
			typ := strings.ToLower(attr(n, "type"))
			if name != "" && typ != "password" && typ != "submit" && typ != "checkbox" {
				form.values.Set(name, attr(n, "value"))
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(found)
	return form, true
}

func passwordInput(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "input" && strings.EqualFold(attr(n, "type"), "password") {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if in := passwordInput(c); in != nil {
			return in
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
