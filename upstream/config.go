// Package upstream talks to the game's authorization server and lookup
// APIs. Every request carries the configured site agent and response bodies
// are capped.
package upstream

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-accountsync/core"
	"github.com/goliatone/go-accountsync/ratelimit"
)

const (
	DefaultAuthURL       = "https://login.eveonline.com/oauth/authorize"
	DefaultTokenURL      = "https://login.eveonline.com/oauth/token"
	DefaultVerifyURL     = "https://login.eveonline.com/oauth/verify"
	DefaultESIBaseURL    = "https://esi.evetech.net/latest"
	DefaultXMLAPIBaseURL = "https://api.eveonline.com"

	maxResponseBodyBytes = 1 << 20 // 1 MiB
)

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Config struct {
	AuthURL       string
	TokenURL      string
	VerifyURL     string
	ESIBaseURL    string
	XMLAPIBaseURL string
	ClientID      string
	ClientSecret  string
	SiteAgent     string
	Timeout       time.Duration
	HTTPClient    *http.Client
	// RateLimit, when set, refuses calls to a host while it is throttled
	// and learns from the error limit headers of every response.
	RateLimit *ratelimit.AdaptivePolicy
}

func (c Config) normalized() Config {
	c.AuthURL = firstNonEmpty(c.AuthURL, DefaultAuthURL)
	c.TokenURL = firstNonEmpty(c.TokenURL, DefaultTokenURL)
	c.VerifyURL = firstNonEmpty(c.VerifyURL, DefaultVerifyURL)
	c.ESIBaseURL = strings.TrimSuffix(firstNonEmpty(c.ESIBaseURL, DefaultESIBaseURL), "/")
	c.XMLAPIBaseURL = strings.TrimSuffix(firstNonEmpty(c.XMLAPIBaseURL, DefaultXMLAPIBaseURL), "/")
	c.ClientID = strings.TrimSpace(c.ClientID)
	c.ClientSecret = strings.TrimSpace(c.ClientSecret)
	c.SiteAgent = firstNonEmpty(c.SiteAgent, core.DefaultSiteAgent)
	if c.Timeout <= 0 {
		c.Timeout = core.DefaultUpstreamTimeout
	}
	return c
}

// ConfigFromService copies the shared upstream settings from the service
// configuration.
func ConfigFromService(cfg core.UpstreamConfig) Config {
	return Config{
		SiteAgent: cfg.SiteAgent,
		Timeout:   cfg.Timeout,
	}
}

// httpClient returns a client whose transport stamps the site agent on
// every request.
func (c Config) httpClient() *http.Client {
	base := c.HTTPClient
	if base == nil {
		base = &http.Client{Timeout: c.Timeout}
	}
	next := base.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	if c.RateLimit != nil {
		next = &rateLimitTransport{policy: c.RateLimit, next: next}
	}
	client := *base
	client.Transport = &siteAgentTransport{agent: c.SiteAgent, next: next}
	return &client
}

type siteAgentTransport struct {
	agent string
	next  http.RoundTripper
}

func (t *siteAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	cloned := req.Clone(req.Context())
	cloned.Header.Set("User-Agent", t.agent)
	return t.next.RoundTrip(cloned)
}

type rateLimitTransport struct {
	policy *ratelimit.AdaptivePolicy
	next   http.RoundTripper
}

func (t *rateLimitTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	key := ratelimit.Key{Host: req.URL.Host}
	if err := t.policy.BeforeCall(req.Context(), key); err != nil {
		return nil, err
	}
	resp, err := t.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if err := t.policy.AfterCall(req.Context(), key, ratelimit.Response{StatusCode: resp.StatusCode, Header: resp.Header}); err != nil {
		_ = resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream: %s returned status %d", e.URL, e.StatusCode)
}

func firstNonEmpty(value string, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}
