package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	"github.com/lineagelab/olgen/internal/openlineage"
)

type HTTPConfig struct {
	// URL is the ingestion endpoint, e.g. http://localhost:8080/api/v1/lineage.
	URL     string
	Timeout time.Duration

	// EventsPerSecond throttles delivery for load pacing. Zero disables the
	// limiter.
	EventsPerSecond float64

	// OAuth2 client-credentials flow for authenticated endpoints. Leaving
	// TokenURL empty sends unauthenticated requests.
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

func (c HTTPConfig) Validate() error {
	if c.URL == "" {
		return errors.New("url is required")
	}
	u, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https (got %q)", u.Scheme)
	}
	if c.EventsPerSecond < 0 {
		return errors.New("events per second must be >= 0")
	}
	if c.TokenURL != "" && c.ClientID == "" {
		return errors.New("client id is required when token url is set")
	}
	return nil
}

// HTTPSink posts each event of the batch to a lineage ingestion endpoint,
// one request per event, in batch order.
type HTTPSink struct {
	cfg     HTTPConfig
	client  *http.Client
	limiter *rate.Limiter
}

func NewHTTPSink(ctx context.Context, cfg HTTPConfig) (*HTTPSink, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	base := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: newTransport(),
	}
	client := base
	if cfg.TokenURL != "" {
		cc := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			Scopes:       cfg.Scopes,
		}
		client = cc.Client(context.WithValue(ctx, oauth2.HTTPClient, base))
		client.Timeout = cfg.Timeout
	}

	var limiter *rate.Limiter
	if cfg.EventsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.EventsPerSecond), 1)
	}

	return &HTTPSink{cfg: cfg, client: client, limiter: limiter}, nil
}

func (s *HTTPSink) Write(ctx context.Context, events []openlineage.RunEvent) error {
	for i, ev := range events {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return fmt.Errorf("rate wait before event %d: %w", i, err)
			}
		}
		if err := s.post(ctx, ev); err != nil {
			return fmt.Errorf("post event %d of %d to %s: %w", i+1, len(events), s.cfg.URL, err)
		}
	}
	return nil
}

func (s *HTTPSink) post(ctx context.Context, ev openlineage.RunEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func newTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}
