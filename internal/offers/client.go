// Package offers fetches the external offer catalog on demand. The feed
// is not owned or cached here; responses are normalized and forwarded.
package offers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// devFallbackIP stands in for loopback addresses during local testing;
// the upstream API rejects non-routable client IPs.
const devFallbackIP = "8.8.8.8"

const defaultTimeout = 10 * time.Second

var ErrMissingAPIKey = errors.New("offers api key is not configured")

// UpstreamError carries the status the feed answered with, so the
// handler can pass it through instead of masking it as a 500.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("offer feed returned %d", e.StatusCode)
}

// Params identifies the requesting user towards the feed. IP and
// UserAgent are required upstream; SubID rides along in aff_sub4 so
// completions can be attributed on the postback.
type Params struct {
	IP        string
	UserAgent string
	CType     string
	Max       string
	Min       string
	SubID     string
	Sub5      string
}

type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

// Fetch returns the normalized offer list. The upstream body may be a
// bare array or wrap the list under offers/items/data; all shapes come
// back as one flat slice.
func (c *Client) Fetch(ctx context.Context, p Params) ([]json.RawMessage, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	ip := p.IP
	if ip == "" || ip == "::1" || ip == "127.0.0.1" {
		ip = devFallbackIP
	}
	userAgent := p.UserAgent
	if userAgent == "" {
		userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/120 Safari/537.36"
	}

	q := url.Values{}
	q.Set("ip", ip)
	q.Set("user_agent", userAgent)
	q.Set("ctype", orDefault(p.CType, "3"))
	q.Set("max", orDefault(p.Max, "20"))
	if p.Min != "" {
		q.Set("min", p.Min)
	}
	if p.SubID != "" {
		q.Set("aff_sub4", p.SubID)
	}
	if p.Sub5 != "" {
		q.Set("aff_sub5", p.Sub5)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return normalize(body)
}

func normalize(body []byte) ([]json.RawMessage, error) {
	var list []json.RawMessage
	if err := json.Unmarshal(body, &list); err == nil {
		return list, nil
	}

	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("unexpected feed payload: %w", err)
	}
	for _, key := range []string{"offers", "items", "data"} {
		raw, ok := wrapped[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("unexpected feed payload under %q: %w", key, err)
		}
		return list, nil
	}
	return []json.RawMessage{}, nil
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// SubIDFromAccount renders an account id for the aff_sub4 field.
func SubIDFromAccount(id int64) string {
	return strconv.FormatInt(id, 10)
}
