// Package secapi queries the sec-api.io insider-trading endpoint and pages
// through every Form 4 filed on a date.
package secapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/bighogz/form4-sales/internal/httpclient"
)

const (
	DefaultBaseURL = "https://api.sec-api.io"
	insiderPath    = "/insider-trading"
	userAgent      = "form4-sales/1.0"
)

var tracer = otel.Tracer("github.com/bighogz/form4-sales/internal/secapi")

// Options configures the client.
type Options struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// Client posts queries to the insider-trading endpoint.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = httpclient.Default
	}
	return &Client{
		apiKey:  opts.APIKey,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    opts.HTTPClient,
	}
}

// Query runs one search request. Errors are *APIError for application errors,
// *TransportError for connection failures, and wrapped errors otherwise.
func (c *Client) Query(ctx context.Context, q Query) (*Page, error) {
	ctx, span := tracer.Start(ctx, "secapi.Query")
	defer span.End()
	span.SetAttributes(
		attribute.Int("secapi.from", q.From),
		attribute.Int("secapi.size", q.Size),
	)

	page, err := c.query(ctx, q)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("secapi.total", page.Total.Value),
		attribute.Int("secapi.filings", len(page.Transactions)),
	)
	return page, nil
}

func (c *Client) query(ctx context.Context, q Query) (*Page, error) {
	body, err := json.Marshal(q)
	if err != nil {
		return nil, eris.Wrap(err, "secapi: marshal query")
	}

	u := c.baseURL + insiderPath + "?" + url.Values{"token": {c.apiKey}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "secapi: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "secapi: request cancelled")
		}
		return nil, &TransportError{Err: redactToken(err, c.apiKey)}
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: eris.Wrap(err, "read response body")}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Payload: errorPayload(raw)}
	}

	var page Page
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, eris.Wrapf(err, "secapi: decode response (from=%d)", q.From)
	}
	if len(page.Error) > 0 && !bytes.Equal(bytes.TrimSpace(page.Error), []byte("null")) {
		return nil, &APIError{StatusCode: resp.StatusCode, Payload: page.Error}
	}
	return &page, nil
}

// errorPayload keeps a JSON error body as is and quotes anything else.
func errorPayload(raw []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if json.Valid(trimmed) && len(trimmed) > 0 {
		var body struct {
			Error json.RawMessage `json:"error"`
		}
		if err := json.Unmarshal(trimmed, &body); err == nil && len(body.Error) > 0 {
			return body.Error
		}
		return trimmed
	}
	quoted, _ := json.Marshal(string(trimmed))
	return quoted
}

// redactToken keeps the API key out of error messages, which embed the URL.
func redactToken(err error, key string) error {
	if key == "" || !strings.Contains(err.Error(), key) {
		return err
	}
	return eris.New(strings.ReplaceAll(err.Error(), key, "REDACTED"))
}
