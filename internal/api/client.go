// Package api is the client for the upstream REST API that owns users,
// catalog, bookings and content. Every exported method wraps exactly one
// endpoint and carries no business rules.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/diagnosis/concierge/internal/apierr"
	"github.com/diagnosis/concierge/pkg/logger"
	"github.com/google/go-querystring/query"
)

// TokenSource supplies the bearer token for authenticated calls.
// An empty token means the call is sent anonymously.
type TokenSource interface {
	AccessToken() string
}

type staticToken string

func (s staticToken) AccessToken() string { return string(s) }

type Client struct {
	baseURL string
	client  *http.Client
	tokens  TokenSource
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
		tokens: staticToken(""),
	}
}

// WithTokenSource returns a copy of c that authenticates with ts.
func (c *Client) WithTokenSource(ts TokenSource) *Client {
	cp := *c
	cp.tokens = ts
	return &cp
}

// WithToken returns a copy of c that authenticates with a fixed token.
func (c *Client) WithToken(token string) *Client {
	return c.WithTokenSource(staticToken(token))
}

type requestOption func(*http.Request)

func withIdempotencyKey(key string) requestOption {
	return func(r *http.Request) {
		if key != "" {
			r.Header.Set("Idempotency-Key", key)
		}
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, q any, body io.Reader, contentType string) (*http.Request, error) {
	u := c.baseURL + path
	if q != nil {
		values, err := query.Values(q)
		if err != nil {
			return nil, fmt.Errorf("failed to encode query: %w", err)
		}
		if encoded := values.Encode(); encoded != "" {
			u += "?" + encoded
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token := c.tokens.AccessToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if requestID := logger.RequestID(ctx); requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}

	return req, nil
}

func (c *Client) send(req *http.Request, out any) error {
	op := req.Method + " " + req.URL.Path

	logger.DebugContext(req.Context(), "Calling upstream API", "method", req.Method, "url", req.URL.String())

	resp, err := c.client.Do(req)
	if err != nil {
		return &apierr.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return &apierr.TransportError{Op: op, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, q, in, out any, opts ...requestOption) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(payload)
		contentType = "application/json"
	}

	req, err := c.newRequest(ctx, method, path, q, body, contentType)
	if err != nil {
		return err
	}
	for _, opt := range opts {
		opt(req)
	}
	return c.send(req, out)
}

func (c *Client) doForm(ctx context.Context, path string, form, out any) error {
	values, err := query.Values(form)
	if err != nil {
		return fmt.Errorf("failed to encode form: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, nil, strings.NewReader(values.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		return err
	}
	return c.send(req, out)
}

// Upload is a single file part for a multipart request.
type Upload struct {
	Field    string
	Filename string
	Body     io.Reader
	Fields   map[string]string
}

func (c *Client) doMultipart(ctx context.Context, method, path string, up Upload, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for k, v := range up.Fields {
		if err := mw.WriteField(k, v); err != nil {
			return fmt.Errorf("failed to write form field %q: %w", k, err)
		}
	}

	field := up.Field
	if field == "" {
		field = "file"
	}
	part, err := mw.CreateFormFile(field, up.Filename)
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, up.Body); err != nil {
		return fmt.Errorf("failed to copy upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := c.newRequest(ctx, method, path, nil, &buf, mw.FormDataContentType())
	if err != nil {
		return err
	}
	return c.send(req, out)
}

// errorBody covers the error shapes the upstream API produces:
// {"detail": "..."}, {"detail": [{"loc": [...], "msg": "..."}]},
// {"message": "..."} and {"error": "..."}.
type errorBody struct {
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

type validationItem struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	return &apierr.StatusError{Status: resp.StatusCode, Detail: parseDetail(raw)}
}

func parseDetail(raw []byte) string {
	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return strings.TrimSpace(string(raw))
	}

	if len(body.Detail) > 0 {
		var s string
		if err := json.Unmarshal(body.Detail, &s); err == nil {
			return s
		}
		var items []validationItem
		if err := json.Unmarshal(body.Detail, &items); err == nil {
			msgs := make([]string, 0, len(items))
			for _, it := range items {
				if field := lastLoc(it.Loc); field != "" {
					msgs = append(msgs, field+": "+it.Msg)
				} else {
					msgs = append(msgs, it.Msg)
				}
			}
			return strings.Join(msgs, "; ")
		}
	}

	if body.Message != "" {
		return body.Message
	}
	return body.Error
}

func lastLoc(loc []any) string {
	if len(loc) == 0 {
		return ""
	}
	if s, ok := loc[len(loc)-1].(string); ok && s != "body" {
		return s
	}
	return ""
}

func itemPath(base, id string) string {
	return base + "/" + url.PathEscape(id)
}
