package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"apms/src/client/storage"

	"github.com/tidwall/gjson"
)

const userStorageKey = "user"

// ErrNetworkUnavailable is returned when the request never reached the
// server. Callers treat it as a signal to queue the write for later.
var ErrNetworkUnavailable = errors.New("network unavailable")

// ServerError is returned when the server answered with a 4xx/5xx status.
// The request made it through, so retrying it as-is will not help.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server responded with %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	BaseURL string
	http    *http.Client
	store   *storage.Storage
}

// NewClient builds a Client. transport may be nil, in which case the
// default transport is used.
func NewClient(baseURL string, store *storage.Storage, transport http.RoundTripper) *Client {
	return &Client{
		BaseURL: baseURL,
		store:   store,
		http: &http.Client{
			Timeout:   15 * time.Second,
			Transport: transport,
		},
	}
}

// token reads the bearer token from the persisted user session, if any.
func (c *Client) token() string {
	raw, ok := c.store.GetRaw(userStorageKey)
	if !ok {
		return ""
	}
	return gjson.GetBytes(raw, "token").String()
}

// Do sends a JSON request and returns the raw response body. A transport
// failure maps to ErrNetworkUnavailable; a 4xx/5xx status maps to
// *ServerError with the server's error message extracted from the body.
func (c *Client) Do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkUnavailable, err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if res.StatusCode >= http.StatusBadRequest {
		msg := gjson.GetBytes(data, "error").String()
		if msg == "" {
			msg = res.Status
		}
		return nil, &ServerError{StatusCode: res.StatusCode, Message: msg}
	}
	return data, nil
}

// DoJSON marshals body and sends it with Do.
func (c *Client) DoJSON(ctx context.Context, method, path string, body any) ([]byte, error) {
	var raw []byte
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		if err != nil {
			return nil, err
		}
	}
	return c.Do(ctx, method, path, raw)
}
