package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"path"
	"testing"

	"apms/src/client/storage"

	"github.com/stretchr/testify/assert"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func newTestStorage(t *testing.T) *storage.Storage {
	s, err := storage.New(path.Join(t.TempDir(), "app.json"))
	assert.Nil(t, err)
	return s
}

func TestClientSendsBearerToken(t *testing.T) {
	store := newTestStorage(t)
	err := store.Set("user", map[string]string{"token": "tok-123"})
	assert.Nil(t, err)

	var gotAuth string
	client := NewClient("http://api.local/api/v1", store, roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		gotAuth = r.Header.Get("Authorization")
		return jsonResponse(200, `{"data":[]}`), nil
	}))

	_, err = client.Do(context.Background(), http.MethodGet, "/payments", nil)
	assert.Nil(t, err)
	assert.Equal(t, "Bearer tok-123", gotAuth)
}

func TestClientMapsTransportFailure(t *testing.T) {
	store := newTestStorage(t)
	client := NewClient("http://api.local/api/v1", store, roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		return nil, errors.New("dial tcp: no route to host")
	}))

	_, err := client.Do(context.Background(), http.MethodGet, "/payments", nil)
	assert.True(t, errors.Is(err, ErrNetworkUnavailable))
}

func TestClientMapsServerRejection(t *testing.T) {
	store := newTestStorage(t)
	client := NewClient("http://api.local/api/v1", store, roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(400, `{"error":"Bu zaman diliminde başka bir rezervasyon bulunmaktadır"}`), nil
	}))

	_, err := client.Do(context.Background(), http.MethodPost, "/reservations", []byte(`{}`))
	var serverErr *ServerError
	assert.True(t, errors.As(err, &serverErr))
	assert.Equal(t, 400, serverErr.StatusCode)
	assert.Equal(t, "Bu zaman diliminde başka bir rezervasyon bulunmaktadır", serverErr.Message)
	assert.False(t, errors.Is(err, ErrNetworkUnavailable))
}
