package api

import (
	"context"
	"errors"
	"net/http"
	"path"
	"sync"
	"testing"
	"time"

	"apms/src/client/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type QueueTestSuite struct {
	suite.Suite
}

func (s *QueueTestSuite) newQueue(transport http.RoundTripper) (*Queue, *storage.Storage) {
	store, err := storage.New(path.Join(s.T().TempDir(), "app.json"))
	assert.Nil(s.T(), err)
	client := NewClient("http://api.local/api/v1", store, transport)
	return NewQueue(client, store), store
}

func (s *QueueTestSuite) TestDrainReplaysInOrder() {
	var mu sync.Mutex
	var served []string
	q, _ := s.newQueue(roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		mu.Lock()
		served = append(served, r.Method+" "+r.URL.Path)
		mu.Unlock()
		return jsonResponse(200, `{"data":{}}`), nil
	}))

	_, err := q.Add(http.MethodPost, "/payments/1/pay", []byte(`{"payment_method":"CASH"}`))
	assert.Nil(s.T(), err)
	time.Sleep(time.Millisecond)
	_, err = q.Add(http.MethodPost, "/maintenance", []byte(`{"title":"leak"}`))
	assert.Nil(s.T(), err)
	time.Sleep(time.Millisecond)
	_, err = q.Add(http.MethodPut, "/maintenance/3", []byte(`{"status":"CANCELLED"}`))
	assert.Nil(s.T(), err)

	err = q.Drain(context.Background())
	assert.Nil(s.T(), err)

	assert.Equal(s.T(), []string{
		"POST /api/v1/payments/1/pay",
		"POST /api/v1/maintenance",
		"PUT /api/v1/maintenance/3",
	}, served)

	entries, err := q.Entries()
	assert.Nil(s.T(), err)
	assert.Empty(s.T(), entries)
}

func (s *QueueTestSuite) TestDrainStopsOnNetworkFailure() {
	var mu sync.Mutex
	calls := 0
	q, _ := s.newQueue(roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls >= 2 {
			return nil, errors.New("dial tcp: network is unreachable")
		}
		return jsonResponse(200, `{"data":{}}`), nil
	}))

	first, _ := q.Add(http.MethodPost, "/payments/1/pay", nil)
	time.Sleep(time.Millisecond)
	second, _ := q.Add(http.MethodPost, "/payments/2/pay", nil)
	time.Sleep(time.Millisecond)
	third, _ := q.Add(http.MethodPost, "/payments/3/pay", nil)

	err := q.Drain(context.Background())
	assert.True(s.T(), errors.Is(err, ErrNetworkUnavailable))

	entries, err := q.Entries()
	assert.Nil(s.T(), err)
	assert.Len(s.T(), entries, 2)
	assert.Equal(s.T(), second.ID, entries[0].ID)
	assert.Equal(s.T(), third.ID, entries[1].ID)
	assert.NotEqual(s.T(), first.ID, entries[0].ID)
}

func (s *QueueTestSuite) TestDrainDropsRejectedEntries() {
	var mu sync.Mutex
	var served []string
	q, _ := s.newQueue(roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		mu.Lock()
		served = append(served, r.URL.Path)
		mu.Unlock()
		if r.URL.Path == "/api/v1/payments/2/pay" {
			return jsonResponse(400, `{"error":"payment has already been made"}`), nil
		}
		return jsonResponse(200, `{"data":{}}`), nil
	}))

	q.Add(http.MethodPost, "/payments/1/pay", nil)
	time.Sleep(time.Millisecond)
	q.Add(http.MethodPost, "/payments/2/pay", nil)
	time.Sleep(time.Millisecond)
	q.Add(http.MethodPost, "/payments/3/pay", nil)

	err := q.Drain(context.Background())
	assert.Nil(s.T(), err)

	entries, err := q.Entries()
	assert.Nil(s.T(), err)
	assert.Empty(s.T(), entries)

	// a second drain has nothing left to resend
	err = q.Drain(context.Background())
	assert.Nil(s.T(), err)
	assert.Len(s.T(), served, 3)
}

func (s *QueueTestSuite) TestConcurrentDrainDeliversOnce() {
	var mu sync.Mutex
	calls := 0
	q, _ := s.newQueue(roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		return jsonResponse(200, `{"data":{}}`), nil
	}))

	for i := 0; i < 4; i++ {
		q.Add(http.MethodPost, "/maintenance", []byte(`{}`))
		time.Sleep(time.Millisecond)
	}

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Drain(context.Background())
		}()
	}
	wg.Wait()
	// the losers of the CAS return without replaying, so one more drain
	// finishes whatever the winner left behind
	err := q.Drain(context.Background())
	assert.Nil(s.T(), err)

	assert.Equal(s.T(), 4, calls)
	entries, _ := q.Entries()
	assert.Empty(s.T(), entries)
}

func (s *QueueTestSuite) TestQueueSurvivesReopen() {
	file := path.Join(s.T().TempDir(), "app.json")
	store, err := storage.New(file)
	assert.Nil(s.T(), err)
	client := NewClient("http://api.local/api/v1", store, nil)
	q := NewQueue(client, store)

	first, err := q.Add(http.MethodPost, "/payments/1/pay", []byte(`{"payment_method":"CASH"}`))
	assert.Nil(s.T(), err)
	time.Sleep(time.Millisecond)
	second, err := q.Add(http.MethodPost, "/maintenance", []byte(`{"title":"leak"}`))
	assert.Nil(s.T(), err)

	reopened, err := storage.New(file)
	assert.Nil(s.T(), err)
	q2 := NewQueue(NewClient("http://api.local/api/v1", reopened, nil), reopened)

	entries, err := q2.Entries()
	assert.Nil(s.T(), err)
	assert.Len(s.T(), entries, 2)
	assert.Equal(s.T(), first.ID, entries[0].ID)
	assert.Equal(s.T(), second.ID, entries[1].ID)
}

func TestQueueRunner(t *testing.T) {
	suite.Run(t, new(QueueTestSuite))
}
