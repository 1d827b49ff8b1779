package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"apms/src/client/storage"
)

const queueStorageKey = "apiQueue"

// QueueEntry is one deferred write. Entries are replayed in insertion
// order once connectivity returns.
type QueueEntry struct {
	ID     string          `json:"id"`
	Method string          `json:"method"`
	Path   string          `json:"path"`
	Body   json.RawMessage `json:"body,omitempty"`
}

// Queue persists writes that failed due to lost connectivity and replays
// them FIFO against the server.
type Queue struct {
	client   *Client
	store    *storage.Storage
	mu       sync.Mutex
	draining atomic.Bool
}

func NewQueue(client *Client, store *storage.Storage) *Queue {
	return &Queue{client: client, store: store}
}

// Add appends a deferred write to the persisted queue.
func (q *Queue) Add(method, path string, body []byte) (QueueEntry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	entries, err := q.load()
	if err != nil {
		return QueueEntry{}, err
	}
	entry := QueueEntry{
		ID:     strconv.FormatInt(time.Now().UnixNano(), 10),
		Method: method,
		Path:   path,
		Body:   body,
	}
	entries = append(entries, entry)
	if err := q.store.Set(queueStorageKey, entries); err != nil {
		return QueueEntry{}, err
	}
	return entry, nil
}

// Entries returns the pending writes, oldest first.
func (q *Queue) Entries() ([]QueueEntry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.load()
}

// Remove deletes the entry with the given id, if present.
func (q *Queue) Remove(id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	entries, err := q.load()
	if err != nil {
		return err
	}
	kept := entries[:0]
	for _, e := range entries {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	return q.store.Set(queueStorageKey, kept)
}

// Drain replays pending entries in order. A network failure stops the
// replay and keeps the remaining entries for the next attempt. A server
// rejection drops the entry, since replaying it verbatim cannot succeed.
// Only one drain runs at a time; concurrent calls return immediately.
func (q *Queue) Drain(ctx context.Context) error {
	if !q.draining.CompareAndSwap(false, true) {
		return nil
	}
	defer q.draining.Store(false)

	entries, err := q.Entries()
	if err != nil {
		return err
	}
	for _, entry := range entries {
		_, err := q.client.Do(ctx, entry.Method, entry.Path, entry.Body)
		if err != nil {
			if errors.Is(err, ErrNetworkUnavailable) {
				return err
			}
			var serverErr *ServerError
			if errors.As(err, &serverErr) {
				log.Printf("dropping queued request %s %s: %s\n", entry.Method, entry.Path, serverErr.Message)
				if err := q.Remove(entry.ID); err != nil {
					return err
				}
				continue
			}
			return err
		}
		if err := q.Remove(entry.ID); err != nil {
			return err
		}
	}
	return nil
}

// load reads the persisted queue. Callers must hold q.mu.
func (q *Queue) load() ([]QueueEntry, error) {
	var entries []QueueEntry
	if _, err := q.store.Get(queueStorageKey, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
