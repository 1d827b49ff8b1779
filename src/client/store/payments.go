package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"apms/src/client/api"
	"apms/src/client/storage"
	"apms/src/models"
	"apms/src/types"
)

const paymentsCacheKey = "payments"

type paymentsCache struct {
	Items     []models.Payment `json:"items"`
	FetchedAt time.Time        `json:"fetchedAt"`
}

// PaymentsStore keeps a local copy of the resident's payments and applies
// writes optimistically. Writes that fail due to lost connectivity are
// queued and replayed later.
type PaymentsStore struct {
	client *api.Client
	queue  *api.Queue
	store  *storage.Storage
}

func NewPaymentsStore(client *api.Client, queue *api.Queue, store *storage.Storage) *PaymentsStore {
	return &PaymentsStore{client: client, queue: queue, store: store}
}

// Fetch retrieves the resident's payments from the dashboard payload and
// overwrites the local cache wholesale. When the server is unreachable,
// the cached copy is returned instead.
func (s *PaymentsStore) Fetch(ctx context.Context) ([]models.Payment, error) {
	raw, err := s.client.Do(ctx, http.MethodGet, "/resident/dashboard", nil)
	if err != nil {
		if errors.Is(err, api.ErrNetworkUnavailable) {
			return s.Cached()
		}
		return nil, err
	}
	var res struct {
		Payments struct {
			Items []models.Payment `json:"items"`
		} `json:"payments"`
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, err
	}
	cache := paymentsCache{Items: res.Payments.Items, FetchedAt: time.Now()}
	if err := s.store.Set(paymentsCacheKey, cache); err != nil {
		log.Printf("could not persist payments cache: %s\n", err.Error())
	}
	return res.Payments.Items, nil
}

// Cached returns the last fetched payments without touching the network.
func (s *PaymentsStore) Cached() ([]models.Payment, error) {
	var cache paymentsCache
	if _, err := s.store.Get(paymentsCacheKey, &cache); err != nil {
		return nil, err
	}
	return cache.Items, nil
}

// Pay settles a payment. When the server is unreachable the request is
// queued for replay and the cached item is patched optimistically until
// the next successful Fetch. A server rejection leaves the cache alone.
func (s *PaymentsStore) Pay(ctx context.Context, id uint, method types.PaymentMethod) error {
	body, err := json.Marshal(types.PayPaymentRequestBody{PaymentMethod: method})
	if err != nil {
		return err
	}
	path := paymentPayPath(id)
	if _, err := s.client.Do(ctx, http.MethodPost, path, body); err != nil {
		if errors.Is(err, api.ErrNetworkUnavailable) {
			if _, qerr := s.queue.Add(http.MethodPost, path, body); qerr != nil {
				return qerr
			}
			now := time.Now()
			return s.patch(id, func(p *models.Payment) {
				p.Status = types.PAYMENT_PAID
				p.PaymentDate = &now
				p.PaymentMethod = &method
			})
		}
		return err
	}
	return nil
}

// patch applies fn to the cached payment with the given id, if present.
func (s *PaymentsStore) patch(id uint, fn func(*models.Payment)) error {
	var cache paymentsCache
	ok, err := s.store.Get(paymentsCacheKey, &cache)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	for i := range cache.Items {
		if cache.Items[i].ID == id {
			fn(&cache.Items[i])
			break
		}
	}
	return s.store.Set(paymentsCacheKey, cache)
}

func paymentPayPath(id uint) string {
	return fmt.Sprintf("/payments/%d/pay", id)
}
