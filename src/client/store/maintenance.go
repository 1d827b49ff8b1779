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

const maintenanceCacheKey = "maintenanceRequests"

type maintenanceCache struct {
	Items     []models.Maintenance `json:"items"`
	FetchedAt time.Time            `json:"fetchedAt"`
}

// MaintenanceStore mirrors PaymentsStore for maintenance requests.
type MaintenanceStore struct {
	client *api.Client
	queue  *api.Queue
	store  *storage.Storage
}

func NewMaintenanceStore(client *api.Client, queue *api.Queue, store *storage.Storage) *MaintenanceStore {
	return &MaintenanceStore{client: client, queue: queue, store: store}
}

func (s *MaintenanceStore) Fetch(ctx context.Context) ([]models.Maintenance, error) {
	raw, err := s.client.Do(ctx, http.MethodGet, "/maintenance", nil)
	if err != nil {
		if errors.Is(err, api.ErrNetworkUnavailable) {
			return s.Cached()
		}
		return nil, err
	}
	var res struct {
		Data []models.Maintenance `json:"data"`
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, err
	}
	cache := maintenanceCache{Items: res.Data, FetchedAt: time.Now()}
	if err := s.store.Set(maintenanceCacheKey, cache); err != nil {
		log.Printf("could not persist maintenance cache: %s\n", err.Error())
	}
	return res.Data, nil
}

func (s *MaintenanceStore) Cached() ([]models.Maintenance, error) {
	var cache maintenanceCache
	if _, err := s.store.Get(maintenanceCacheKey, &cache); err != nil {
		return nil, err
	}
	return cache.Items, nil
}

// Create submits a new maintenance request. When the server is
// unreachable the request is queued and the cached list gets an
// optimistic placeholder entry; its temporary id is replaced by the
// server-assigned one on the next successful Fetch.
func (s *MaintenanceStore) Create(ctx context.Context, body types.CreateMaintenanceRequestBody) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	if _, err := s.client.Do(ctx, http.MethodPost, "/maintenance", raw); err != nil {
		if errors.Is(err, api.ErrNetworkUnavailable) {
			if _, qerr := s.queue.Add(http.MethodPost, "/maintenance", raw); qerr != nil {
				return qerr
			}
			placeholder := models.Maintenance{
				ID:          uint(time.Now().UnixMilli()),
				ApartmentNo: body.ApartmentNo,
				Title:       body.Title,
				Description: body.Description,
				Category:    body.Category,
				Priority:    body.Priority,
				Status:      types.MAINTENANCE_PENDING,
			}
			if placeholder.Priority == "" {
				placeholder.Priority = types.PRIORITY_MEDIUM
			}
			return s.append(placeholder)
		}
		return err
	}
	return nil
}

// Cancel marks a request as cancelled on the server, patching the cache
// optimistically only when the write has to be queued.
func (s *MaintenanceStore) Cancel(ctx context.Context, id uint) error {
	cancelled := types.MAINTENANCE_CANCELLED
	raw, err := json.Marshal(types.UpdateMaintenanceRequestBody{Status: &cancelled})
	if err != nil {
		return err
	}
	path := fmt.Sprintf("/maintenance/%d", id)
	if _, err := s.client.Do(ctx, http.MethodPut, path, raw); err != nil {
		if errors.Is(err, api.ErrNetworkUnavailable) {
			if _, qerr := s.queue.Add(http.MethodPut, path, raw); qerr != nil {
				return qerr
			}
			return s.patch(id, func(m *models.Maintenance) {
				m.Status = types.MAINTENANCE_CANCELLED
			})
		}
		return err
	}
	return nil
}

func (s *MaintenanceStore) append(item models.Maintenance) error {
	var cache maintenanceCache
	if _, err := s.store.Get(maintenanceCacheKey, &cache); err != nil {
		return err
	}
	cache.Items = append(cache.Items, item)
	return s.store.Set(maintenanceCacheKey, cache)
}

func (s *MaintenanceStore) patch(id uint, fn func(*models.Maintenance)) error {
	var cache maintenanceCache
	ok, err := s.store.Get(maintenanceCacheKey, &cache)
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
	return s.store.Set(maintenanceCacheKey, cache)
}
