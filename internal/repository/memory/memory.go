// Package memory provides a map-backed Store used by the test suites and by
// the standalone mode that runs the application without a database.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"biostorex/internal/domain/models"
	"biostorex/internal/repository"
)

// Store is a mutex-guarded in-memory implementation of repository.Store.
// Records are copied on the way in and out so callers never share memory
// with the store.
type Store struct {
	mu        sync.RWMutex
	items     map[string]models.Item
	itemOrder []string
	requests  map[string]models.Request
	reqOrder  []string
	users     map[string]models.User
	userOrder []string
	stockLogs []models.StockLog
	issueLogs []models.IssueLog
}

// New creates an empty store.
func New() *Store {
	return &Store{
		items:    make(map[string]models.Item),
		requests: make(map[string]models.Request),
		users:    make(map[string]models.User),
	}
}

func (s *Store) InsertItem(_ context.Context, item *models.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	s.items[item.ID] = cloneItem(*item)
	s.itemOrder = append(s.itemOrder, item.ID)
	return nil
}

func (s *Store) FindItemByID(_ context.Context, id string) (*models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := cloneItem(it)
	return &out, nil
}

func (s *Store) FindItemByName(_ context.Context, normalizedName string) (*models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.itemOrder {
		if it, ok := s.items[id]; ok && it.Name == normalizedName {
			out := cloneItem(it)
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) UpdateItem(_ context.Context, item *models.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[item.ID]; !ok {
		return repository.ErrNotFound
	}
	item.UpdatedAt = time.Now().UTC()
	s.items[item.ID] = cloneItem(*item)
	return nil
}

func (s *Store) DeleteItem(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.items, id)
	for i, existing := range s.itemOrder {
		if existing == id {
			s.itemOrder = append(s.itemOrder[:i], s.itemOrder[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Store) ListItems(_ context.Context) ([]models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Item, 0, len(s.itemOrder))
	for _, id := range s.itemOrder {
		if it, ok := s.items[id]; ok {
			out = append(out, cloneItem(it))
		}
	}
	return out, nil
}

func (s *Store) InsertRequest(_ context.Context, req *models.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	req.CreatedAt = now
	req.UpdatedAt = now
	s.requests[req.ID] = *req
	s.reqOrder = append(s.reqOrder, req.ID)
	return nil
}

func (s *Store) FindRequestByID(_ context.Context, id string) (*models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &r, nil
}

func (s *Store) FindPendingRequest(_ context.Context, userID, itemID string) (*models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.reqOrder {
		r, ok := s.requests[id]
		if ok && r.UserID == userID && r.ItemID == itemID && r.Status == models.StatusPending {
			return &r, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) UpdateRequest(_ context.Context, req *models.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[req.ID]; !ok {
		return repository.ErrNotFound
	}
	req.UpdatedAt = time.Now().UTC()
	s.requests[req.ID] = *req
	return nil
}

func (s *Store) ListRequestsByUser(_ context.Context, userID string) ([]models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Request
	for _, id := range s.reqOrder {
		if r, ok := s.requests[id]; ok && r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) ListRequests(_ context.Context) ([]models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Request, 0, len(s.reqOrder))
	for _, id := range s.reqOrder {
		if r, ok := s.requests[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) InsertUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	s.users[user.ID] = *user
	s.userOrder = append(s.userOrder, user.ID)
	return nil
}

func (s *Store) FindUserByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (s *Store) FindUserByUserName(_ context.Context, userName string) (*models.User, error) {
	return s.findUser(func(u models.User) bool { return u.UserName == userName })
}

func (s *Store) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	return s.findUser(func(u models.User) bool { return u.Email == email })
}

func (s *Store) FindUserByRole(_ context.Context, role models.Role) (*models.User, error) {
	return s.findUser(func(u models.User) bool { return u.Role == role })
}

func (s *Store) findUser(match func(models.User) bool) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.userOrder {
		if u, ok := s.users[id]; ok && match(u) {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) UpdateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	user.UpdatedAt = time.Now().UTC()
	s.users[user.ID] = *user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.User, 0, len(s.userOrder))
	for _, id := range s.userOrder {
		if u, ok := s.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *Store) AppendStockLog(_ context.Context, entry *models.StockLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	entry.CreatedAt = time.Now().UTC()
	s.stockLogs = append(s.stockLogs, *entry)
	return nil
}

func (s *Store) AppendIssueLog(_ context.Context, entry *models.IssueLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	entry.CreatedAt = time.Now().UTC()
	s.issueLogs = append(s.issueLogs, *entry)
	return nil
}

func (s *Store) ListStockLogsByItem(_ context.Context, itemID string) ([]models.StockLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.StockLog
	for _, l := range s.stockLogs {
		if l.ItemID == itemID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *Store) ListIssueLogsByItem(_ context.Context, itemID string) ([]models.IssueLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.IssueLog
	for _, l := range s.issueLogs {
		if l.ItemID == itemID {
			out = append(out, l)
		}
	}
	return out, nil
}

func cloneItem(it models.Item) models.Item {
	batches := make([]models.Batch, len(it.Batches))
	copy(batches, it.Batches)
	it.Batches = batches
	return it
}
