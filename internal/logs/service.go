// Package logs keeps a bounded in-memory ring of request logs for the
// admin log browser, with live streaming to websocket subscribers.
package logs

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mockforge/mockforge/internal/models"
)

// Service manages the request log ring.
type Service struct {
	mu          sync.RWMutex
	entries     []*models.LogEntry
	maxEntries  int
	subscribers map[string]chan *models.LogEntry
}

// NewService creates a log service keeping at most maxEntries entries.
func NewService(maxEntries int) *Service {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	return &Service{
		entries:     make([]*models.LogEntry, 0),
		maxEntries:  maxEntries,
		subscribers: make(map[string]chan *models.LogEntry),
	}
}

// Record appends an entry and notifies subscribers without blocking.
func (s *Service) Record(entry *models.LogEntry) {
	s.mu.Lock()

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	if entry.Level == "" {
		if entry.Status >= 400 {
			entry.Level = "error"
		} else {
			entry.Level = "info"
		}
	}

	s.entries = append(s.entries, entry)
	if len(s.entries) > s.maxEntries {
		s.entries = s.entries[len(s.entries)-s.maxEntries:]
	}

	subscribers := make([]chan *models.LogEntry, 0, len(s.subscribers))
	for _, ch := range s.subscribers {
		subscribers = append(subscribers, ch)
	}
	s.mu.Unlock()

	for _, ch := range subscribers {
		select {
		case ch <- entry:
		default:
			// Subscriber is slow, drop rather than block the request path.
		}
	}
}

// GetLogs returns entries newest first, filtered and limited.
func (s *Service) GetLogs(filter *models.LogFilter) []*models.LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := 100
	if filter != nil && filter.Limit > 0 {
		limit = filter.Limit
	}

	result := make([]*models.LogEntry, 0, limit)
	for i := len(s.entries) - 1; i >= 0; i-- {
		entry := s.entries[i]
		if filter != nil {
			if filter.Method != "" && entry.Method != filter.Method {
				continue
			}
			if filter.MinStatus != 0 && entry.Status < filter.MinStatus {
				continue
			}
		}
		result = append(result, entry)
		if len(result) >= limit {
			break
		}
	}
	return result
}

// Clear removes every entry.
func (s *Service) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make([]*models.LogEntry, 0)
}

// Subscribe registers a live-stream subscriber and returns its id and
// channel.
func (s *Service) Subscribe() (string, chan *models.LogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New().String()
	ch := make(chan *models.LogEntry, 100)
	s.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (s *Service) Unsubscribe(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ch, ok := s.subscribers[id]; ok {
		close(ch)
		delete(s.subscribers, id)
	}
}

// Len returns the number of buffered entries.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
