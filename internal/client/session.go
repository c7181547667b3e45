package client

import (
	"sync"

	"github.com/imrishuroy/go-purchase-intake/internal/validation"
)

// Confirmation is the snapshot shown after a successful submission.
type Confirmation struct {
	Name     string                `json:"name"`
	Date     string                `json:"date"`
	Products []validation.LineItem `json:"products"`
}

// SessionStore holds the confirmation snapshot for the current session only.
type SessionStore interface {
	Save(c Confirmation) error
	Load() (Confirmation, bool)
	Clear()
}

// MemorySession is a SessionStore that lives as long as the process, the
// equivalent of a browser tab's session storage.
type MemorySession struct {
	mu   sync.Mutex
	data *Confirmation
}

func NewMemorySession() *MemorySession { return &MemorySession{} }

func (s *MemorySession) Save(c Confirmation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	products := make([]validation.LineItem, len(c.Products))
	copy(products, c.Products)
	c.Products = products
	s.data = &c
	return nil
}

func (s *MemorySession) Load() (Confirmation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return Confirmation{}, false
	}
	return *s.data, true
}

func (s *MemorySession) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = nil
}

// LoadConfirmation reads the snapshot for the confirmation view. When there
// is none the caller should go back to the form.
func LoadConfirmation(store SessionStore) (Confirmation, bool) {
	return store.Load()
}

// StartNewRequest clears the snapshot when the user leaves the confirmation
// view for a new request.
func StartNewRequest(store SessionStore, nav Navigator) {
	store.Clear()
	if nav != nil {
		nav.Navigate("/")
	}
}
