package quote

import (
	"sync"
	"time"

	"github.com/noah-isme/backend-crm/internal/pricing"
)

// Kind distinguishes the two document flavours that share the pricing flow.
type Kind string

const (
	// KindQuote is a sales quote draft.
	KindQuote Kind = "quote"
	// KindPurchaseOrder is a purchase order draft.
	KindPurchaseOrder Kind = "purchase_order"
)

// Valid reports whether the kind is one of the supported document kinds.
func (k Kind) Valid() bool {
	return k == KindQuote || k == KindPurchaseOrder
}

// Line is a draft row. The embedded item keeps both pricing input groups
// so switching modes never loses the inactive group's values.
type Line struct {
	ID string `json:"id"`
	pricing.LineItem
}

// Draft is an in-progress quote or purchase order. Totals are never stored
// on the draft; they are recomputed from lines and tax on every read.
type Draft struct {
	ID        string            `json:"id"`
	Kind      Kind              `json:"kind"`
	Subject   string            `json:"subject"`
	PartyName string            `json:"partyName"`
	Lines     []Line            `json:"products"`
	Tax       pricing.TaxConfig `json:"tax"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
	ExpiresAt time.Time         `json:"expiresAt"`
}

func (d *Draft) clone() *Draft {
	out := *d
	out.Lines = make([]Line, len(d.Lines))
	copy(out.Lines, d.Lines)
	if d.Tax.OtherTaxes != nil {
		out.Tax.OtherTaxes = make([]pricing.OtherTax, len(d.Tax.OtherTaxes))
		copy(out.Tax.OtherTaxes, d.Tax.OtherTaxes)
	}
	return &out
}

// Store keeps drafts in memory with per-draft expiry.
type Store struct {
	mu     sync.RWMutex
	drafts map[string]*Draft

	// Now is injectable for tests.
	Now func() time.Time
}

// NewStore constructs an empty draft store.
func NewStore() *Store {
	return &Store{
		drafts: make(map[string]*Draft),
		Now:    time.Now,
	}
}

// Put stores or replaces a draft.
func (s *Store) Put(d *Draft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[d.ID] = d.clone()
}

// Get returns a copy of the draft when it exists and has not expired.
// Expired drafts are removed on access.
func (s *Store) Get(id string) (*Draft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[id]
	if !ok {
		return nil, false
	}
	if !d.ExpiresAt.IsZero() && s.Now().After(d.ExpiresAt) {
		delete(s.drafts, id)
		return nil, false
	}
	return d.clone(), true
}

// Delete removes a draft. It reports whether the draft existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.drafts[id]
	delete(s.drafts, id)
	return ok
}

// Sweep drops all expired drafts and returns how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.Now()
	removed := 0
	for id, d := range s.drafts {
		if !d.ExpiresAt.IsZero() && now.After(d.ExpiresAt) {
			delete(s.drafts, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored drafts, expired or not.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.drafts)
}
