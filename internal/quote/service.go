package quote

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-crm/internal/crm"
	"github.com/noah-isme/backend-crm/internal/pricing"
)

var (
	// ErrNotFound is returned when a draft or line does not exist or expired.
	ErrNotFound = errors.New("draft not found")
	// ErrInvalidKind is returned for unsupported document kinds.
	ErrInvalidKind = errors.New("invalid document kind")
	// ErrEmptyDraft is returned when submitting a draft without lines.
	ErrEmptyDraft = errors.New("draft has no line items")
)

type submitter interface {
	SubmitQuote(ctx context.Context, sub crm.Submission) (crm.Receipt, error)
	SubmitPurchaseOrder(ctx context.Context, sub crm.Submission) (crm.Receipt, error)
}

// Service owns draft lifecycle and totals computation.
type Service struct {
	store    *Store
	crm      submitter
	ttl      time.Duration
	currency string

	// Now is injectable for tests.
	Now func() time.Time
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Store    *Store
	CRM      submitter
	DraftTTL time.Duration
	Currency string
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("quote: store is required")
	}
	ttl := cfg.DraftTTL
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	currency := strings.TrimSpace(cfg.Currency)
	if currency == "" {
		currency = "INR"
	}
	return &Service{
		store:    cfg.Store,
		crm:      cfg.CRM,
		ttl:      ttl,
		currency: currency,
		Now:      time.Now,
	}, nil
}

// LineView is a draft line enriched with derived amounts.
type LineView struct {
	Line
	ResolvedListPrice float64 `json:"resolvedListPrice"`
	LineTotal         float64 `json:"lineTotal"`
}

// DraftView is the API projection of a draft, totals included.
type DraftView struct {
	ID        string            `json:"id"`
	Kind      Kind              `json:"kind"`
	Subject   string            `json:"subject"`
	PartyName string            `json:"partyName"`
	Lines     []LineView        `json:"products"`
	Tax       pricing.TaxConfig `json:"tax"`
	Totals    pricing.Totals    `json:"totals"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
	ExpiresAt time.Time         `json:"expiresAt"`
}

// View projects a draft with per-line derived amounts and fresh totals.
func View(d *Draft) DraftView {
	lines := make([]LineView, 0, len(d.Lines))
	items := make([]pricing.LineItem, 0, len(d.Lines))
	for _, ln := range d.Lines {
		lines = append(lines, LineView{
			Line:              ln,
			ResolvedListPrice: pricing.Round2(pricing.ResolveListPrice(ln.LineItem)),
			LineTotal:         pricing.Round2(pricing.LineTotal(ln.LineItem)),
		})
		items = append(items, ln.LineItem)
	}
	return DraftView{
		ID:        d.ID,
		Kind:      d.Kind,
		Subject:   d.Subject,
		PartyName: d.PartyName,
		Lines:     lines,
		Tax:       d.Tax,
		Totals:    pricing.Compute(items, d.Tax),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
		ExpiresAt: d.ExpiresAt,
	}
}

// Create starts a new draft of the given kind with a single default line.
func (s *Service) Create(_ context.Context, kind Kind, subject, partyName string) (*Draft, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
	now := s.Now()
	d := &Draft{
		ID:        uuid.NewString(),
		Kind:      kind,
		Subject:   strings.TrimSpace(subject),
		PartyName: strings.TrimSpace(partyName),
		Lines:     []Line{{ID: uuid.NewString(), LineItem: pricing.NewLineItem()}},
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	s.store.Put(d)
	return d, nil
}

// Get loads a draft, enforcing the kind bound to the route.
func (s *Service) Get(_ context.Context, kind Kind, id string) (*Draft, error) {
	d, ok := s.store.Get(id)
	if !ok || d.Kind != kind {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return d, nil
}

// AddLine appends a line to the draft and returns the updated draft.
func (s *Service) AddLine(ctx context.Context, kind Kind, id string, item pricing.LineItem) (*Draft, error) {
	d, err := s.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if item.PricingMode == "" {
		item.PricingMode = pricing.ModeDirect
	}
	d.Lines = append(d.Lines, Line{ID: uuid.NewString(), LineItem: item})
	s.touch(d)
	return d, nil
}

// LinePatch carries a partial line update. Nil fields are left untouched,
// so flipping the pricing mode never clears the inactive input group.
type LinePatch struct {
	ProductName   *string          `json:"productName"`
	Description   *string          `json:"description"`
	Quantity      *pricing.Number  `json:"quantity"`
	PricingMode   *pricing.Mode    `json:"pricingMode"`
	ListPrice     *pricing.Number  `json:"listPrice"`
	PurchasePrice *pricing.Number  `json:"purchasePrice"`
	Margin        *pricing.Number  `json:"margin"`
	Discount      *pricing.Number  `json:"discount"`
}

// UpdateLine applies a partial patch to one line.
func (s *Service) UpdateLine(ctx context.Context, kind Kind, id, lineID string, patch LinePatch) (*Draft, error) {
	d, err := s.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	idx := -1
	for i := range d.Lines {
		if d.Lines[i].ID == lineID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: line %s", ErrNotFound, lineID)
	}
	ln := &d.Lines[idx]
	if patch.ProductName != nil {
		ln.ProductName = *patch.ProductName
	}
	if patch.Description != nil {
		ln.Description = *patch.Description
	}
	if patch.Quantity != nil {
		ln.Quantity = *patch.Quantity
	}
	if patch.PricingMode != nil {
		mode := *patch.PricingMode
		if mode != pricing.ModeDirect && mode != pricing.ModeMargin {
			return nil, fmt.Errorf("%w: pricing mode %q", ErrInvalidKind, mode)
		}
		ln.PricingMode = mode
	}
	if patch.ListPrice != nil {
		ln.ListPrice = *patch.ListPrice
	}
	if patch.PurchasePrice != nil {
		ln.PurchasePrice = *patch.PurchasePrice
	}
	if patch.Margin != nil {
		ln.Margin = *patch.Margin
	}
	if patch.Discount != nil {
		ln.Discount = *patch.Discount
	}
	s.touch(d)
	return d, nil
}

// RemoveLine drops one line from the draft.
func (s *Service) RemoveLine(ctx context.Context, kind Kind, id, lineID string) (*Draft, error) {
	d, err := s.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	kept := d.Lines[:0]
	found := false
	for _, ln := range d.Lines {
		if ln.ID == lineID {
			found = true
			continue
		}
		kept = append(kept, ln)
	}
	if !found {
		return nil, fmt.Errorf("%w: line %s", ErrNotFound, lineID)
	}
	d.Lines = kept
	s.touch(d)
	return d, nil
}

// SetTax replaces the draft's tax configuration wholesale.
func (s *Service) SetTax(ctx context.Context, kind Kind, id string, tax pricing.TaxConfig) (*Draft, error) {
	d, err := s.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	d.Tax = tax
	s.touch(d)
	return d, nil
}

// Delete discards a draft.
func (s *Service) Delete(_ context.Context, kind Kind, id string) error {
	d, ok := s.store.Get(id)
	if !ok || d.Kind != kind {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.store.Delete(id)
	return nil
}

// Submit posts the finalised draft to the CRM backend and discards the
// draft on success.
func (s *Service) Submit(ctx context.Context, kind Kind, id string) (crm.Receipt, DraftView, error) {
	d, err := s.Get(ctx, kind, id)
	if err != nil {
		return crm.Receipt{}, DraftView{}, err
	}
	if s.crm == nil {
		return crm.Receipt{}, DraftView{}, errors.New("quote: crm client not configured")
	}
	view := View(d)
	if len(d.Lines) == 0 {
		return crm.Receipt{}, DraftView{}, fmt.Errorf("%w: %s", ErrEmptyDraft, id)
	}

	items := make([]pricing.LineItem, 0, len(d.Lines))
	for _, ln := range d.Lines {
		items = append(items, ln.LineItem)
	}
	sub := crm.Submission{
		Kind:      string(kind),
		Subject:   d.Subject,
		PartyName: d.PartyName,
		Currency:  s.currency,
		Products:  items,
		Tax:       d.Tax,
		Totals:    view.Totals,
	}

	var receipt crm.Receipt
	switch kind {
	case KindQuote:
		receipt, err = s.crm.SubmitQuote(ctx, sub)
	case KindPurchaseOrder:
		receipt, err = s.crm.SubmitPurchaseOrder(ctx, sub)
	default:
		return crm.Receipt{}, DraftView{}, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
	if err != nil {
		return crm.Receipt{}, DraftView{}, err
	}
	s.store.Delete(id)
	return receipt, view, nil
}

// Preview computes totals for an ad-hoc payload without touching any draft.
func Preview(items []pricing.LineItem, tax pricing.TaxConfig) pricing.Totals {
	return pricing.Compute(items, tax)
}

func (s *Service) touch(d *Draft) {
	d.UpdatedAt = s.Now()
	d.ExpiresAt = s.Now().Add(s.ttl)
	s.store.Put(d)
}
