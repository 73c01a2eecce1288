package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/noah-isme/backend-crm/internal/common"
	"github.com/noah-isme/backend-crm/internal/crm"
)

type productLister interface {
	ListProducts(ctx context.Context, query string) ([]crm.Product, error)
}

// Service proxies the CRM product catalog with local filtering and limits.
type Service struct {
	client       productLister
	cache        *Cache
	defaultLimit int
	maxLimit     int
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Client       productLister
	Cache        *Cache
	DefaultLimit int
	MaxLimit     int
}

// ListParams captures filters for product listing.
type ListParams struct {
	Query string
	Limit int
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Client == nil {
		return nil, errors.New("catalog: crm client is required")
	}
	defaultLimit := cfg.DefaultLimit
	if defaultLimit < 1 {
		defaultLimit = 20
	}
	maxLimit := cfg.MaxLimit
	if maxLimit < defaultLimit {
		maxLimit = defaultLimit
	}
	return &Service{
		client:       cfg.Client,
		cache:        cfg.Cache,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}, nil
}

// ParseListParams normalises query string values into ListParams.
func (s *Service) ParseListParams(values url.Values) (ListParams, error) {
	params := ListParams{
		Query: strings.TrimSpace(values.Get("q")),
		Limit: s.defaultLimit,
	}
	if raw := strings.TrimSpace(values.Get("limit")); raw != "" {
		limit := common.AtoiDefault(raw, -1)
		if limit < 1 {
			return ListParams{}, common.BadRequest("limit must be a positive integer", map[string]any{"limit": raw})
		}
		if limit > s.maxLimit {
			limit = s.maxLimit
		}
		params.Limit = limit
	}
	return params, nil
}

// List returns catalog products matching the params. Name and description
// are matched case-insensitively by substring.
func (s *Service) List(ctx context.Context, params ListParams) ([]crm.Product, error) {
	products, ok := s.cache.Get()
	if !ok {
		fetched, err := s.client.ListProducts(ctx, params.Query)
		if err != nil {
			return nil, fmt.Errorf("list products: %w", err)
		}
		products = fetched
		// Only cache unfiltered snapshots so a narrow upstream result
		// never shadows the full catalog.
		if params.Query == "" {
			s.cache.Set(products)
		}
	}

	filtered := filterProducts(products, params.Query)
	sort.SliceStable(filtered, func(i, j int) bool {
		return strings.ToLower(filtered[i].Name) < strings.ToLower(filtered[j].Name)
	})
	if len(filtered) > params.Limit {
		filtered = filtered[:params.Limit]
	}
	return filtered, nil
}

func filterProducts(products []crm.Product, query string) []crm.Product {
	if strings.TrimSpace(query) == "" {
		out := make([]crm.Product, len(products))
		copy(out, products)
		return out
	}
	needle := strings.ToLower(strings.TrimSpace(query))
	out := make([]crm.Product, 0, len(products))
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), needle) ||
			strings.Contains(strings.ToLower(p.Description), needle) {
			out = append(out, p)
		}
	}
	return out
}
