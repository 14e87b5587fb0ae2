package catalog

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	pkgerrors "github.com/permanentprinting/storefront-backend/pkg/errors"
)

// SortOrder selects how List orders its results.
type SortOrder string

const (
	SortFeatured  SortOrder = "featured"
	SortPriceLow  SortOrder = "price-low"
	SortPriceHigh SortOrder = "price-high"
	SortRating    SortOrder = "rating"
	SortNewest    SortOrder = "newest"
)

// ParseSortOrder maps raw query input to a SortOrder; empty means featured.
func ParseSortOrder(value string) (SortOrder, error) {
	switch s := SortOrder(strings.ToLower(strings.TrimSpace(value))); s {
	case "":
		return SortFeatured, nil
	case SortFeatured, SortPriceLow, SortPriceHigh, SortRating, SortNewest:
		return s, nil
	default:
		return "", fmt.Errorf("invalid sort %q", value)
	}
}

// ListQuery filters and orders a catalog listing. Category "all" or empty
// matches everything.
type ListQuery struct {
	Category string
	Search   string
	Sort     SortOrder
}

// Source is the read surface the cart and HTTP layer depend on.
type Source interface {
	GetProduct(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context, q ListQuery) ([]Product, error)
	Categories(ctx context.Context) ([]string, error)
}

// StaticSource serves an in-memory product list.
type StaticSource struct {
	products []Product
	byID     map[string]int
}

// NewStaticSource indexes products; duplicate or blank ids are rejected.
func NewStaticSource(products []Product) (*StaticSource, error) {
	src := &StaticSource{
		products: make([]Product, len(products)),
		byID:     make(map[string]int, len(products)),
	}
	for i, p := range products {
		if strings.TrimSpace(p.ID) == "" {
			return nil, fmt.Errorf("product at index %d has no id", i)
		}
		if _, dup := src.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate product id %q", p.ID)
		}
		if p.Price.IsNegative() {
			return nil, fmt.Errorf("product %q has negative price", p.ID)
		}
		p.Position = i
		src.products[i] = p
		src.byID[p.ID] = i
	}
	return src, nil
}

// NewDefaultSource returns the storefront's built-in catalog.
func NewDefaultSource() *StaticSource {
	src, err := NewStaticSource(defaultProducts())
	if err != nil {
		panic(err)
	}
	return src
}

func (s *StaticSource) GetProduct(ctx context.Context, id string) (*Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, pkgerrors.Unavailable(err, "catalog unavailable")
	}
	idx, ok := s.byID[strings.TrimSpace(id)]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	p := s.products[idx]
	return &p, nil
}

func (s *StaticSource) List(ctx context.Context, q ListQuery) ([]Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, pkgerrors.Unavailable(err, "catalog unavailable")
	}

	category := strings.TrimSpace(q.Category)
	if strings.EqualFold(category, "all") {
		category = ""
	}
	term := strings.ToLower(strings.TrimSpace(q.Search))

	out := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		if category != "" && !strings.EqualFold(p.Category, category) {
			continue
		}
		if !p.matches(term) {
			continue
		}
		out = append(out, p)
	}

	sortProducts(out, q.Sort)
	return out, nil
}

// Categories lists distinct categories in catalog order.
func (s *StaticSource) Categories(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, pkgerrors.Unavailable(err, "catalog unavailable")
	}
	seen := map[string]struct{}{}
	out := []string{}
	for _, p := range s.products {
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	return out, nil
}

func sortProducts(products []Product, order SortOrder) {
	switch order {
	case SortPriceLow:
		slices.SortStableFunc(products, func(a, b Product) int { return a.Price.Cmp(b.Price) })
	case SortPriceHigh:
		slices.SortStableFunc(products, func(a, b Product) int { return b.Price.Cmp(a.Price) })
	case SortRating:
		slices.SortStableFunc(products, func(a, b Product) int { return b.Rating.Cmp(a.Rating) })
	case SortNewest:
		slices.SortStableFunc(products, func(a, b Product) int { return cmp.Compare(idRank(b), idRank(a)) })
	default:
		slices.SortStableFunc(products, func(a, b Product) int { return cmp.Compare(a.Position, b.Position) })
	}
}

// idRank orders numeric ids numerically; newer products get higher ids.
func idRank(p Product) int {
	n, err := strconv.Atoi(p.ID)
	if err != nil {
		return p.Position
	}
	return n
}
