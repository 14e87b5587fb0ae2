package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/permanentprinting/storefront-backend/api/responses"
	"github.com/permanentprinting/storefront-backend/api/validators"
	"github.com/permanentprinting/storefront-backend/internal/catalog"
	pkgerrors "github.com/permanentprinting/storefront-backend/pkg/errors"
	"github.com/permanentprinting/storefront-backend/pkg/logger"
)

type productResponse struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Category        string   `json:"category"`
	Price           string   `json:"price"`
	OriginalPrice   *string  `json:"original_price,omitempty"`
	DiscountPercent int      `json:"discount_percent,omitempty"`
	Image           string   `json:"image"`
	Rating          string   `json:"rating"`
	Reviews         int      `json:"reviews"`
	Badge           string   `json:"badge,omitempty"`
	Colors          []string `json:"colors"`
	Sizes           []string `json:"sizes"`
	InStock         bool     `json:"in_stock"`
}

func newProductResponse(p catalog.Product) productResponse {
	resp := productResponse{
		ID:              p.ID,
		Name:            p.Name,
		Description:     p.Description,
		Category:        p.Category,
		Price:           p.Price.StringFixed(2),
		DiscountPercent: p.DiscountPercent(),
		Image:           p.ImageRef,
		Rating:          p.Rating.StringFixed(1),
		Reviews:         p.Reviews,
		Badge:           p.Badge,
		Colors:          p.Colors,
		Sizes:           p.Sizes,
		InStock:         p.InStock,
	}
	if p.OriginalPrice != nil {
		original := p.OriginalPrice.StringFixed(2)
		resp.OriginalPrice = &original
	}
	if resp.Colors == nil {
		resp.Colors = []string{}
	}
	if resp.Sizes == nil {
		resp.Sizes = []string{}
	}
	return resp
}

// ProductList returns the catalog filtered by ?category, ?q and ordered by ?sort.
func ProductList(src catalog.Source, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if src == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}

		sort, err := catalog.ParseSortOrder(r.URL.Query().Get("sort"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sort").WithDetails(map[string]any{"field": "sort"}))
			return
		}

		products, err := src.List(r.Context(), catalog.ListQuery{
			Category: validators.ParseQueryString(r, "category", 64),
			Search:   validators.ParseQueryString(r, "q", 128),
			Sort:     sort,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]productResponse, 0, len(products))
		for _, p := range products {
			items = append(items, newProductResponse(p))
		}
		responses.WriteSuccess(w, map[string]any{"items": items, "count": len(items)})
	}
}

func ProductCategories(src catalog.Source, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if src == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}
		categories, err := src.Categories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"categories": categories})
	}
}

func ProductGet(src catalog.Source, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if src == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}
		product, err := src.GetProduct(r.Context(), chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newProductResponse(*product))
	}
}
