package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ourfood/climate-diet/internal/catalog"
	"github.com/ourfood/climate-diet/internal/models"
	"github.com/ourfood/climate-diet/internal/services"
)

type CatalogHandler struct {
	catalog     *catalog.Catalog
	mealService *services.MealService
}

func NewCatalogHandler(cat *catalog.Catalog, mealService *services.MealService) *CatalogHandler {
	return &CatalogHandler{catalog: cat, mealService: mealService}
}

type dishSummary struct {
	Name               string  `json:"name"`
	Type               string  `json:"type"`
	DefaultAmountGrams float64 `json:"default_amount_grams"`
	CarbonPer100g      float64 `json:"carbon_per_100g"`
}

type dishDetail struct {
	models.Dish
	DefaultAmountGrams float64                   `json:"default_amount_grams"`
	MaxAmountGrams     float64                   `json:"max_amount_grams"`
	Ingredients        []models.IngredientCarbon `json:"ingredient_breakdown"`
}

func (handler *CatalogHandler) Types(w http.ResponseWriter, r *http.Request) {
	types := handler.catalog.Types()
	if types == nil {
		types = []string{}
	}
	writeJSON(w, http.StatusOK, types)
}

// Dishes lists the catalog, optionally narrowed to one dish type.
func (handler *CatalogHandler) Dishes(w http.ResponseWriter, r *http.Request) {
	var predicates []catalog.Predicate
	if dishType := r.URL.Query().Get("type"); dishType != "" {
		predicates = append(predicates, catalog.ByType(dishType))
	}

	dishes := handler.catalog.Filter(predicates...)
	summaries := make([]dishSummary, 0, len(dishes))
	for _, dish := range dishes {
		summaries = append(summaries, dishSummary{
			Name:               dish.Name,
			Type:               dish.Type,
			DefaultAmountGrams: services.DefaultAmountGrams(dish),
			CarbonPer100g:      dish.CarbonPer100gKg,
		})
	}
	writeJSON(w, http.StatusOK, summaries)
}

// GetDish returns one dish with its suggested portion and per-ingredient
// carbon breakdown.
func (handler *CatalogHandler) GetDish(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	dish, ok := handler.catalog.Find(name)
	if !ok {
		writeError(w, http.StatusNotFound, "dish not found")
		return
	}

	writeJSON(w, http.StatusOK, dishDetail{
		Dish:               dish,
		DefaultAmountGrams: services.DefaultAmountGrams(dish),
		MaxAmountGrams:     services.MaxAmountGrams,
		Ingredients:        handler.mealService.IngredientBreakdown(dish),
	})
}
