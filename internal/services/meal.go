package services

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/ourfood/climate-diet/internal/catalog"
	"github.com/ourfood/climate-diet/internal/models"
)

var (
	ErrUnknownDish         = errors.New("dish not in catalog")
	ErrAmountCountMismatch = errors.New("amounts must match selected dishes one to one")
	ErrAmountOutOfRange    = errors.New("amount must be between 0 and 250 grams")
)

// RecipeServes is the catalog-wide serving divisor: every recipe in the
// source data is sized to serve 1000 people.
const RecipeServes = 1000

// MaxAmountGrams caps the user-adjustable gram amount per dish.
const MaxAmountGrams = 250

// MealService builds meal selections from the dish catalog and computes
// their carbon and nutrition totals. All methods are pure over the catalog;
// selection state lives in the request, never in the service.
type MealService struct {
	catalog *catalog.Catalog
}

func NewMealService(c *catalog.Catalog) *MealService {
	return &MealService{catalog: c}
}

// DefaultAmountGrams is the single-serving weight of a dish: the whole
// recipe weight divided by the serving divisor, floored to whole grams.
func DefaultAmountGrams(dish models.Dish) float64 {
	return math.Floor(dish.RecipeGrams() / RecipeServes)
}

// Compose resolves the selected dish names against the catalog and pairs
// them with gram amounts. A nil amounts slice selects the default
// single-serving amount for every dish; otherwise amounts must be parallel
// to dishNames.
func (service *MealService) Compose(dishNames []string, amounts []float64) (models.MealSelection, error) {
	if amounts != nil && len(amounts) != len(dishNames) {
		return models.MealSelection{}, fmt.Errorf("%w: %d dishes, %d amounts",
			ErrAmountCountMismatch, len(dishNames), len(amounts))
	}

	selection := models.MealSelection{
		Dishes:  make([]models.Dish, 0, len(dishNames)),
		Amounts: make([]float64, 0, len(dishNames)),
	}
	for i, name := range dishNames {
		dish, ok := service.catalog.Find(name)
		if !ok {
			return models.MealSelection{}, fmt.Errorf("%w: %q", ErrUnknownDish, name)
		}

		amount := DefaultAmountGrams(dish)
		if amounts != nil {
			amount = amounts[i]
		}
		if amount < 0 || amount > MaxAmountGrams {
			return models.MealSelection{}, fmt.Errorf("%w: %q has %vg", ErrAmountOutOfRange, name, amount)
		}

		selection.Dishes = append(selection.Dishes, dish)
		selection.Amounts = append(selection.Amounts, amount)
	}
	return selection, nil
}

// Aggregate computes the amount-weighted totals for a selection: each per-100g
// value scaled by amount/100 and summed over dishes. An empty selection
// aggregates to zero metrics.
func (service *MealService) Aggregate(selection models.MealSelection) models.MealMetrics {
	var metrics models.MealMetrics
	for i, dish := range selection.Dishes {
		scale := selection.Amounts[i] / 100
		metrics.CO2Kg += dish.CarbonPer100gKg * scale
		metrics.Calories += dish.Nutrition.Calories * scale
		metrics.Carbs += dish.Nutrition.Carbohydrate * scale
		metrics.Fat += dish.Nutrition.Fat * scale
		metrics.Protein += dish.Nutrition.Protein * scale
	}
	return metrics
}

// IngredientBreakdown returns the per-ingredient carbon contributions of one
// dish, sorted descending by carbon. The sort is stable, so ingredients with
// equal carbon keep their catalog order. Values are whole-recipe based and
// independent of the chosen amount.
func (service *MealService) IngredientBreakdown(dish models.Dish) []models.IngredientCarbon {
	breakdown := make([]models.IngredientCarbon, len(dish.IngredientsEnglish))
	for i, label := range dish.IngredientsEnglish {
		entry := models.IngredientCarbon{LabelEnglish: label, CarbonKg: dish.IngredientCarbonKg[i]}
		if i < len(dish.IngredientsChinese) {
			entry.LabelChinese = dish.IngredientsChinese[i]
		}
		breakdown[i] = entry
	}
	sort.SliceStable(breakdown, func(i, j int) bool {
		return breakdown[i].CarbonKg > breakdown[j].CarbonKg
	})
	return breakdown
}

// CarbonLabel is the dish's carbon label triple read straight off the
// catalog entry: per 100g, per whole recipe, and the serving count.
func (service *MealService) CarbonLabel(dish models.Dish) (per100g, perRecipe float64, servings int) {
	return dish.CarbonPer100gKg, dish.CarbonPerRecipeKg, dish.Servings
}
