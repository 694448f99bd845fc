// Package catalog loads the fixed dish catalog and the reference daily
// intake table from embedded files and exposes typed queries over them.
package catalog

import (
	"bytes"
	"embed"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/ourfood/climate-diet/internal/models"
)

//go:embed data/dishes.json data/nutrition_rdi.csv
var dataFS embed.FS

// dishRecord mirrors the nested catalog JSON shape before flattening.
type dishRecord struct {
	MenuItemName               string                  `json:"MenuItemName"`
	MenuItemType               string                  `json:"MenuItemType"`
	RawIngredientsEngSimple    []string                `json:"RawIngredientsEngSimple"`
	RawIngredientsChinese      []string                `json:"RawIngredientsChinese"`
	CarbonFootprint            []float64               `json:"CarbonFootprint"`
	AmountInGrams              []float64               `json:"AmountInGrams"`
	CarbonLabelMenuItemPer100g float64                 `json:"CarbonLabelMenuItemPer100g"`
	CarbonLabelMenuItem        float64                 `json:"CarbonLabelMenuItem"`
	AmountServings             int                     `json:"AmountServings"`
	NutritionLabelMenuItem     models.NutritionPer100g `json:"NutritionLabelMenuItemPer100g"`
}

// Predicate selects dishes from the catalog. Filtering is done with typed
// predicates rather than string-built queries.
type Predicate func(models.Dish) bool

func ByType(dishType string) Predicate {
	return func(dish models.Dish) bool { return dish.Type == dishType }
}

func ByName(name string) Predicate {
	return func(dish models.Dish) bool { return dish.Name == name }
}

type Catalog struct {
	dishes []models.Dish
	byName map[string]int
	rdi    models.ReferenceIntake
}

// Load reads the embedded catalog and RDI table. The catalog is immutable
// after loading.
func Load() (*Catalog, error) {
	dishData, err := dataFS.ReadFile("data/dishes.json")
	if err != nil {
		return nil, fmt.Errorf("reading dish catalog: %w", err)
	}

	var records []dishRecord
	if err := json.Unmarshal(dishData, &records); err != nil {
		return nil, fmt.Errorf("parsing dish catalog: %w", err)
	}

	dishes := make([]models.Dish, 0, len(records))
	for _, record := range records {
		if len(record.CarbonFootprint) != len(record.RawIngredientsEngSimple) {
			return nil, fmt.Errorf("dish %q: %d ingredients but %d carbon values",
				record.MenuItemName, len(record.RawIngredientsEngSimple), len(record.CarbonFootprint))
		}
		dishes = append(dishes, models.Dish{
			Name:                   record.MenuItemName,
			Type:                   record.MenuItemType,
			IngredientsEnglish:     record.RawIngredientsEngSimple,
			IngredientsChinese:     record.RawIngredientsChinese,
			IngredientCarbonKg:     record.CarbonFootprint,
			IngredientAmountsGrams: record.AmountInGrams,
			CarbonPer100gKg:        record.CarbonLabelMenuItemPer100g,
			CarbonPerRecipeKg:      record.CarbonLabelMenuItem,
			Servings:               record.AmountServings,
			Nutrition:              record.NutritionLabelMenuItem,
		})
	}

	rdi, err := loadReferenceIntake()
	if err != nil {
		return nil, err
	}

	return New(dishes, rdi), nil
}

// New builds a catalog from in-memory data. Used by tests and by Load.
func New(dishes []models.Dish, rdi models.ReferenceIntake) *Catalog {
	byName := make(map[string]int, len(dishes))
	for i, dish := range dishes {
		byName[dish.Name] = i
	}
	return &Catalog{dishes: dishes, byName: byName, rdi: rdi}
}

func loadReferenceIntake() (models.ReferenceIntake, error) {
	rdiData, err := dataFS.ReadFile("data/nutrition_rdi.csv")
	if err != nil {
		return models.ReferenceIntake{}, fmt.Errorf("reading rdi table: %w", err)
	}

	reader := csv.NewReader(bytes.NewReader(rdiData))
	rows, err := reader.ReadAll()
	if err != nil {
		return models.ReferenceIntake{}, fmt.Errorf("parsing rdi table: %w", err)
	}
	if len(rows) < 2 {
		return models.ReferenceIntake{}, fmt.Errorf("rdi table has no data row")
	}

	columns := make(map[string]int, len(rows[0]))
	for i, header := range rows[0] {
		columns[header] = i
	}

	value := func(column string) (float64, error) {
		index, ok := columns[column]
		if !ok {
			return 0, fmt.Errorf("rdi table missing column %q", column)
		}
		parsed, err := strconv.ParseFloat(rows[1][index], 64)
		if err != nil {
			return 0, fmt.Errorf("rdi column %q: %w", column, err)
		}
		return parsed, nil
	}

	var rdi models.ReferenceIntake
	if rdi.Calories, err = value("Energ_Kcal"); err != nil {
		return models.ReferenceIntake{}, err
	}
	if rdi.Carbs, err = value("Carbohydrt_(g)"); err != nil {
		return models.ReferenceIntake{}, err
	}
	if rdi.Fat, err = value("Lipid_Tot_(g)"); err != nil {
		return models.ReferenceIntake{}, err
	}
	if rdi.Protein, err = value("Protein_(g)"); err != nil {
		return models.ReferenceIntake{}, err
	}
	return rdi, nil
}

// Dishes returns the full flattened dish table in catalog order.
func (c *Catalog) Dishes() []models.Dish {
	return c.dishes
}

// Find looks a dish up by its exact name.
func (c *Catalog) Find(name string) (models.Dish, bool) {
	index, ok := c.byName[name]
	if !ok {
		return models.Dish{}, false
	}
	return c.dishes[index], true
}

// Filter returns the dishes matching every given predicate, in catalog order.
func (c *Catalog) Filter(predicates ...Predicate) []models.Dish {
	var matched []models.Dish
	for _, dish := range c.dishes {
		keep := true
		for _, predicate := range predicates {
			if !predicate(dish) {
				keep = false
				break
			}
		}
		if keep {
			matched = append(matched, dish)
		}
	}
	return matched
}

// Types returns the distinct dish types in first-seen catalog order.
func (c *Catalog) Types() []string {
	seen := make(map[string]bool)
	var types []string
	for _, dish := range c.dishes {
		if !seen[dish.Type] {
			seen[dish.Type] = true
			types = append(types, dish.Type)
		}
	}
	return types
}

// ReferenceIntake returns the static RDI defaults.
func (c *Catalog) ReferenceIntake() models.ReferenceIntake {
	return c.rdi
}
