package models

import "time"

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// AuthMode selects where user accounts live: the local users table or an
// external OIDC identity provider.
type AuthMode string

const (
	AuthModeLocal AuthMode = "local"
	AuthModeOIDC  AuthMode = "oidc"
)

type User struct {
	ID           string
	Username     string
	Email        string
	Name         string
	PasswordHash string `json:"-"`
	OIDCSubject  string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserContact holds the profile page contact details. Independent of the
// footprint core; keyed by username like the budget and the meal log.
type UserContact struct {
	Username  string
	Name      string
	Age       string
	Gender    string
	Email     string
	UpdatedAt time.Time
}

// UserBudget is a user's personalized daily carbon and nutrition targets.
// Created lazily on the first profile update.
type UserBudget struct {
	Username  string
	CO2Kg     float64
	Calories  float64
	Carbs     float64
	Protein   float64
	Fat       float64
	UpdatedAt time.Time
}

// NutritionPer100g are the nutrition label values per 100g of a dish.
type NutritionPer100g struct {
	Calories     float64 `json:"Calories"`
	Carbohydrate float64 `json:"Carbohydrate"`
	Fat          float64 `json:"Fat"`
	Protein      float64 `json:"Protein"`
}

// Dish is one immutable catalog entry. Ingredient slices are parallel:
// IngredientsEnglish[i], IngredientsChinese[i] and IngredientCarbonKg[i]
// describe the same ingredient, and IngredientAmountsGrams[i] its weight in
// the whole recipe.
type Dish struct {
	Name                   string           `json:"name"`
	Type                   string           `json:"type"`
	IngredientsEnglish     []string         `json:"ingredients_en"`
	IngredientsChinese     []string         `json:"ingredients_zh"`
	IngredientCarbonKg     []float64        `json:"ingredient_carbon_kg"`
	IngredientAmountsGrams []float64        `json:"ingredient_amounts_grams"`
	CarbonPer100gKg        float64          `json:"carbon_per_100g_kg"`
	CarbonPerRecipeKg      float64          `json:"carbon_per_recipe_kg"`
	Servings               int              `json:"servings"`
	Nutrition              NutritionPer100g `json:"nutrition"`
}

// RecipeGrams is the total weight of the whole recipe.
func (d Dish) RecipeGrams() float64 {
	var total float64
	for _, grams := range d.IngredientAmountsGrams {
		total += grams
	}
	return total
}

// ReferenceIntake is one row of reference daily intake defaults, used when a
// user has not set a budget of their own.
type ReferenceIntake struct {
	Calories float64
	Carbs    float64
	Fat      float64
	Protein  float64
}

// MealSelection is the request-scoped output of the composer: chosen dishes
// with a parallel list of gram amounts, one per dish.
type MealSelection struct {
	Dishes  []Dish
	Amounts []float64
}

// MealMetrics are the amount-weighted totals for a selection.
type MealMetrics struct {
	CO2Kg    float64 `json:"co2_kg"`
	Calories float64 `json:"calories"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Protein  float64 `json:"protein"`
}

// IngredientCarbon is one slice of the per-ingredient carbon breakdown.
type IngredientCarbon struct {
	LabelEnglish string  `json:"label_en"`
	LabelChinese string  `json:"label_zh"`
	CarbonKg     float64 `json:"carbon_kg"`
}

// MetricStatus compares one consumed metric against its daily budget.
// Remaining is not clamped: it goes negative when over budget, and Percent
// may exceed 100. Traffic-light banding is left to the presentation layer.
type MetricStatus struct {
	Budget    float64 `json:"budget"`
	Consumed  float64 `json:"consumed"`
	Remaining float64 `json:"remaining"`
	Percent   float64 `json:"percent"`
}

type BudgetStatus struct {
	CO2      MetricStatus `json:"co2"`
	Calories MetricStatus `json:"calories"`
	Carbs    MetricStatus `json:"carbs"`
	Fat      MetricStatus `json:"fat"`
	Protein  MetricStatus `json:"protein"`
}

// MealLogEntry is one saved meal, keyed by username and its normalized
// timestamp. Entries are append-only and never updated in place.
type MealLogEntry struct {
	Username  string    `json:"username"`
	LoggedAt  string    `json:"logged_at"`
	DishTypes []string  `json:"dish_types"`
	DishNames []string  `json:"dish_names"`
	Amounts   []float64 `json:"amounts"`
	CO2Kg     float64   `json:"co2_kg"`
	Calories  float64   `json:"calories"`
	Carbs     float64   `json:"carbs"`
	Fat       float64   `json:"fat"`
	Protein   float64   `json:"protein"`
	CreatedAt time.Time `json:"created_at"`
}

type APIToken struct {
	ID              string
	Name            string
	TokenHash       string
	Scope           string
	CreatedByUserID string
	ExpiresAt       *time.Time
	CreatedAt       time.Time
}
