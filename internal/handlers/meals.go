package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ourfood/climate-diet/internal/middleware"
	"github.com/ourfood/climate-diet/internal/models"
	"github.com/ourfood/climate-diet/internal/repository"
	"github.com/ourfood/climate-diet/internal/services"
)

type MealHandler struct {
	mealService   *services.MealService
	budgetService *services.BudgetService
	logRepo       repository.MealLogRepository
}

func NewMealHandler(
	mealService *services.MealService,
	budgetService *services.BudgetService,
	logRepo repository.MealLogRepository,
) *MealHandler {
	return &MealHandler{
		mealService:   mealService,
		budgetService: budgetService,
		logRepo:       logRepo,
	}
}

type mealRequest struct {
	Dishes  []string  `json:"dishes"`
	Amounts []float64 `json:"amounts"`
}

type dishBreakdown struct {
	Dish           string                    `json:"dish"`
	Ingredients    []models.IngredientCarbon `json:"ingredients"`
	CarbonPer100g  float64                   `json:"carbon_per_100g"`
	CarbonRecipe   float64                   `json:"carbon_per_recipe"`
	Servings       int                       `json:"servings"`
	GramsToExhaust float64                   `json:"grams_to_exhaust_budget"`
}

type previewResponse struct {
	Dishes    []string            `json:"dishes"`
	DishTypes []string            `json:"dish_types"`
	Amounts   []float64           `json:"amounts"`
	Metrics   models.MealMetrics  `json:"metrics"`
	Budget    models.BudgetStatus `json:"budget"`
	Breakdown *dishBreakdown      `json:"breakdown,omitempty"`
}

func isValidationError(err error) bool {
	return errors.Is(err, services.ErrUnknownDish) ||
		errors.Is(err, services.ErrAmountCountMismatch) ||
		errors.Is(err, services.ErrAmountOutOfRange)
}

// Preview composes a selection, aggregates its metrics and compares them
// against the user's daily budget without persisting anything.
func (handler *MealHandler) Preview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)

	var request mealRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	selection, err := handler.mealService.Compose(request.Dishes, request.Amounts)
	if err != nil {
		if isValidationError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("composing meal", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compose meal")
		return
	}

	metrics := handler.mealService.Aggregate(selection)

	budget, err := handler.budgetService.BudgetFor(ctx, user.Username)
	if err != nil {
		slog.Error("fetching budget", "user", user.Username, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load budget")
		return
	}

	response := previewResponse{
		Dishes:    request.Dishes,
		DishTypes: dishTypes(selection),
		Amounts:   selection.Amounts,
		Metrics:   metrics,
		Budget:    handler.budgetService.Compare(metrics, budget),
	}

	// The ingredient pie and carbon gauge only render in single-dish mode.
	if len(selection.Dishes) == 1 {
		dish := selection.Dishes[0]
		per100g, perRecipe, servings := handler.mealService.CarbonLabel(dish)
		response.Breakdown = &dishBreakdown{
			Dish:           dish.Name,
			Ingredients:    handler.mealService.IngredientBreakdown(dish),
			CarbonPer100g:  per100g,
			CarbonRecipe:   perRecipe,
			Servings:       servings,
			GramsToExhaust: services.GramsToExhaust(budget.CO2Kg, per100g),
		}
	}

	writeJSON(w, http.StatusOK, response)
}

// SaveLog persists the computed meal for the session user, stamped with the
// current time.
func (handler *MealHandler) SaveLog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)

	var request mealRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(request.Dishes) == 0 {
		writeError(w, http.StatusBadRequest, "no dishes selected")
		return
	}

	selection, err := handler.mealService.Compose(request.Dishes, request.Amounts)
	if err != nil {
		if isValidationError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("composing meal", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compose meal")
		return
	}

	metrics := handler.mealService.Aggregate(selection)

	entry := models.MealLogEntry{
		Username:  user.Username,
		LoggedAt:  time.Now().Format(repository.TimestampLayout),
		DishTypes: dishTypes(selection),
		DishNames: request.Dishes,
		Amounts:   selection.Amounts,
		CO2Kg:     metrics.CO2Kg,
		Calories:  metrics.Calories,
		Carbs:     metrics.Carbs,
		Fat:       metrics.Fat,
		Protein:   metrics.Protein,
	}

	saved, err := handler.logRepo.Append(ctx, entry)
	if err != nil {
		slog.Error("saving meal log entry", "user", user.Username, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save meal")
		return
	}

	writeJSON(w, http.StatusCreated, saved)
}

func (handler *MealHandler) ListLog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)

	entries, err := handler.logRepo.List(ctx, user.Username)
	if err != nil {
		slog.Error("listing meal log", "user", user.Username, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load meal log")
		return
	}
	if entries == nil {
		entries = []models.MealLogEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (handler *MealHandler) DeleteLog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)

	loggedAt := r.URL.Query().Get("logged_at")
	if loggedAt == "" {
		writeError(w, http.StatusBadRequest, "logged_at is required")
		return
	}

	err := handler.logRepo.Delete(ctx, user.Username, loggedAt)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "no meal logged at that time")
	case err != nil:
		slog.Error("deleting meal log entry", "user", user.Username, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete meal")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func dishTypes(selection models.MealSelection) []string {
	types := make([]string, len(selection.Dishes))
	for i, dish := range selection.Dishes {
		types[i] = dish.Type
	}
	return types
}
