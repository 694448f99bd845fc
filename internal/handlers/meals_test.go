package handlers

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/ourfood/climate-diet/internal/catalog"
	"github.com/ourfood/climate-diet/internal/middleware"
	"github.com/ourfood/climate-diet/internal/models"
	"github.com/ourfood/climate-diet/internal/repository"
	"github.com/ourfood/climate-diet/internal/services"
	"github.com/ourfood/climate-diet/internal/testutil"
)

func testCatalog() *catalog.Catalog {
	dishes := []models.Dish{
		{
			Name:                   "braised tofu rice",
			Type:                   "Lunch",
			IngredientsEnglish:     []string{"rice", "tofu"},
			IngredientsChinese:     []string{"米", "豆腐"},
			IngredientCarbonKg:     []float64{0.30, 0.20},
			IngredientAmountsGrams: []float64{60000, 45000},
			CarbonPer100gKg:        0.5,
			CarbonPerRecipeKg:      527.5,
			Servings:               1000,
			Nutrition:              models.NutritionPer100g{Calories: 200, Carbohydrate: 30, Fat: 5, Protein: 10},
		},
		{
			Name:                   "caldo verde",
			Type:                   "Soup",
			IngredientsEnglish:     []string{"kale", "potato"},
			IngredientsChinese:     []string{"羽衣甘藍", "薯仔"},
			IngredientCarbonKg:     []float64{0.05, 0.08},
			IngredientAmountsGrams: []float64{30000, 70000},
			CarbonPer100gKg:        0.2,
			CarbonPerRecipeKg:      130,
			Servings:               1000,
			Nutrition:              models.NutritionPer100g{Calories: 80, Carbohydrate: 12, Fat: 2, Protein: 3},
		},
	}
	return catalog.New(dishes, models.ReferenceIntake{Calories: 2000, Carbs: 300, Fat: 65, Protein: 50})
}

type mealFixture struct {
	handler  *MealHandler
	userRepo *repository.SQLiteUserRepository
	user     models.User
}

func newMealFixture(t *testing.T) mealFixture {
	t.Helper()
	db := testutil.NewTestDatabase(t)
	userRepo := repository.NewUserRepository(db)

	user, err := userRepo.Create(context.Background(), models.User{Username: "alice", Role: models.RoleMember})
	if err != nil {
		t.Fatalf("creating test user: %v", err)
	}

	cat := testCatalog()
	mealService := services.NewMealService(cat)
	budgetService := services.NewBudgetService(repository.NewBudgetRepository(db), cat)
	logRepo := repository.NewMealLogRepository(db)

	return mealFixture{
		handler:  NewMealHandler(mealService, budgetService, logRepo),
		userRepo: userRepo,
		user:     user,
	}
}

func requestWithUser(method, target, body string, user models.User) *http.Request {
	var request *http.Request
	if body == "" {
		request = httptest.NewRequest(method, target, nil)
	} else {
		request = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	ctx := context.WithValue(request.Context(), middleware.UserContextKey, user)
	return request.WithContext(ctx)
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestPreview_SingleDishIncludesBreakdown(t *testing.T) {
	fixture := newMealFixture(t)

	request := requestWithUser(http.MethodPost, "/api/meals/preview",
		`{"dishes":["braised tofu rice"],"amounts":[50]}`, fixture.user)
	recorder := httptest.NewRecorder()
	fixture.handler.Preview(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	var response previewResponse
	if err := json.NewDecoder(recorder.Body).Decode(&response); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if response.Metrics.CO2Kg != 0.25 {
		t.Errorf("expected 0.25 kg CO2, got %v", response.Metrics.CO2Kg)
	}
	if response.Metrics.Calories != 100 {
		t.Errorf("expected 100 kcal, got %v", response.Metrics.Calories)
	}
	if response.Budget.CO2.Budget != services.DefaultCO2BudgetKg {
		t.Errorf("expected default carbon budget, got %v", response.Budget.CO2.Budget)
	}
	if response.Breakdown == nil {
		t.Fatal("expected ingredient breakdown in single-dish mode")
	}
	if response.Breakdown.Ingredients[0].LabelEnglish != "rice" {
		t.Errorf("expected rice as top contributor, got %q", response.Breakdown.Ingredients[0].LabelEnglish)
	}
	if !almostEqual(response.Breakdown.GramsToExhaust, 544) {
		t.Errorf("expected 544g to exhaust the budget, got %v", response.Breakdown.GramsToExhaust)
	}
}

func TestPreview_MultiDishOmitsBreakdown(t *testing.T) {
	fixture := newMealFixture(t)

	request := requestWithUser(http.MethodPost, "/api/meals/preview",
		`{"dishes":["braised tofu rice","caldo verde"],"amounts":[50,100]}`, fixture.user)
	recorder := httptest.NewRecorder()
	fixture.handler.Preview(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", recorder.Code)
	}

	var response previewResponse
	if err := json.NewDecoder(recorder.Body).Decode(&response); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if response.Breakdown != nil {
		t.Error("expected no breakdown for a multi-dish selection")
	}
	if !almostEqual(response.Metrics.CO2Kg, 0.45) {
		t.Errorf("expected 0.45 kg CO2, got %v", response.Metrics.CO2Kg)
	}
}

func TestPreview_EmptySelectionIsZero(t *testing.T) {
	fixture := newMealFixture(t)

	request := requestWithUser(http.MethodPost, "/api/meals/preview", `{"dishes":[]}`, fixture.user)
	recorder := httptest.NewRecorder()
	fixture.handler.Preview(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200 for empty selection, got %d", recorder.Code)
	}

	var response previewResponse
	if err := json.NewDecoder(recorder.Body).Decode(&response); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if response.Metrics != (models.MealMetrics{}) {
		t.Errorf("expected zero metrics, got %+v", response.Metrics)
	}
}

func TestPreview_UnknownDish(t *testing.T) {
	fixture := newMealFixture(t)

	request := requestWithUser(http.MethodPost, "/api/meals/preview", `{"dishes":["phantom stew"]}`, fixture.user)
	recorder := httptest.NewRecorder()
	fixture.handler.Preview(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for unknown dish, got %d", recorder.Code)
	}
}

func TestSaveListDeleteLog(t *testing.T) {
	fixture := newMealFixture(t)

	request := requestWithUser(http.MethodPost, "/api/meals/log",
		`{"dishes":["braised tofu rice"],"amounts":[105]}`, fixture.user)
	recorder := httptest.NewRecorder()
	fixture.handler.SaveLog(recorder, request)

	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", recorder.Code, recorder.Body.String())
	}
	var saved models.MealLogEntry
	if err := json.NewDecoder(recorder.Body).Decode(&saved); err != nil {
		t.Fatalf("decoding saved entry: %v", err)
	}
	if saved.Username != "alice" || len(saved.DishNames) != 1 {
		t.Errorf("unexpected saved entry: %+v", saved)
	}

	request = requestWithUser(http.MethodGet, "/api/meals/log", "", fixture.user)
	recorder = httptest.NewRecorder()
	fixture.handler.ListLog(recorder, request)

	var entries []models.MealLogEntry
	if err := json.NewDecoder(recorder.Body).Decode(&entries); err != nil {
		t.Fatalf("decoding entries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	request = requestWithUser(http.MethodDelete, "/api/meals/log?logged_at="+url.QueryEscape(saved.LoggedAt), "", fixture.user)
	recorder = httptest.NewRecorder()
	fixture.handler.DeleteLog(recorder, request)

	if recorder.Code != http.StatusNoContent {
		t.Errorf("expected status 204, got %d", recorder.Code)
	}
}

func TestDeleteLog_MissReturns404(t *testing.T) {
	fixture := newMealFixture(t)

	request := requestWithUser(http.MethodDelete,
		"/api/meals/log?logged_at=2026-02-10+12:30:00", "", fixture.user)
	recorder := httptest.NewRecorder()
	fixture.handler.DeleteLog(recorder, request)

	if recorder.Code != http.StatusNotFound {
		t.Errorf("expected status 404 for missing entry, got %d", recorder.Code)
	}
}

func TestSaveLog_RejectsEmptySelection(t *testing.T) {
	fixture := newMealFixture(t)

	request := requestWithUser(http.MethodPost, "/api/meals/log", `{"dishes":[]}`, fixture.user)
	recorder := httptest.NewRecorder()
	fixture.handler.SaveLog(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for empty meal, got %d", recorder.Code)
	}
}
