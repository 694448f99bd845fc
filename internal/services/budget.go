package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/ourfood/climate-diet/internal/catalog"
	"github.com/ourfood/climate-diet/internal/models"
	"github.com/ourfood/climate-diet/internal/repository"
)

// DefaultCO2BudgetKg is the daily food carbon budget used when a user has
// not set their own, based on the LiveLCA threshold.
const DefaultCO2BudgetKg = 2.72

// BudgetService resolves a user's daily budget and compares computed meal
// metrics against it.
type BudgetService struct {
	budgetRepo repository.BudgetRepository
	catalog    *catalog.Catalog
}

func NewBudgetService(budgetRepo repository.BudgetRepository, c *catalog.Catalog) *BudgetService {
	return &BudgetService{budgetRepo: budgetRepo, catalog: c}
}

// DefaultBudget is the fallback budget for users who never updated their
// profile: the LiveLCA carbon threshold plus the reference daily intake.
func (service *BudgetService) DefaultBudget(username string) models.UserBudget {
	rdi := service.catalog.ReferenceIntake()
	return models.UserBudget{
		Username: username,
		CO2Kg:    DefaultCO2BudgetKg,
		Calories: rdi.Calories,
		Carbs:    rdi.Carbs,
		Protein:  rdi.Protein,
		Fat:      rdi.Fat,
	}
}

// BudgetFor fetches the user's stored budget, falling back to the defaults
// when none exists.
func (service *BudgetService) BudgetFor(ctx context.Context, username string) (models.UserBudget, error) {
	budget, err := service.budgetRepo.Find(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return service.DefaultBudget(username), nil
		}
		return models.UserBudget{}, fmt.Errorf("fetching budget: %w", err)
	}
	return budget, nil
}

// Compare reports, per metric, how much of the daily budget the metrics
// consume. Remaining is not clamped and Percent may exceed 100; banding the
// percentage into traffic-light colors is presentation policy.
func (service *BudgetService) Compare(metrics models.MealMetrics, budget models.UserBudget) models.BudgetStatus {
	return models.BudgetStatus{
		CO2:      compareMetric(metrics.CO2Kg, budget.CO2Kg),
		Calories: compareMetric(metrics.Calories, budget.Calories),
		Carbs:    compareMetric(metrics.Carbs, budget.Carbs),
		Fat:      compareMetric(metrics.Fat, budget.Fat),
		Protein:  compareMetric(metrics.Protein, budget.Protein),
	}
}

func compareMetric(consumed, budget float64) models.MetricStatus {
	status := models.MetricStatus{
		Budget:    budget,
		Consumed:  consumed,
		Remaining: budget - consumed,
	}
	if budget > 0 {
		status.Percent = consumed / budget * 100
	}
	return status
}

// GramsToExhaust is how many grams of a dish would spend the whole daily
// carbon budget, given its per-100g footprint. Zero when the dish has no
// footprint.
func GramsToExhaust(budgetKg, per100gKg float64) float64 {
	if per100gKg <= 0 {
		return 0
	}
	return budgetKg / per100gKg * 100
}
