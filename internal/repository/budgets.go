package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ourfood/climate-diet/internal/models"
)

type BudgetRepository interface {
	Find(ctx context.Context, username string) (models.UserBudget, error)
	Upsert(ctx context.Context, budget models.UserBudget) error
}

type SQLiteBudgetRepository struct {
	database *sql.DB
}

func NewBudgetRepository(database *sql.DB) *SQLiteBudgetRepository {
	return &SQLiteBudgetRepository{database: database}
}

func (repository *SQLiteBudgetRepository) Find(ctx context.Context, username string) (models.UserBudget, error) {
	var budget models.UserBudget
	err := repository.database.QueryRowContext(ctx,
		"SELECT username, co2, calories, carbs, protein, fat, updated_at FROM user_budgets WHERE username = ?", username,
	).Scan(&budget.Username, &budget.CO2Kg, &budget.Calories, &budget.Carbs, &budget.Protein, &budget.Fat, &budget.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.UserBudget{}, ErrNotFound
		}
		return models.UserBudget{}, fmt.Errorf("finding budget: %w", err)
	}
	return budget, nil
}

func (repository *SQLiteBudgetRepository) Upsert(ctx context.Context, budget models.UserBudget) error {
	budget.UpdatedAt = time.Now()
	_, err := repository.database.ExecContext(ctx,
		`INSERT INTO user_budgets (username, co2, calories, carbs, protein, fat, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(username) DO UPDATE SET
			co2 = excluded.co2, calories = excluded.calories, carbs = excluded.carbs,
			protein = excluded.protein, fat = excluded.fat, updated_at = excluded.updated_at`,
		budget.Username, budget.CO2Kg, budget.Calories, budget.Carbs, budget.Protein, budget.Fat, budget.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting budget: %w", err)
	}
	return nil
}
