package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ourfood/climate-diet/internal/models"
)

// TimestampLayout is the canonical meal log timestamp format. Every
// timestamp is normalized to it before storage and before matching.
const TimestampLayout = "2006-01-02 15:04:05"

// timestampLayouts are the accepted input formats, tried in order.
var timestampLayouts = []string{
	TimestampLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// NormalizeTimestamp parses a timestamp in any accepted layout and renders
// it in the canonical one.
func NormalizeTimestamp(value string) (string, error) {
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.Format(TimestampLayout), nil
		}
	}
	return "", fmt.Errorf("unrecognized timestamp %q", value)
}

type MealLogRepository interface {
	Append(ctx context.Context, entry models.MealLogEntry) (models.MealLogEntry, error)
	List(ctx context.Context, username string) ([]models.MealLogEntry, error)
	Delete(ctx context.Context, username string, loggedAt string) error
}

// SQLiteMealLogRepository persists saved meals keyed by username and
// timestamp. Appends with a duplicate (username, logged_at) pair create
// duplicate rows; there is deliberately no uniqueness constraint.
type SQLiteMealLogRepository struct {
	database *sql.DB
}

func NewMealLogRepository(database *sql.DB) *SQLiteMealLogRepository {
	return &SQLiteMealLogRepository{database: database}
}

func (repository *SQLiteMealLogRepository) Append(ctx context.Context, entry models.MealLogEntry) (models.MealLogEntry, error) {
	normalized, err := NormalizeTimestamp(entry.LoggedAt)
	if err != nil {
		return models.MealLogEntry{}, fmt.Errorf("normalizing timestamp: %w", err)
	}
	entry.LoggedAt = normalized
	entry.CreatedAt = time.Now()

	_, err = repository.database.ExecContext(ctx,
		`INSERT INTO user_meal_logs (username, logged_at, dish_types, dish_names, amounts, co2, calories, carbs, fat, protein, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.Username, entry.LoggedAt,
		strings.Join(entry.DishTypes, ";"),
		strings.Join(entry.DishNames, ";"),
		joinAmounts(entry.Amounts),
		entry.CO2Kg, entry.Calories, entry.Carbs, entry.Fat, entry.Protein,
		entry.CreatedAt,
	)
	if err != nil {
		return models.MealLogEntry{}, fmt.Errorf("appending meal log entry: %w", err)
	}
	return entry, nil
}

func (repository *SQLiteMealLogRepository) List(ctx context.Context, username string) ([]models.MealLogEntry, error) {
	rows, err := repository.database.QueryContext(ctx,
		`SELECT username, logged_at, dish_types, dish_names, amounts, co2, calories, carbs, fat, protein, created_at
		FROM user_meal_logs WHERE username = ? ORDER BY logged_at, id`, username,
	)
	if err != nil {
		return nil, fmt.Errorf("listing meal log: %w", err)
	}
	defer rows.Close()

	var entries []models.MealLogEntry
	for rows.Next() {
		var entry models.MealLogEntry
		var dishTypes, dishNames, amounts string
		if err := rows.Scan(&entry.Username, &entry.LoggedAt, &dishTypes, &dishNames, &amounts,
			&entry.CO2Kg, &entry.Calories, &entry.Carbs, &entry.Fat, &entry.Protein, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning meal log entry: %w", err)
		}
		entry.DishTypes = splitList(dishTypes)
		entry.DishNames = splitList(dishNames)
		entry.Amounts, err = splitAmounts(amounts)
		if err != nil {
			return nil, fmt.Errorf("parsing amounts for %s@%s: %w", entry.Username, entry.LoggedAt, err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (repository *SQLiteMealLogRepository) Delete(ctx context.Context, username string, loggedAt string) error {
	normalized, err := NormalizeTimestamp(loggedAt)
	if err != nil {
		return fmt.Errorf("normalizing timestamp: %w", err)
	}

	result, err := repository.database.ExecContext(ctx,
		"DELETE FROM user_meal_logs WHERE username = ? AND logged_at = ?", username, normalized,
	)
	if err != nil {
		return fmt.Errorf("deleting meal log entry: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting meal log entry: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func joinAmounts(amounts []float64) string {
	parts := make([]string, len(amounts))
	for i, amount := range amounts {
		parts[i] = strconv.FormatFloat(amount, 'f', -1, 64)
	}
	return strings.Join(parts, ";")
}

func splitAmounts(value string) ([]float64, error) {
	parts := splitList(value)
	if parts == nil {
		return nil, nil
	}
	amounts := make([]float64, len(parts))
	for i, part := range parts {
		parsed, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, err
		}
		amounts[i] = parsed
	}
	return amounts, nil
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	return strings.Split(value, ";")
}
