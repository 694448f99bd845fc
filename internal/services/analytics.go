package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/ourfood/climate-diet/internal/models"
	"github.com/ourfood/climate-diet/internal/repository"
)

var ErrUnknownMetric = errors.New("unknown metric")

// Calories per gram of each macronutrient.
const (
	kcalPerGramCarbs   = 4
	kcalPerGramProtein = 4
	kcalPerGramFat     = 9
)

// PeriodTotals are the summed metrics for one day or one month.
type PeriodTotals struct {
	Period  string             `json:"period"`
	Totals  models.MealMetrics `json:"totals"`
	Entries int                `json:"entries"`
}

// Summary is the full analytics rollup for a user's meal log.
type Summary struct {
	Totals  models.MealMetrics `json:"totals"`
	Entries int                `json:"entries"`
	Daily   []PeriodTotals     `json:"daily"`
	Monthly []PeriodTotals     `json:"monthly"`
	Macros  MacroSplit         `json:"macros"`
}

// Point is one charting tuple in a per-user time series.
type Point struct {
	LoggedAt string  `json:"logged_at"`
	Value    float64 `json:"value"`
}

// MacroSplit converts macro totals into their calorie contributions and
// shares of the macro-derived energy.
type MacroSplit struct {
	CarbsKcal    float64 `json:"carbs_kcal"`
	ProteinKcal  float64 `json:"protein_kcal"`
	FatKcal      float64 `json:"fat_kcal"`
	TotalKcal    float64 `json:"total_kcal"`
	CarbsShare   float64 `json:"carbs_share"`
	ProteinShare float64 `json:"protein_share"`
	FatShare     float64 `json:"fat_share"`
}

// AnalyticsService produces summary statistics over a user's meal log. The
// log store returns entries in chronological insertion order, which every
// series here preserves.
type AnalyticsService struct {
	logRepo repository.MealLogRepository
}

func NewAnalyticsService(logRepo repository.MealLogRepository) *AnalyticsService {
	return &AnalyticsService{logRepo: logRepo}
}

func (service *AnalyticsService) Summary(ctx context.Context, username string) (Summary, error) {
	entries, err := service.logRepo.List(ctx, username)
	if err != nil {
		return Summary{}, fmt.Errorf("loading meal log: %w", err)
	}

	summary := Summary{Entries: len(entries)}
	summary.Daily = accumulatePeriods(entries, dayOf)
	summary.Monthly = accumulatePeriods(entries, monthOf)
	for _, entry := range entries {
		addEntry(&summary.Totals, entry)
	}
	summary.Macros = MacroSplitFor(summary.Totals)
	return summary, nil
}

// Series returns the (timestamp, value) tuples for one metric, in log order.
func (service *AnalyticsService) Series(ctx context.Context, username string, metric string) ([]Point, error) {
	value, err := metricReader(metric)
	if err != nil {
		return nil, err
	}

	entries, err := service.logRepo.List(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("loading meal log: %w", err)
	}

	points := make([]Point, len(entries))
	for i, entry := range entries {
		points[i] = Point{LoggedAt: entry.LoggedAt, Value: value(entry)}
	}
	return points, nil
}

// RollingAverageCO2 is the trailing mean of carbon values over the given
// window, one point per log entry.
func (service *AnalyticsService) RollingAverageCO2(ctx context.Context, username string, window int) ([]Point, error) {
	if window < 1 {
		window = 1
	}

	entries, err := service.logRepo.List(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("loading meal log: %w", err)
	}

	points := make([]Point, len(entries))
	var sum float64
	for i, entry := range entries {
		sum += entry.CO2Kg
		if i >= window {
			sum -= entries[i-window].CO2Kg
		}
		span := i + 1
		if span > window {
			span = window
		}
		points[i] = Point{LoggedAt: entry.LoggedAt, Value: sum / float64(span)}
	}
	return points, nil
}

// MacroSplitFor converts macro gram totals into calories (4 kcal/g for carbs
// and protein, 9 kcal/g for fat) and their shares of that energy.
func MacroSplitFor(totals models.MealMetrics) MacroSplit {
	split := MacroSplit{
		CarbsKcal:   totals.Carbs * kcalPerGramCarbs,
		ProteinKcal: totals.Protein * kcalPerGramProtein,
		FatKcal:     totals.Fat * kcalPerGramFat,
	}
	split.TotalKcal = split.CarbsKcal + split.ProteinKcal + split.FatKcal
	if split.TotalKcal > 0 {
		split.CarbsShare = split.CarbsKcal / split.TotalKcal * 100
		split.ProteinShare = split.ProteinKcal / split.TotalKcal * 100
		split.FatShare = split.FatKcal / split.TotalKcal * 100
	}
	return split
}

func accumulatePeriods(entries []models.MealLogEntry, periodOf func(models.MealLogEntry) string) []PeriodTotals {
	index := make(map[string]int)
	var periods []PeriodTotals
	for _, entry := range entries {
		period := periodOf(entry)
		i, ok := index[period]
		if !ok {
			i = len(periods)
			index[period] = i
			periods = append(periods, PeriodTotals{Period: period})
		}
		addEntry(&periods[i].Totals, entry)
		periods[i].Entries++
	}
	return periods
}

func addEntry(totals *models.MealMetrics, entry models.MealLogEntry) {
	totals.CO2Kg += entry.CO2Kg
	totals.Calories += entry.Calories
	totals.Carbs += entry.Carbs
	totals.Fat += entry.Fat
	totals.Protein += entry.Protein
}

func dayOf(entry models.MealLogEntry) string {
	if len(entry.LoggedAt) < 10 {
		return entry.LoggedAt
	}
	return entry.LoggedAt[:10]
}

func monthOf(entry models.MealLogEntry) string {
	if len(entry.LoggedAt) < 7 {
		return entry.LoggedAt
	}
	return entry.LoggedAt[:7]
}

func metricReader(metric string) (func(models.MealLogEntry) float64, error) {
	switch metric {
	case "co2":
		return func(e models.MealLogEntry) float64 { return e.CO2Kg }, nil
	case "calories":
		return func(e models.MealLogEntry) float64 { return e.Calories }, nil
	case "carbs":
		return func(e models.MealLogEntry) float64 { return e.Carbs }, nil
	case "fat":
		return func(e models.MealLogEntry) float64 { return e.Fat }, nil
	case "protein":
		return func(e models.MealLogEntry) float64 { return e.Protein }, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, metric)
	}
}
