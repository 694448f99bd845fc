package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ourfood/climate-diet/internal/middleware"
	"github.com/ourfood/climate-diet/internal/services"
)

// defaultRollingWindow is the trailing window for the carbon trend chart.
const defaultRollingWindow = 7

type AnalyticsHandler struct {
	analyticsService *services.AnalyticsService
}

func NewAnalyticsHandler(analyticsService *services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

func (handler *AnalyticsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)

	summary, err := handler.analyticsService.Summary(ctx, user.Username)
	if err != nil {
		slog.Error("building analytics summary", "user", user.Username, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load analytics")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

type seriesResponse struct {
	Metric string           `json:"metric"`
	Points []services.Point `json:"points"`
}

// Series returns the charting tuples for one metric, e.g. ?metric=co2.
func (handler *AnalyticsHandler) Series(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)

	metric := r.URL.Query().Get("metric")
	if metric == "" {
		metric = "co2"
	}

	points, err := handler.analyticsService.Series(ctx, user.Username, metric)
	switch {
	case errors.Is(err, services.ErrUnknownMetric):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		slog.Error("building metric series", "user", user.Username, "metric", metric, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load analytics")
		return
	}
	if points == nil {
		points = []services.Point{}
	}
	writeJSON(w, http.StatusOK, seriesResponse{Metric: metric, Points: points})
}

type trendResponse struct {
	Window int              `json:"window"`
	Points []services.Point `json:"points"`
}

// CarbonTrend returns the rolling average carbon series. The window defaults
// to a week's worth of meals and may be overridden with ?window=N.
func (handler *AnalyticsHandler) CarbonTrend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)

	window := defaultRollingWindow
	if raw := r.URL.Query().Get("window"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "window must be a positive integer")
			return
		}
		window = parsed
	}

	points, err := handler.analyticsService.RollingAverageCO2(ctx, user.Username, window)
	if err != nil {
		slog.Error("building carbon trend", "user", user.Username, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load analytics")
		return
	}
	if points == nil {
		points = []services.Point{}
	}
	writeJSON(w, http.StatusOK, trendResponse{Window: window, Points: points})
}
