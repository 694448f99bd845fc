package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/ourfood/climate-diet/internal/middleware"
	"github.com/ourfood/climate-diet/internal/repository"
)

// ICalHandler serves the meal history as an iCalendar feed, one event per
// logged meal, for subscribing from a calendar app.
type ICalHandler struct {
	logRepo repository.MealLogRepository
}

func NewICalHandler(logRepo repository.MealLogRepository) *ICalHandler {
	return &ICalHandler{logRepo: logRepo}
}

func (handler *ICalHandler) Feed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)

	entries, err := handler.logRepo.List(ctx, user.Username)
	if err != nil {
		slog.Error("listing meal log for feed", "user", user.Username, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build feed")
		return
	}

	calendar := ics.NewCalendar()
	calendar.SetMethod(ics.MethodPublish)
	calendar.SetProductId("-//climate-diet//meal log//EN")
	calendar.SetName("Meal Log")

	for i, entry := range entries {
		loggedAt, err := time.ParseInLocation(repository.TimestampLayout, entry.LoggedAt, time.Local)
		if err != nil {
			slog.Warn("skipping unparsable log entry", "user", user.Username, "logged_at", entry.LoggedAt)
			continue
		}

		// logged_at alone is not unique, so the row position joins the UID.
		event := calendar.AddEvent(fmt.Sprintf("%s-%d@climate-diet", entry.LoggedAt, i))
		event.SetCreatedTime(entry.CreatedAt)
		event.SetStartAt(loggedAt)
		event.SetEndAt(loggedAt.Add(30 * time.Minute))
		event.SetSummary(strings.Join(entry.DishNames, ", "))
		event.SetDescription(fmt.Sprintf(
			"CO2 %.2f kg, %.0f kcal, carbs %.1f g, fat %.1f g, protein %.1f g",
			entry.CO2Kg, entry.Calories, entry.Carbs, entry.Fat, entry.Protein,
		))
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="meals.ics"`)
	if _, err := w.Write([]byte(calendar.Serialize())); err != nil {
		slog.Error("writing feed", "user", user.Username, "error", err)
	}
}
