package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ourfood/climate-diet/internal/middleware"
	"github.com/ourfood/climate-diet/internal/models"
	"github.com/ourfood/climate-diet/internal/repository"
	"github.com/ourfood/climate-diet/internal/services"
)

type ProfileHandler struct {
	contactRepo   repository.ContactRepository
	budgetRepo    repository.BudgetRepository
	budgetService *services.BudgetService
}

func NewProfileHandler(
	contactRepo repository.ContactRepository,
	budgetRepo repository.BudgetRepository,
	budgetService *services.BudgetService,
) *ProfileHandler {
	return &ProfileHandler{
		contactRepo:   contactRepo,
		budgetRepo:    budgetRepo,
		budgetService: budgetService,
	}
}

type contactPayload struct {
	Name   string `json:"name"`
	Age    string `json:"age"`
	Gender string `json:"gender"`
	Email  string `json:"email"`
}

type budgetPayload struct {
	CO2Kg    float64 `json:"co2_kg"`
	Calories float64 `json:"calories"`
	Carbs    float64 `json:"carbs"`
	Protein  float64 `json:"protein"`
	Fat      float64 `json:"fat"`
}

type profileResponse struct {
	Username string         `json:"username"`
	Role     models.Role    `json:"role"`
	Contact  contactPayload `json:"contact"`
	Budget   budgetPayload  `json:"budget"`
}

type profileUpdateRequest struct {
	Contact *contactPayload `json:"contact"`
	Budget  *budgetPayload  `json:"budget"`
}

// Get returns the user's contact details and budget. Users who never saved a
// profile see the reference defaults; nothing is written for them.
func (handler *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)

	contact, err := handler.contactRepo.Find(ctx, user.Username)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		slog.Error("fetching contact", "user", user.Username, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}

	budget, err := handler.budgetService.BudgetFor(ctx, user.Username)
	if err != nil {
		slog.Error("fetching budget", "user", user.Username, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}

	writeJSON(w, http.StatusOK, profileResponse{
		Username: user.Username,
		Role:     user.Role,
		Contact: contactPayload{
			Name:   contact.Name,
			Age:    contact.Age,
			Gender: contact.Gender,
			Email:  contact.Email,
		},
		Budget: budgetPayload{
			CO2Kg:    budget.CO2Kg,
			Calories: budget.Calories,
			Carbs:    budget.Carbs,
			Protein:  budget.Protein,
			Fat:      budget.Fat,
		},
	})
}

// Update upserts the contact details and budget sent in the request. Either
// section may be omitted to leave it untouched.
func (handler *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)

	var request profileUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if request.Contact == nil && request.Budget == nil {
		writeError(w, http.StatusBadRequest, "nothing to update")
		return
	}

	if request.Contact != nil {
		err := handler.contactRepo.Upsert(ctx, models.UserContact{
			Username: user.Username,
			Name:     request.Contact.Name,
			Age:      request.Contact.Age,
			Gender:   request.Contact.Gender,
			Email:    request.Contact.Email,
		})
		if err != nil {
			slog.Error("saving contact", "user", user.Username, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to save profile")
			return
		}
	}

	if request.Budget != nil {
		if request.Budget.CO2Kg < 0 || request.Budget.Calories < 0 ||
			request.Budget.Carbs < 0 || request.Budget.Protein < 0 || request.Budget.Fat < 0 {
			writeError(w, http.StatusBadRequest, "budget values must not be negative")
			return
		}
		err := handler.budgetRepo.Upsert(ctx, models.UserBudget{
			Username: user.Username,
			CO2Kg:    request.Budget.CO2Kg,
			Calories: request.Budget.Calories,
			Carbs:    request.Budget.Carbs,
			Protein:  request.Budget.Protein,
			Fat:      request.Budget.Fat,
		})
		if err != nil {
			slog.Error("saving budget", "user", user.Username, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to save profile")
			return
		}
	}

	handler.Get(w, r)
}
