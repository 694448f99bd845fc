package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ourfood/climate-diet/internal/middleware"
	"github.com/ourfood/climate-diet/internal/models"
	"github.com/ourfood/climate-diet/internal/repository"
	"github.com/ourfood/climate-diet/internal/services"
)

type AdminHandler struct {
	userRepo    repository.UserRepository
	authService *services.AuthService
}

func NewAdminHandler(userRepo repository.UserRepository, authService *services.AuthService) *AdminHandler {
	return &AdminHandler{userRepo: userRepo, authService: authService}
}

type adminUser struct {
	ID       string      `json:"id"`
	Username string      `json:"username"`
	Email    string      `json:"email"`
	Name     string      `json:"name"`
	Role     models.Role `json:"role"`
}

func (handler *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := handler.userRepo.FindAll(r.Context())
	if err != nil {
		slog.Error("listing users", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}

	response := make([]adminUser, 0, len(users))
	for _, user := range users {
		response = append(response, adminUser{
			ID:       user.ID,
			Username: user.Username,
			Email:    user.Email,
			Name:     user.Name,
			Role:     user.Role,
		})
	}
	writeJSON(w, http.StatusOK, response)
}

// DeleteUser removes an account. Budgets, contacts and meal logs for the
// username go with it.
func (handler *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	admin := middleware.GetUser(r.Context())
	username := chi.URLParam(r, "username")

	if username == admin.Username {
		writeError(w, http.StatusBadRequest, "cannot delete your own account")
		return
	}

	err := handler.userRepo.Delete(r.Context(), username)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "user not found")
	case err != nil:
		slog.Error("deleting user", "username", username, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete user")
	default:
		slog.Info("deleted user", "username", username, "by", admin.Username)
		w.WriteHeader(http.StatusNoContent)
	}
}

type resetPasswordResponse struct {
	Username          string `json:"username"`
	TemporaryPassword string `json:"temporary_password"`
}

// ResetPassword issues a temporary password for a local account. Accounts
// managed by an external identity provider cannot be reset here.
func (handler *AdminHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	admin := middleware.GetUser(r.Context())
	username := chi.URLParam(r, "username")

	temporary, err := handler.authService.Store().ResetPassword(r.Context(), username)
	switch {
	case errors.Is(err, services.ErrUnsupportedFlow):
		writeError(w, http.StatusBadRequest, "passwords are managed by the identity provider")
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "user not found")
	case err != nil:
		slog.Error("resetting password", "username", username, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to reset password")
	default:
		slog.Info("reset password", "username", username, "by", admin.Username)
		writeJSON(w, http.StatusOK, resetPasswordResponse{Username: username, TemporaryPassword: temporary})
	}
}
