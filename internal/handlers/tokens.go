package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ourfood/climate-diet/internal/middleware"
	"github.com/ourfood/climate-diet/internal/models"
	"github.com/ourfood/climate-diet/internal/repository"
)

// TokenHandler manages API bearer tokens. Only the sha256 hash is stored;
// the plaintext token is shown once, on creation.
type TokenHandler struct {
	tokenRepo repository.APITokenRepository
}

func NewTokenHandler(tokenRepo repository.APITokenRepository) *TokenHandler {
	return &TokenHandler{tokenRepo: tokenRepo}
}

type createTokenRequest struct {
	Name      string `json:"name"`
	ExpiresIn string `json:"expires_in"`
}

type createTokenResponse struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Token     string     `json:"token"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type tokenSummary struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Scope     string     `json:"scope"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func (handler *TokenHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	var request createTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if request.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	var expiresAt *time.Time
	if request.ExpiresIn != "" {
		duration, err := time.ParseDuration(request.ExpiresIn)
		if err != nil || duration <= 0 {
			writeError(w, http.StatusBadRequest, "expires_in must be a positive duration")
			return
		}
		expiry := time.Now().Add(duration)
		expiresAt = &expiry
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		slog.Error("generating token", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create token")
		return
	}
	plaintext := hex.EncodeToString(raw)

	created, err := handler.tokenRepo.Create(r.Context(), models.APIToken{
		Name:            request.Name,
		TokenHash:       repository.HashToken(plaintext),
		CreatedByUserID: user.ID,
		ExpiresAt:       expiresAt,
	})
	if err != nil {
		slog.Error("creating api token", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create token")
		return
	}

	writeJSON(w, http.StatusCreated, createTokenResponse{
		ID:        created.ID,
		Name:      created.Name,
		Token:     plaintext,
		ExpiresAt: created.ExpiresAt,
	})
}

func (handler *TokenHandler) List(w http.ResponseWriter, r *http.Request) {
	tokens, err := handler.tokenRepo.FindAll(r.Context())
	if err != nil {
		slog.Error("listing api tokens", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list tokens")
		return
	}

	response := make([]tokenSummary, 0, len(tokens))
	for _, token := range tokens {
		response = append(response, tokenSummary{
			ID:        token.ID,
			Name:      token.Name,
			Scope:     token.Scope,
			ExpiresAt: token.ExpiresAt,
			CreatedAt: token.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, response)
}

func (handler *TokenHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := handler.tokenRepo.Delete(r.Context(), id); err != nil {
		slog.Error("deleting api token", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete token")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
