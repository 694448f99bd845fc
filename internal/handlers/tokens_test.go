package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ourfood/climate-diet/internal/middleware"
	"github.com/ourfood/climate-diet/internal/models"
	"github.com/ourfood/climate-diet/internal/repository"
	"github.com/ourfood/climate-diet/internal/testutil"
)

func TestCreateToken_ReturnsPlaintextOnce(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewAPITokenRepository(db)
	handler := NewTokenHandler(tokenRepo)

	admin, err := userRepo.Create(context.Background(), models.User{Username: "root", Role: models.RoleAdmin})
	if err != nil {
		t.Fatalf("creating admin: %v", err)
	}

	request := requestWithUser(http.MethodPost, "/api/tokens", `{"name":"grafana"}`, admin)
	recorder := httptest.NewRecorder()
	handler.Create(recorder, request)

	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", recorder.Code, recorder.Body.String())
	}

	var response createTokenResponse
	if err := json.NewDecoder(recorder.Body).Decode(&response); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if response.Token == "" {
		t.Fatal("expected plaintext token in the creation response")
	}

	// Only the hash is stored.
	stored, err := tokenRepo.FindByTokenHash(context.Background(), repository.HashToken(response.Token))
	if err != nil {
		t.Fatalf("finding stored token: %v", err)
	}
	if stored.TokenHash == response.Token {
		t.Error("token stored in the clear")
	}
	if stored.Scope != "api" {
		t.Errorf("expected default scope api, got %q", stored.Scope)
	}
}

func TestAPITokenAuth_GuardsIntegrationRoutes(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewAPITokenRepository(db)
	logRepo := repository.NewMealLogRepository(db)
	ctx := context.Background()

	user, err := userRepo.Create(ctx, models.User{Username: "alice", Role: models.RoleMember})
	if err != nil {
		t.Fatalf("creating user: %v", err)
	}

	rawToken := "integration-test-token"
	_, err = tokenRepo.Create(ctx, models.APIToken{
		Name:            "test",
		TokenHash:       repository.HashToken(rawToken),
		CreatedByUserID: user.ID,
	})
	if err != nil {
		t.Fatalf("creating token: %v", err)
	}

	expiredRaw := "expired-test-token"
	past := time.Now().Add(-time.Hour)
	_, err = tokenRepo.Create(ctx, models.APIToken{
		Name:            "expired",
		TokenHash:       repository.HashToken(expiredRaw),
		CreatedByUserID: user.ID,
		ExpiresAt:       &past,
	})
	if err != nil {
		t.Fatalf("creating expired token: %v", err)
	}

	mealHandler := NewMealHandler(nil, nil, logRepo)

	router := chi.NewRouter()
	router.Group(func(r chi.Router) {
		r.Use(middleware.APITokenAuth(tokenRepo, userRepo))
		r.Get("/api/v1/meals/log", mealHandler.ListLog)
	})

	cases := []struct {
		name   string
		target string
		header string
		status int
	}{
		{"valid token", "/api/v1/meals/log", "Bearer " + rawToken, http.StatusOK},
		{"query param token", "/api/v1/meals/log?token=" + rawToken, "", http.StatusOK},
		{"expired token", "/api/v1/meals/log", "Bearer " + expiredRaw, http.StatusUnauthorized},
		{"wrong token", "/api/v1/meals/log", "Bearer nonsense", http.StatusUnauthorized},
		{"no credentials", "/api/v1/meals/log", "", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		request := httptest.NewRequest(http.MethodGet, tc.target, nil)
		if tc.header != "" {
			request.Header.Set("Authorization", tc.header)
		}
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, request)

		if recorder.Code != tc.status {
			t.Errorf("%s: expected status %d, got %d", tc.name, tc.status, recorder.Code)
		}
	}
}
