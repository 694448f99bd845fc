package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ourfood/climate-diet/internal/models"
	"github.com/ourfood/climate-diet/internal/services"
)

const rememberCookieName = "remember_me"

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// localStore returns the store's credential API when running in local mode.
func (handler *AuthHandler) localStore() (*services.LocalUserStore, bool) {
	store, ok := handler.authService.Store().(*services.LocalUserStore)
	return store, ok
}

type sessionResponse struct {
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
}

// Login begins the sign-in flow. In OIDC mode it redirects to the identity
// provider. In local mode it answers a remember-me cookie with a restored
// session, or tells the client to post credentials.
func (handler *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	store := handler.authService.Store()

	if store.Mode() == models.AuthModeOIDC {
		state, err := handler.authService.GenerateState()
		if err != nil {
			slog.Error("generating oauth state", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to start login")
			return
		}
		http.SetCookie(w, &http.Cookie{
			Name:     "oauth_state",
			Value:    state,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   300,
		})
		http.Redirect(w, r, store.LoginURL(state), http.StatusTemporaryRedirect)
		return
	}

	// Local mode: a valid remember token restores the session silently.
	if local, ok := handler.localStore(); ok {
		if cookie, err := r.Cookie(rememberCookieName); err == nil {
			user, err := local.VerifyRememberToken(r.Context(), cookie.Value)
			if err == nil {
				if err := handler.authService.SetSession(w, user.ID); err == nil {
					writeJSON(w, http.StatusOK, sessionResponse{Username: user.Username, Role: user.Role})
					return
				}
			}
			clearRememberCookie(w)
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"mode": string(store.Mode())})
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

// SubmitLogin handles password login in local mode.
func (handler *AuthHandler) SubmitLogin(w http.ResponseWriter, r *http.Request) {
	var request credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := handler.authService.Store().Login(r.Context(), request.Username, request.Password)
	switch {
	case errors.Is(err, services.ErrUnsupportedFlow):
		writeError(w, http.StatusBadRequest, "password login is not available")
		return
	case errors.Is(err, services.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid username or password")
		return
	case err != nil:
		slog.Error("logging in", "username", request.Username, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to log in")
		return
	}

	handler.establishSession(w, r, user, request.Remember)
}

// SubmitSignUp registers a new account in local mode. The first account
// created becomes the admin.
func (handler *AuthHandler) SubmitSignUp(w http.ResponseWriter, r *http.Request) {
	var request credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := handler.authService.Store().SignUp(r.Context(), request.Username, request.Password)
	switch {
	case errors.Is(err, services.ErrUnsupportedFlow):
		writeError(w, http.StatusBadRequest, "sign-up is handled by the identity provider")
		return
	case errors.Is(err, services.ErrUsernameTaken):
		writeError(w, http.StatusConflict, "username is already taken")
		return
	case errors.Is(err, services.ErrInvalidCredentials):
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	case err != nil:
		slog.Error("signing up", "username", request.Username, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to sign up")
		return
	}

	handler.establishSession(w, r, user, request.Remember)
}

// Callback completes the OIDC code exchange.
func (handler *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		writeError(w, http.StatusBadRequest, "invalid oauth state")
		return
	}
	http.SetCookie(w, &http.Cookie{Name: "oauth_state", Value: "", Path: "/", MaxAge: -1})

	user, err := handler.authService.Store().HandleCallback(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		slog.Error("handling oidc callback", "error", err)
		writeError(w, http.StatusUnauthorized, "authentication failed")
		return
	}

	if err := handler.authService.SetSession(w, user.ID); err != nil {
		slog.Error("setting session", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to log in")
		return
	}
	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

func (handler *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	handler.authService.ClearSession(w)
	clearRememberCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (handler *AuthHandler) establishSession(w http.ResponseWriter, r *http.Request, user models.User, remember bool) {
	if err := handler.authService.SetSession(w, user.ID); err != nil {
		slog.Error("setting session", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to log in")
		return
	}

	if remember {
		if local, ok := handler.localStore(); ok {
			token, err := local.IssueRememberToken(user.Username)
			if err != nil {
				slog.Error("issuing remember token", "username", user.Username, "error", err)
			} else {
				http.SetCookie(w, &http.Cookie{
					Name:     rememberCookieName,
					Value:    token,
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
					MaxAge:   86400 * 30,
				})
			}
		}
	}

	writeJSON(w, http.StatusOK, sessionResponse{Username: user.Username, Role: user.Role})
}

func clearRememberCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     rememberCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}
