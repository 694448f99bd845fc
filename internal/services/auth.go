package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/securecookie"
	"github.com/ourfood/climate-diet/internal/models"
	"github.com/ourfood/climate-diet/internal/repository"
)

// ErrUnsupportedFlow is returned when an auth flow is invoked against a
// user store that does not implement it: password login against the OIDC
// store, callback handling against the local store, and so on.
var ErrUnsupportedFlow = errors.New("flow not supported by this auth mode")

var ErrInvalidCredentials = errors.New("invalid username or password")

// UserStore abstracts where accounts live. Exactly one implementation is
// active per process, selected by AUTH_MODE: the local users table or an
// external OIDC identity provider. Flows a store does not support return
// ErrUnsupportedFlow.
type UserStore interface {
	Mode() models.AuthMode

	// Credential flows (local store).
	Login(ctx context.Context, username, password string) (models.User, error)
	SignUp(ctx context.Context, username, password string) (models.User, error)
	ResetPassword(ctx context.Context, username string) (string, error)

	// Redirect flows (external identity provider).
	LoginURL(state string) string
	HandleCallback(ctx context.Context, code string) (models.User, error)
}

type SessionData struct {
	UserID string `json:"user_id"`
}

// AuthService owns the browser session cookie. Which store sits behind it
// is decided at startup.
type AuthService struct {
	store        UserStore
	secureCookie *securecookie.SecureCookie
	userRepo     repository.UserRepository
}

func NewAuthService(store UserStore, sessionSecret string, userRepo repository.UserRepository) *AuthService {
	return &AuthService{
		store:        store,
		secureCookie: securecookie.New([]byte(sessionSecret), nil),
		userRepo:     userRepo,
	}
}

func (service *AuthService) Store() UserStore {
	return service.store
}

func (service *AuthService) GenerateState() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generating state: %w", err)
	}
	return base64.URLEncoding.EncodeToString(bytes), nil
}

func (service *AuthService) SetSession(w http.ResponseWriter, userID string) error {
	data := SessionData{UserID: userID}
	encoded, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}

	value, err := service.secureCookie.Encode("session", string(encoded))
	if err != nil {
		return fmt.Errorf("encoding session cookie: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "session",
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   86400 * 30,
	})
	return nil
}

func (service *AuthService) GetSession(r *http.Request) (SessionData, error) {
	cookie, err := r.Cookie("session")
	if err != nil {
		return SessionData{}, fmt.Errorf("no session cookie: %w", err)
	}

	var decoded string
	if err := service.secureCookie.Decode("session", cookie.Value, &decoded); err != nil {
		return SessionData{}, fmt.Errorf("decoding session cookie: %w", err)
	}

	var session SessionData
	if err := json.Unmarshal([]byte(decoded), &session); err != nil {
		return SessionData{}, fmt.Errorf("unmarshaling session: %w", err)
	}
	return session, nil
}

func (service *AuthService) ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     "session",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

func (service *AuthService) GetCurrentUser(r *http.Request) (models.User, error) {
	session, err := service.GetSession(r)
	if err != nil {
		return models.User{}, err
	}

	user, err := service.userRepo.FindByID(r.Context(), session.UserID)
	if err != nil {
		return models.User{}, fmt.Errorf("finding user: %w", err)
	}
	return user, nil
}
