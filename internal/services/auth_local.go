package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ourfood/climate-diet/internal/models"
	"github.com/ourfood/climate-diet/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

var ErrUsernameTaken = errors.New("username already taken")

// LocalUserStore keeps accounts in the local users table: bcrypt password
// hashes plus a signed HS256 remember-me token for passwordless
// reauthentication.
type LocalUserStore struct {
	userRepo  repository.UserRepository
	jwtSecret []byte
	tokenTTL  time.Duration
}

func NewLocalUserStore(userRepo repository.UserRepository, jwtSecret string) *LocalUserStore {
	return &LocalUserStore{
		userRepo:  userRepo,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  30 * 24 * time.Hour,
	}
}

func (store *LocalUserStore) Mode() models.AuthMode {
	return models.AuthModeLocal
}

func (store *LocalUserStore) Login(ctx context.Context, username, password string) (models.User, error) {
	user, err := store.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, fmt.Errorf("looking up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, ErrInvalidCredentials
	}
	return user, nil
}

func (store *LocalUserStore) SignUp(ctx context.Context, username, password string) (models.User, error) {
	if username == "" || password == "" {
		return models.User{}, fmt.Errorf("%w: username and password are required", ErrInvalidCredentials)
	}

	if _, err := store.userRepo.FindByUsername(ctx, username); err == nil {
		return models.User{}, fmt.Errorf("%w: %q", ErrUsernameTaken, username)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return models.User{}, fmt.Errorf("checking username: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("hashing password: %w", err)
	}

	userCount, err := store.userRepo.Count(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("counting users: %w", err)
	}
	role := models.RoleMember
	if userCount == 0 {
		role = models.RoleAdmin
	}

	created, err := store.userRepo.Create(ctx, models.User{
		Username:     username,
		Name:         username,
		PasswordHash: string(hash),
		Role:         role,
	})
	if err != nil {
		return models.User{}, fmt.Errorf("creating user: %w", err)
	}

	slog.Info("provisioned new user", "id", created.ID, "username", created.Username, "role", created.Role)
	return created, nil
}

// ResetPassword sets a random temporary password on the account and returns
// it in the clear, for an admin to hand to the user.
func (store *LocalUserStore) ResetPassword(ctx context.Context, username string) (string, error) {
	user, err := store.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return "", fmt.Errorf("looking up user: %w", err)
	}

	bytes := make([]byte, 12)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generating password: %w", err)
	}
	tempPassword := hex.EncodeToString(bytes)

	hash, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}

	if err := store.userRepo.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return "", err
	}
	return tempPassword, nil
}

func (store *LocalUserStore) LoginURL(string) string {
	return ""
}

func (store *LocalUserStore) HandleCallback(context.Context, string) (models.User, error) {
	return models.User{}, ErrUnsupportedFlow
}

type rememberClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// IssueRememberToken signs a token that re-authenticates the user without a
// password until it expires.
func (store *LocalUserStore) IssueRememberToken(username string) (string, error) {
	claims := rememberClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(store.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(store.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("signing remember token: %w", err)
	}
	return signed, nil
}

// VerifyRememberToken validates a remember-me token and returns the user it
// belongs to.
func (store *LocalUserStore) VerifyRememberToken(ctx context.Context, tokenString string) (models.User, error) {
	var claims rememberClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return store.jwtSecret, nil
	})
	if err != nil {
		return models.User{}, fmt.Errorf("parsing remember token: %w", err)
	}

	user, err := store.userRepo.FindByUsername(ctx, claims.Username)
	if err != nil {
		return models.User{}, fmt.Errorf("finding remembered user: %w", err)
	}
	return user, nil
}
