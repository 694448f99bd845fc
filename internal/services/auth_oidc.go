package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/ourfood/climate-diet/internal/config"
	"github.com/ourfood/climate-diet/internal/models"
	"github.com/ourfood/climate-diet/internal/repository"
	"golang.org/x/oauth2"
)

// OIDCUserStore provisions accounts from an external OIDC identity provider.
// The core never sees credentials, only the provider's authenticated
// subject.
type OIDCUserStore struct {
	oauthConfig  *oauth2.Config
	oidcVerifier *oidc.IDTokenVerifier
	userRepo     repository.UserRepository
}

func NewOIDCUserStore(ctx context.Context, cfg config.Config, userRepo repository.UserRepository) (*OIDCUserStore, error) {
	provider, err := oidc.NewProvider(ctx, cfg.OIDCIssuer)
	if err != nil {
		return nil, fmt.Errorf("creating OIDC provider: %w", err)
	}

	oauthConfig := &oauth2.Config{
		ClientID:     cfg.OIDCClientID,
		ClientSecret: cfg.OIDCClientSecret,
		RedirectURL:  cfg.OIDCRedirectURL,
		Endpoint:     provider.Endpoint(),
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}

	return &OIDCUserStore{
		oauthConfig:  oauthConfig,
		oidcVerifier: provider.Verifier(&oidc.Config{ClientID: cfg.OIDCClientID}),
		userRepo:     userRepo,
	}, nil
}

func (store *OIDCUserStore) Mode() models.AuthMode {
	return models.AuthModeOIDC
}

func (store *OIDCUserStore) Login(context.Context, string, string) (models.User, error) {
	return models.User{}, ErrUnsupportedFlow
}

func (store *OIDCUserStore) SignUp(context.Context, string, string) (models.User, error) {
	return models.User{}, ErrUnsupportedFlow
}

func (store *OIDCUserStore) ResetPassword(context.Context, string) (string, error) {
	return "", ErrUnsupportedFlow
}

func (store *OIDCUserStore) LoginURL(state string) string {
	return store.oauthConfig.AuthCodeURL(state)
}

func (store *OIDCUserStore) HandleCallback(ctx context.Context, code string) (models.User, error) {
	token, err := store.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return models.User{}, fmt.Errorf("exchanging code: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return models.User{}, errors.New("no id_token in response")
	}

	idToken, err := store.oidcVerifier.Verify(ctx, rawIDToken)
	if err != nil {
		return models.User{}, fmt.Errorf("verifying id token: %w", err)
	}

	var claims struct {
		Subject           string `json:"sub"`
		Email             string `json:"email"`
		Name              string `json:"name"`
		PreferredUsername string `json:"preferred_username"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return models.User{}, fmt.Errorf("parsing claims: %w", err)
	}

	username := claims.PreferredUsername
	if username == "" {
		username = claims.Email
	}
	if username == "" {
		username = claims.Subject
	}

	displayName := claims.Name
	if displayName == "" {
		displayName = username
	}

	return store.provisionUser(ctx, claims.Subject, username, claims.Email, displayName)
}

func (store *OIDCUserStore) provisionUser(ctx context.Context, subject, username, email, name string) (models.User, error) {
	existingUser, err := store.userRepo.FindByOIDCSubject(ctx, subject)
	if err == nil {
		if err := store.userRepo.UpdateProfile(ctx, existingUser.ID, name, email); err != nil {
			slog.Warn("failed to update user profile on login", "error", err)
		}
		existingUser.Name = name
		existingUser.Email = email
		return existingUser, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return models.User{}, fmt.Errorf("looking up user: %w", err)
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
		Username:    username,
		OIDCSubject: subject,
		Email:       email,
		Name:        name,
		Role:        role,
	})
	if err != nil {
		return models.User{}, fmt.Errorf("creating user: %w", err)
	}

	slog.Info("provisioned new user", "id", created.ID, "username", created.Username, "role", created.Role)
	return created, nil
}
