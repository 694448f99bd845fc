package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ourfood/climate-diet/internal/models"
	"github.com/ourfood/climate-diet/internal/repository"
	"github.com/ourfood/climate-diet/internal/testutil"
)

func TestUserRepository_CreateAndFind(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	userRepo := repository.NewUserRepository(db)
	ctx := context.Background()

	created, err := userRepo.Create(ctx, models.User{
		Username:    "alice",
		Email:       "alice@example.com",
		Name:        "Alice Wong",
		OIDCSubject: "sub-alice",
		Role:        models.RoleMember,
	})
	if err != nil {
		t.Fatalf("creating user: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected generated ID")
	}

	byID, err := userRepo.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("finding by id: %v", err)
	}
	if byID.Username != "alice" {
		t.Errorf("expected alice, got %q", byID.Username)
	}

	byUsername, err := userRepo.FindByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("finding by username: %v", err)
	}
	if byUsername.ID != created.ID {
		t.Errorf("expected same user, got %q", byUsername.ID)
	}

	bySubject, err := userRepo.FindByOIDCSubject(ctx, "sub-alice")
	if err != nil {
		t.Fatalf("finding by oidc subject: %v", err)
	}
	if bySubject.ID != created.ID {
		t.Errorf("expected same user, got %q", bySubject.ID)
	}

	if _, err := userRepo.FindByUsername(ctx, "nobody"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUserRepository_Count(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	userRepo := repository.NewUserRepository(db)
	ctx := context.Background()

	count, err := userRepo.Count(ctx)
	if err != nil {
		t.Fatalf("counting users: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 users, got %d", count)
	}

	createTestUser(t, userRepo, "alice")
	createTestUser(t, userRepo, "bob")

	count, err = userRepo.Count(ctx)
	if err != nil {
		t.Fatalf("counting users: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 users, got %d", count)
	}
}

func TestUserRepository_DeleteCascadesProfileRows(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	userRepo := repository.NewUserRepository(db)
	budgetRepo := repository.NewBudgetRepository(db)
	logRepo := repository.NewMealLogRepository(db)
	ctx := context.Background()

	createTestUser(t, userRepo, "alice")
	if err := budgetRepo.Upsert(ctx, models.UserBudget{Username: "alice", CO2Kg: 2}); err != nil {
		t.Fatalf("upserting budget: %v", err)
	}
	if _, err := logRepo.Append(ctx, models.MealLogEntry{Username: "alice", LoggedAt: "2026-02-10 12:30:00"}); err != nil {
		t.Fatalf("appending log entry: %v", err)
	}

	if err := userRepo.Delete(ctx, "alice"); err != nil {
		t.Fatalf("deleting user: %v", err)
	}

	if _, err := budgetRepo.Find(ctx, "alice"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected budget to cascade, got %v", err)
	}
	entries, err := logRepo.List(ctx, "alice")
	if err != nil {
		t.Fatalf("listing log: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected meal log to cascade, got %d entries", len(entries))
	}
}

func TestUserRepository_DeleteMissing(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	userRepo := repository.NewUserRepository(db)

	if err := userRepo.Delete(context.Background(), "nobody"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
