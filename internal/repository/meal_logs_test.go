package repository_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/ourfood/climate-diet/internal/models"
	"github.com/ourfood/climate-diet/internal/repository"
	"github.com/ourfood/climate-diet/internal/testutil"
)

func createTestUser(t *testing.T, repo *repository.SQLiteUserRepository, username string) models.User {
	t.Helper()
	user, err := repo.Create(context.Background(), models.User{
		Username: username,
		Name:     username,
		Role:     models.RoleMember,
	})
	if err != nil {
		t.Fatalf("creating test user: %v", err)
	}
	return user
}

func TestMealLogRepository_AppendAndList(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	createTestUser(t, repository.NewUserRepository(db), "alice")
	logRepo := repository.NewMealLogRepository(db)
	ctx := context.Background()

	entry := models.MealLogEntry{
		Username:  "alice",
		LoggedAt:  "2026-02-10 12:30:00",
		DishTypes: []string{"Lunch", "Soup"},
		DishNames: []string{"braised tofu rice", "caldo verde"},
		Amounts:   []float64{105, 87.5},
		CO2Kg:     1.2,
		Calories:  540,
		Carbs:     60,
		Fat:       18,
		Protein:   25,
	}

	if _, err := logRepo.Append(ctx, entry); err != nil {
		t.Fatalf("appending entry: %v", err)
	}

	entries, err := logRepo.List(ctx, "alice")
	if err != nil {
		t.Fatalf("listing entries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	got := entries[0]
	if got.LoggedAt != "2026-02-10 12:30:00" {
		t.Errorf("expected canonical timestamp, got %q", got.LoggedAt)
	}
	if !reflect.DeepEqual(got.DishTypes, entry.DishTypes) {
		t.Errorf("dish types round trip failed: %v", got.DishTypes)
	}
	if !reflect.DeepEqual(got.DishNames, entry.DishNames) {
		t.Errorf("dish names round trip failed: %v", got.DishNames)
	}
	if !reflect.DeepEqual(got.Amounts, entry.Amounts) {
		t.Errorf("amounts round trip failed: %v", got.Amounts)
	}
	if got.CO2Kg != 1.2 || got.Calories != 540 || got.Protein != 25 {
		t.Errorf("metrics round trip failed: %+v", got)
	}
}

func TestMealLogRepository_NormalizesTimestamps(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	createTestUser(t, repository.NewUserRepository(db), "alice")
	logRepo := repository.NewMealLogRepository(db)
	ctx := context.Background()

	saved, err := logRepo.Append(ctx, models.MealLogEntry{
		Username: "alice",
		LoggedAt: "2026-02-10T12:30:00",
	})
	if err != nil {
		t.Fatalf("appending entry: %v", err)
	}
	if saved.LoggedAt != "2026-02-10 12:30:00" {
		t.Errorf("expected normalized timestamp, got %q", saved.LoggedAt)
	}

	// Matching for delete accepts the same alternate layouts.
	if err := logRepo.Delete(ctx, "alice", "2026-02-10T12:30:00"); err != nil {
		t.Errorf("deleting with alternate layout: %v", err)
	}

	if _, err := logRepo.Append(ctx, models.MealLogEntry{Username: "alice", LoggedAt: "yesterday"}); err == nil {
		t.Error("expected an error for an unrecognized timestamp")
	}
}

func TestMealLogRepository_ListOrderedByTimestamp(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	createTestUser(t, repository.NewUserRepository(db), "alice")
	logRepo := repository.NewMealLogRepository(db)
	ctx := context.Background()

	for _, loggedAt := range []string{"2026-02-11 08:00:00", "2026-02-10 19:00:00", "2026-02-10 08:00:00"} {
		if _, err := logRepo.Append(ctx, models.MealLogEntry{Username: "alice", LoggedAt: loggedAt}); err != nil {
			t.Fatalf("appending entry: %v", err)
		}
	}

	entries, err := logRepo.List(ctx, "alice")
	if err != nil {
		t.Fatalf("listing entries: %v", err)
	}
	want := []string{"2026-02-10 08:00:00", "2026-02-10 19:00:00", "2026-02-11 08:00:00"}
	for i, loggedAt := range want {
		if entries[i].LoggedAt != loggedAt {
			t.Errorf("position %d: expected %q, got %q", i, loggedAt, entries[i].LoggedAt)
		}
	}
}

func TestMealLogRepository_DuplicateTimestampsAllowed(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	createTestUser(t, repository.NewUserRepository(db), "alice")
	logRepo := repository.NewMealLogRepository(db)
	ctx := context.Background()

	entry := models.MealLogEntry{Username: "alice", LoggedAt: "2026-02-10 12:30:00", CO2Kg: 1}
	for i := 0; i < 2; i++ {
		if _, err := logRepo.Append(ctx, entry); err != nil {
			t.Fatalf("appending entry %d: %v", i, err)
		}
	}

	entries, err := logRepo.List(ctx, "alice")
	if err != nil {
		t.Fatalf("listing entries: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected duplicate timestamps to create 2 rows, got %d", len(entries))
	}
}

func TestMealLogRepository_DeleteMissLeavesLogUnchanged(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	createTestUser(t, repository.NewUserRepository(db), "alice")
	logRepo := repository.NewMealLogRepository(db)
	ctx := context.Background()

	if _, err := logRepo.Append(ctx, models.MealLogEntry{Username: "alice", LoggedAt: "2026-02-10 12:30:00"}); err != nil {
		t.Fatalf("appending entry: %v", err)
	}

	err := logRepo.Delete(ctx, "alice", "2026-02-10 12:31:00")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	entries, err := logRepo.List(ctx, "alice")
	if err != nil {
		t.Fatalf("listing entries: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected log unchanged after miss, got %d entries", len(entries))
	}
}

func TestMealLogRepository_DeleteScopedToUser(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	userRepo := repository.NewUserRepository(db)
	createTestUser(t, userRepo, "alice")
	createTestUser(t, userRepo, "bob")
	logRepo := repository.NewMealLogRepository(db)
	ctx := context.Background()

	loggedAt := "2026-02-10 12:30:00"
	if _, err := logRepo.Append(ctx, models.MealLogEntry{Username: "alice", LoggedAt: loggedAt}); err != nil {
		t.Fatalf("appending entry: %v", err)
	}

	if err := logRepo.Delete(ctx, "bob", loggedAt); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting another user's entry, got %v", err)
	}
}
