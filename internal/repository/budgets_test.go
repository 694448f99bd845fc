package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ourfood/climate-diet/internal/models"
	"github.com/ourfood/climate-diet/internal/repository"
	"github.com/ourfood/climate-diet/internal/testutil"
)

func TestBudgetRepository_FindMissing(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	budgetRepo := repository.NewBudgetRepository(db)

	_, err := budgetRepo.Find(context.Background(), "nobody")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestBudgetRepository_UpsertInsertsThenUpdates(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	createTestUser(t, repository.NewUserRepository(db), "alice")
	budgetRepo := repository.NewBudgetRepository(db)
	ctx := context.Background()

	err := budgetRepo.Upsert(ctx, models.UserBudget{
		Username: "alice", CO2Kg: 2.72, Calories: 2000, Carbs: 300, Protein: 50, Fat: 65,
	})
	if err != nil {
		t.Fatalf("inserting budget: %v", err)
	}

	err = budgetRepo.Upsert(ctx, models.UserBudget{
		Username: "alice", CO2Kg: 1.8, Calories: 1800, Carbs: 260, Protein: 60, Fat: 55,
	})
	if err != nil {
		t.Fatalf("updating budget: %v", err)
	}

	budget, err := budgetRepo.Find(ctx, "alice")
	if err != nil {
		t.Fatalf("finding budget: %v", err)
	}
	if budget.CO2Kg != 1.8 || budget.Calories != 1800 || budget.Protein != 60 {
		t.Errorf("expected updated values, got %+v", budget)
	}
}

func TestContactRepository_UpsertRoundTrip(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	createTestUser(t, repository.NewUserRepository(db), "alice")
	contactRepo := repository.NewContactRepository(db)
	ctx := context.Background()

	if _, err := contactRepo.Find(ctx, "alice"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound before first save, got %v", err)
	}

	err := contactRepo.Upsert(ctx, models.UserContact{
		Username: "alice", Name: "Alice Wong", Age: "27", Gender: "female", Email: "alice@example.com",
	})
	if err != nil {
		t.Fatalf("inserting contact: %v", err)
	}

	err = contactRepo.Upsert(ctx, models.UserContact{
		Username: "alice", Name: "Alice Wong", Age: "28", Gender: "female", Email: "alice@example.com",
	})
	if err != nil {
		t.Fatalf("updating contact: %v", err)
	}

	contact, err := contactRepo.Find(ctx, "alice")
	if err != nil {
		t.Fatalf("finding contact: %v", err)
	}
	if contact.Age != "28" || contact.Name != "Alice Wong" {
		t.Errorf("expected updated contact, got %+v", contact)
	}
}
