package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ourfood/climate-diet/internal/models"
)

type ContactRepository interface {
	Find(ctx context.Context, username string) (models.UserContact, error)
	Upsert(ctx context.Context, contact models.UserContact) error
}

type SQLiteContactRepository struct {
	database *sql.DB
}

func NewContactRepository(database *sql.DB) *SQLiteContactRepository {
	return &SQLiteContactRepository{database: database}
}

func (repository *SQLiteContactRepository) Find(ctx context.Context, username string) (models.UserContact, error) {
	var contact models.UserContact
	err := repository.database.QueryRowContext(ctx,
		"SELECT username, name, age, gender, email, updated_at FROM user_contacts WHERE username = ?", username,
	).Scan(&contact.Username, &contact.Name, &contact.Age, &contact.Gender, &contact.Email, &contact.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.UserContact{}, ErrNotFound
		}
		return models.UserContact{}, fmt.Errorf("finding contact: %w", err)
	}
	return contact, nil
}

func (repository *SQLiteContactRepository) Upsert(ctx context.Context, contact models.UserContact) error {
	contact.UpdatedAt = time.Now()
	_, err := repository.database.ExecContext(ctx,
		`INSERT INTO user_contacts (username, name, age, gender, email, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(username) DO UPDATE SET
			name = excluded.name, age = excluded.age, gender = excluded.gender,
			email = excluded.email, updated_at = excluded.updated_at`,
		contact.Username, contact.Name, contact.Age, contact.Gender, contact.Email, contact.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting contact: %w", err)
	}
	return nil
}
