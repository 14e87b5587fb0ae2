package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/permanentprinting/storefront-backend/pkg/db"
	"github.com/permanentprinting/storefront-backend/pkg/db/dbtest"
	"github.com/permanentprinting/storefront-backend/pkg/enums"
)

func strPtr(s string) *string { return &s }

func TestRepositoryCreateAndFind(t *testing.T) {
	client := dbtest.NewClient(t)
	repo := NewRepository(client.DB())
	ctx := context.Background()

	created, err := repo.Create(ctx, CreateUserDTO{
		Name:         "  Kwame Mensah ",
		Email:        "Kwame@Example.com",
		PasswordHash: "hash",
		Phone:        strPtr("+233200000000"),
		Region:       strPtr("Greater Accra"),
		City:         strPtr("Accra"),
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, "Kwame Mensah", created.Name)
	assert.Equal(t, "kwame@example.com", created.Email)
	assert.Equal(t, enums.UserRoleCustomer, created.Role)

	byEmail, err := repo.FindByEmail(ctx, " KWAME@example.COM")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	byID, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Accra", *byID.City)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestRepositoryDuplicateEmail(t *testing.T) {
	client := dbtest.NewClient(t)
	repo := NewRepository(client.DB())
	ctx := context.Background()

	_, err := repo.Create(ctx, CreateUserDTO{Name: "A", Email: "dup@example.com", PasswordHash: "h"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, CreateUserDTO{Name: "B", Email: "DUP@example.com", PasswordHash: "h"})
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err, ""))
}

func TestRepositoryUpdateLastLogin(t *testing.T) {
	client := dbtest.NewClient(t)
	repo := NewRepository(client.DB())
	ctx := context.Background()

	user, err := repo.Create(ctx, CreateUserDTO{Name: "A", Email: "a@example.com", PasswordHash: "h"})
	require.NoError(t, err)
	at := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateLastLogin(ctx, user.ID, at))

	reloaded, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.LastLoginAt)
	assert.True(t, reloaded.LastLoginAt.Equal(at))
}

func TestFromModel(t *testing.T) {
	assert.Nil(t, FromModel(nil))

	dto := FromModel(CreateUserDTO{Name: "Esi", Email: "esi@example.com", Region: strPtr("Ashanti"), City: strPtr("Kumasi")}.ToModel())
	require.NotNil(t, dto.Location)
	assert.Equal(t, "Ashanti", dto.Location.Region)
	assert.Equal(t, "Kumasi", dto.Location.City)

	dto = FromModel(CreateUserDTO{Name: "Esi", Email: "esi@example.com", Role: enums.UserRoleAdmin}.ToModel())
	assert.Nil(t, dto.Location)
	assert.Equal(t, enums.UserRoleAdmin, dto.Role)
}
