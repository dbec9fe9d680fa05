package clients

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/safetatt/safetatt-backend/pkg/db/models"
	"github.com/safetatt/safetatt-backend/pkg/pagination"
)

func setupClientTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS clients (
  id TEXT PRIMARY KEY,
  studio_id TEXT NOT NULL,
  name TEXT NOT NULL,
  phone TEXT NOT NULL,
  email TEXT,
  birth_date DATETIME,
  instagram TEXT,
  notes TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func seedClient(studioID uuid.UUID, name, phone string, createdAt time.Time) *models.Client {
	return &models.Client{
		ID:        uuid.New(),
		StudioID:  studioID,
		Name:      name,
		Phone:     phone,
		CreatedAt: createdAt,
	}
}

func TestRepositoryListCursorPagination(t *testing.T) {
	db := setupClientTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	studioID := uuid.New()
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		client := seedClient(studioID, fmt.Sprintf("Cliente %d", i), fmt.Sprintf("55119999900%d", i), base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, repo.Create(ctx, client))
	}

	firstPage, err := repo.List(ctx, studioID, ListParams{Pagination: pagination.Params{Limit: 2}})
	require.NoError(t, err)
	require.Len(t, firstPage.Clients, 2)
	require.NotEmpty(t, firstPage.NextCursor)

	// Newest first.
	assert.Equal(t, "Cliente 4", firstPage.Clients[0].Name)
	assert.Equal(t, "Cliente 3", firstPage.Clients[1].Name)

	secondPage, err := repo.List(ctx, studioID, ListParams{Pagination: pagination.Params{
		Limit:  2,
		Cursor: firstPage.NextCursor,
	}})
	require.NoError(t, err)
	require.Len(t, secondPage.Clients, 2)
	assert.Equal(t, "Cliente 2", secondPage.Clients[0].Name)
	assert.Equal(t, "Cliente 1", secondPage.Clients[1].Name)

	lastPage, err := repo.List(ctx, studioID, ListParams{Pagination: pagination.Params{
		Limit:  2,
		Cursor: secondPage.NextCursor,
	}})
	require.NoError(t, err)
	require.Len(t, lastPage.Clients, 1)
	assert.Empty(t, lastPage.NextCursor)
}

func TestRepositoryListSearch(t *testing.T) {
	db := setupClientTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	studioID := uuid.New()
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, seedClient(studioID, "Ana Souza", "5511911111111", base)))
	require.NoError(t, repo.Create(ctx, seedClient(studioID, "Bruno Lima", "5511922222222", base.Add(time.Minute))))

	byName, err := repo.List(ctx, studioID, ListParams{Search: "ana"})
	require.NoError(t, err)
	require.Len(t, byName.Clients, 1)
	assert.Equal(t, "Ana Souza", byName.Clients[0].Name)

	byPhone, err := repo.List(ctx, studioID, ListParams{Search: "92222"})
	require.NoError(t, err)
	require.Len(t, byPhone.Clients, 1)
	assert.Equal(t, "Bruno Lima", byPhone.Clients[0].Name)
}

func TestRepositoryFindByPhoneScopedToStudio(t *testing.T) {
	db := setupClientTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	studioID := uuid.New()
	client := seedClient(studioID, "Ana", "5511911111111", time.Now())
	require.NoError(t, repo.Create(ctx, client))

	found, err := repo.FindByPhone(ctx, studioID, "5511911111111")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, client.ID, found.ID)

	missing, err := repo.FindByPhone(ctx, uuid.New(), "5511911111111")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRepositoryListByIDs(t *testing.T) {
	db := setupClientTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	studioID := uuid.New()
	first := seedClient(studioID, "Ana", "111", time.Now())
	second := seedClient(studioID, "Bia", "222", time.Now())
	third := seedClient(studioID, "Carla", "333", time.Now())
	for _, client := range []*models.Client{first, second, third} {
		require.NoError(t, repo.Create(ctx, client))
	}

	got, err := repo.ListByIDs(ctx, studioID, []uuid.UUID{first.ID, third.ID})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	empty, err := repo.ListByIDs(ctx, studioID, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
