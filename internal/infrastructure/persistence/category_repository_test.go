package persistence

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/storefront/syncengine/internal/domain/catalog"
	"github.com/storefront/syncengine/internal/domain/shared"
)

func TestCategoryRepositoryRoundTrip(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormCategoryRepository(db)
	ctx := context.Background()

	category, err := catalog.NewCategory(catalog.SourceTradeMaster, "101", "Tools", "tools")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, category))

	found, err := repo.FindByExternalID(ctx, catalog.SourceTradeMaster, "101")
	require.NoError(t, err)
	assert.Equal(t, category.ID, found.ID)
	assert.Equal(t, "Tools", found.Title)

	_, err = repo.FindByExternalID(ctx, catalog.SourceTradeMaster, "999")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = repo.FindByExternalID(ctx, "other-source", "101")
	assert.ErrorIs(t, err, shared.ErrNotFound, "external ids are scoped per source")
}

func TestCategoryRepositoryLookups(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormCategoryRepository(db)
	ctx := context.Background()

	root, err := catalog.NewCategory(catalog.SourceTradeMaster, "1", "Root", "root")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, root))

	child, err := catalog.NewCategory(catalog.SourceTradeMaster, "2", "Child", "root/child")
	require.NoError(t, err)
	child.SetParent(&root.ID)
	require.NoError(t, repo.Create(ctx, child))

	byTitle, err := repo.FindByTitle(ctx, catalog.SourceTradeMaster, "Child")
	require.NoError(t, err)
	assert.Equal(t, child.ID, byTitle.ID)

	byAddress, err := repo.FindByAddress(ctx, "root/child")
	require.NoError(t, err)
	assert.Equal(t, child.ID, byAddress.ID)

	children, err := repo.FindChildren(ctx, root.ID)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, child.ID, children[0].ID)
}

func TestCategoryRepositoryStatusFilter(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormCategoryRepository(db)
	ctx := context.Background()

	active, err := catalog.NewCategory(catalog.SourceTradeMaster, "1", "Active", "active")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, active))

	removed, err := catalog.NewCategory(catalog.SourceTradeMaster, "2", "Removed", "removed")
	require.NoError(t, err)
	removed.MarkDeleted()
	require.NoError(t, repo.Create(ctx, removed))

	work, err := repo.FindBySourceAndStatus(ctx, catalog.SourceTradeMaster, catalog.StatusWork)
	require.NoError(t, err)
	require.Len(t, work, 1)
	assert.Equal(t, "1", work[0].ExternalID)

	deleted, err := repo.FindBySourceAndStatus(ctx, catalog.SourceTradeMaster, catalog.StatusDelete)
	require.NoError(t, err)
	require.Len(t, deleted, 1)
	assert.Equal(t, "2", deleted[0].ExternalID)
}

func TestCategoryRepositoryQueryShape(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "categories" WHERE source = $1 AND external_id = $2`)).
		WithArgs(catalog.SourceTradeMaster, "101", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	repo := NewGormCategoryRepository(db)
	_, err = repo.FindByExternalID(context.Background(), catalog.SourceTradeMaster, "101")
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
