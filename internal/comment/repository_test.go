package comment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, Migrate(db))
	return db
}

func TestListByDealOrdersOldestFirst(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository()

	require.NoError(t, repo.Create(db, &Comment{Text: "first", DealID: 1, AuthorID: 3}))
	require.NoError(t, repo.Create(db, &Comment{Text: "second", DealID: 1, AuthorID: 4}))
	require.NoError(t, repo.Create(db, &Comment{Text: "other deal", DealID: 2, AuthorID: 3}))

	list, err := repo.ListByDeal(db, 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "first", list[0].Text)
	assert.Equal(t, "second", list[1].Text)
}

func TestAddSystemComment(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository()

	require.NoError(t, repo.AddSystemComment(db, 1, "Stage changed from quote_sent to quote_approved"))

	list, err := repo.ListByDeal(db, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].System)
	assert.Zero(t, list[0].AuthorID)
}
