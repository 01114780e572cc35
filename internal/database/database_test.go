package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/oppuss/internal/config"
	"github.com/yukikurage/oppuss/internal/models"
)

func TestDialector(t *testing.T) {
	for _, driver := range []string{DriverSQLite, DriverPostgres, DriverMySQL} {
		d, err := Dialector(&config.Config{DBDriver: driver, DBPath: ":memory:"})
		require.NoError(t, err, driver)
		assert.Equal(t, driver, d.Name())
	}

	_, err := Dialector(&config.Config{DBDriver: "oracle"})
	assert.Error(t, err)
}

func TestOpenMemory_MigratesAndIndexes(t *testing.T) {
	db, err := OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	assert.True(t, db.Migrator().HasTable(&models.House{}))
	assert.True(t, db.Migrator().HasTable(&models.Room{}))
	assert.True(t, db.Migrator().HasIndex(&models.House{}, "idx_houses_user_created"))

	// Second run is a no-op.
	require.NoError(t, Migrate(db, nil))
}

func TestScopes(t *testing.T) {
	db, err := OpenMemory()
	require.NoError(t, err)

	require.NoError(t, db.Create(&models.ShoppingItem{UserID: "u1", Title: "a"}).Error)
	require.NoError(t, db.Create(&models.ShoppingItem{UserID: "u2", Title: "b"}).Error)

	var items []models.ShoppingItem
	require.NoError(t, db.Scopes(OwnedBy("u1"), NewestFirst).Find(&items).Error)
	require.Len(t, items, 1)
	assert.Equal(t, "a", items[0].Title)
	assert.Equal(t, 1, items[0].Quantity)
}
