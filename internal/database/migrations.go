package database

import (
	"fmt"

	"github.com/yukikurage/oppuss/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AddIndexes adds the composite indexes used by the user-scoped list queries.
func AddIndexes(db *gorm.DB, log *zap.Logger) error {
	indexes := []struct {
		model   interface{}
		name    string
		columns string
	}{
		{&models.House{}, "idx_houses_user_created", "user_id, created_at"},
		{&models.Room{}, "idx_rooms_house_created", "house_id, created_at"},
		{&models.ShoppingItem{}, "idx_shopping_user_completed", "user_id, completed"},
	}

	for _, idx := range indexes {
		if db.Migrator().HasIndex(idx.model, idx.name) {
			continue
		}

		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(idx.model); err != nil {
			return fmt.Errorf("failed to parse model for index %s: %w", idx.name, err)
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, stmt.Schema.Table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		if log != nil {
			log.Debug("Created index", zap.String("index", idx.name), zap.String("table", stmt.Schema.Table))
		}
	}

	return nil
}
