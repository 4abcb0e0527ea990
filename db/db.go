package db

import (
	"dive_center_rental/models"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const overlapConstraint = models.AssignmentTable + "_no_overlap"

// Open connects through any gorm dialector. Production uses postgres,
// tests use sqlite.
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	return gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
}

func ConnectPostgres(dsn string) (*gorm.DB, error) {
	conn, err := Open(postgres.Open(dsn))
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return conn, nil
}

func Migrate(db *gorm.DB, log *zap.Logger) error {
	if err := db.AutoMigrate(
		&models.Customer{},
		&models.Booking{},
		&models.EquipmentType{},
		&models.EquipmentItem{},
		&models.Basket{},
		&models.Assignment{},
	); err != nil {
		return err
	}

	// 按物品查询当前占用
	if err := db.Exec(fmt.Sprintf(`
	  CREATE INDEX IF NOT EXISTS %s_open_item_window
	  ON %s (item_id, checkout_date, return_date)
	  WHERE status IN ('pending', 'checked_out');
	`, models.AssignmentTable, models.AssignmentTable)).Error; err != nil {
		return err
	}

	if db.Dialector.Name() == "postgres" {
		if err := addOverlapConstraint(db); err != nil {
			// needs btree_gist; the row locks in the repository still hold
			log.Warn("overlap exclusion constraint not installed", zap.Error(err))
		}
	}
	return nil
}

func addOverlapConstraint(db *gorm.DB) error {
	var n int64
	if err := db.Raw(`SELECT COUNT(*) FROM pg_constraint WHERE conname = ?`, overlapConstraint).
		Scan(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS btree_gist`).Error; err != nil {
		return err
	}
	return db.Exec(fmt.Sprintf(`
	  ALTER TABLE %s ADD CONSTRAINT %s
	  EXCLUDE USING gist (
	    item_id WITH =,
	    daterange(checkout_date, return_date, '[]') WITH &&
	  ) WHERE (item_id IS NOT NULL AND status IN ('pending', 'checked_out'));
	`, models.AssignmentTable, overlapConstraint)).Error
}

// isOverlapViolation matches the postgres exclusion_violation raised by
// the constraint above.
func isOverlapViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23P01"
}
