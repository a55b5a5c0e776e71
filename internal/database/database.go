package database

import (
	"github.com/ksred/tradesim-api/internal/backtest"
	"github.com/ksred/tradesim-api/internal/execution"
	"github.com/ksred/tradesim-api/internal/types"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewDatabase initializes and returns a new GORM DB connection
func NewDatabase(path string) (*gorm.DB, error) {
	if path == "" {
		path = "tradesim.db"
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	err = db.AutoMigrate(
		&types.Order{},
		&types.Trade{},
		&execution.IdempotencyRecord{},
		&backtest.Result{},
	)
	if err != nil {
		return nil, err
	}

	return db, nil
}
