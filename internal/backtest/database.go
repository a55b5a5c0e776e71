package backtest

import (
	"errors"

	"gorm.io/gorm"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

func (d *Database) CreateResult(result *Result) error {
	return d.db.Create(result).Error
}

func (d *Database) GetResult(runID string) (*Result, error) {
	var result Result
	if err := d.db.Where("run_id = ?", runID).First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (d *Database) ListResults() ([]Result, error) {
	var results []Result
	if err := d.db.Order("created_at desc").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
