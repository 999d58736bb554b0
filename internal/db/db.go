package db

import (
	"errors"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"go-vnicmap/internal/models"
)

var ErrTargetNotFound = errors.New("target not found")

// Store keeps the mapping targets managed from the admin page. Inventories and
// mapping results are never stored.
type Store struct {
	db *gorm.DB
}

func Open(path string) (*Store, error) {
	conn, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if err := conn.AutoMigrate(&models.Target{}); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return &Store{db: conn}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) ListTargets() ([]models.Target, error) {
	var targets []models.Target
	if err := s.db.Order("name asc").Find(&targets).Error; err != nil {
		return nil, err
	}
	return targets, nil
}

func (s *Store) GetTarget(id uint) (models.Target, error) {
	var t models.Target
	err := s.db.First(&t, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Target{}, fmt.Errorf("%w: %d", ErrTargetNotFound, id)
	}
	return t, err
}

func (s *Store) CreateTarget(t *models.Target) error {
	return s.db.Create(t).Error
}

func (s *Store) DeleteTarget(id uint) error {
	return s.db.Delete(&models.Target{}, id).Error
}
