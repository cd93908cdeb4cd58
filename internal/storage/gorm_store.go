package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"complaintdesk/backend/internal/models"

	"github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// complaintRow is the PostgreSQL layout of a complaint. The full record lives in
// Payload; the other columns are copies kept for ad-hoc SQL filtering.
type complaintRow struct {
	ID       string         `gorm:"primaryKey;type:text"`
	Position int            `gorm:"not null;index"`
	Status   string         `gorm:"type:text;index"`
	Category string         `gorm:"type:text;index"`
	Keywords pq.StringArray `gorm:"type:text[]"`
	Payload  string         `gorm:"type:jsonb;not null"`
}

func (complaintRow) TableName() string { return "complaints" }

// GormStore keeps complaints in PostgreSQL.
type GormStore struct {
	DB *gorm.DB
}

// NewGormStore connects to dsn and migrates the complaints table.
func NewGormStore(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("storage: connect postgres: %w", err)
	}
	return NewGormStoreWithDB(db)
}

// NewGormStoreWithDB wraps an open connection and migrates the complaints table.
func NewGormStoreWithDB(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&complaintRow{}); err != nil {
		return nil, fmt.Errorf("storage: migrate complaints: %w", err)
	}
	return &GormStore{DB: db}, nil
}

func (s *GormStore) LoadAll(ctx context.Context) ([]models.Complaint, error) {
	var rows []complaintRow
	if err := s.DB.WithContext(ctx).Order("position asc").Find(&rows).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []models.Complaint{}, nil
		}
		return nil, fmt.Errorf("storage: load complaints: %w", err)
	}

	complaints := make([]models.Complaint, 0, len(rows))
	for _, row := range rows {
		c, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		complaints = append(complaints, c)
	}
	return complaints, nil
}

// SaveAll replaces every row inside one transaction.
func (s *GormStore) SaveAll(ctx context.Context, complaints []models.Complaint) error {
	rows := make([]complaintRow, 0, len(complaints))
	for i, c := range complaints {
		row, err := toRow(i, c)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&complaintRow{}).Error; err != nil {
			return fmt.Errorf("storage: clear complaints: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(rows, 100).Error; err != nil {
			return fmt.Errorf("storage: insert complaints: %w", err)
		}
		return nil
	})
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *GormStore) Close(context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toRow(position int, c models.Complaint) (complaintRow, error) {
	payload, err := json.Marshal(c)
	if err != nil {
		return complaintRow{}, fmt.Errorf("storage: encode complaint %s: %w", c.ID, err)
	}
	return complaintRow{
		ID:       c.ID,
		Position: position,
		Status:   c.Status,
		Category: c.Category,
		Keywords: pq.StringArray(c.Keywords()),
		Payload:  string(payload),
	}, nil
}

func fromRow(row complaintRow) (models.Complaint, error) {
	var c models.Complaint
	if err := json.Unmarshal([]byte(row.Payload), &c); err != nil {
		return models.Complaint{}, fmt.Errorf("%w: row %s: %v", ErrCorruptStore, row.ID, err)
	}
	return c, nil
}
