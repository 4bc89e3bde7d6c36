package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// settingsRow is the only row of the settings table.
type settingsRow struct {
	ID        uint   `gorm:"primaryKey"`
	Document  string `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

func (settingsRow) TableName() string { return "settings" }

const settingsRowID = 1

// GormStore keeps the settings object in a SQLite database.
type GormStore struct {
	db *gorm.DB
}

// OpenGormStore opens (creating if needed) the SQLite file at path and
// migrates the settings table.
func OpenGormStore(path string, log zerolog.Logger) (*GormStore, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000", path)

	gormLogger := logger.New(gormLogWriter{log}, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite allows one writer; a single connection avoids "database is locked".
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := db.AutoMigrate(&settingsRow{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) Raw(ctx context.Context) (json.RawMessage, error) {
	var row settingsRow
	err := s.db.WithContext(ctx).First(&row, settingsRowID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return defaultRaw(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	return json.RawMessage(row.Document), nil
}

func (s *GormStore) Save(ctx context.Context, raw json.RawMessage) error {
	if err := checkObject(raw); err != nil {
		return err
	}
	row := settingsRow{ID: settingsRowID, Document: string(raw), UpdatedAt: time.Now().UTC()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"document", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// gormLogWriter routes gorm's logger into zerolog.
type gormLogWriter struct{ log zerolog.Logger }

func (w gormLogWriter) Printf(format string, args ...any) {
	w.log.Warn().Str("component", "gorm").Msgf(format, args...)
}
