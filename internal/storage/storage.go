// Package storage owns the client-durable state: the credential token and
// a cached profile snapshot, kept in an embedded sqlite database. Absence
// of a credential row is the canonical logged-out state.
package storage

import (
	"errors"
	"time"

	logging "studygenie/internal/logging"
	"studygenie/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Both tables hold at most one row; this client owns exactly one session.
const singletonRowID = 1

type credentialRow struct {
	ID        int `gorm:"primaryKey"`
	Token     string
	UpdatedAt time.Time
}

func (credentialRow) TableName() string { return "credentials" }

type profileRow struct {
	ID        int         `gorm:"primaryKey"`
	User      models.User `gorm:"embedded;embeddedPrefix:user_"`
	UpdatedAt time.Time
}

func (profileRow) TableName() string { return "profiles" }

// Store is the persistent client-side store.
type Store struct {
	db  *gorm.DB
	log *zap.Logger
}

// Open opens (creating if needed) the sqlite database at path and runs
// migrations.
func Open(path string, log *zap.Logger) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logging.NewGormZapLogger(log, gormlogger.Warn),
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&credentialRow{}, &profileRow{}); err != nil {
		return nil, err
	}

	log.Info("Local store opened", zap.String("path", path))
	return &Store{db: db, log: log}, nil
}

// SaveCredential persists the token, replacing any previous one.
func (s *Store) SaveCredential(token string) error {
	row := credentialRow{ID: singletonRowID, Token: token, UpdatedAt: time.Now().UTC()}
	return s.db.Save(&row).Error
}

// Credential returns the persisted token, if any.
func (s *Store) Credential() (string, bool, error) {
	var row credentialRow
	err := s.db.First(&row, singletonRowID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return row.Token, true, nil
}

// ClearCredential removes the persisted token and cached profile. It is
// idempotent: clearing an already-empty store succeeds.
func (s *Store) ClearCredential() error {
	if err := s.db.Delete(&credentialRow{}, singletonRowID).Error; err != nil {
		return err
	}
	return s.db.Delete(&profileRow{}, singletonRowID).Error
}

// SaveProfile caches a server-confirmed profile snapshot.
func (s *Store) SaveProfile(user models.User) error {
	row := profileRow{ID: singletonRowID, User: user, UpdatedAt: time.Now().UTC()}
	return s.db.Save(&row).Error
}

// Profile returns the cached profile snapshot, if any.
func (s *Store) Profile() (models.User, bool, error) {
	var row profileRow
	err := s.db.First(&row, singletonRowID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, false, nil
	}
	if err != nil {
		return models.User{}, false, err
	}
	return row.User, true, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
