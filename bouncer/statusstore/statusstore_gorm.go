package statusstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	slogGorm "github.com/orandin/slog-gorm"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type GormStatusStore struct {
	db *gorm.DB
}

type userStatusRecord struct {
	Username   string `gorm:"primaryKey"`
	Status     string `gorm:"index"`
	Reason     string
	Evaluator  string
	ReportedAt time.Time
	UpdatedAt  time.Time
}

// NewGormStatusStore opens (and migrates) a sqlite-backed status store.
// The path form matches the daemon's database-url flag, eg "data/bouncer.sqlite".
func NewGormStatusStore(path string, logger *slog.Logger) (*GormStatusStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: slogGorm.New(slogGorm.WithHandler(logger.Handler())),
	})
	if err != nil {
		return nil, fmt.Errorf("opening status database: %w", err)
	}
	if err := db.AutoMigrate(&userStatusRecord{}); err != nil {
		return nil, fmt.Errorf("migrating status database: %w", err)
	}
	return &GormStatusStore{db: db}, nil
}

var _ StatusStore = (*GormStatusStore)(nil)

func (s *GormStatusStore) Get(ctx context.Context, username string) (*Record, error) {
	var row userStatusRecord
	err := s.db.WithContext(ctx).First(&row, "username = ?", username).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &Record{
		Username:   row.Username,
		Status:     UserStatus(row.Status),
		Reason:     row.Reason,
		Evaluator:  row.Evaluator,
		ReportedAt: row.ReportedAt,
		UpdatedAt:  row.UpdatedAt,
	}, nil
}

func (s *GormStatusStore) Set(ctx context.Context, username string, status UserStatus, reason, evaluator string) error {
	now := time.Now().UTC()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row userStatusRecord
		err := tx.First(&row, "username = ?", username).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(&userStatusRecord{
				Username:   username,
				Status:     string(status),
				Reason:     reason,
				Evaluator:  evaluator,
				ReportedAt: now,
				UpdatedAt:  now,
			}).Error
		}
		if err != nil {
			return err
		}
		if !CanTransition(UserStatus(row.Status), status) {
			return transitionErr(username, UserStatus(row.Status), status)
		}
		updates := map[string]any{
			"status":     string(status),
			"reason":     reason,
			"updated_at": now,
		}
		if evaluator != "" {
			updates["evaluator"] = evaluator
		}
		return tx.Model(&userStatusRecord{}).Where("username = ?", username).Updates(updates).Error
	})
}

func (s *GormStatusStore) Override(ctx context.Context, username string, status UserStatus, reason string) error {
	now := time.Now().UTC()
	res := s.db.WithContext(ctx).Model(&userStatusRecord{}).Where("username = ?", username).Updates(map[string]any{
		"status":     string(status),
		"reason":     reason,
		"updated_at": now,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return s.db.WithContext(ctx).Create(&userStatusRecord{
			Username:   username,
			Status:     string(status),
			Reason:     reason,
			ReportedAt: now,
			UpdatedAt:  now,
		}).Error
	}
	return nil
}

func (s *GormStatusStore) ListByStatus(ctx context.Context, status UserStatus) ([]string, error) {
	var names []string
	err := s.db.WithContext(ctx).Model(&userStatusRecord{}).Where("status = ?", string(status)).Pluck("username", &names).Error
	return names, err
}
