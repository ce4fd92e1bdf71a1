package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/mmcdole/moviedb/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// favoriteRow is the favorite_movies table
type favoriteRow struct {
	ID           int `gorm:"primaryKey;autoIncrement:false"`
	Title        string
	Overview     string
	ReleaseDate  string
	BackdropPath string
	PosterPath   string
	VoteAverage  float64
	Popularity   *float64
	AddedAt      int64 `gorm:"index"`
}

func (favoriteRow) TableName() string { return "favorite_movies" }

func rowFromRecord(rec domain.FavoriteRecord) favoriteRow {
	return favoriteRow{
		ID:           rec.ID,
		Title:        rec.Title,
		Overview:     rec.Overview,
		ReleaseDate:  rec.ReleaseDate,
		BackdropPath: rec.BackdropPath,
		PosterPath:   rec.PosterPath,
		VoteAverage:  rec.VoteAverage,
		Popularity:   rec.Popularity,
		AddedAt:      rec.AddedAt,
	}
}

func (r favoriteRow) record() domain.FavoriteRecord {
	return domain.FavoriteRecord{
		ID:           r.ID,
		Title:        r.Title,
		Overview:     r.Overview,
		ReleaseDate:  r.ReleaseDate,
		BackdropPath: r.BackdropPath,
		PosterPath:   r.PosterPath,
		VoteAverage:  r.VoteAverage,
		Popularity:   r.Popularity,
		AddedAt:      r.AddedAt,
	}
}

// SQLFavoriteStore implements domain.FavoriteStore on a SQLite file through GORM
type SQLFavoriteStore struct {
	db     *gorm.DB
	hub    *hub
	logger *slog.Logger
	now    func() time.Time
}

func NewSQLFavoriteStore(path string, log *slog.Logger) (*SQLFavoriteStore, error) {
	if log == nil {
		log = slog.Default()
	}
	if path == "" {
		return nil, fmt.Errorf("sqlite store requires a database path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(&favoriteRow{}); err != nil {
		closeGorm(db)
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Debug("sqlite favorite store opened", "path", path)
	return &SQLFavoriteStore{
		db:     db,
		hub:    newHub(log),
		logger: log,
		now:    time.Now,
	}, nil
}

func (s *SQLFavoriteStore) UpsertFavorite(rec domain.FavoriteRecord) error {
	if rec.ID <= 0 {
		return fmt.Errorf("upsert favorite: id %d: %w", rec.ID, domain.ErrInvalidArgument)
	}
	row := rowFromRecord(rec.Stamped(s.now()))

	return s.hub.commit("upsert favorite", func() error {
		return s.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).Create(&row).Error
	}, s.load)
}

func (s *SQLFavoriteStore) DeleteFavorite(rec domain.FavoriteRecord) error {
	return s.hub.commit("delete favorite", func() error {
		return s.db.Delete(&favoriteRow{}, rec.ID).Error
	}, s.load)
}

func (s *SQLFavoriteStore) ObserveFavorites(ctx context.Context) (<-chan []domain.FavoriteRecord, error) {
	return s.hub.subscribe(ctx, s.load)
}

func (s *SQLFavoriteStore) load() ([]domain.FavoriteRecord, error) {
	var rows []favoriteRow
	if err := s.db.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	recs := make([]domain.FavoriteRecord, 0, len(rows))
	for _, r := range rows {
		recs = append(recs, r.record())
	}
	return recs, nil
}

func (s *SQLFavoriteStore) Close() error {
	return s.hub.close(func() error { return closeGorm(s.db) })
}

func closeGorm(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
