package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/colordotrush/dotrush-backend/internal/ranking"
)

// scoreRow is the scores table model, one row per player.
type scoreRow struct {
	Username  string `gorm:"primaryKey;size:64"`
	Score     int    `gorm:"not null;index:idx_scores_order,priority:1,sort:desc"`
	Timestamp int64  `gorm:"not null;index:idx_scores_order,priority:2"`
}

func (scoreRow) TableName() string { return "scores" }

// Postgres keeps the database as the source of truth: placements are
// computed with count queries instead of a cached board, so multiple
// server processes can share one backend.
type Postgres struct {
	db  *gorm.DB
	log *zap.Logger
}

var (
	_ Store  = (*Postgres)(nil)
	_ Seeder = (*Postgres)(nil)
)

// NewPostgres connects to dsn and migrates the scores table.
func NewPostgres(dsn string, log *zap.Logger) (*Postgres, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.AutoMigrate(&scoreRow{}); err != nil {
		return nil, fmt.Errorf("migrate scores table: %w", err)
	}
	log.Info("postgres store ready")
	return &Postgres{db: db, log: log}, nil
}

func (p *Postgres) SubmitScore(ctx context.Context, username string, score int, submittedAt time.Time) (Placement, error) {
	row := scoreRow{Username: username, Score: score, Timestamp: submittedAt.UnixMilli()}
	err := p.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "username"}},
		DoUpdates: clause.AssignmentColumns([]string{"score", "timestamp"}),
	}).Create(&row).Error
	if err != nil {
		return Placement{}, fmt.Errorf("upsert score: %w", err)
	}

	rank, total, err := p.rankOf(ctx, score)
	if err != nil {
		return Placement{}, err
	}
	top, err := p.topRows(ctx)
	if err != nil {
		return Placement{}, err
	}

	placement := Placement{Rank: rank, TotalPlayers: total}
	for _, r := range top {
		if r.Username == username {
			placement.OnBoard = true
			break
		}
	}
	return placement, nil
}

func (p *Postgres) Leaderboard(ctx context.Context, username string) (View, error) {
	top, err := p.topRows(ctx)
	if err != nil {
		return View{}, err
	}

	entries := make([]ranking.Entry, len(top))
	for i, r := range top {
		entries[i] = ranking.Entry{Username: r.Username, Score: r.Score, Timestamp: r.Timestamp}
	}
	// Every player scoring above a displayed entry is displayed too,
	// so ranks assigned over the top rows equal the global ranks.
	ranking.AssignRanks(entries)

	var total int64
	if err := p.db.WithContext(ctx).Model(&scoreRow{}).Count(&total).Error; err != nil {
		return View{}, fmt.Errorf("count players: %w", err)
	}

	view := View{Entries: entries, TotalPlayers: int(total)}

	var row scoreRow
	err = p.db.WithContext(ctx).First(&row, "username = ?", username).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
	case err != nil:
		return View{}, fmt.Errorf("load player: %w", err)
	default:
		rank, _, err := p.rankOf(ctx, row.Score)
		if err != nil {
			return View{}, err
		}
		view.UserRank = rank
	}
	return view, nil
}

func (p *Postgres) Seed(ctx context.Context, entries []ranking.Entry) error {
	var total int64
	if err := p.db.WithContext(ctx).Model(&scoreRow{}).Count(&total).Error; err != nil {
		return fmt.Errorf("count players: %w", err)
	}
	if total > 0 {
		return nil
	}

	rows := make([]scoreRow, len(entries))
	for i, e := range entries {
		rows[i] = scoreRow{Username: e.Username, Score: e.Score, Timestamp: e.Timestamp}
	}
	if err := p.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("seed scores: %w", err)
	}
	p.log.Info("seeded demo scores", zap.Int("players", len(rows)))
	return nil
}

func (p *Postgres) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (p *Postgres) topRows(ctx context.Context) ([]scoreRow, error) {
	var rows []scoreRow
	err := p.db.WithContext(ctx).
		Order("score DESC, timestamp ASC").
		Limit(ranking.MaxEntries).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load top rows: %w", err)
	}
	return rows, nil
}

// rankOf computes the competition rank for a score plus the player
// count, both straight from the table.
func (p *Postgres) rankOf(ctx context.Context, score int) (rank, total int, err error) {
	var greater, count int64
	if err := p.db.WithContext(ctx).Model(&scoreRow{}).Where("score > ?", score).Count(&greater).Error; err != nil {
		return 0, 0, fmt.Errorf("count greater scores: %w", err)
	}
	if err := p.db.WithContext(ctx).Model(&scoreRow{}).Count(&count).Error; err != nil {
		return 0, 0, fmt.Errorf("count players: %w", err)
	}
	return int(greater) + 1, int(count), nil
}
