package worker

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"findanymail/models"
)

// HistoryWorker prunes search history entries older than the configured
// retention window.
type HistoryWorker struct {
	DB            *gorm.DB
	RetentionDays int
	Logger        *logrus.Entry
}

func NewHistoryWorker(db *gorm.DB, retentionDays int) *HistoryWorker {
	return &HistoryWorker{
		DB:            db,
		RetentionDays: retentionDays,
		Logger:        logrus.WithField("worker", "history"),
	}
}

func (hw *HistoryWorker) Start(ctx context.Context) {
	// Initial delay to let the server start up
	time.Sleep(10 * time.Second)

	hw.Logger.Info("History retention worker started")

	hw.pruneExpired()

	ticker := time.NewTicker(6 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			hw.Logger.Info("History retention worker shutting down...")
			return
		case <-ticker.C:
			hw.pruneExpired()
		}
	}
}

func (hw *HistoryWorker) pruneExpired() {
	if hw.RetentionDays < 1 {
		return
	}

	cutoff := time.Now().AddDate(0, 0, -hw.RetentionDays)
	result := hw.DB.Where("created_at < ?", cutoff).Delete(&models.SearchHistory{})
	if result.Error != nil {
		hw.Logger.WithError(result.Error).Error("Failed to prune search history")
		return
	}

	if result.RowsAffected > 0 {
		hw.Logger.WithField("pruned", result.RowsAffected).Info("Pruned expired search history")
	}
}
