package service

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/fieldsense/fieldsense-backend/internal/domain"
	"github.com/fieldsense/fieldsense-backend/internal/repository"
	pkglogger "github.com/fieldsense/fieldsense-backend/pkg/logger"
	"gorm.io/datatypes"
)

const (
	defaultActivityLimit = 50
	maxActivityLimit     = 500
	mirrorTimeout        = 3 * time.Second
)

// ActivityIndexer mirrors documents into a search index
type ActivityIndexer interface {
	IndexDocument(ctx context.Context, index, docID string, body interface{}) error
}

// ActivityService writes the append-only activity log and mirrors it for operators
type ActivityService struct {
	repo    *repository.ActivityLogRepository
	indexer ActivityIndexer
	index   string
}

// NewActivityService creates a new ActivityService. indexer may be nil.
func NewActivityService(repo *repository.ActivityLogRepository, indexer ActivityIndexer, index string) *ActivityService {
	return &ActivityService{repo: repo, indexer: indexer, index: index}
}

// NewEntry builds an entry without persisting it
func NewEntry(action domain.ActivityAction, details string, metadata map[string]interface{}) *domain.ActivityLog {
	entry := &domain.ActivityLog{Action: action, Details: details}
	if len(metadata) > 0 {
		if data, err := json.Marshal(metadata); err == nil {
			entry.Metadata = datatypes.JSON(data)
		}
	}
	return entry
}

// Record persists an entry and mirrors it
func (s *ActivityService) Record(ctx context.Context, action domain.ActivityAction, details string, metadata map[string]interface{}) (*domain.ActivityLog, error) {
	entry := NewEntry(action, details, metadata)
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, err
	}
	s.Mirror(ctx, entry)
	return entry, nil
}

// Mirror copies a persisted entry to the search index; failures are only logged
func (s *ActivityService) Mirror(ctx context.Context, entry *domain.ActivityLog) {
	if s.indexer == nil || entry == nil || entry.ID == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), mirrorTimeout)
	defer cancel()

	if err := s.indexer.IndexDocument(ctx, s.index, strconv.FormatUint(uint64(entry.ID), 10), entry); err != nil {
		pkglogger.GetLogger().Warn().Err(err).
			Uint("activity_id", entry.ID).
			Str("index", s.index).
			Msg("activity mirror failed")
	}
}

// List returns the newest entries, optionally filtered by action
func (s *ActivityService) List(ctx context.Context, action string, limit int) ([]domain.ActivityLog, error) {
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	if limit > maxActivityLimit {
		limit = maxActivityLimit
	}
	logs, err := s.repo.List(ctx, domain.ActivityAction(action), limit)
	if err != nil {
		return nil, err
	}
	if logs == nil {
		logs = []domain.ActivityLog{}
	}
	return logs, nil
}
