// Package audit records the append-only trail of administrative actions.
package audit

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/opsdeck/opsdeck/internal/models"
)

// Recorder writes and queries audit log entries.
type Recorder struct {
	db  *gorm.DB
	now func() time.Time
}

// NewRecorder creates a Recorder backed by the given database.
func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{db: db, now: time.Now}
}

// WithClock returns a copy of the Recorder using the given clock.
// Used by tests to pin entry timestamps.
func (r *Recorder) WithClock(now func() time.Time) *Recorder {
	return &Recorder{db: r.db, now: now}
}

// Record appends one audit entry. It is fire-and-forget: storage failures
// are reported to the operational log and never returned, so audit logging
// can never block an administrative action from completing. Invalid action
// or target kinds are likewise logged and dropped.
func (r *Recorder) Record(actorID uint, action models.AuditAction, target models.AuditTarget, targetID *uint, details models.JSONMap) {
	if !action.Valid() || !target.Valid() {
		slog.Error("Dropping audit entry with invalid kind",
			"action", string(action), "target_type", string(target))
		return
	}

	if details == nil {
		details = models.JSONMap{}
	}

	entry := models.AuditLog{
		ActorID:    actorID,
		Action:     action,
		TargetType: target,
		TargetID:   targetID,
		Details:    details,
		Timestamp:  r.now().UTC(),
	}

	if err := r.db.Create(&entry).Error; err != nil {
		slog.Error("Failed to write audit entry",
			"error", err, "action", string(action), "actor_id", actorID)
		return
	}

	slog.Debug("Audit entry recorded",
		"action", string(action), "target_type", string(target), "actor_id", actorID)
}

// Filters narrows an audit trail query. Zero values mean "no filter".
type Filters struct {
	Action  models.AuditAction
	ActorID uint
	Start   time.Time
	End     time.Time
	Page    int
	Limit   int
}

// DefaultLimit is the page size used when the caller doesn't supply one.
const DefaultLimit = 20

// Entry is an audit log row joined with its actor's summary. Actor is nil
// for system-attributed entries and for actors that no longer exist.
type Entry struct {
	models.AuditLog
	Actor *models.UserSummary `json:"actor"`
}

// Query returns entries newest first with pagination metadata.
func (r *Recorder) Query(f Filters) ([]Entry, models.Pagination, error) {
	page := f.Page
	if page <= 0 {
		page = 1
	}
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	q := r.db.Model(&models.AuditLog{})
	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	if f.ActorID != 0 {
		q = q.Where("actor_id = ?", f.ActorID)
	}
	if !f.Start.IsZero() {
		q = q.Where("timestamp >= ?", f.Start)
	}
	if !f.End.IsZero() {
		q = q.Where("timestamp <= ?", f.End)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, models.Pagination{}, fmt.Errorf("failed to count audit entries: %w", err)
	}

	var logs []models.AuditLog
	err := q.Order("timestamp DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("failed to query audit entries: %w", err)
	}

	entries, err := r.attachActors(logs)
	if err != nil {
		return nil, models.Pagination{}, err
	}

	return entries, models.NewPagination(page, limit, total), nil
}

// attachActors resolves actor summaries for a page of entries in one query.
func (r *Recorder) attachActors(logs []models.AuditLog) ([]Entry, error) {
	ids := make([]uint, 0, len(logs))
	seen := make(map[uint]bool)
	for _, l := range logs {
		if l.ActorID != models.SystemActorID && !seen[l.ActorID] {
			seen[l.ActorID] = true
			ids = append(ids, l.ActorID)
		}
	}

	actors := make(map[uint]models.UserSummary)
	if len(ids) > 0 {
		var users []models.User
		if err := r.db.Where("id IN ?", ids).Find(&users).Error; err != nil {
			return nil, fmt.Errorf("failed to load audit actors: %w", err)
		}
		for _, u := range users {
			actors[u.ID] = u.Summary()
		}
	}

	entries := make([]Entry, len(logs))
	for i, l := range logs {
		entries[i] = Entry{AuditLog: l}
		if a, ok := actors[l.ActorID]; ok {
			summary := a
			entries[i].Actor = &summary
		}
	}
	return entries, nil
}
