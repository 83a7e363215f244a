// Package activity keeps the short dashboard activity log.
package activity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/ieltsportal/internal/platform/id"
	"github.com/louisbranch/ieltsportal/internal/services/portal/storage"
)

// Keep is the number of entries the log retains.
const Keep = 5

// Entry is one activity line.
type Entry struct {
	ID        string
	Actor     string
	Message   string
	CreatedAt time.Time
}

// Log records and lists activity entries.
type Log struct {
	store storage.ActivityStore
	now   func() time.Time
}

// NewLog builds an activity log over store. A nil clock uses time.Now.
func NewLog(store storage.ActivityStore, now func() time.Time) *Log {
	if now == nil {
		now = time.Now
	}
	return &Log{store: store, now: now}
}

// Record prepends an entry attributed to actor.
func (l *Log) Record(ctx context.Context, actor, message string) error {
	message = strings.TrimSpace(message)
	if message == "" {
		return fmt.Errorf("activity message is required")
	}
	entryID, err := id.NewID()
	if err != nil {
		return fmt.Errorf("generate activity id: %w", err)
	}
	entry := storage.ActivityEntry{
		ID:        entryID,
		Actor:     strings.TrimSpace(actor),
		Message:   message,
		CreatedAt: l.now().UTC(),
	}
	if err := l.store.AppendActivity(ctx, entry, Keep); err != nil {
		return fmt.Errorf("append activity: %w", err)
	}
	return nil
}

// Recent returns the retained entries, newest first.
func (l *Log) Recent(ctx context.Context) ([]Entry, error) {
	records, err := l.store.ListActivity(ctx, Keep)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	entries := make([]Entry, 0, len(records))
	for _, record := range records {
		entries = append(entries, Entry{ID: record.ID, Actor: record.Actor, Message: record.Message, CreatedAt: record.CreatedAt})
	}
	return entries, nil
}
