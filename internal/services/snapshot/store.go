package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/BearBump/ShipDesk/internal/broker/messages"
	"github.com/BearBump/ShipDesk/internal/models"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"
)

const (
	maxNotifications      = 50
	defaultRefreshTimeout = 2 * time.Minute
)

type Source interface {
	FetchAll(ctx context.Context) ([]models.OutboundShipment, []models.InboundReturn)
	Mode() string
}

type Snapshot struct {
	SyncID    string                    `json:"syncId"`
	SyncedAt  time.Time                 `json:"syncedAt"`
	Mode      string                    `json:"mode"`
	Outbounds []models.OutboundShipment `json:"-"`
	Inbounds  []models.InboundReturn    `json:"-"`

	// NewCount is how many outbound ids were not present in the previous
	// snapshot. The first load counts every record.
	NewCount int `json:"newCount"`
}

func (s Snapshot) Loaded() bool { return !s.SyncedAt.IsZero() }

func (s Snapshot) Message() messages.RecordsSynced {
	return messages.RecordsSynced{
		SyncID:    s.SyncID,
		SyncedAt:  s.SyncedAt,
		Mode:      s.Mode,
		Outbounds: s.Outbounds,
		Inbounds:  s.Inbounds,
	}
}

func FromMessage(m messages.RecordsSynced) Snapshot {
	return Snapshot{
		SyncID:    m.SyncID,
		SyncedAt:  m.SyncedAt,
		Mode:      m.Mode,
		Outbounds: m.Outbounds,
		Inbounds:  m.Inbounds,
	}
}

// Store keeps the latest full record sets. Every refresh replaces them wholesale.
// Overlapping Refresh calls share one upstream fetch.
type Store struct {
	src     Source
	timeout time.Duration
	now     func() time.Time

	sf singleflight.Group

	mu      sync.RWMutex
	cur     Snapshot
	prevIDs map[string]struct{}
	notes   []models.Notification
}

func New(src Source, refreshTimeout time.Duration) *Store {
	if refreshTimeout <= 0 {
		refreshTimeout = defaultRefreshTimeout
	}
	return &Store{
		src:     src,
		timeout: refreshTimeout,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Refresh fetches both record sets and installs them. The fetch is detached from
// ctx cancellation so that joined callers are not failed by the first caller
// leaving.
func (s *Store) Refresh(ctx context.Context) (Snapshot, error) {
	if s.src == nil {
		return Snapshot{}, errors.New("no record source configured")
	}
	v, err, shared := s.sf.Do("refresh", func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()

		out, in := s.src.FetchAll(fctx)
		if err := fctx.Err(); err != nil {
			s.Notify("Sync Failed", "Could not retrieve latest data.", models.NotificationAlert)
			return Snapshot{}, errors.Wrap(err, "refresh")
		}
		return s.Apply(Snapshot{
			SyncID:    uuid.NewString(),
			SyncedAt:  s.now(),
			Mode:      s.src.Mode(),
			Outbounds: out,
			Inbounds:  in,
		}), nil
	})
	if err != nil {
		return Snapshot{}, err
	}
	if shared {
		slog.Debug("refresh joined an in-flight fetch")
	}
	return v.(Snapshot), nil
}

// Apply installs snap as current, computes its NewCount against the previous
// outbound ids and posts a sync notification. Snapshots older than the current
// one are ignored.
func (s *Store) Apply(snap Snapshot) Snapshot {
	if snap.Outbounds == nil {
		snap.Outbounds = []models.OutboundShipment{}
	}
	if snap.Inbounds == nil {
		snap.Inbounds = []models.InboundReturn{}
	}

	s.mu.Lock()
	if s.cur.Loaded() && snap.SyncedAt.Before(s.cur.SyncedAt) {
		cur := s.cur
		s.mu.Unlock()
		slog.Info("stale snapshot ignored", "sync_id", snap.SyncID, "synced_at", snap.SyncedAt)
		return cur
	}

	first := len(s.prevIDs) == 0
	ids := make(map[string]struct{}, len(snap.Outbounds))
	newCount := 0
	for _, o := range snap.Outbounds {
		ids[o.ID] = struct{}{}
		if _, seen := s.prevIDs[o.ID]; first || !seen {
			newCount++
		}
	}
	snap.NewCount = newCount
	s.prevIDs = ids
	s.cur = snap
	s.mu.Unlock()

	if newCount > 0 {
		s.Notify("Records Synced", fmt.Sprintf("%d records retrieved or updated successfully.", newCount), models.NotificationSuccess)
	}
	return snap
}

func (s *Store) Current() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

func (s *Store) Notify(title, message, typ string) {
	n := models.Notification{
		ID:      uuid.NewString(),
		Title:   title,
		Message: message,
		Time:    s.now(),
		Type:    typ,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes = append([]models.Notification{n}, s.notes...)
	if len(s.notes) > maxNotifications {
		s.notes = s.notes[:maxNotifications]
	}
}

// Notifications returns a copy, newest first.
func (s *Store) Notifications() []models.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Notification, len(s.notes))
	copy(out, s.notes)
	return out
}

func (s *Store) MarkAllRead() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notes {
		s.notes[i].Read = true
	}
}

func (s *Store) ClearNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes = nil
}
