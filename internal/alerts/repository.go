package alerts

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/nixlim/hcpss-monitor/internal/state"
)

// DedupPolicy selects which field decides that a candidate is already known.
type DedupPolicy string

const (
	// DedupByTitle rejects a candidate whose title matches any stored alert.
	DedupByTitle DedupPolicy = "title"
	// DedupByID rejects a candidate whose id matches any stored alert.
	DedupByID DedupPolicy = "id"
)

// Admission is the outcome of offering a candidate to the repository.
type Admission struct {
	Accepted bool
	// Alert is the admitted alert; zero when Accepted is false.
	Alert Alert
	// Alerts is the collection after admission, newest first.
	Alerts []Alert
	// Err reports a failed write. The admission still stands for the
	// current process; only durability was lost.
	Err error
}

// Repository owns every user's alert collection and is the only writer of
// its persisted form. Operations on the collection are serialized.
type Repository struct {
	mu     sync.Mutex
	store  state.Store
	logger *zap.Logger
	dedup  DedupPolicy
}

type RepositoryOption func(*Repository)

// WithDedupPolicy overrides the default title-based dedup.
func WithDedupPolicy(p DedupPolicy) RepositoryOption {
	return func(r *Repository) { r.dedup = p }
}

// NewRepository creates a Repository over store.
func NewRepository(store state.Store, logger *zap.Logger, opts ...RepositoryOption) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Repository{
		store:  store,
		logger: logger,
		dedup:  DedupByTitle,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load returns the user's alerts, newest first. Missing or malformed data
// yields an empty collection; malformed data is logged and left untouched.
func (r *Repository) Load(userID string) []Alert {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadLocked(userID)
}

func (r *Repository) loadLocked(userID string) []Alert {
	raw, ok := r.store.Get(state.AlertsKey(userID))
	if !ok || raw == "" {
		return []Alert{}
	}

	alerts, dropped, err := decodeAlerts([]byte(raw))
	if err != nil {
		r.logger.Warn("malformed alert collection, treating as empty",
			zap.String("user_id", userID), zap.Error(err))
		return []Alert{}
	}
	if dropped > 0 {
		r.logger.Warn("dropped incomplete alert records",
			zap.String("user_id", userID), zap.Int("dropped", dropped))
	}
	return alerts
}

// Save replaces the user's persisted collection with alerts.
func (r *Repository) Save(userID string, alerts []Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saveLocked(userID, alerts)
}

func (r *Repository) saveLocked(userID string, alerts []Alert) error {
	data, err := encodeAlerts(alerts)
	if err != nil {
		return err
	}
	if err := r.store.Set(state.AlertsKey(userID), string(data)); err != nil {
		r.logger.Warn("alert collection not persisted",
			zap.String("user_id", userID), zap.Int("alerts", len(alerts)), zap.Error(err))
		return fmt.Errorf("saving alerts: %w", err)
	}
	return nil
}

// Admit offers candidate to the collection. existing is the collection the
// caller last observed; nil means the persisted collection. A candidate that
// collides under the dedup policy is rejected and nothing is written.
// Otherwise it is prepended and the result persisted.
func (r *Repository) Admit(userID string, candidate Alert, existing []Alert) Admission {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing == nil {
		existing = r.loadLocked(userID)
	}

	if r.isDuplicate(candidate, existing) {
		r.logger.Debug("duplicate alert rejected",
			zap.String("user_id", userID), zap.String("title", candidate.Title))
		return Admission{Accepted: false, Alerts: existing}
	}

	updated := make([]Alert, 0, len(existing)+1)
	updated = append(updated, candidate)
	updated = append(updated, existing...)

	err := r.saveLocked(userID, updated)
	return Admission{
		Accepted: true,
		Alert:    candidate,
		Alerts:   updated,
		Err:      err,
	}
}

func (r *Repository) isDuplicate(candidate Alert, existing []Alert) bool {
	for _, a := range existing {
		switch r.dedup {
		case DedupByID:
			if a.ID == candidate.ID {
				return true
			}
		default:
			if a.Title == candidate.Title {
				return true
			}
		}
	}
	return false
}

// MarkRead sets Read on the alert with the given id and persists the result.
// existing follows the Admit convention. Unknown ids and already-read alerts
// leave storage untouched.
func (r *Repository) MarkRead(userID string, alertID int64, existing []Alert) []Alert {
	r.mu.Lock()
	defer r.mu.Unlock()

	alerts := existing
	if alerts == nil {
		alerts = r.loadLocked(userID)
	}
	idx := indexOf(alerts, alertID)
	if idx < 0 || alerts[idx].Read {
		return alerts
	}

	updated := make([]Alert, len(alerts))
	copy(updated, alerts)
	updated[idx].Read = true

	_ = r.saveLocked(userID, updated)
	return updated
}

// Remove deletes the alert with the given id and persists the result.
// existing follows the Admit convention. Removing an unknown id is a no-op.
func (r *Repository) Remove(userID string, alertID int64, existing []Alert) []Alert {
	r.mu.Lock()
	defer r.mu.Unlock()

	alerts := existing
	if alerts == nil {
		alerts = r.loadLocked(userID)
	}
	idx := indexOf(alerts, alertID)
	if idx < 0 {
		return alerts
	}

	updated := make([]Alert, 0, len(alerts)-1)
	updated = append(updated, alerts[:idx]...)
	updated = append(updated, alerts[idx+1:]...)

	_ = r.saveLocked(userID, updated)
	return updated
}

func indexOf(alerts []Alert, id int64) int {
	for i, a := range alerts {
		if a.ID == id {
			return i
		}
	}
	return -1
}
