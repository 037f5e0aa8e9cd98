// Package memory реализует хранилище в памяти для разработки и тестов.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Freeeeeet/therapy_scheduler/internal/model"
	"github.com/Freeeeeet/therapy_scheduler/internal/service"
	"github.com/google/uuid"
)

// DB хранилище в памяти
type DB struct {
	mu sync.Mutex

	packages      map[uuid.UUID]*model.PatientPackage
	assignments   []*model.TherapistAssignment
	configs       []*model.ScheduleConfig
	therapies     map[uuid.UUID]*model.Therapy
	details       []model.TherapyDetail
	sessions      []*model.Session
	sessionKeys   map[model.SessionKey]struct{}
	subscriptions []*model.ClinicSubscription
}

func New() *DB {
	return &DB{
		packages:    make(map[uuid.UUID]*model.PatientPackage),
		therapies:   make(map[uuid.UUID]*model.Therapy),
		sessionKeys: make(map[model.SessionKey]struct{}),
	}
}

var _ service.Store = (*DB)(nil)

// --- наполнение ---

func (db *DB) AddPatientPackage(p *model.PatientPackage) {
	db.mu.Lock()
	defer db.mu.Unlock()

	cp := *p
	if cp.ID == uuid.Nil {
		cp.ID = uuid.New()
		p.ID = cp.ID
	}
	cp.SessionsUsed = copyUsage(p.SessionsUsed)
	db.packages[cp.ID] = &cp
}

func (db *DB) AddAssignment(a *model.TherapistAssignment) {
	db.mu.Lock()
	defer db.mu.Unlock()

	cp := *a
	if cp.ID == uuid.Nil {
		cp.ID = uuid.New()
		a.ID = cp.ID
	}
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	db.assignments = append(db.assignments, &cp)
}

func (db *DB) AddScheduleConfig(c *model.ScheduleConfig) {
	db.mu.Lock()
	defer db.mu.Unlock()

	cp := *c
	if cp.ID == uuid.Nil {
		cp.ID = uuid.New()
		c.ID = cp.ID
	}
	cp.DaysOfWeek = append([]int(nil), c.DaysOfWeek...)
	cp.Therapy = nil
	db.configs = append(db.configs, &cp)
}

func (db *DB) AddTherapy(t *model.Therapy) {
	db.mu.Lock()
	defer db.mu.Unlock()

	cp := *t
	db.therapies[cp.ID] = &cp
}

func (db *DB) AddTherapyDetail(d model.TherapyDetail) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.details = append(db.details, d)
}

func (db *DB) AddSubscription(s *model.ClinicSubscription) {
	db.mu.Lock()
	defer db.mu.Unlock()

	cp := *s
	if cp.ID == uuid.Nil {
		cp.ID = uuid.New()
		s.ID = cp.ID
	}
	db.subscriptions = append(db.subscriptions, &cp)
}

func (db *DB) AddSession(s *model.Session) {
	db.mu.Lock()
	defer db.mu.Unlock()

	cp := *s
	if cp.ID == uuid.Nil {
		cp.ID = uuid.New()
		s.ID = cp.ID
	}
	db.sessions = append(db.sessions, &cp)
	db.sessionKeys[cp.Key()] = struct{}{}
}

// ListSessions возвращает копии всех занятий по времени
func (db *DB) ListSessions() []model.Session {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make([]model.Session, 0, len(db.sessions))
	for _, s := range db.sessions {
		out = append(out, *s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}

// Subscription возвращает копию подписки
func (db *DB) Subscription(id uuid.UUID) *model.ClinicSubscription {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, s := range db.subscriptions {
		if s.ID == id {
			cp := *s
			return &cp
		}
	}
	return nil
}

// --- PackageStore ---

func (db *DB) GetPatientPackage(ctx context.Context, id uuid.UUID) (*model.PatientPackage, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	p, ok := db.packages[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	cp.SessionsUsed = copyUsage(p.SessionsUsed)
	return &cp, nil
}

func (db *DB) ListSchedulablePackageIDs(ctx context.Context, at time.Time) ([]uuid.UUID, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var ids []uuid.UUID
	for id, p := range db.packages {
		if p.ExpiresAt != nil && !p.ExpiresAt.Before(at) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids, nil
}

func (db *DB) IncrementSessionsUsed(ctx context.Context, id, therapyTypeID uuid.UUID) (map[string]int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	p, ok := db.packages[id]
	if !ok {
		return nil, nil
	}
	if p.SessionsUsed == nil {
		p.SessionsUsed = make(map[string]int)
	}
	p.SessionsUsed[therapyTypeID.String()]++
	return copyUsage(p.SessionsUsed), nil
}

// --- AssignmentStore ---

func (db *DB) ListActiveAssignments(ctx context.Context, patientID, patientPackageID uuid.UUID) ([]*model.TherapistAssignment, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var out []*model.TherapistAssignment
	for _, a := range db.assignments {
		if a.IsActive && a.PatientID == patientID && a.PatientPackageID == patientPackageID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (db *DB) FindActiveAssignment(ctx context.Context, patientID, therapyTypeID, patientPackageID uuid.UUID) (*model.TherapistAssignment, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var latest *model.TherapistAssignment
	for _, a := range db.assignments {
		if !a.IsActive || a.PatientID != patientID || a.TherapyTypeID != therapyTypeID || a.PatientPackageID != patientPackageID {
			continue
		}
		if latest == nil || a.CreatedAt.After(latest.CreatedAt) {
			latest = a
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

// --- ScheduleConfigStore ---

func (db *DB) FetchConfigsEnriched(ctx context.Context, patientPackageID uuid.UUID) ([]*model.ScheduleConfig, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	configs := db.configsFor(patientPackageID)
	for _, c := range configs {
		if t, ok := db.therapies[c.TherapyTypeID]; ok {
			cp := *t
			c.Therapy = &cp
		}
	}
	return configs, nil
}

func (db *DB) FetchConfigsRaw(ctx context.Context, patientPackageID uuid.UUID) ([]*model.ScheduleConfig, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	return db.configsFor(patientPackageID), nil
}

func (db *DB) GetTherapy(ctx context.Context, id uuid.UUID) (*model.Therapy, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	t, ok := db.therapies[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (db *DB) configsFor(patientPackageID uuid.UUID) []*model.ScheduleConfig {
	var out []*model.ScheduleConfig
	for _, c := range db.configs {
		if c.PatientPackageID == patientPackageID {
			cp := *c
			cp.DaysOfWeek = append([]int(nil), c.DaysOfWeek...)
			out = append(out, &cp)
		}
	}
	return out
}

// --- TherapyDetailStore ---

func (db *DB) ListTherapyDetails(ctx context.Context, packageID uuid.UUID) ([]model.TherapyDetail, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var out []model.TherapyDetail
	for _, d := range db.details {
		if d.PackageID == packageID {
			out = append(out, d)
		}
	}
	return out, nil
}

// --- SessionStore ---

func (db *DB) SessionExists(ctx context.Context, patientID, therapistID uuid.UUID, timestamp time.Time) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, ok := db.sessionKeys[model.SessionKey{PatientID: patientID, TherapistID: therapistID, Timestamp: timestamp.UTC()}]
	return ok, nil
}

func (db *DB) InsertSessions(ctx context.Context, sessions []*model.Session) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	inserted := 0
	now := time.Now()
	for _, s := range sessions {
		key := s.Key()
		if _, ok := db.sessionKeys[key]; ok {
			continue
		}
		cp := *s
		if cp.ID == uuid.Nil {
			cp.ID = uuid.New()
		}
		cp.CreatedAt = now
		db.sessions = append(db.sessions, &cp)
		db.sessionKeys[key] = struct{}{}
		inserted++
	}
	return inserted, nil
}

func (db *DB) GetSession(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, s := range db.sessions {
		if s.ID == id {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

// --- SubscriptionStore ---

func (db *DB) GetLatestActiveSubscription(ctx context.Context, clinicID uuid.UUID) (*model.ClinicSubscription, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var latest *model.ClinicSubscription
	for _, s := range db.subscriptions {
		if s.ClinicID != clinicID || s.Status != model.SubscriptionStatusActive {
			continue
		}
		if latest == nil || s.ExpiresAt.After(latest.ExpiresAt) {
			latest = s
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (db *DB) UpdateSubscriptionStatus(ctx context.Context, id uuid.UUID, status model.SubscriptionStatus) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, s := range db.subscriptions {
		if s.ID == id {
			s.Status = status
			return nil
		}
	}
	return nil
}

func copyUsage(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
