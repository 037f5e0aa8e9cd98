package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Freeeeeet/therapy_scheduler/internal/model"
	"github.com/Freeeeeet/therapy_scheduler/internal/service"
	"github.com/Freeeeeet/therapy_scheduler/internal/storage/memory"
	"github.com/google/uuid"
	"go.uber.org/zap/zaptest"
)

// ---------------------------------------------------------------------------
// Обёртки над memory.DB с подменой отдельных методов
// ---------------------------------------------------------------------------

type mockSessions struct {
	*memory.DB
	existsFn func(ctx context.Context, patientID, therapistID uuid.UUID, ts time.Time) (bool, error)
	insertFn func(ctx context.Context, sessions []*model.Session) (int, error)
}

func (m *mockSessions) SessionExists(ctx context.Context, patientID, therapistID uuid.UUID, ts time.Time) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, patientID, therapistID, ts)
	}
	return m.DB.SessionExists(ctx, patientID, therapistID, ts)
}

func (m *mockSessions) InsertSessions(ctx context.Context, sessions []*model.Session) (int, error) {
	if m.insertFn != nil {
		return m.insertFn(ctx, sessions)
	}
	return m.DB.InsertSessions(ctx, sessions)
}

type mockConfigs struct {
	*memory.DB
	enrichedFn func(ctx context.Context, id uuid.UUID) ([]*model.ScheduleConfig, error)
	rawFn      func(ctx context.Context, id uuid.UUID) ([]*model.ScheduleConfig, error)
}

func (m *mockConfigs) FetchConfigsEnriched(ctx context.Context, id uuid.UUID) ([]*model.ScheduleConfig, error) {
	if m.enrichedFn != nil {
		return m.enrichedFn(ctx, id)
	}
	return m.DB.FetchConfigsEnriched(ctx, id)
}

func (m *mockConfigs) FetchConfigsRaw(ctx context.Context, id uuid.UUID) ([]*model.ScheduleConfig, error) {
	if m.rawFn != nil {
		return m.rawFn(ctx, id)
	}
	return m.DB.FetchConfigsRaw(ctx, id)
}

type mockDetails struct {
	listFn func(ctx context.Context, packageID uuid.UUID) ([]model.TherapyDetail, error)
}

func (m *mockDetails) ListTherapyDetails(ctx context.Context, packageID uuid.UUID) ([]model.TherapyDetail, error) {
	return m.listFn(ctx, packageID)
}

// ---------------------------------------------------------------------------
// Фикстура: пакет 2024-01-01 (пн) .. 2024-01-14 (вс), пн+ср 09:00, 45 минут
// ---------------------------------------------------------------------------

type fixture struct {
	db          *memory.DB
	pkg         *model.PatientPackage
	therapyID   uuid.UUID
	therapistID uuid.UUID
}

func day(d int) time.Time {
	return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := memory.New()
	expires := day(14)
	pkg := &model.PatientPackage{
		PackageID: uuid.New(),
		PatientID: uuid.New(),
		ClinicID:  uuid.New(),
		StartsAt:  day(1),
		ExpiresAt: &expires,
	}
	db.AddPatientPackage(pkg)

	f := &fixture{
		db:          db,
		pkg:         pkg,
		therapyID:   uuid.New(),
		therapistID: uuid.New(),
	}

	db.AddTherapy(&model.Therapy{ID: f.therapyID, Name: "Speech therapy"})
	db.AddAssignment(&model.TherapistAssignment{
		PatientID:        pkg.PatientID,
		TherapistID:      f.therapistID,
		TherapyTypeID:    f.therapyID,
		PatientPackageID: pkg.ID,
		IsActive:         true,
	})
	db.AddScheduleConfig(&model.ScheduleConfig{
		PatientPackageID: pkg.ID,
		TherapyTypeID:    f.therapyID,
		DaysOfWeek:       []int{1, 3},
		StartHour:        9,
	})
	db.AddTherapyDetail(model.TherapyDetail{
		PackageID:              pkg.PackageID,
		TherapyTypeID:          f.therapyID,
		SessionCount:           8,
		SessionDurationMinutes: 45,
	})

	return f
}

func (f *fixture) service(t *testing.T, opts service.SchedulingOptions) *service.SchedulingService {
	t.Helper()
	return service.NewSchedulingService(f.db, f.db, f.db, f.db, f.db, opts, zaptest.NewLogger(t))
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestSchedulePackage_ExpandsWeeklyRule(t *testing.T) {
	f := newFixture(t)
	svc := f.service(t, service.SchedulingOptions{})

	result, err := svc.SchedulePackage(context.Background(), f.pkg.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Created != 4 {
		t.Fatalf("expected 4 sessions created, got %d", result.Created)
	}
	if result.Message() != "Successfully created 4 sessions" {
		t.Fatalf("unexpected message %q", result.Message())
	}

	sessions := f.db.ListSessions()
	wantDays := []int{1, 3, 8, 10}
	if len(sessions) != len(wantDays) {
		t.Fatalf("expected %d stored sessions, got %d", len(wantDays), len(sessions))
	}
	for i, s := range sessions {
		want := time.Date(2024, time.January, wantDays[i], 9, 0, 0, 0, time.UTC)
		if !s.Timestamp.Equal(want) {
			t.Errorf("session %d: expected %s, got %s", i, want, s.Timestamp)
		}
		if s.Duration != 45 {
			t.Errorf("session %d: expected duration 45, got %d", i, s.Duration)
		}
		if s.Status != model.SessionStatusPending {
			t.Errorf("session %d: expected pending, got %s", i, s.Status)
		}
		if s.IsConsultation {
			t.Errorf("session %d: expected non-consultation", i)
		}
		if s.Mode != model.SessionModeInPerson {
			t.Errorf("session %d: expected in-person mode, got %d", i, s.Mode)
		}
		if s.TherapistID != f.therapistID || s.PatientID != f.pkg.PatientID || s.ClinicID != f.pkg.ClinicID {
			t.Errorf("session %d: unexpected participants %+v", i, s)
		}
		if s.PatientPackageID == nil || *s.PatientPackageID != f.pkg.ID {
			t.Errorf("session %d: expected patient package link", i)
		}
		if s.PackageID != f.pkg.PackageID {
			t.Errorf("session %d: expected catalog package %s, got %s", i, f.pkg.PackageID, s.PackageID)
		}
	}
}

func TestSchedulePackage_Idempotent(t *testing.T) {
	f := newFixture(t)
	svc := f.service(t, service.SchedulingOptions{})
	ctx := context.Background()

	first, err := svc.SchedulePackage(ctx, f.pkg.ID)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.Created == 0 {
		t.Fatal("expected first run to create sessions")
	}

	second, err := svc.SchedulePackage(ctx, f.pkg.ID)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.Created != 0 {
		t.Fatalf("expected second run to create 0 sessions, got %d", second.Created)
	}
	if second.Duplicates != first.Created {
		t.Fatalf("expected %d duplicates, got %d", first.Created, second.Duplicates)
	}
	if got := len(f.db.ListSessions()); got != first.Created {
		t.Fatalf("expected %d stored sessions, got %d", first.Created, got)
	}
}

func TestSchedulePackage_SameDayWindow(t *testing.T) {
	f := newFixture(t)
	expires := time.Date(2024, time.January, 1, 23, 0, 0, 0, time.UTC)
	f.pkg.StartsAt = time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)
	f.pkg.ExpiresAt = &expires
	f.db.AddPatientPackage(f.pkg)

	result, err := f.service(t, service.SchedulingOptions{}).SchedulePackage(context.Background(), f.pkg.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Created != 1 {
		t.Fatalf("expected exactly 1 session, got %d", result.Created)
	}
}

func TestSchedulePackage_ExpiryBeforeStartCreatesNothing(t *testing.T) {
	f := newFixture(t)
	expires := day(1)
	f.pkg.StartsAt = day(10)
	f.pkg.ExpiresAt = &expires
	f.db.AddPatientPackage(f.pkg)

	result, err := f.service(t, service.SchedulingOptions{}).SchedulePackage(context.Background(), f.pkg.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Created != 0 || result.Candidates != 0 {
		t.Fatalf("expected no sessions, got %+v", result)
	}
}

func TestSchedulePackage_SkipsRuleWithoutAssignment(t *testing.T) {
	f := newFixture(t)
	unassigned := uuid.New()
	f.db.AddScheduleConfig(&model.ScheduleConfig{
		PatientPackageID: f.pkg.ID,
		TherapyTypeID:    unassigned,
		DaysOfWeek:       []int{2, 4},
		StartHour:        11,
	})

	result, err := f.service(t, service.SchedulingOptions{}).SchedulePackage(context.Background(), f.pkg.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Created != 4 {
		t.Fatalf("expected 4 sessions from the assigned rule, got %d", result.Created)
	}
	if len(result.SkippedConfigs) != 1 || result.SkippedConfigs[0].TherapyTypeID != unassigned {
		t.Fatalf("expected the unassigned rule to be skipped, got %+v", result.SkippedConfigs)
	}
}

func TestSchedulePackage_DefaultDuration(t *testing.T) {
	f := newFixture(t)
	svc := service.NewSchedulingService(f.db, f.db, f.db,
		&mockDetails{listFn: func(context.Context, uuid.UUID) ([]model.TherapyDetail, error) { return nil, nil }},
		f.db, service.SchedulingOptions{}, zaptest.NewLogger(t))

	if _, err := svc.SchedulePackage(context.Background(), f.pkg.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, s := range f.db.ListSessions() {
		if s.Duration != model.DefaultSessionDurationMinutes {
			t.Fatalf("expected default duration %d, got %d", model.DefaultSessionDurationMinutes, s.Duration)
		}
	}
}

func TestSchedulePackage_PartialBatchFailure(t *testing.T) {
	f := newFixture(t)
	calls := 0
	sessions := &mockSessions{DB: f.db}
	sessions.insertFn = func(ctx context.Context, batch []*model.Session) (int, error) {
		calls++
		if calls == 2 {
			return 0, errors.New("connection reset")
		}
		return f.db.InsertSessions(ctx, batch)
	}

	svc := service.NewSchedulingService(f.db, f.db, f.db, f.db, sessions,
		service.SchedulingOptions{BatchSize: 2}, zaptest.NewLogger(t))

	result, err := svc.SchedulePackage(context.Background(), f.pkg.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 batches, got %d", calls)
	}
	if result.Created != 2 {
		t.Fatalf("expected 2 sessions created, got %d", result.Created)
	}
	if len(result.FailedBatches) != 1 || result.FailedBatches[0].Index != 1 || result.FailedBatches[0].Size != 2 {
		t.Fatalf("unexpected failed batches %+v", result.FailedBatches)
	}
	if !strings.HasPrefix(result.Message(), "Successfully created 2 sessions") {
		t.Fatalf("unexpected message %q", result.Message())
	}

	// Повторный запуск добирает то, что не вставилось
	sessions.insertFn = nil
	retry, err := svc.SchedulePackage(context.Background(), f.pkg.ID)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if retry.Created != 2 {
		t.Fatalf("expected retry to create the 2 missing sessions, got %d", retry.Created)
	}
}

func TestSchedulePackage_LookupErrorDefersToStore(t *testing.T) {
	f := newFixture(t)
	svc := f.service(t, service.SchedulingOptions{})
	ctx := context.Background()

	if _, err := svc.SchedulePackage(ctx, f.pkg.ID); err != nil {
		t.Fatalf("first run: %v", err)
	}

	sessions := &mockSessions{DB: f.db}
	sessions.existsFn = func(context.Context, uuid.UUID, uuid.UUID, time.Time) (bool, error) {
		return false, errors.New("timeout")
	}
	failing := service.NewSchedulingService(f.db, f.db, f.db, f.db, sessions,
		service.SchedulingOptions{}, zaptest.NewLogger(t))

	result, err := failing.SchedulePackage(ctx, f.pkg.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.LookupErrors != 4 {
		t.Fatalf("expected 4 lookup errors, got %d", result.LookupErrors)
	}
	if result.Created != 0 || result.Conflicts != 4 {
		t.Fatalf("expected store to skip all 4 duplicates, got created=%d conflicts=%d", result.Created, result.Conflicts)
	}
}

func TestSchedulePackage_DropsRepeatsWithinRun(t *testing.T) {
	f := newFixture(t)
	// Второе правило той же терапии на понедельник 09:00 совпадает с первым
	f.db.AddScheduleConfig(&model.ScheduleConfig{
		PatientPackageID: f.pkg.ID,
		TherapyTypeID:    f.therapyID,
		DaysOfWeek:       []int{1},
		StartHour:        9,
	})

	result, err := f.service(t, service.SchedulingOptions{}).SchedulePackage(context.Background(), f.pkg.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Candidates != 6 || result.Duplicates != 2 || result.Created != 4 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestSchedulePackage_FallsBackToRawConfigs(t *testing.T) {
	tests := []struct {
		name       string
		enrichedFn func(context.Context, uuid.UUID) ([]*model.ScheduleConfig, error)
	}{
		{"enriched query fails", func(context.Context, uuid.UUID) ([]*model.ScheduleConfig, error) {
			return nil, errors.New("relation does not exist")
		}},
		{"enriched query empty", func(context.Context, uuid.UUID) ([]*model.ScheduleConfig, error) {
			return nil, nil
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			configs := &mockConfigs{DB: f.db, enrichedFn: tc.enrichedFn}
			svc := service.NewSchedulingService(f.db, f.db, configs, f.db, f.db,
				service.SchedulingOptions{}, zaptest.NewLogger(t))

			result, err := svc.SchedulePackage(context.Background(), f.pkg.ID)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.Created != 4 {
				t.Fatalf("expected 4 sessions from raw configs, got %d", result.Created)
			}
		})
	}
}

func TestSchedulePackage_Errors(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(f *fixture) (service.ScheduleConfigStore, service.TherapyDetailStore)
		id      func(f *fixture) uuid.UUID
		wantErr error
		wantMsg string
	}{
		{
			name:    "nil id",
			id:      func(*fixture) uuid.UUID { return uuid.Nil },
			wantErr: service.ErrPackageIDRequired,
		},
		{
			name:    "unknown package",
			id:      func(*fixture) uuid.UUID { return uuid.New() },
			wantErr: service.ErrPackageNotFound,
		},
		{
			name: "missing expiry",
			prepare: func(f *fixture) (service.ScheduleConfigStore, service.TherapyDetailStore) {
				f.pkg.ExpiresAt = nil
				f.db.AddPatientPackage(f.pkg)
				return f.db, f.db
			},
			wantErr: service.ErrExpiryNotSet,
		},
		{
			name: "no assignments",
			prepare: func(f *fixture) (service.ScheduleConfigStore, service.TherapyDetailStore) {
				pkg := *f.pkg
				pkg.ID = uuid.Nil
				f.db.AddPatientPackage(&pkg)
				f.pkg = &pkg
				return f.db, f.db
			},
			wantErr: service.ErrNoAssignments,
		},
		{
			name: "no schedule configs",
			prepare: func(f *fixture) (service.ScheduleConfigStore, service.TherapyDetailStore) {
				empty := func(context.Context, uuid.UUID) ([]*model.ScheduleConfig, error) { return nil, nil }
				return &mockConfigs{DB: f.db, enrichedFn: empty, rawFn: empty}, f.db
			},
			wantErr: service.ErrNoScheduleConfigs,
		},
		{
			name: "raw configs fail",
			prepare: func(f *fixture) (service.ScheduleConfigStore, service.TherapyDetailStore) {
				fail := func(context.Context, uuid.UUID) ([]*model.ScheduleConfig, error) { return nil, errors.New("boom") }
				return &mockConfigs{DB: f.db, enrichedFn: fail, rawFn: fail}, f.db
			},
			wantMsg: "Failed to fetch schedule configurations",
		},
		{
			name: "therapy details fail",
			prepare: func(f *fixture) (service.ScheduleConfigStore, service.TherapyDetailStore) {
				return f.db, &mockDetails{listFn: func(context.Context, uuid.UUID) ([]model.TherapyDetail, error) {
					return nil, errors.New("boom")
				}}
			},
			wantMsg: "Failed to fetch therapy details",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			var configs service.ScheduleConfigStore = f.db
			var details service.TherapyDetailStore = f.db
			if tc.prepare != nil {
				configs, details = tc.prepare(f)
			}
			id := f.pkg.ID
			if tc.id != nil {
				id = tc.id(f)
			}

			svc := service.NewSchedulingService(f.db, f.db, configs, details, f.db,
				service.SchedulingOptions{}, zaptest.NewLogger(t))
			_, err := svc.SchedulePackage(context.Background(), id)
			if err == nil {
				t.Fatal("expected error")
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			if tc.wantMsg != "" {
				var storeErr *service.StoreError
				if !errors.As(err, &storeErr) {
					t.Fatalf("expected StoreError, got %T: %v", err, err)
				}
				if storeErr.Message != tc.wantMsg {
					t.Fatalf("expected message %q, got %q", tc.wantMsg, storeErr.Message)
				}
			}
			if got := len(f.db.ListSessions()); got != 0 {
				t.Fatalf("expected no sessions, got %d", got)
			}
		})
	}
}

func TestScheduleAllActive(t *testing.T) {
	f := newFixture(t)

	// Пакет без срока действия не попадает в выборку
	f.db.AddPatientPackage(&model.PatientPackage{PatientID: uuid.New(), StartsAt: day(1)})

	svc := f.service(t, service.SchedulingOptions{})
	total, err := svc.ScheduleAllActive(context.Background(), day(5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 4 {
		t.Fatalf("expected 4 sessions, got %d", total)
	}

	total, err = svc.ScheduleAllActive(context.Background(), day(5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 0 {
		t.Fatalf("expected second pass to create nothing, got %d", total)
	}
}

func TestSchedulePackage_RuleWithoutCatalogTherapy(t *testing.T) {
	f := newFixture(t)

	// Тип терапии без записи в каталоге, но с назначенным терапевтом
	uncatalogued := uuid.New()
	otherTherapist := uuid.New()
	f.db.AddAssignment(&model.TherapistAssignment{
		PatientID:        f.pkg.PatientID,
		TherapistID:      otherTherapist,
		TherapyTypeID:    uncatalogued,
		PatientPackageID: f.pkg.ID,
		IsActive:         true,
	})
	f.db.AddScheduleConfig(&model.ScheduleConfig{
		PatientPackageID: f.pkg.ID,
		TherapyTypeID:    uncatalogued,
		DaysOfWeek:       []int{1, 3},
		StartHour:        9,
	})

	result, err := f.service(t, service.SchedulingOptions{}).SchedulePackage(context.Background(), f.pkg.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Created != 8 || len(result.SkippedConfigs) != 0 {
		t.Fatalf("expected 8 sessions and no skipped rules, got created=%d skipped=%+v", result.Created, result.SkippedConfigs)
	}

	perTherapist := map[uuid.UUID]int{}
	for _, s := range f.db.ListSessions() {
		perTherapist[s.TherapistID]++
		if s.TherapistID == otherTherapist && s.Duration != model.DefaultSessionDurationMinutes {
			t.Errorf("expected default duration for uncatalogued therapy, got %d", s.Duration)
		}
	}
	if perTherapist[f.therapistID] != 4 || perTherapist[otherTherapist] != 4 {
		t.Fatalf("expected 4 sessions per therapist, got %v", perTherapist)
	}
}

func TestSchedulePackage_SkipsInvalidRule(t *testing.T) {
	f := newFixture(t)

	broken := uuid.New()
	f.db.AddAssignment(&model.TherapistAssignment{
		PatientID:        f.pkg.PatientID,
		TherapistID:      uuid.New(),
		TherapyTypeID:    broken,
		PatientPackageID: f.pkg.ID,
		IsActive:         true,
	})
	f.db.AddScheduleConfig(&model.ScheduleConfig{
		PatientPackageID: f.pkg.ID,
		TherapyTypeID:    broken,
		DaysOfWeek:       []int{7},
		StartHour:        9,
	})

	result, err := f.service(t, service.SchedulingOptions{}).SchedulePackage(context.Background(), f.pkg.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Created != 4 {
		t.Fatalf("expected valid rule to create 4 sessions, got %d", result.Created)
	}
	if len(result.SkippedConfigs) != 1 || result.SkippedConfigs[0].TherapyTypeID != broken {
		t.Fatalf("expected broken rule skipped, got %+v", result.SkippedConfigs)
	}
	if !strings.Contains(result.SkippedConfigs[0].Reason, "invalid schedule config") {
		t.Fatalf("unexpected skip reason %q", result.SkippedConfigs[0].Reason)
	}
}
