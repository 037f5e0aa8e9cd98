package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/therapy_scheduler/internal/model"
	"github.com/google/uuid"
)

func (r *patientPackageRow) toModel() *model.PatientPackage {
	p := &model.PatientPackage{
		ID:           r.ID,
		PackageID:    r.PackageID,
		PatientID:    r.PatientID,
		ClinicID:     r.ClinicID,
		PackageName:  r.PackageName,
		StartsAt:     r.StartsAt,
		SessionsUsed: r.SessionsUsed,
		CreatedAt:    r.CreatedAt,
	}
	if r.ExpiresAt != nil {
		exp := *r.ExpiresAt
		p.ExpiresAt = &exp
	}
	if p.SessionsUsed == nil {
		p.SessionsUsed = map[string]int{}
	}
	return p
}

func (r *assignmentRow) toModel() *model.TherapistAssignment {
	return &model.TherapistAssignment{
		ID:               r.ID,
		PatientID:        r.PatientID,
		TherapistID:      r.TherapistID,
		TherapyTypeID:    r.TherapyTypeID,
		PatientPackageID: r.PatientPackageID,
		IsActive:         r.IsActive,
		CreatedAt:        r.CreatedAt,
	}
}

func sessionRowFromModel(s *model.Session) sessionRow {
	id := s.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	return sessionRow{
		ID:               id,
		PatientID:        s.PatientID,
		TherapistID:      s.TherapistID,
		ClinicID:         s.ClinicID,
		PackageID:        s.PackageID,
		TherapyTypeID:    s.TherapyTypeID,
		PatientPackageID: s.PatientPackageID,
		Timestamp:        s.Timestamp.UTC(),
		Duration:         s.Duration,
		Status:           string(s.Status),
		IsConsultation:   s.IsConsultation,
		Mode:             int(s.Mode),
	}
}

func (r *sessionRow) toModel() *model.Session {
	return &model.Session{
		ID:               r.ID,
		PatientID:        r.PatientID,
		TherapistID:      r.TherapistID,
		ClinicID:         r.ClinicID,
		PackageID:        r.PackageID,
		TherapyTypeID:    r.TherapyTypeID,
		PatientPackageID: r.PatientPackageID,
		Timestamp:        r.Timestamp,
		Duration:         r.Duration,
		Status:           model.SessionStatus(r.Status),
		IsConsultation:   r.IsConsultation,
		Mode:             model.SessionMode(r.Mode),
		CreatedAt:        r.CreatedAt,
	}
}

func (r *subscriptionRow) toModel() *model.ClinicSubscription {
	return &model.ClinicSubscription{
		ID:        r.ID,
		ClinicID:  r.ClinicID,
		Tier:      r.Tier,
		Status:    model.SubscriptionStatus(r.Status),
		StartsAt:  r.StartsAt,
		ExpiresAt: r.ExpiresAt,
		CreatedAt: r.CreatedAt,
	}
}

// --- наполнение справочников (импорт и тесты) ---

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func (s *Store) SavePatientPackage(ctx context.Context, p *model.PatientPackage) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	row := patientPackageRow{
		ID:           p.ID,
		PackageID:    p.PackageID,
		PatientID:    p.PatientID,
		ClinicID:     p.ClinicID,
		PackageName:  p.PackageName,
		StartsAt:     p.StartsAt.UTC(),
		ExpiresAt:    utcPtr(p.ExpiresAt),
		SessionsUsed: p.SessionsUsed,
	}
	if err := s.db.WithContext(ctx).Save(&row).Error; err != nil {
		return fmt.Errorf("save patient package: %w", err)
	}
	return nil
}

func (s *Store) SaveAssignment(ctx context.Context, a *model.TherapistAssignment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	row := assignmentRow{
		ID:               a.ID,
		PatientID:        a.PatientID,
		TherapistID:      a.TherapistID,
		TherapyTypeID:    a.TherapyTypeID,
		PatientPackageID: a.PatientPackageID,
		IsActive:         a.IsActive,
		CreatedAt:        a.CreatedAt.UTC(),
	}
	if err := s.db.WithContext(ctx).Save(&row).Error; err != nil {
		return fmt.Errorf("save assignment: %w", err)
	}
	return nil
}

func (s *Store) SaveScheduleConfig(ctx context.Context, c *model.ScheduleConfig) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	row := scheduleConfigRow{
		ID:               c.ID,
		PatientPackageID: c.PatientPackageID,
		TherapyTypeID:    c.TherapyTypeID,
		DaysOfWeek:       c.DaysOfWeek,
		TimeSlot:         c.TimeSlot(),
	}
	if err := s.db.WithContext(ctx).Save(&row).Error; err != nil {
		return fmt.Errorf("save schedule config: %w", err)
	}
	return nil
}

func (s *Store) SaveTherapy(ctx context.Context, t *model.Therapy) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if err := s.db.WithContext(ctx).Save(&therapyRow{ID: t.ID, Name: t.Name}).Error; err != nil {
		return fmt.Errorf("save therapy: %w", err)
	}
	return nil
}

func (s *Store) SaveTherapyDetail(ctx context.Context, d model.TherapyDetail) error {
	row := therapyDetailRow{
		PackageID:              d.PackageID,
		TherapyTypeID:          d.TherapyTypeID,
		SessionCount:           d.SessionCount,
		SessionDurationMinutes: d.SessionDurationMinutes,
	}
	if err := s.db.WithContext(ctx).Save(&row).Error; err != nil {
		return fmt.Errorf("save therapy detail: %w", err)
	}
	return nil
}

func (s *Store) SaveSubscription(ctx context.Context, sub *model.ClinicSubscription) error {
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	row := subscriptionRow{
		ID:        sub.ID,
		ClinicID:  sub.ClinicID,
		Tier:      sub.Tier,
		Status:    string(sub.Status),
		StartsAt:  sub.StartsAt.UTC(),
		ExpiresAt: sub.ExpiresAt.UTC(),
	}
	if err := s.db.WithContext(ctx).Save(&row).Error; err != nil {
		return fmt.Errorf("save subscription: %w", err)
	}
	return nil
}
