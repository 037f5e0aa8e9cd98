// Package api HTTP-интерфейс генератора занятий, учёта расхода пакета и проверки подписки.
package api

import (
	"context"
	"net/http"

	"github.com/Freeeeeet/therapy_scheduler/internal/auth"
	"github.com/Freeeeeet/therapy_scheduler/internal/service"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	schedulePath     = "/functions/v1/schedule-package-sessions"
	trackUsagePath   = "/functions/v1/track-session-usage"
	subscriptionPath = "/functions/v1/check-clinic-subscription"
)

type Scheduler interface {
	SchedulePackage(ctx context.Context, patientPackageID uuid.UUID) (*service.ScheduleResult, error)
}

type UsageTracker interface {
	TrackSession(ctx context.Context, sessionID uuid.UUID) (*service.UsageResult, error)
}

type SubscriptionChecker interface {
	CheckClinic(ctx context.Context, clinicID uuid.UUID) (*service.SubscriptionCheck, error)
}

type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (*auth.Claims, error)
}

// Options необязательные параметры сервера
type Options struct {
	// Verifier nil - токены не проверяются
	Verifier     TokenVerifier
	AuthRequired bool
}

// Server маршрутизирует запросы к сервисам
type Server struct {
	scheduler     Scheduler
	usage         UsageTracker
	subscriptions SubscriptionChecker
	verifier      TokenVerifier
	authRequired  bool
	logger        *zap.Logger
}

func New(scheduler Scheduler, usage UsageTracker, subscriptions SubscriptionChecker, opts Options, logger *zap.Logger) *Server {
	return &Server{
		scheduler:     scheduler,
		usage:         usage,
		subscriptions: subscriptions,
		verifier:      opts.Verifier,
		authRequired:  opts.AuthRequired,
		logger:        logger,
	}
}

// Handler возвращает корневой http.Handler
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	mux.Handle(schedulePath, chainMiddlewares(
		http.HandlerFunc(s.handleSchedulePackageSessions),
		s.withAuth,
		withCORS(scheduleCORS),
	))
	mux.Handle(trackUsagePath, chainMiddlewares(
		http.HandlerFunc(s.handleTrackSessionUsage),
		s.withAuth,
		withCORS(trackUsageCORS),
	))
	mux.Handle(subscriptionPath, chainMiddlewares(
		http.HandlerFunc(s.handleCheckClinicSubscription),
		s.withAuth,
		withCORS(subscriptionCORS),
	))

	return chainMiddlewares(mux, s.withRecover, s.withLogging)
}
