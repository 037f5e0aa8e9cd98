package api

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/Freeeeeet/therapy_scheduler/internal/auth"
	"go.uber.org/zap"
)

// corsPolicy заголовки CORS одного эндпоинта
type corsPolicy struct {
	methods       string
	headers       string
	exposeHeaders string
	maxAge        int
}

const baseAllowHeaders = "authorization, x-client-info, apikey, content-type"

var (
	scheduleCORS = corsPolicy{
		methods:       "POST, OPTIONS",
		headers:       baseAllowHeaders + ", x-supabase-auth-token",
		exposeHeaders: "x-supabase-auth-token",
	}
	trackUsageCORS = corsPolicy{
		methods: "POST, OPTIONS",
		headers: baseAllowHeaders,
	}
	subscriptionCORS = corsPolicy{
		methods: "GET, POST, OPTIONS",
		headers: baseAllowHeaders,
		maxAge:  3600,
	}
)

// withCORS выставляет заголовки CORS; preflight отвечает 204
func withCORS(p corsPolicy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", "*")
			h.Set("Access-Control-Allow-Methods", p.methods)
			h.Set("Access-Control-Allow-Headers", p.headers)
			if p.exposeHeaders != "" {
				h.Set("Access-Control-Expose-Headers", p.exposeHeaders)
			}
			if p.maxAge > 0 {
				h.Set("Access-Control-Max-Age", strconv.Itoa(p.maxAge))
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// chainMiddlewares применяет middleware по порядку; последний оказывается снаружи
func chainMiddlewares(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for _, m := range middlewares {
		h = m(h)
	}
	return h
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withLogging логирует каждый запрос
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		s.logger.Info("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	})
}

// withRecover превращает панику обработчика в ответ 500
func (s *Server) withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("Panic in HTTP handler",
					zap.String("path", r.URL.Path),
					zap.Any("panic", rec),
					zap.ByteString("stack", debug.Stack()))
				writeJSON(w, http.StatusInternalServerError, errorResponse{
					Error:   "Internal server error",
					Details: fmt.Sprint(rec),
					Type:    "panic",
				})
			}
		}()

		next.ServeHTTP(w, r)
	})
}

type claimsKey struct{}

// ClaimsFromContext claims проверенного токена, если он был
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*auth.Claims)
	return claims, ok
}

const unauthorizedMessage = "Unauthorized: Invalid or expired token"

// withAuth проверяет bearer-токен, если настроен верификатор
func (s *Server) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.verifier == nil {
			next.ServeHTTP(w, r)
			return
		}

		header := strings.TrimSpace(r.Header.Get("Authorization"))
		if header == "" {
			if s.authRequired {
				writeError(w, http.StatusUnauthorized, "Missing authorization header")
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		token, ok := auth.BearerToken(header)
		if !ok {
			writeError(w, http.StatusUnauthorized, unauthorizedMessage)
			return
		}

		claims, err := s.verifier.Verify(r.Context(), token)
		if err != nil {
			s.logger.Warn("Rejected bearer token", zap.String("path", r.URL.Path), zap.Error(err))
			writeError(w, http.StatusUnauthorized, unauthorizedMessage)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))
	})
}
