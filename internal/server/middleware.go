package server

import (
	"context"
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Ayman482/nile-dose-cafe-website/internal/authz"
	apperr "github.com/Ayman482/nile-dose-cafe-website/internal/errors"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type ctxKey int

const identityKey ctxKey = iota

// Identity is the caller resolved from the bearer token.
type Identity struct {
	UserID string
	Role   string
}

func identityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok && id.UserID != ""
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (ls *ServerSystem) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				ls.log.Error("panic while serving request",
					zap.String("path", r.URL.Path),
					zap.Any("panic", rec),
					zap.Stack("stack"),
				)
				ls.writeFailure(w, http.StatusInternalServerError, localize(localeFrom(r), classInternal, ""))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (ls *ServerSystem) accessLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tmpl, err := current.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		ls.Metrics.ObserveHTTP(route, r.Method, rec.status, elapsed)
		ls.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", elapsed),
		)
	})
}

func (ls *ServerSystem) authenticated(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := ls.identify(r)
		if err == nil && id.UserID == "" {
			err = fmt.Errorf("%w: missing bearer token", apperr.ErrUnauthorized)
		}
		if err != nil {
			ls.fail(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, id)))
	})
}

// optionallyAuthenticated lets guests through but still rejects a bad token.
func (ls *ServerSystem) optionallyAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := ls.identify(r)
		if err != nil {
			ls.fail(w, r, err)
			return
		}
		if id.UserID != "" {
			r = r.WithContext(context.WithValue(r.Context(), identityKey, id))
		}
		next.ServeHTTP(w, r)
	})
}

func (ls *ServerSystem) identify(r *http.Request) (Identity, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return Identity{}, nil
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return Identity{}, fmt.Errorf("%w: malformed authorization header", apperr.ErrUnauthorized)
	}
	claims, err := ls.Tokens.Parse(strings.TrimSpace(token))
	if err != nil {
		return Identity{}, err
	}
	return Identity{UserID: claims.Subject, Role: claims.Role}, nil
}

func (ls *ServerSystem) admin(object string, next http.HandlerFunc) http.Handler {
	return ls.authenticated(func(w http.ResponseWriter, r *http.Request) {
		id, _ := identityFrom(r.Context())
		if err := ls.Authorizer.Authorize(id.Role, object, authz.ActionManage); err != nil {
			ls.fail(w, r, err)
			return
		}
		next(w, r)
	})
}

// limited counts requests per caller and action; guests are keyed by address.
func (ls *ServerSystem) limited(action string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := clientAddr(r)
		if id, ok := identityFrom(r.Context()); ok {
			caller = "user:" + id.UserID
		}

		res, err := ls.Limiter.Allow(r.Context(), action+":"+caller)
		if err != nil {
			// fail open while redis is unreachable
			ls.log.Warn("rate limiter unavailable", zap.String("action", action), zap.Error(err))
			next(w, r)
			return
		}
		if res.Limit > 0 {
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		}
		if !res.Allowed {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(res.RetryAfter.Seconds()))))
			ls.fail(w, r, fmt.Errorf("%w: %s", apperr.ErrRateLimited, action))
			return
		}
		next(w, r)
	}
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "addr:" + r.RemoteAddr
	}
	return "addr:" + host
}
