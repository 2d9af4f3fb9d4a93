package server

import (
	"context"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ulule/limiter/v3"
	limitermw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"propertysite/internal/csrf"
	"propertysite/internal/session"
)

const maxRequestBytes = 64 << 20 // uploads included

type traceContextKey struct{}
type traceContext struct {
	traceID string
}

func setTraceContext(ctx context.Context, tc traceContext) context.Context {
	return context.WithValue(ctx, traceContextKey{}, tc)
}
func getTraceContext(ctx context.Context) traceContext {
	tc, _ := ctx.Value(traceContextKey{}).(traceContext)
	return tc
}

func (s *Server) maxBytesMw(next http.Handler) http.Handler {
	return http.MaxBytesHandler(next, maxRequestBytes)
}

func (s *Server) loggingMw(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		traceID := uuid.NewString()
		s.Logger.Debugf("loggingMw: New incoming request %s %s from %s, UA: %s, Host: %#v, TraceID: %s",
			r.Method, r.URL.Path, r.RemoteAddr, r.UserAgent(), r.Host, traceID)

		defer func() {
			if re := recover(); re != nil {
				s.Logger.Errorf("loggingMw: Handler crashed, err: %v, TraceID: %s, stack trace:\n%s", re, traceID, debug.Stack())
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
		}()

		tc := traceContext{traceID: traceID}
		next.ServeHTTP(w, r.WithContext(setTraceContext(r.Context(), tc)))

		s.Logger.Tracef("loggingMw: Incoming request %s %s took %dms, TraceID: %s",
			r.Method, r.URL.Path, time.Since(start).Milliseconds(), traceID)
	})
}

func (s *Server) securityHeadersMw(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "SAMEORIGIN")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) rateLimitMw(max int, window time.Duration) func(http.Handler) http.Handler {
	instance := limiter.New(memory.NewStore(), limiter.Rate{
		Period: window,
		Limit:  int64(max),
	})
	mw := limitermw.NewMiddleware(instance)
	return mw.Handler
}

// staticAsset reports paths served straight off disk; they get neither a
// session nor CSRF handling.
func staticAsset(path string) bool {
	return strings.HasPrefix(path, "/images/") ||
		strings.HasPrefix(path, "/videos/") ||
		strings.HasPrefix(path, "/static/")
}

// sessionMw resolves the session cookie to stored state, starting a fresh
// session when there is none (or the cookie does not verify). Changed state
// is written back after the handler runs.
func (s *Server) sessionMw(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if staticAsset(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		tid := getTraceContext(r.Context()).traceID

		sess, err := s.Sessions.Load(r.Context(), r)
		if err != nil {
			s.Logger.Tracef("sessionMw: Starting fresh session, reason: %v, TraceID: %s", err, tid)
			sess = s.Sessions.New()
			c, err := s.Sessions.Cookie(sess)
			if err != nil {
				s.Logger.Errorf("sessionMw: Error creating session cookie, err: %v, TraceID: %s", err, tid)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			http.SetCookie(w, c)
		}

		next.ServeHTTP(w, r.WithContext(session.NewContext(r.Context(), sess)))

		if sess.Modified() && !sess.Destroyed() {
			if err := s.Sessions.Save(r.Context(), sess); err != nil {
				s.Logger.Errorf("sessionMw: Error saving session: %s, err: %v, TraceID: %s", sess.ID, err, tid)
			}
		}
	})
}

// csrfMw lazily creates the session's CSRF secret on safe requests and
// verifies the presented token on state-changing ones. Verification never
// mutates the session.
func (s *Server) csrfMw(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if staticAsset(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		tid := getTraceContext(r.Context()).traceID

		sess, err := session.FromContext(r.Context())
		if err != nil {
			// Session middleware did not run; this is a wiring bug, not a
			// client condition.
			s.Logger.Errorf("csrfMw: No session available, err: %v, TraceID: %s", err, tid)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		if csrf.SafeMethod(r.Method) {
			if err := sess.EnsureCSRFSecret(); err != nil {
				s.Logger.Errorf("csrfMw: Error ensuring CSRF secret, err: %v, TraceID: %s", err, tid)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		if err := csrf.VerifyRequest(r, sess.CSRFSecret); err != nil {
			s.Logger.Debugf("csrfMw: Rejected %s %s, err: %v, TraceID: %s", r.Method, r.URL.Path, err, tid)
			s.writeJsonError(w, "Security token expired. Please refresh and try again.", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireUserMw is the gate in front of the management routes: anonymous
// visitors are redirected to the login page rather than shown an error.
func (s *Server) requireUserMw(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := session.FromContext(r.Context())
		if err != nil {
			s.Logger.Errorf("requireUserMw: No session available, err: %v, TraceID: %s",
				err, getTraceContext(r.Context()).traceID)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		if !sess.LoggedIn() {
			http.Redirect(w, r, "/auth/login", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// csrfToken issues a fresh view token from the session secret. Reissuing
// per render is safe: all tokens derived from one secret stay valid.
func (s *Server) csrfToken(sess *session.Session) string {
	t, err := csrf.IssueToken(sess.CSRFSecret)
	if err != nil {
		s.Logger.Errorf("csrfToken: Error issuing token for session: %s, err: %v", sess.ID, err)
		return ""
	}
	return t
}
