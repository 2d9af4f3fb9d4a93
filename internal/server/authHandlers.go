package server

import (
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"propertysite/internal/session"
)

const loginFailedMessage = "Invalid email or password."

func (s *Server) loginPageHandler() http.HandlerFunc {
	type page struct {
		Error     string
		CSRFToken string
	}
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := session.FromContext(r.Context())
		if err != nil {
			s.Logger.Errorf("loginPageHandler: No session available, err: %v, TraceID: %s",
				err, getTraceContext(r.Context()).traceID)
			s.renderError(w, http.StatusInternalServerError, err)
			return
		}
		if sess.LoggedIn() {
			http.Redirect(w, r, "/manage", http.StatusFound)
			return
		}
		s.render(w, "login.gohtml", page{
			Error:     sess.TakeTransientError(),
			CSRFToken: s.csrfToken(sess),
		})
	}
}

func (s *Server) loginHandler() http.HandlerFunc {
	failLogin := func(w http.ResponseWriter, r *http.Request, sess *session.Session) {
		sess.SetTransientError(loginFailedMessage)
		http.Redirect(w, r, "/auth/login", http.StatusFound)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		tc := getTraceContext(r.Context())
		sess, err := session.FromContext(r.Context())
		if err != nil {
			s.Logger.Errorf("loginHandler: No session available, err: %v, TraceID: %s", err, tc.traceID)
			s.renderError(w, http.StatusInternalServerError, err)
			return
		}

		req := loginRequest{
			Email:    strings.ToLower(strings.TrimSpace(r.PostFormValue("email"))),
			Password: r.PostFormValue("password"),
		}
		if err := checkStruct(req); err != nil {
			s.Logger.Debugf("loginHandler: Invalid login form, err: %v, TraceID: %s", err, tc.traceID)
			failLogin(w, r, sess)
			return
		}

		u, err := s.DB.UserFindByEmail(r.Context(), req.Email)
		if err != nil {
			s.Logger.Debugf("loginHandler: Unknown user: %s, err: %v, TraceID: %s", req.Email, err, tc.traceID)
			failLogin(w, r, sess)
			return
		}
		if err := bcrypt.CompareHashAndPassword(u.Password, []byte(req.Password)); err != nil {
			s.Logger.Debugf("loginHandler: Wrong password for user: %s, TraceID: %s", req.Email, tc.traceID)
			failLogin(w, r, sess)
			return
		}

		sess.SetUser(u)
		s.Logger.Infof("loginHandler: User logged in: %s, role: %s, TraceID: %s", u.Email, u.Role, tc.traceID)
		http.Redirect(w, r, "/manage", http.StatusFound)
	}
}

func (s *Server) logoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tc := getTraceContext(r.Context())
		sess, err := session.FromContext(r.Context())
		if err != nil {
			s.Logger.Errorf("logoutHandler: No session available, err: %v, TraceID: %s", err, tc.traceID)
			s.renderError(w, http.StatusInternalServerError, err)
			return
		}
		if err := s.Sessions.Destroy(r.Context(), sess); err != nil {
			s.Logger.Errorf("logoutHandler: Error destroying session: %s, err: %v, TraceID: %s",
				sess.ID, err, tc.traceID)
		}
		http.SetCookie(w, s.Sessions.ExpiredCookie())
		http.Redirect(w, r, "/", http.StatusFound)
	}
}
