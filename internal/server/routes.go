package server

import (
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

// Router assembles the full HTTP surface. Middleware order matters: logging
// wraps everything, rate limiting and body caps run before any parsing, and
// CSRF checks require the session to already be resolved.
func (s *Server) Router() http.Handler {
	router := mux.NewRouter()
	router.Use(
		s.loggingMw,
		s.securityHeadersMw,
		s.rateLimitMw(s.Config.RateLimitMax, s.Config.RateLimitWindow),
		s.maxBytesMw,
		s.sessionMw,
		s.csrfMw,
	)
	router.NotFoundHandler = s.notFoundHandler()

	router.HandleFunc("/", s.homeHandler()).Methods(http.MethodGet)
	router.HandleFunc("/properties", s.propertyListHandler()).Methods(http.MethodGet)
	router.HandleFunc("/property/{propertyID}", s.propertyDetailsHandler()).Methods(http.MethodGet)
	router.HandleFunc("/contact", s.contactHandler()).Methods(http.MethodPost)

	auth := router.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/login", s.loginPageHandler()).Methods(http.MethodGet)
	auth.Handle("/login",
		s.rateLimitMw(s.Config.LoginRateLimitMax, s.Config.RateLimitWindow)(s.loginHandler()),
	).Methods(http.MethodPost)
	auth.HandleFunc("/logout", s.logoutHandler()).Methods(http.MethodPost)

	manage := router.PathPrefix("/manage").Subrouter()
	manage.Use(s.requireUserMw)
	manage.HandleFunc("", s.dashboardHandler()).Methods(http.MethodGet)
	manage.HandleFunc("/new", s.propertyFormPageHandler(false)).Methods(http.MethodGet)
	manage.HandleFunc("/new", s.propertyCreateHandler()).Methods(http.MethodPost)
	manage.HandleFunc("/edit/{propertyID}", s.propertyFormPageHandler(true)).Methods(http.MethodGet)
	manage.HandleFunc("/edit/{propertyID}", s.propertyUpdateHandler()).Methods(http.MethodPost)
	manage.HandleFunc("/api/properties/{propertyID}", s.propertyDeleteHandler()).Methods(http.MethodDelete)

	notifications := router.PathPrefix("/notifications").Subrouter()
	notifications.HandleFunc("/notify", s.notifySubscribeHandler()).Methods(http.MethodPost)
	notifications.HandleFunc("/opt-out/{notificationID}", s.optOutHandler()).Methods(http.MethodGet)

	uploads := http.FileServer(http.Dir(s.Config.UploadDir))
	router.PathPrefix("/images/").Handler(uploads).Methods(http.MethodGet)
	router.PathPrefix("/videos/").Handler(uploads).Methods(http.MethodGet)

	router.PathPrefix("/static/").Handler(
		http.StripPrefix("/static/", http.FileServer(http.FS(staticAssets))),
	).Methods(http.MethodGet)

	return handlers.CORS(
		handlers.AllowedOrigins(s.Config.AllowedOrigins),
		handlers.AllowedMethods([]string{
			http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions,
		}),
		handlers.AllowedHeaders([]string{"Content-Type", "csrf-token", "x-csrf-token"}),
		handlers.AllowCredentials(),
	)(router)
}
