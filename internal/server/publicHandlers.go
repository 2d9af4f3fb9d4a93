package server

import (
	"net/http"

	"github.com/gorilla/mux"

	"propertysite/internal/database"
	"propertysite/internal/model"
	"propertysite/internal/session"
)

func (s *Server) homeHandler() http.HandlerFunc {
	type page struct {
		Featured      []model.Property
		OptOutSuccess bool
		OptOutError   bool
	}
	return func(w http.ResponseWriter, r *http.Request) {
		featured, err := s.Featured.Get(r.Context())
		if err != nil {
			// The home page still renders without the featured strip.
			s.Logger.Errorf("homeHandler: Error getting featured properties, err: %v, TraceID: %s",
				err, getTraceContext(r.Context()).traceID)
			featured = nil
		}
		s.render(w, "index.gohtml", page{
			Featured:      featured,
			OptOutSuccess: r.URL.Query().Get("optOutSuccess") == "true",
			OptOutError:   r.URL.Query().Get("optOutError") == "true",
		})
	}
}

func (s *Server) propertyListHandler() http.HandlerFunc {
	type page struct {
		Properties  []model.Property
		Status      string
		ListingType string
	}
	return func(w http.ResponseWriter, r *http.Request) {
		q := database.PropertyQuery{}
		if st := r.URL.Query().Get("status"); model.ValidStatus(st) {
			q.Status = st
		}
		switch lt := r.URL.Query().Get("listingType"); lt {
		case model.ListingTypeSale, model.ListingTypeRental:
			q.ListingType = lt
		}

		ps, err := s.DB.PropertiesFind(r.Context(), q)
		if err != nil {
			s.Logger.Errorf("propertyListHandler: Error finding properties, err: %v, TraceID: %s",
				err, getTraceContext(r.Context()).traceID)
			s.renderError(w, http.StatusInternalServerError, err)
			return
		}
		s.render(w, "properties.gohtml", page{Properties: ps, Status: q.Status, ListingType: q.ListingType})
	}
}

func (s *Server) propertyDetailsHandler() http.HandlerFunc {
	type page struct {
		Property  model.Property
		CSRFToken string
	}
	return func(w http.ResponseWriter, r *http.Request) {
		tc := getTraceContext(r.Context())
		id := mux.Vars(r)["propertyID"]

		p, err := s.DB.PropertyFindByID(r.Context(), id)
		if err != nil {
			s.Logger.Debugf("propertyDetailsHandler: Property not found: %s, err: %v, TraceID: %s", id, err, tc.traceID)
			s.renderError(w, http.StatusNotFound, nil)
			return
		}

		// View counting is best effort; the page renders either way.
		if err := s.DB.PropertyViewsIncrement(r.Context(), p.ID); err != nil {
			s.Logger.Errorf("propertyDetailsHandler: Error incrementing views for: %s, err: %v, TraceID: %s",
				id, err, tc.traceID)
		}

		sess, err := session.FromContext(r.Context())
		if err != nil {
			s.Logger.Errorf("propertyDetailsHandler: No session available, err: %v, TraceID: %s", err, tc.traceID)
			s.renderError(w, http.StatusInternalServerError, err)
			return
		}
		s.render(w, "property.gohtml", page{Property: p, CSRFToken: s.csrfToken(sess)})
	}
}
