package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/mongo"

	"propertysite/internal/model"
)

// generalSubscriptionID is the pseudo property ID the public form submits to
// subscribe to all upcoming listings rather than one.
const generalSubscriptionID = "coming-soon"

func (s *Server) notifySubscribeHandler() http.HandlerFunc {
	type response struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		tc := getTraceContext(r.Context())

		var req notifyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("notifySubscribeHandler: Error decoding request, err: %v, TraceID: %s", err, tc.traceID)
			s.writeJsonError(w, "Could not read the submitted form.", http.StatusBadRequest)
			return
		}
		if err := checkStruct(req); err != nil {
			s.Logger.Debugf("notifySubscribeHandler: Invalid request, err: %v, TraceID: %s", err, tc.traceID)
			s.writeJsonError(w, err.Error(), http.StatusBadRequest)
			return
		}

		n := model.PropertyNotification{
			Name:  req.Name,
			Email: strings.ToLower(strings.TrimSpace(req.Email)),
			Type:  model.NotificationTypeGeneral,
		}

		var property *model.Property
		if req.PropertyID != "" && req.PropertyID != generalSubscriptionID {
			p, err := s.DB.PropertyFindByID(r.Context(), req.PropertyID)
			if err != nil || p.Status != model.StatusComingSoon {
				s.Logger.Debugf("notifySubscribeHandler: No upcoming property: %s, err: %v, TraceID: %s",
					req.PropertyID, err, tc.traceID)
				s.writeJsonError(w, "Property not found.", http.StatusNotFound)
				return
			}
			n.Type = model.NotificationTypeProperty
			n.PropertyID = &p.ID
			property = &p
		}

		id, err := s.DB.NotificationInsert(r.Context(), n)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				s.writeJsonError(w, "This email address is already subscribed for updates.", http.StatusBadRequest)
				return
			}
			s.Logger.Errorf("notifySubscribeHandler: Error inserting notification, err: %v, TraceID: %s",
				err, tc.traceID)
			s.writeJsonError(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		s.Logger.Infof("notifySubscribeHandler: Subscription created: %s, type: %s, TraceID: %s",
			id, n.Type, tc.traceID)

		s.writeJsonResponse(w, response{Success: true, Message: "You are subscribed. We will email you with updates."}, http.StatusOK)

		go s.sendSubscriptionEmail(n.Name, n.Email, id, property, tc.traceID)
	}
}

func (s *Server) sendSubscriptionEmail(name, email, notificationID string, p *model.Property, traceID string) {
	ctx, cancel := context.WithTimeout(context.Background(), mailTimeout)
	defer cancel()

	subject, body, err := s.Mailer.SubscriptionEmail(name, notificationID, p)
	if err != nil {
		s.Logger.Errorf("sendSubscriptionEmail: Error rendering email, err: %v, TraceID: %s", err, traceID)
		return
	}
	if err := s.Mailer.Send(ctx, email, subject, body); err != nil {
		s.Logger.Errorf("sendSubscriptionEmail: Error sending email to: %s, err: %v, TraceID: %s",
			email, err, traceID)
	}
}

// optOutHandler serves the unsubscribe links embedded in notification emails.
// Outcomes land on the home page as flash banners rather than a bare status.
func (s *Server) optOutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tc := getTraceContext(r.Context())
		id := mux.Vars(r)["notificationID"]

		if _, err := s.DB.NotificationFindByID(r.Context(), id); err != nil {
			s.Logger.Debugf("optOutHandler: Notification not found: %s, err: %v, TraceID: %s", id, err, tc.traceID)
			http.Redirect(w, r, "/?optOutError=true", http.StatusFound)
			return
		}
		if err := s.DB.NotificationDelete(r.Context(), id); err != nil {
			s.Logger.Errorf("optOutHandler: Error deleting notification: %s, err: %v, TraceID: %s",
				id, err, tc.traceID)
			http.Redirect(w, r, "/?optOutError=true", http.StatusFound)
			return
		}
		s.Logger.Infof("optOutHandler: Subscription removed: %s, TraceID: %s", id, tc.traceID)
		http.Redirect(w, r, "/?optOutSuccess=true", http.StatusFound)
	}
}
