package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"propertysite/internal/client"
	"propertysite/internal/model"
)

// mailTimeout bounds the background email sends that outlive the request.
const mailTimeout = 30 * time.Second

func (s *Server) contactHandler() http.HandlerFunc {
	type response struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		tc := getTraceContext(r.Context())

		var req contactRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("contactHandler: Error decoding request, err: %v, TraceID: %s", err, tc.traceID)
			s.writeJsonError(w, "Could not read the submitted form.", http.StatusBadRequest)
			return
		}
		if err := checkStruct(req); err != nil {
			s.Logger.Debugf("contactHandler: Invalid contact request, err: %v, TraceID: %s", err, tc.traceID)
			s.writeJsonError(w, err.Error(), http.StatusBadRequest)
			return
		}

		remoteIP, _, _ := net.SplitHostPort(r.RemoteAddr)
		if err := s.Client.VerifyRecaptcha(r.Context(), req.RecaptchaToken, remoteIP); err != nil {
			if errors.Is(err, client.ErrRecaptchaRejected) {
				s.Logger.Debugf("contactHandler: Recaptcha rejected, TraceID: %s", tc.traceID)
				s.writeJsonError(w, "We could not verify you are human. Please try again.", http.StatusBadRequest)
				return
			}
			s.Logger.Errorf("contactHandler: Error verifying recaptcha, err: %v, TraceID: %s", err, tc.traceID)
			s.writeJsonError(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		p, err := s.DB.PropertyFindByID(r.Context(), req.PropertyID)
		if err != nil {
			s.Logger.Debugf("contactHandler: Property not found: %s, err: %v, TraceID: %s",
				req.PropertyID, err, tc.traceID)
			s.writeJsonError(w, "Property not found.", http.StatusNotFound)
			return
		}

		if err := s.DB.PropertyInquiriesIncrement(r.Context(), p.ID); err != nil {
			s.Logger.Errorf("contactHandler: Error incrementing inquiries for: %s, err: %v, TraceID: %s",
				req.PropertyID, err, tc.traceID)
		}

		// Respond before the SMTP round trips; the inquiry is recorded and
		// mail failures only get logged.
		s.writeJsonResponse(w, response{Success: true, Message: "Thank you for your inquiry. We will be in touch soon."}, http.StatusOK)

		go s.sendInquiryEmails(p, req, tc.traceID)
	}
}

func (s *Server) sendInquiryEmails(p model.Property, req contactRequest, traceID string) {
	ctx, cancel := context.WithTimeout(context.Background(), mailTimeout)
	defer cancel()

	realtor, err := s.DB.UserFindByID(ctx, p.Realtor.Hex())
	if err != nil {
		s.Logger.Errorf("sendInquiryEmails: Error finding realtor: %s, err: %v, TraceID: %s",
			p.Realtor.Hex(), err, traceID)
		return
	}

	subject, body, err := s.Mailer.InquiryEmail(p, req.Name, req.Email, req.Phone, req.Message)
	if err != nil {
		s.Logger.Errorf("sendInquiryEmails: Error rendering inquiry email, err: %v, TraceID: %s", err, traceID)
		return
	}
	if err := s.Mailer.Send(ctx, realtor.Email, subject, body); err != nil {
		s.Logger.Errorf("sendInquiryEmails: Error sending inquiry email to realtor: %s, err: %v, TraceID: %s",
			realtor.Email, err, traceID)
		return
	}

	subject, body, err = s.Mailer.InquiryConfirmationEmail(p, req.Message)
	if err != nil {
		s.Logger.Errorf("sendInquiryEmails: Error rendering confirmation email, err: %v, TraceID: %s", err, traceID)
		return
	}
	if err := s.Mailer.Send(ctx, req.Email, subject, body); err != nil {
		s.Logger.Errorf("sendInquiryEmails: Error sending confirmation email to: %s, err: %v, TraceID: %s",
			req.Email, err, traceID)
		return
	}
	s.Logger.Debugf("sendInquiryEmails: Inquiry emails sent for property: %s, TraceID: %s", p.ID.Hex(), traceID)
}
