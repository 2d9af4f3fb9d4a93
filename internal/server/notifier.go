package server

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"propertysite/internal/misc"
	"propertysite/internal/model"
)

const notifyTimeout = 2 * time.Minute

// notifySubscribers emails everyone with a pending subscription matching the
// listing, marking each one notified only after its send succeeds. The first
// send failure aborts the pass; unmarked subscribers are picked up again the
// next time the listing activates.
func (s *Server) notifySubscribers(ctx context.Context, p model.Property) (int, error) {
	pending, err := s.DB.NotificationsFindPending(ctx, p.ID)
	if err != nil {
		return 0, errors.Wrapf(err, "error finding pending notifications for property: %s", p.ID.Hex())
	}

	sent := 0
	for _, n := range pending {
		subject, body, err := s.Mailer.NewPropertyEmail(n.Name, n.ID.Hex(), p)
		if err != nil {
			return sent, errors.Wrapf(err, "error rendering notification email: %s", n.ID.Hex())
		}
		if err := s.Mailer.Send(ctx, n.Email, subject, body); err != nil {
			return sent, errors.Wrapf(err, "error sending notification email: %s to: %s", n.ID.Hex(), n.Email)
		}
		if err := s.DB.NotificationMarkNotified(ctx, n.ID); err != nil {
			// Already sent; a later pass may email this subscriber again.
			return sent + 1, errors.Wrapf(err, "error marking notification sent: %s", n.ID.Hex())
		}
		sent++
	}
	return sent, nil
}

// dispatchNotifications runs the subscriber pass in the background so listing
// writes do not wait on SMTP.
func (s *Server) dispatchNotifications(p model.Property, traceID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		sent, err := s.notifySubscribers(ctx, p)
		title := misc.StringLimit(p.Title, 40)
		if err != nil {
			s.Logger.Errorf("dispatchNotifications: Notified %d subscribers for %#v then failed, err: %v, TraceID: %s",
				sent, title, err, traceID)
			return
		}
		s.Logger.Infof("dispatchNotifications: Notified %d subscribers for %#v, TraceID: %s", sent, title, traceID)
	}()
}
