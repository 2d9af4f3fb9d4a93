package mailer

import (
	"html/template"
	"strings"

	"github.com/pkg/errors"

	"propertysite/internal/model"
)

var newPropertyTmpl = template.Must(template.New("newProperty").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2>Hello {{.Name}},</h2>
  <h2>New Property Available!</h2>
  <div style="margin: 20px 0;">
    <img src="{{.BaseURL}}{{.Property.MainImage}}" alt="{{.Property.Title}}" style="max-width: 100%; height: auto;">
  </div>
  <h3>{{.Property.Title}}</h3>
  <p><strong>Location:</strong> {{.Property.Location}}</p>
  <p><strong>Price:</strong> {{.Property.FormattedPrice}}</p>
  <ul>
    <li>{{.Property.Beds}} Bedrooms</li>
    <li>{{.Property.Baths}} Bathrooms</li>
    <li>{{.Property.Sqft}} sq.ft</li>
  </ul>
  <p>{{.Property.Description}}</p>
  <p><a href="{{.BaseURL}}/property/{{.Property.ID.Hex}}">View Full Property Details</a></p>
  <hr>
  <p><small>You received this email because you subscribed to property notifications.
  <a href="{{.BaseURL}}/notifications/opt-out/{{.NotificationID}}">Opt Out</a></small></p>
</div>`))

var subscriptionTmpl = template.Must(template.New("subscription").Parse(`
<h2>Notification Confirmation</h2>
<p>Hello {{.Name}},</p>
{{if .Property}}
<p>You will be notified when {{.Property.Title}} becomes available.</p>
<p>Property Details:</p>
<ul>
  <li>Location: {{.Property.Location}}</li>
  <li>Price: {{.Property.FormattedPrice}}</li>
</ul>
{{else}}
<p>Thank you for your interest! You will be notified when new properties become available.</p>
{{end}}
<hr>
<p style="font-size: 12px; color: #666;">
  To opt out of future notifications, click here:
  <a href="{{.BaseURL}}/notifications/opt-out/{{.NotificationID}}">Opt Out</a>
</p>`))

var inquiryTmpl = template.Must(template.New("inquiry").Parse(`
<h2>New Property Inquiry</h2>
<p><strong>Property:</strong> {{.Property.Title}}</p>
<p><strong>From:</strong> {{.Name}}</p>
<p><strong>Email:</strong> {{.Email}}</p>
<p><strong>Phone:</strong> {{.Phone}}</p>
<p><strong>Message:</strong></p>
<p>{{.Message}}</p>`))

var inquiryConfirmationTmpl = template.Must(template.New("inquiryConfirmation").Parse(`
<h2>Thank you for your inquiry</h2>
<p>We have received your message about {{.Property.Title}} and forwarded it to the property agent.</p>
<p>They will contact you shortly.</p>
<p><strong>Your message:</strong></p>
<p>{{.Message}}</p>`))

// NewPropertyEmail is the broadcast sent to a subscriber when a listing
// becomes active.
func (m *Mailer) NewPropertyEmail(subscriberName, notificationID string, p model.Property) (subject, body string, err error) {
	body, err = render(newPropertyTmpl, map[string]any{
		"Name":           subscriberName,
		"Property":       p,
		"BaseURL":        m.baseURL,
		"NotificationID": notificationID,
	})
	return "New Property Available - 12 Properties", body, err
}

// SubscriptionEmail confirms a new notification subscription; p is nil for
// general subscriptions.
func (m *Mailer) SubscriptionEmail(subscriberName, notificationID string, p *model.Property) (subject, body string, err error) {
	body, err = render(subscriptionTmpl, map[string]any{
		"Name":           subscriberName,
		"Property":       p,
		"BaseURL":        m.baseURL,
		"NotificationID": notificationID,
	})
	return "Property Notification Confirmation", body, err
}

// InquiryEmail goes to the listing's realtor when someone uses the contact
// form.
func (m *Mailer) InquiryEmail(p model.Property, name, email, phone, message string) (subject, body string, err error) {
	if phone == "" {
		phone = "Not provided"
	}
	body, err = render(inquiryTmpl, map[string]any{
		"Property": p,
		"Name":     name,
		"Email":    email,
		"Phone":    phone,
		"Message":  message,
	})
	return "New Inquiry for " + p.Title, body, err
}

// InquiryConfirmationEmail goes back to the person who asked.
func (m *Mailer) InquiryConfirmationEmail(p model.Property, message string) (subject, body string, err error) {
	body, err = render(inquiryConfirmationTmpl, map[string]any{
		"Property": p,
		"Message":  message,
	})
	return "Property Inquiry Confirmation", body, err
}

func render(t *template.Template, data any) (string, error) {
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", errors.Wrapf(err, "error rendering mail template: %s", t.Name())
	}
	return b.String(), nil
}
