package mailer

import (
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"propertysite/internal/model"
)

func testMailer() *Mailer {
	return &Mailer{from: "listings@example.com", baseURL: "https://example.com"}
}

func testProperty() model.Property {
	return model.Property{
		ID:            primitive.NewObjectID(),
		Title:         "Oceanfront Villa",
		Location:      "Malibu, California",
		Price:         12500000,
		PriceInterval: model.PriceIntervalTotal,
		Beds:          6,
		Baths:         8,
		Sqft:          8500,
		MainImage:     "/images/properties/mainImage-20260102030405-abcd1234.jpg",
		Description:   "Spectacular oceanfront villa.",
	}
}

func TestNewPropertyEmail(t *testing.T) {
	m := testMailer()
	p := testProperty()
	subject, body, err := m.NewPropertyEmail("Sarah", "abc123", p)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if subject != "New Property Available - 12 Properties" {
		t.Fatalf("unexpected subject: %s", subject)
	}
	for _, want := range []string{
		"Hello Sarah",
		"Oceanfront Villa",
		"$12,500,000",
		"https://example.com/property/" + p.ID.Hex(),
		"https://example.com/notifications/opt-out/abc123",
		"https://example.com" + p.MainImage,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected body to contain %q, body:\n%s", want, body)
		}
	}
}

func TestSubscriptionEmail(t *testing.T) {
	m := testMailer()
	p := testProperty()

	_, body, err := m.SubscriptionEmail("Alex", "n1", &p)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(body, "when Oceanfront Villa becomes available") {
		t.Fatalf("expected property-specific confirmation, body:\n%s", body)
	}

	_, body, err = m.SubscriptionEmail("Alex", "n2", nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(body, "when new properties become available") {
		t.Fatalf("expected general confirmation, body:\n%s", body)
	}
	if !strings.Contains(body, "/notifications/opt-out/n2") {
		t.Fatalf("expected opt-out link, body:\n%s", body)
	}
}

func TestInquiryEmails(t *testing.T) {
	m := testMailer()
	p := testProperty()

	subject, body, err := m.InquiryEmail(p, "Alex", "alex@example.com", "", "Is it still available?")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if subject != "New Inquiry for Oceanfront Villa" {
		t.Fatalf("unexpected subject: %s", subject)
	}
	if !strings.Contains(body, "Not provided") {
		t.Fatalf("expected missing phone placeholder, body:\n%s", body)
	}
	if !strings.Contains(body, "Is it still available?") {
		t.Fatalf("expected message in body:\n%s", body)
	}

	_, body, err = m.InquiryConfirmationEmail(p, "Is it still available?")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(body, "Oceanfront Villa") || !strings.Contains(body, "Is it still available?") {
		t.Fatalf("unexpected confirmation body:\n%s", body)
	}
}

func TestTemplatesEscapeHTML(t *testing.T) {
	m := testMailer()
	p := testProperty()
	_, body, err := m.InquiryEmail(p, "<script>alert(1)</script>", "a@b.c", "", "msg")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(body, "<script>") {
		t.Fatal("expected user input to be escaped")
	}
}
