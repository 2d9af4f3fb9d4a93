package model

import (
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	StatusActive     = "Active"
	StatusPending    = "Pending"
	StatusSold       = "Sold"
	StatusComingSoon = "Coming Soon"
)

const (
	PriceIntervalTotal   = "total"
	PriceIntervalMonthly = "monthly"
)

const (
	ListingTypeSale   = "sale"
	ListingTypeRental = "rental"
)

type Property struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title         string             `bson:"title" json:"title"`
	Description   string             `bson:"description" json:"description"`
	Location      string             `bson:"location" json:"location"`
	Price         int                `bson:"price" json:"price"`
	PriceInterval string             `bson:"price_interval" json:"priceInterval"`
	Status        string             `bson:"status" json:"status"`
	Beds          int                `bson:"beds" json:"beds"`
	Baths         float64            `bson:"baths" json:"baths"`
	Sqft          int                `bson:"sqft" json:"sqft"`
	MainImage     string             `bson:"main_image" json:"mainImage"`
	Images        []string           `bson:"images" json:"images"`
	MainVideo     *VideoRef          `bson:"main_video,omitempty" json:"mainVideo,omitempty"`
	Videos        []VideoRef         `bson:"videos" json:"videos"`
	Features      []string           `bson:"features" json:"features"`
	Views         int                `bson:"views" json:"views"`
	Inquiries     int                `bson:"inquiries" json:"inquiries"`
	Realtor       primitive.ObjectID `bson:"realtor" json:"realtor"`
	ListingType   string             `bson:"listing_type" json:"listingType"`
	CreatedAt     primitive.DateTime `bson:"created_at" json:"-"`
	LastModified  primitive.DateTime `bson:"last_modified" json:"lastModified"`
}

type VideoRef struct {
	URL       string `bson:"url" json:"url"`
	Thumbnail string `bson:"thumbnail,omitempty" json:"thumbnail,omitempty"`
	Duration  int    `bson:"duration,omitempty" json:"duration,omitempty"`
	Title     string `bson:"title,omitempty" json:"title,omitempty"`
}

// OwnedBy reports whether the given session user ID matches the listing's
// realtor.
func (p Property) OwnedBy(userID string) bool {
	return p.Realtor.Hex() == userID
}

// FormattedPrice renders the price for views, e.g. "$1,250,000" or
// "$3,500/month" for rentals billed monthly.
func (p Property) FormattedPrice() string {
	s := strconv.Itoa(p.Price)
	var b strings.Builder
	b.WriteByte('$')
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if p.PriceInterval == PriceIntervalMonthly {
		b.WriteString("/month")
	}
	return b.String()
}

func ValidStatus(s string) bool {
	switch s {
	case StatusActive, StatusPending, StatusSold, StatusComingSoon:
		return true
	}
	return false
}
