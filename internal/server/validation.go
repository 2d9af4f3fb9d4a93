package server

import (
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type loginRequest struct {
	Email    string `validate:"required,email,max=254"`
	Password string `validate:"required,min=8,max=72"`
}

type contactRequest struct {
	Name           string `json:"name" validate:"required,max=100"`
	Email          string `json:"email" validate:"required,email,max=254"`
	Phone          string `json:"phone" validate:"omitempty,max=30"`
	Message        string `json:"message" validate:"required,max=2000"`
	PropertyID     string `json:"propertyId" validate:"required,len=24,hexadecimal"`
	RecaptchaToken string `json:"recaptchaToken" validate:"required"`
}

// notifyRequest's PropertyID is either a listing's hex ID or the literal
// "coming-soon" for a general subscription; the handler distinguishes them.
type notifyRequest struct {
	Name       string `json:"name" validate:"required,max=100"`
	Email      string `json:"email" validate:"required,email,max=254"`
	PropertyID string `json:"propertyId" validate:"omitempty,max=24"`
}

type propertyForm struct {
	Title         string  `validate:"required,max=200"`
	Description   string  `validate:"required,max=5000"`
	Location      string  `validate:"required,max=200"`
	Price         int     `validate:"required,gt=0"`
	PriceInterval string  `validate:"required,oneof=total monthly"`
	Status        string  `validate:"required,oneof=Active Pending Sold 'Coming Soon'"`
	ListingType   string  `validate:"required,oneof=sale rental"`
	Beds          int     `validate:"gte=0,lte=100"`
	Baths         float64 `validate:"gte=0,lte=100"`
	Sqft          int     `validate:"gte=0"`
}

// checkStruct runs the shared validator and folds the first failure into a
// single error suitable for a client-facing message.
func checkStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) && len(vErrs) > 0 {
		f := vErrs[0]
		return errors.Errorf("invalid field %#v, failed rule %#v", f.Field(), f.Tag())
	}
	return errors.Wrap(err, "validating input")
}
