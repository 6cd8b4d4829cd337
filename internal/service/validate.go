package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/staybook/internal/model"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields under their JSON names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("mixedpassword", func(fl validator.FieldLevel) bool {
		var lower, upper, digit bool
		for _, r := range fl.Field().String() {
			switch {
			case unicode.IsLower(r):
				lower = true
			case unicode.IsUpper(r):
				upper = true
			case unicode.IsDigit(r):
				digit = true
			}
		}
		return lower && upper && digit
	})
	return v
}

// messages is keyed by "<json field>.<tag>".
var messages = map[string]string{
	"username.required":        "Username is required",
	"username.min":             "Username must be at least 3 characters",
	"username.max":             "Username must be at most 20 characters",
	"password.required":        "Password is required",
	"password.min":             "Password must be at least 6 characters",
	"password.mixedpassword":   "Password must contain at least one uppercase letter, one lowercase letter, and one number",
	"confirmPassword.required": "Please confirm your password",
	"confirmPassword.eqfield":  "Passwords must match",

	"rating.required":   "Rating is required",
	"rating.min":        "Rating is required",
	"rating.max":        "Rating must be between 1 and 5",
	"title.required":    "Title is required",
	"title.min":         "Title must be at least 5 characters",
	"title.max":         "Title must be at most 100 characters",
	"comment.required":  "Comment is required",
	"comment.min":       "Comment must be at least 20 characters",
	"comment.max":       "Comment must be at most 1000 characters",
	"pros.min":          "Please add at least one positive aspect",
	"pros.max":          "Maximum 5 positive aspects allowed",
	"cons.max":          "Maximum 5 negative aspects allowed",
	"response.required": "Response is required",
	"response.min":      "Response must be at least 10 characters",
	"response.max":      "Response must be at most 500 characters",

	"description.required": "Description is required",
	"location.required":    "Location is required",
	"image.required":       "Image URL is required",
	"image.url":            "Image must be a valid URL",
	"price.min":            "Price cannot be negative",
	"bedrooms.min":         "Bedrooms must be at least 1",
	"bathrooms.min":        "Bathrooms must be at least 1",
	"maxGuests.min":        "Max guests must be at least 1",
}

// check runs the struct rules on v and converts failures into a
// ValidationError with one message per field.
func check(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		field := fe.Field()
		if _, seen := out.Fields[field]; seen {
			continue
		}
		msg, ok := messages[field+"."+fe.Tag()]
		if !ok {
			msg = fmt.Sprintf("%s is invalid", field)
		}
		out.Fields[field] = msg
	}
	return out
}

// RegisterInput is the sign-up form.
type RegisterInput struct {
	Username        string `json:"username" validate:"required,min=3,max=20"`
	Password        string `json:"password" validate:"required,min=6,mixedpassword"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

// ListingInput is the admin listing form.
type ListingInput struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
	Location    string `json:"location" validate:"required"`
	Price       int64  `json:"price" validate:"min=0"`
	Bedrooms    int    `json:"bedrooms" validate:"min=1"`
	Bathrooms   int    `json:"bathrooms" validate:"min=1"`
	MaxGuests   int    `json:"maxGuests" validate:"min=1"`
	Image       string `json:"image" validate:"required,url"`
}

func (in ListingInput) normalize() ListingInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Location = strings.TrimSpace(in.Location)
	in.Image = strings.TrimSpace(in.Image)
	return in
}

func (in ListingInput) listing(id uint64) model.Listing {
	return model.Listing{
		ID: id, Title: in.Title, Description: in.Description, Location: in.Location,
		Price: in.Price, Bedrooms: in.Bedrooms, Bathrooms: in.Bathrooms,
		MaxGuests: in.MaxGuests, Image: in.Image,
	}
}

// BookingInput is the reservation form.
type BookingInput struct {
	ListingID uint64     `json:"-"`
	StartDate model.Date `json:"startDate"`
	EndDate   model.Date `json:"endDate"`
}

// validateStay applies the date rules shared by quoting and booking.
// Start may be today; end must be strictly after start.
func validateStay(start, end, today model.Date) error {
	fields := map[string]string{}
	switch {
	case start.IsZero():
		fields["startDate"] = "Start date is required"
	case start.Before(today):
		fields["startDate"] = "Start date cannot be in the past"
	}
	switch {
	case end.IsZero():
		fields["endDate"] = "End date is required"
	case !start.IsZero() && !end.After(start):
		fields["endDate"] = "End date must be after start date"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// ReviewInput is the review form.  Blank pros and cons are dropped before
// the list rules apply.
type ReviewInput struct {
	ListingID uint64   `json:"-"`
	Rating    int      `json:"rating" validate:"required,min=1,max=5"`
	Title     string   `json:"title" validate:"required,min=5,max=100"`
	Comment   string   `json:"comment" validate:"required,min=20,max=1000"`
	Pros      []string `json:"pros" validate:"min=1,max=5"`
	Cons      []string `json:"cons" validate:"max=5"`
}

func (in ReviewInput) normalize() ReviewInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Comment = strings.TrimSpace(in.Comment)
	in.Pros = nonBlank(in.Pros)
	in.Cons = nonBlank(in.Cons)
	return in
}

func nonBlank(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

type responseInput struct {
	Response string `json:"response" validate:"required,min=10,max=500"`
}
