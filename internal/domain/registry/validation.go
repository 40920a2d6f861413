package registry

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/attornatus/backend/internal/domain/shared"
	"github.com/go-playground/validator/v10"
)

// DateLayout is the wire format of calendar dates
const DateLayout = "2006-01-02"

var postalCodePattern = regexp.MustCompile(`^\d{5}-?\d{3}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("cpf", func(fl validator.FieldLevel) bool {
		return IsValidCPF(fl.Field().String())
	})
	_ = v.RegisterValidation("postalcode", func(fl validator.FieldLevel) bool {
		return postalCodePattern.MatchString(strings.TrimSpace(fl.Field().String()))
	})
	// Unparseable dates pass here; the datetime tag reports them.
	_ = v.RegisterValidation("notfuture", func(fl validator.FieldLevel) bool {
		d, err := time.Parse(DateLayout, fl.Field().String())
		if err != nil {
			return true
		}
		return !d.After(DateOnly(time.Now()))
	})
	return v
}

// PersonInput holds the person fields of a registration request
type PersonInput struct {
	Name                 string `json:"name" validate:"required,max=200"`
	IdentificationNumber string `json:"identification_number" validate:"required,cpf"`
	BirthDate            string `json:"birth_date" validate:"required,datetime=2006-01-02,notfuture"`
}

// AddressInput holds what a caller supplies to resolve an address
type AddressInput struct {
	PostalCode  string `json:"postal_code" validate:"required,postalcode"`
	HouseNumber *int   `json:"house_number" validate:"required,gt=0"`
}

// RegistrationInput is a person together with their first address
type RegistrationInput struct {
	PersonInput
	AddressInput
}

// UpdateInput holds the optional fields of an update request.
// A nil field was not provided.
type UpdateInput struct {
	Name      *string `json:"name" validate:"omitempty,max=200"`
	BirthDate *string `json:"birth_date" validate:"omitempty,datetime=2006-01-02,notfuture"`
}

// ValidateRegistration checks every field of a registration request and
// reports all violations at once.
func ValidateRegistration(in RegistrationInput) error {
	return check(in)
}

// ValidateAddress checks an address request
func ValidateAddress(in AddressInput) error {
	return check(in)
}

// ValidateUpdate checks an update request
func ValidateUpdate(in UpdateInput) error {
	return check(in)
}

// ParsedBirthDate returns the birth date of a validated input
func (in PersonInput) ParsedBirthDate() time.Time {
	d, _ := time.Parse(DateLayout, in.BirthDate)
	return d
}

// Patch converts a validated update request into a PersonPatch
func (in UpdateInput) Patch() PersonPatch {
	var patch PersonPatch
	if in.Name != nil {
		patch.Name = shared.Some(*in.Name)
	}
	if in.BirthDate != nil {
		if d, err := time.Parse(DateLayout, *in.BirthDate); err == nil {
			patch.BirthDate = shared.Some(d)
		}
	}
	return patch
}

func check(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	verr := shared.NewValidationError()
	for _, fe := range fieldErrs {
		verr.Add(fe.Field(), violationMessage(fe))
	}
	return verr.OrNil()
}

// fieldMessages overrides the generic message for a field/tag pair
var fieldMessages = map[string]string{
	"name.required":                  "Name must not be empty",
	"identification_number.required": "CPF must not be empty",
	"identification_number.cpf":      "CPF is invalid",
	"birth_date.required":            "Birthday must not be null",
	"birth_date.notfuture":           "Birthday must not be in the future",
	"birth_date.datetime":            "Birthday must be a date formatted as YYYY-MM-DD",
	"postal_code.required":           "Zipcode must not be empty",
	"postal_code.postalcode":         "zipcode pattern should be: '99999999'",
	"house_number.required":          "Number cannot be null",
	"house_number.gt":                "Number must be positive",
}

func violationMessage(fe validator.FieldError) string {
	if msg, ok := fieldMessages[fe.Field()+"."+fe.Tag()]; ok {
		return msg
	}
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "max":
		return fe.Field() + " must be at most " + fe.Param() + " characters"
	case "datetime":
		return fe.Field() + " must match " + fe.Param()
	default:
		return fe.Field() + " is invalid"
	}
}
