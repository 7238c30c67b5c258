// internal/form/validate.go
//
// Forms subsystem: profile validation.
//
// Context
//   The rule set is the struct below.  Each field carries its constraints as
//   go-playground/validator tags, evaluated left to right.  The validator
//   stops at the first failing tag of a field but always visits every field,
//   which gives exactly one message per invalid field and a complete map.
//
// Workflow
//   •  Validate copies a profile.Draft into a submission and runs the rules.
//   •  Each validator.FieldError becomes one ErrorMap entry, keyed by the flat
//      profile name and worded by the FormDef messages.
//   •  The result is a value: same draft in, same map out.
//
// Rule tags
//   required, email, min, eqfield   validator built-ins
//   hasdigit, hasupper, haslower    password character classes (ASCII)
//   agepresence                     fails on empty age only when RequireAge
//   numeral, minval, maxval         numeric parse and inclusive range
//   caldate                         calendar date in DateLayout
//   offered                         value is one of the FormDef options
//
//------------------------------------------------------------------------------

package form

import (
	"errors"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/yanizio/profileform/internal/profile"
)

// DateLayout is the value format of <input type="date">.
const DateLayout = "2006-01-02"

// submission is the declarative rule set.  JSON names double as error keys.
type submission struct {
	FirstName       string   `json:"firstName"       validate:"required"`
	LastName        string   `json:"lastName"        validate:"required"`
	Email           string   `json:"email"           validate:"required,email"`
	PhoneNumber     string   `json:"phoneNumber"     validate:"required"`
	Password        string   `json:"password"        validate:"required,min=8,hasdigit,hasupper,haslower"`
	ConfirmPassword string   `json:"confirmPassword" validate:"required,eqfield=Password"`
	Age             string   `json:"age"             validate:"agepresence,omitempty,numeral,minval=18,maxval=100"`
	Gender          string   `json:"gender"          validate:"required,offered"`
	Interests       []string `json:"interests"       validate:"min=1"`
	BirthDate       string   `json:"birthDate"       validate:"required,caldate"`
	City            string   `json:"city"            validate:"required"`
	State           string   `json:"state"           validate:"required"`
	Country         string   `json:"country"         validate:"required"`
	Pincode         string   `json:"pincode"         validate:"required"`
}

func fromDraft(d profile.Draft) submission {
	return submission{
		FirstName:       d.FirstName,
		LastName:        d.LastName,
		Email:           d.Email,
		PhoneNumber:     d.PhoneNumber,
		Password:        d.Password,
		ConfirmPassword: d.ConfirmPassword,
		Age:             d.Age,
		Gender:          d.Gender,
		Interests:       d.Interests.Items(),
		BirthDate:       d.BirthDate,
		City:            d.Address.City,
		State:           d.Address.State,
		Country:         d.Address.Country,
		Pincode:         d.Address.Pincode,
	}
}

// -----------------------------------------------------------------------------
// Result types
// -----------------------------------------------------------------------------

// Result is the outcome of one validation run.  Errors is never nil.  Draft
// is the snapshot that was validated; it stays server-side.
type Result struct {
	Valid  bool             `json:"valid"`
	Errors profile.ErrorMap `json:"errors"`
	Draft  profile.Draft    `json:"-"`
}

// Violation describes a single validation failure so the template can render
// a field-level message.
type Violation struct {
	Field   profile.Field `json:"field"`
	Message string        `json:"message"`
}

// Violations lists the result's errors in form order.
func (r Result) Violations() []Violation {
	out := make([]Violation, 0, len(r.Errors))
	for _, f := range r.Errors.Fields() {
		out = append(out, Violation{Field: f, Message: r.Errors[f]})
	}
	return out
}

// ValidationError wraps an ErrorMap and satisfies the error interface.
//
// It allows callers to distinguish user input errors from system failures
// via errors.As or IsValidationError.
type ValidationError struct{ Errors profile.ErrorMap }

func (ve ValidationError) Error() string {
	return "form validation failed: " + strconv.Itoa(len(ve.Errors)) + " field(s)"
}

// -----------------------------------------------------------------------------
// Validator
// -----------------------------------------------------------------------------

// Options adjusts policy without touching the rule set.
type Options struct {
	// RequireAge reports an empty age instead of treating it as omitted.
	RequireAge bool
}

// Validator evaluates drafts against the rule set.  Safe for concurrent use.
type Validator struct {
	def *FormDef
	v   *validator.Validate
}

// NewValidator binds the rule set to def's options and messages.  A nil def
// selects the registered default.
func NewValidator(def *FormDef, opts Options) *Validator {
	if def == nil {
		def = Default()
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(sf reflect.StructField) string {
		name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	rules := map[string]validator.Func{
		"hasdigit": containsClass('0', '9'),
		"hasupper": containsClass('A', 'Z'),
		"haslower": containsClass('a', 'z'),
		"numeral": func(fl validator.FieldLevel) bool {
			_, ok := parseNumber(fl.Field().String())
			return ok
		},
		"minval": func(fl validator.FieldLevel) bool {
			n, ok := parseNumber(fl.Field().String())
			lim, err := strconv.ParseFloat(fl.Param(), 64)
			return ok && err == nil && n >= lim
		},
		"maxval": func(fl validator.FieldLevel) bool {
			n, ok := parseNumber(fl.Field().String())
			lim, err := strconv.ParseFloat(fl.Param(), 64)
			return ok && err == nil && n <= lim
		},
		"caldate": func(fl validator.FieldLevel) bool {
			_, err := time.Parse(DateLayout, strings.TrimSpace(fl.Field().String()))
			return err == nil
		},
		"agepresence": func(fl validator.FieldLevel) bool {
			return !opts.RequireAge || fl.Field().String() != ""
		},
		"offered": func(fl validator.FieldLevel) bool {
			f, err := profile.ParseField(fl.FieldName())
			return err == nil && def.Offers(f, fl.Field().String())
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic("form: register rule " + tag + ": " + err.Error())
		}
	}

	return &Validator{def: def, v: v}
}

// Def returns the definition the validator words its messages with.
func (val *Validator) Def() *FormDef { return val.def }

// Validate evaluates every rule against d and returns the complete result.
// It never panics on user input and never returns a partial map.
func (val *Validator) Validate(d profile.Draft) Result {
	errs := make(profile.ErrorMap)

	err := val.v.Struct(fromDraft(d))
	if err == nil {
		return Result{Valid: true, Errors: errs, Draft: d}
	}

	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		// Only reachable if the rule struct itself is broken.
		zap.S().Errorw("profile validation internal error", "err", err)
		return Result{Valid: false, Errors: errs, Draft: d}
	}

	for _, fe := range ves {
		f, perr := profile.ParseField(fe.Field())
		if perr != nil {
			zap.S().Errorw("validation error for unknown field", "field", fe.Field(), "tag", fe.Tag())
			continue
		}
		if _, dup := errs[f]; dup {
			continue
		}
		errs[f] = val.message(f, fe.Tag())
	}
	return Result{Valid: len(errs) == 0, Errors: errs, Draft: d}
}

// -----------------------------------------------------------------------------
// Field-level helpers
// -----------------------------------------------------------------------------

// parseNumber accepts surrounding whitespace and any finite decimal.
func parseNumber(raw string) (float64, bool) {
	n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

func containsClass(lo, hi rune) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return strings.ContainsFunc(fl.Field().String(), func(r rune) bool {
			return r >= lo && r <= hi
		})
	}
}

func optionAllowed(opts []string, v string) bool {
	for _, o := range opts {
		if o == v {
			return true
		}
	}
	return false
}

// message picks the definition's wording for tag, or a generic default.
func (val *Validator) message(f profile.Field, tag string) string {
	if def, ok := val.def.Field(f); ok {
		if msg := def.Messages[tag]; msg != "" {
			return msg
		}
	}
	switch tag {
	case "required", "agepresence", "min":
		if f.Kind() == profile.KindSet {
			return "Select at least one option."
		}
		if tag == "min" {
			return "Input is too short."
		}
		return "This field is required."
	default:
		return "Invalid input."
	}
}
