// internal/profile/field.go
//
// Closed set of profile field identifiers.
//
// Context
//   Every value the form collects, and every error key the validator can
//   emit, is one of the Field constants below.  Address sub-fields use their
//   bare names (“city”, not “address.city”) so error keys stay flat.
//
//------------------------------------------------------------------------------

package profile

import (
	"fmt"
	"slices"
)

// Field names one input of the profile form.
type Field string

const (
	FirstName       Field = "firstName"
	LastName        Field = "lastName"
	Email           Field = "email"
	PhoneNumber     Field = "phoneNumber"
	Password        Field = "password"
	ConfirmPassword Field = "confirmPassword"
	Age             Field = "age"
	Gender          Field = "gender"
	Interests       Field = "interests"
	BirthDate       Field = "birthDate"
	City            Field = "city"
	State           Field = "state"
	Country         Field = "country"
	Pincode         Field = "pincode"
)

// Kind tells which store operation owns a field.
type Kind int

const (
	KindScalar  Kind = iota // top-level string, see Draft.SetField
	KindAddress             // nested address string, see Draft.SetAddressField
	KindSet                 // interests, see Draft.ToggleInterest
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindAddress:
		return "address"
	case KindSet:
		return "set"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// allFields is in form order.
var allFields = []Field{
	FirstName, LastName, Email, PhoneNumber, Password, ConfirmPassword,
	Age, Gender, Interests, BirthDate, City, State, Country, Pincode,
}

// Fields returns every field in form order.
func Fields() []Field { return slices.Clone(allFields) }

// ParseField maps a submitted name onto a Field.
func ParseField(name string) (Field, error) {
	f := Field(name)
	if !slices.Contains(allFields, f) {
		return "", fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return f, nil
}

// Kind reports the field's storage kind.
func (f Field) Kind() Kind {
	switch f {
	case City, State, Country, Pincode:
		return KindAddress
	case Interests:
		return KindSet
	default:
		return KindScalar
	}
}

func (f Field) String() string { return string(f) }
