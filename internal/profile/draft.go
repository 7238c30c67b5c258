// internal/profile/draft.go
//
// Profile draft: the value being edited.
//
// Context
//   A Draft is a plain value.  Every update method has a value receiver and
//   returns a new Draft, leaving the receiver untouched.  Scalar fields are
//   copied with the struct.  The interest set is shared between copies but
//   never written after construction, so sharing is safe.
//
// Notes
//   • The zero Draft is the empty form: all strings "", no interests.
//   • Age and BirthDate stay raw text.  Parsing happens in the validator.
//
//------------------------------------------------------------------------------

package profile

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Address is the nested address record.
type Address struct {
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
	Pincode string `json:"pincode"`
}

// Draft holds the current value of every profile field.
type Draft struct {
	FirstName       string      `json:"firstName"`
	LastName        string      `json:"lastName"`
	Email           string      `json:"email"`
	PhoneNumber     string      `json:"phoneNumber"`
	Password        string      `json:"password"`
	ConfirmPassword string      `json:"confirmPassword"`
	Age             string      `json:"age"`
	Gender          string      `json:"gender"`
	Interests       InterestSet `json:"interests"`
	BirthDate       string      `json:"birthDate"`
	Address         Address     `json:"address"`
}

// SetField returns a copy of d with the top-level scalar f set to value.
func (d Draft) SetField(f Field, value string) (Draft, error) {
	if f.Kind() != KindScalar {
		return d, fmt.Errorf("set %s: %w", f, ErrWrongFieldKind)
	}
	switch f {
	case FirstName:
		d.FirstName = value
	case LastName:
		d.LastName = value
	case Email:
		d.Email = value
	case PhoneNumber:
		d.PhoneNumber = value
	case Password:
		d.Password = value
	case ConfirmPassword:
		d.ConfirmPassword = value
	case Age:
		d.Age = value
	case Gender:
		d.Gender = value
	case BirthDate:
		d.BirthDate = value
	default:
		return d, fmt.Errorf("set %s: %w", f, ErrUnknownField)
	}
	return d, nil
}

// SetAddressField returns a copy of d with one address field replaced.
// Sibling address fields are carried over unchanged.
func (d Draft) SetAddressField(f Field, value string) (Draft, error) {
	if f.Kind() != KindAddress {
		return d, fmt.Errorf("set address %s: %w", f, ErrWrongFieldKind)
	}
	addr := d.Address
	switch f {
	case City:
		addr.City = value
	case State:
		addr.State = value
	case Country:
		addr.Country = value
	case Pincode:
		addr.Pincode = value
	}
	d.Address = addr
	return d, nil
}

// ToggleInterest returns a copy of d with name added (selected) or removed.
// Adding a present name or removing an absent one is a no-op.
func (d Draft) ToggleInterest(name string, selected bool) Draft {
	if selected {
		d.Interests = d.Interests.with(name)
	} else {
		d.Interests = d.Interests.without(name)
	}
	return d
}

// Value returns the raw text of a scalar or address field.  The interest
// set has no single text value and yields "".
func (d Draft) Value(f Field) string {
	switch f {
	case FirstName:
		return d.FirstName
	case LastName:
		return d.LastName
	case Email:
		return d.Email
	case PhoneNumber:
		return d.PhoneNumber
	case Password:
		return d.Password
	case ConfirmPassword:
		return d.ConfirmPassword
	case Age:
		return d.Age
	case Gender:
		return d.Gender
	case BirthDate:
		return d.BirthDate
	case City:
		return d.Address.City
	case State:
		return d.Address.State
	case Country:
		return d.Address.Country
	case Pincode:
		return d.Address.Pincode
	default:
		return ""
	}
}

// -----------------------------------------------------------------------------
// Interest set
// -----------------------------------------------------------------------------

// InterestSet is an immutable set of interest labels.  Items are kept
// sorted so equal sets compare and encode identically.
type InterestSet struct {
	items []string
}

// NewInterestSet builds a set from names, dropping duplicates.
func NewInterestSet(names ...string) InterestSet {
	var s InterestSet
	for _, n := range names {
		s = s.with(n)
	}
	return s
}

// Has reports membership.
func (s InterestSet) Has(name string) bool {
	_, found := slices.BinarySearch(s.items, name)
	return found
}

// Len reports the number of members.
func (s InterestSet) Len() int { return len(s.items) }

// Items returns the members in sorted order.  The slice is a copy and is
// never nil.
func (s InterestSet) Items() []string {
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}

// Equal reports whether both sets hold the same members.
func (s InterestSet) Equal(o InterestSet) bool { return slices.Equal(s.items, o.items) }

// MarshalJSON encodes the set as a sorted array.
func (s InterestSet) MarshalJSON() ([]byte, error) { return json.Marshal(s.Items()) }

// UnmarshalJSON accepts an array of names.
func (s *InterestSet) UnmarshalJSON(b []byte) error {
	var names []string
	if err := json.Unmarshal(b, &names); err != nil {
		return err
	}
	*s = NewInterestSet(names...)
	return nil
}

func (s InterestSet) with(name string) InterestSet {
	i, found := slices.BinarySearch(s.items, name)
	if found {
		return s
	}
	return InterestSet{items: slices.Insert(slices.Clone(s.items), i, name)}
}

func (s InterestSet) without(name string) InterestSet {
	i, found := slices.BinarySearch(s.items, name)
	if !found {
		return s
	}
	return InterestSet{items: slices.Delete(slices.Clone(s.items), i, i+1)}
}
