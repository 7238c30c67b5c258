// internal/form/submit.go
//
// Forms subsystem: consolidated Submit helper.
//
// Context
//   A submit attempt is: parse the POST body, check the CSRF token, copy the
//   posted values into the session's Store through the regular field
//   operations, validate the resulting snapshot, and count the outcome.
//   HandleSubmit does all of that so handlers stay terse.
//
//------------------------------------------------------------------------------

package form

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/yanizio/profileform/internal/metrics"
	"github.com/yanizio/profileform/internal/profile"
)

// InterestsMarker is a hidden input the renderer always emits, so a post with
// every interest unchecked still clears the set.
const InterestsMarker = "_interests"

// ErrUnknownOption is returned when a post names an option the form does not
// offer.
var ErrUnknownOption = errors.New("unknown option")

// HandleSubmit parses r, applies its values to store, and validates the
// result.  On validation failure it returns the result together with a
// ValidationError (check with IsValidationError).  Token and parse failures
// return a zero Result and a plain error.
func HandleSubmit(val *Validator, store *profile.Store, r *http.Request) (Result, error) {
	if err := r.ParseForm(); err != nil {
		return Result{}, err
	}
	if !VerifyRequest(r) {
		return Result{}, ErrInvalidToken
	}

	d, err := ApplyValues(val.Def(), store, r.PostForm)
	if err != nil {
		return Result{}, err
	}

	res := val.Validate(d)
	record(res)
	if !res.Valid {
		return res, ValidationError{Errors: res.Errors}
	}
	return res, nil
}

// ApplyValues writes every posted field into store and returns the final
// snapshot.  Fields absent from values are left alone, except the interest
// set, which is synced whenever the post carries it or InterestsMarker.  The
// post is applied as one update: on error the store is left untouched.
func ApplyValues(def *FormDef, store *profile.Store, values url.Values) (profile.Draft, error) {
	return store.Apply(func(d profile.Draft) (profile.Draft, error) {
		return applyValues(def, d, values)
	})
}

func applyValues(def *FormDef, d profile.Draft, values url.Values) (profile.Draft, error) {
	for _, fd := range def.Fields {
		f, err := profile.ParseField(fd.Name)
		if err != nil {
			return d, err
		}

		switch f.Kind() {
		case profile.KindSet:
			posted, ok := values[fd.Name]
			if !ok && !values.Has(InterestsMarker) {
				continue
			}
			for _, p := range posted {
				if !optionAllowed(fd.Options, p) {
					return d, fmt.Errorf("%s %q: %w", f, p, ErrUnknownOption)
				}
			}
			for _, opt := range fd.Options {
				d = d.ToggleInterest(opt, optionAllowed(posted, opt))
			}

		case profile.KindAddress:
			if vals, ok := values[fd.Name]; ok && len(vals) > 0 {
				if d, err = d.SetAddressField(f, vals[0]); err != nil {
					return d, err
				}
			}

		default:
			if vals, ok := values[fd.Name]; ok && len(vals) > 0 {
				if d, err = d.SetField(f, vals[0]); err != nil {
					return d, err
				}
			}
		}
	}
	return d, nil
}

// IsValidationError reports whether err came from a failed validation.
func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// record counts the attempt and each violated field.
func record(res Result) {
	if res.Valid {
		metrics.SubmissionsTotal.WithLabelValues("valid").Inc()
		return
	}
	metrics.SubmissionsTotal.WithLabelValues("invalid").Inc()
	for f := range res.Errors {
		metrics.FieldViolationsTotal.WithLabelValues(string(f)).Inc()
	}
}
