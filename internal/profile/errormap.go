package profile

import "maps"

// ErrorMap holds at most one message per field.  A missing key means the
// field has no violation.  Validation always builds a fresh map; callers
// replace, never merge.
type ErrorMap map[Field]string

// Has reports whether f has a violation.
func (m ErrorMap) Has(f Field) bool {
	_, ok := m[f]
	return ok
}

// Message returns the message for f, or "".
func (m ErrorMap) Message(f Field) string { return m[f] }

// Fields lists the fields with violations in form order.
func (m ErrorMap) Fields() []Field {
	out := make([]Field, 0, len(m))
	for _, f := range allFields {
		if _, ok := m[f]; ok {
			out = append(out, f)
		}
	}
	return out
}

// Equal reports whether both maps carry the same messages.
func (m ErrorMap) Equal(o ErrorMap) bool { return maps.Equal(m, o) }

// Clone returns an independent copy.  A nil map clones to an empty one.
func (m ErrorMap) Clone() ErrorMap {
	out := make(ErrorMap, len(m))
	maps.Copy(out, m)
	return out
}
