// internal/profile/store_test.go
//
// Unit-tests for Draft updates and the Store wrapper.
//
// Run: go test ./internal/profile -v

package profile

import (
	"errors"
	"sync"
	"testing"
)

func TestZeroDraftIsEmpty(t *testing.T) {
	var d Draft
	for _, f := range Fields() {
		if got := d.Value(f); got != "" {
			t.Fatalf("Value(%s) = %q, want empty", f, got)
		}
	}
	if d.Interests.Len() != 0 {
		t.Fatalf("interests len = %d, want 0", d.Interests.Len())
	}
	if items := d.Interests.Items(); items == nil {
		t.Fatalf("Items() returned nil, want empty slice")
	}
}

func TestSetField_DoesNotMutateReceiver(t *testing.T) {
	var d Draft
	next, err := d.SetField(FirstName, "Ada")
	if err != nil {
		t.Fatalf("SetField: %v", err)
	}
	if d.FirstName != "" {
		t.Fatalf("receiver mutated: %q", d.FirstName)
	}
	if next.FirstName != "Ada" {
		t.Fatalf("FirstName = %q, want Ada", next.FirstName)
	}
}

func TestSetField_RejectsAddressField(t *testing.T) {
	var d Draft
	if _, err := d.SetField(City, "Pune"); !errors.Is(err, ErrWrongFieldKind) {
		t.Fatalf("err = %v, want ErrWrongFieldKind", err)
	}
}

func TestSetAddressField_PreservesSiblings(t *testing.T) {
	var d Draft
	d, _ = d.SetAddressField(City, "Pune")
	d, _ = d.SetAddressField(State, "MH")
	d, _ = d.SetAddressField(City, "Mumbai")

	want := Address{City: "Mumbai", State: "MH"}
	if d.Address != want {
		t.Fatalf("address = %+v, want %+v", d.Address, want)
	}
	if _, err := d.SetAddressField(Email, "x"); !errors.Is(err, ErrWrongFieldKind) {
		t.Fatalf("err = %v, want ErrWrongFieldKind", err)
	}
}

func TestToggleInterest(t *testing.T) {
	var d Draft
	on := d.ToggleInterest("Music", true)
	again := on.ToggleInterest("Music", true)
	if again.Interests.Len() != 1 {
		t.Fatalf("duplicate add: len = %d, want 1", again.Interests.Len())
	}
	off := again.ToggleInterest("Music", false)
	if off.Interests.Len() != 0 {
		t.Fatalf("remove: len = %d, want 0", off.Interests.Len())
	}
	if !on.Interests.Has("Music") {
		t.Fatalf("earlier snapshot lost its member")
	}
	none := off.ToggleInterest("Coding", false)
	if none.Interests.Len() != 0 {
		t.Fatalf("removing absent member changed the set")
	}
}

func TestInterestSet_OrderIndependent(t *testing.T) {
	a := NewInterestSet("Music", "Coding", "Cricket")
	b := NewInterestSet("Cricket", "Music", "Coding", "Music")
	if !a.Equal(b) {
		t.Fatalf("sets differ: %v vs %v", a.Items(), b.Items())
	}
	raw, err := a.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	if string(raw) != `["Coding","Cricket","Music"]` {
		t.Fatalf("json = %s", raw)
	}
}

func TestParseField(t *testing.T) {
	for _, f := range Fields() {
		got, err := ParseField(string(f))
		if err != nil || got != f {
			t.Fatalf("ParseField(%q) = %q, %v", f, got, err)
		}
	}
	if _, err := ParseField("address.city"); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("err = %v, want ErrUnknownField", err)
	}
}

func TestStore_RoutesByKind(t *testing.T) {
	s := NewStore()
	if _, err := s.Set("email", "a@b.co"); err != nil {
		t.Fatalf("Set email: %v", err)
	}
	if _, err := s.Set("pincode", "411001"); err != nil {
		t.Fatalf("Set pincode: %v", err)
	}
	if _, err := s.Set("nickname", "x"); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("err = %v, want ErrUnknownField", err)
	}
	if _, err := s.SetField("interests", "Music"); !errors.Is(err, ErrWrongFieldKind) {
		t.Fatalf("err = %v, want ErrWrongFieldKind", err)
	}

	d := s.Snapshot()
	if d.Email != "a@b.co" || d.Address.Pincode != "411001" {
		t.Fatalf("snapshot = %+v", d)
	}
}

func TestStore_SnapshotsAreStable(t *testing.T) {
	s := NewStore()
	before := s.Snapshot()
	s.ToggleInterest("Coding", true)
	_, _ = s.SetField("firstName", "Ada")

	if before.FirstName != "" || before.Interests.Len() != 0 {
		t.Fatalf("old snapshot changed: %+v", before)
	}
	s.Reset()
	if got := s.Snapshot(); got.FirstName != "" || got.Interests.Len() != 0 {
		t.Fatalf("Reset left %+v", got)
	}
}

func TestStore_ConcurrentWriters(t *testing.T) {
	s := NewStore()
	names := []string{"Cricket", "Music", "Coding"}

	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.ToggleInterest(names[i%len(names)], true)
			_ = s.Snapshot()
		}(i)
	}
	wg.Wait()

	if got := s.Snapshot().Interests.Len(); got != len(names) {
		t.Fatalf("interests len = %d, want %d", got, len(names))
	}
}

func TestErrorMap_FieldsInFormOrder(t *testing.T) {
	m := ErrorMap{Pincode: "p", FirstName: "f", Age: "a"}
	got := m.Fields()
	want := []Field{FirstName, Age, Pincode}
	if len(got) != len(want) {
		t.Fatalf("Fields() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Fields() = %v, want %v", got, want)
		}
	}
	if c := m.Clone(); !c.Equal(m) {
		t.Fatalf("clone differs")
	}
}

func TestStore_ApplyIsAllOrNothing(t *testing.T) {
	s := NewStore()
	_, _ = s.SetField("firstName", "Ada")

	boom := errors.New("rejected")
	got, err := s.Apply(func(d Draft) (Draft, error) {
		d, _ = d.SetField(FirstName, "Mallory")
		d, _ = d.SetAddressField(City, "Nowhere")
		return d, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if got.FirstName != "Ada" || s.Snapshot().Address.City != "" {
		t.Fatalf("failed Apply published %+v", s.Snapshot())
	}

	got, err = s.Apply(func(d Draft) (Draft, error) { return d.SetAddressField(City, "Pune") })
	if err != nil || got.Address.City != "Pune" || s.Snapshot().FirstName != "Ada" {
		t.Fatalf("Apply = %+v, %v", got, err)
	}
}
