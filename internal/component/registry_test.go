// internal/component/registry_test.go
//
// Run: go test ./internal/component -v

package component

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

type stub struct {
	name   string
	path   string
	closed bool
	err    error
}

func (s *stub) Name() string { return s.name }
func (s *stub) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get(s.path, func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(s.name)) })
	return r
}
func (s *stub) Close() error { s.closed = true; return s.err }

func TestRegistry(t *testing.T) {
	reset()
	t.Cleanup(reset)

	b := &stub{name: "b", path: "/b", err: errors.New("boom")}
	a := &stub{name: "a", path: "/a"}
	Register(b)
	Register(a)

	all := All()
	if len(all) != 2 || all[0].Name() != "a" || all[1].Name() != "b" {
		t.Fatalf("All() order wrong: %v", all)
	}

	if err := CloseAll(); err == nil || err.Error() != "boom" {
		t.Fatalf("CloseAll err = %v", err)
	}
	if !a.closed || !b.closed {
		t.Fatalf("not every component closed")
	}
}

func TestRegister_DuplicatePanics(t *testing.T) {
	reset()
	t.Cleanup(reset)

	Register(&stub{name: "x", path: "/x"})
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on duplicate")
		}
	}()
	Register(&stub{name: "x", path: "/y"})
}

func TestMount(t *testing.T) {
	reset()
	t.Cleanup(reset)

	Register(&stub{name: "one", path: "/"})
	Register(&stub{name: "two", path: "/sub"})
	r := chi.NewRouter()
	Mount(r)

	for path, want := range map[string]string{"/one": "one", "/two/sub": "two"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK || rec.Body.String() != want {
			t.Fatalf("%s: got %d %q", path, rec.Code, rec.Body.String())
		}
	}
}
