// internal/message/message_test.go
//
// Run: go test ./internal/message -v

package message

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/yanizio/profileform/internal/profile"
)

type recorder struct {
	mu   sync.Mutex
	got  []Submission
	fail error
}

func (*recorder) Name() string { return "recorder" }
func (r *recorder) Publish(_ context.Context, s Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, s)
	return r.fail
}

func sampleDraft() profile.Draft {
	var d profile.Draft
	d, _ = d.SetField(profile.FirstName, "Ada")
	d, _ = d.SetField(profile.Email, "ada@example.com")
	d, _ = d.SetField(profile.Password, "Abc12345")
	d, _ = d.SetAddressField(profile.Country, "UK")
	return d.ToggleInterest("Music", true)
}

func TestFromDraft_OmitsSecrets(t *testing.T) {
	s := FromDraft("sess", sampleDraft(), time.Unix(0, 0))
	b, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	_ = json.Unmarshal(b, &m)
	if _, ok := m["password"]; ok {
		t.Fatalf("password serialized: %s", b)
	}
	if s.Address.Country != "UK" || len(s.Interests) != 1 {
		t.Fatalf("fields not copied: %+v", s)
	}
}

func TestQueue_DeliversAndDrains(t *testing.T) {
	rec := &recorder{}
	q := NewQueue(8, time.Second, zap.NewNop().Sugar(), rec)
	for i := 0; i < 5; i++ {
		if !q.Enqueue(Submission{Session: "s"}) {
			t.Fatalf("enqueue %d dropped", i)
		}
	}
	q.Close()

	if len(rec.got) != 5 {
		t.Fatalf("delivered %d, want 5", len(rec.got))
	}
	if q.Enqueue(Submission{}) {
		t.Fatalf("enqueue after Close accepted")
	}
	q.Close() // idempotent
}

func TestQueue_PublisherErrorIsLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	rec := &recorder{fail: errors.New("down")}
	q := NewQueue(1, time.Second, zap.New(core).Sugar(), rec)
	q.Enqueue(Submission{Session: "s"})
	q.Close()

	if logs.FilterMessage("submission notification failed").Len() != 1 {
		t.Fatalf("failure not logged")
	}
}

func TestLogPublisher(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	p := LogPublisher{Log: zap.New(core).Sugar()}
	if err := p.Publish(context.Background(), FromDraft("s", sampleDraft(), time.Now())); err != nil {
		t.Fatal(err)
	}
	e := logs.FilterMessage("profile submitted").All()
	if len(e) != 1 || e[0].ContextMap()["email"] != "ada@example.com" {
		t.Fatalf("entries = %+v", e)
	}
}

func TestWebhookPublisher_RetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	var got Submission
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	p := NewWebhook(srv.URL, 2, time.Second, zap.NewNop().Sugar())
	if err := p.Publish(context.Background(), FromDraft("sess", sampleDraft(), time.Now())); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("calls = %d, want 2", calls.Load())
	}
	if got.Email != "ada@example.com" || got.Session != "sess" {
		t.Fatalf("payload = %+v", got)
	}
}

func TestWebhookPublisher_ClientError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	p := NewWebhook(srv.URL, 0, time.Second, zap.NewNop().Sugar())
	if err := p.Publish(context.Background(), Submission{}); err == nil {
		t.Fatalf("expected error on 400")
	}
}
