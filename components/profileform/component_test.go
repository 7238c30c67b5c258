// components/profileform/component_test.go
//
// End-to-end handler tests through the chi router.  The draft evictor is
// disabled and the CSRF key is fixed.
//
// Run: go test ./components/profileform -v

package profileform

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yanizio/profileform/internal/draft"
	"github.com/yanizio/profileform/internal/form"
	"github.com/yanizio/profileform/internal/message"
	"github.com/yanizio/profileform/internal/session"
)

type harness struct {
	t      *testing.T
	router chi.Router
	cookie *http.Cookie
	drafts *draft.Cache
	queue  *message.Queue
}

type recorder struct {
	mu  sync.Mutex
	got []message.Submission
}

func (*recorder) Name() string { return "recorder" }
func (r *recorder) Publish(_ context.Context, s message.Submission) error {
	r.mu.Lock()
	r.got = append(r.got, s)
	r.mu.Unlock()
	return nil
}

func newHarness(t *testing.T, pubs ...message.Publisher) *harness {
	t.Helper()
	if err := form.Configure(bytes.Repeat([]byte("t"), 32), time.Hour); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	drafts := draft.New(time.Hour, 100, 0, nil)
	var queue *message.Queue
	if len(pubs) > 0 {
		queue = message.NewQueue(4, time.Second, zap.NewNop().Sugar(), pubs...)
	}
	c := New(Deps{Drafts: drafts, Cookies: session.Cookies{}, Notify: queue, Log: zap.NewNop().Sugar()})
	t.Cleanup(func() { _ = c.Close() })

	r := chi.NewRouter()
	r.Mount("/"+Name, c.Routes())
	return &harness{t: t, router: r, drafts: drafts, queue: queue}
}

func (h *harness) do(method, path string, body url.Values, accept string) *httptest.ResponseRecorder {
	h.t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(body.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	if h.cookie != nil {
		req.AddCookie(h.cookie)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == session.DefaultCookieName {
			h.cookie = ck
		}
	}
	return rec
}

func token(t *testing.T) string {
	t.Helper()
	tok, err := form.GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	return tok
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

type snapshotJSON struct {
	Draft struct {
		FirstName string   `json:"firstName"`
		Password  string   `json:"password"`
		Interests []string `json:"interests"`
		Address   struct {
			City string `json:"city"`
		} `json:"address"`
	} `json:"draft"`
	Errors map[string]string `json:"errors"`
	Token  string            `json:"csrf_token"`
}

func TestPage_StartsSessionAndRendersForm(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/profile", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if h.cookie == nil {
		t.Fatalf("no session cookie set")
	}
	body := rec.Body.String()
	for _, want := range []string{"<title>Form Validation with Yup Library</title>", `name="csrf_token"`, `action="/profile/submit"`, `name="firstName"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("page missing %q", want)
		}
	}
	if h.drafts.Len() != 1 {
		t.Fatalf("drafts = %d, want 1", h.drafts.Len())
	}

	first := h.cookie.Value
	h.do(http.MethodGet, "/profile", nil, "")
	if h.cookie.Value != first || h.drafts.Len() != 1 {
		t.Fatalf("second visit did not reuse the session")
	}
}

func TestPage_ReplacesForeignCookie(t *testing.T) {
	h := newHarness(t)
	h.cookie = &http.Cookie{Name: session.DefaultCookieName, Value: "../../etc/passwd"}

	rec := h.do(http.MethodGet, "/profile", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if h.cookie.Value == "../../etc/passwd" {
		t.Fatalf("malformed cookie was kept")
	}
}

func TestPage_ReplacesUnknownWellFormedCookie(t *testing.T) {
	h := newHarness(t)
	planted, _ := draft.NewID()
	h.cookie = &http.Cookie{Name: session.DefaultCookieName, Value: planted}

	if rec := h.do(http.MethodGet, "/profile", nil, ""); rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if h.cookie.Value == planted {
		t.Fatalf("client-chosen session id was adopted")
	}
	if _, ok := h.drafts.Get(planted); ok {
		t.Fatalf("planted id is a live draft")
	}
}

func TestField_RequiresToken(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodPost, "/profile/field", url.Values{"name": {"firstName"}, "value": {"Ada"}}, "application/json")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestFieldAndInterests(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodPost, "/profile/field",
		url.Values{"name": {"firstName"}, "value": {"Ada"}, form.TokenField: {token(t)}}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("field status = %d: %s", rec.Code, rec.Body.String())
	}
	h.do(http.MethodPost, "/profile/field",
		url.Values{"name": {"city"}, "value": {"Pune"}, form.TokenField: {token(t)}}, "")
	h.do(http.MethodPost, "/profile/field",
		url.Values{"name": {"password"}, "value": {"Secret123"}, form.TokenField: {token(t)}}, "")

	rec = h.do(http.MethodPost, "/profile/interests",
		url.Values{"name": {"Music"}, "selected": {"true"}, form.TokenField: {token(t)}}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("interests status = %d: %s", rec.Code, rec.Body.String())
	}
	snap := decode[snapshotJSON](t, rec)
	if snap.Draft.FirstName != "Ada" || snap.Draft.Address.City != "Pune" {
		t.Fatalf("draft = %+v", snap.Draft)
	}
	if len(snap.Draft.Interests) != 1 || snap.Draft.Interests[0] != "Music" {
		t.Fatalf("interests = %v", snap.Draft.Interests)
	}
	if snap.Draft.Password != "" {
		t.Fatalf("password leaked in snapshot")
	}

	rec = h.do(http.MethodGet, "/profile/draft", nil, "")
	snap = decode[snapshotJSON](t, rec)
	if snap.Token == "" || !form.VerifyToken(snap.Token) {
		t.Fatalf("draft endpoint returned unusable token %q", snap.Token)
	}
	if len(snap.Errors) != 0 {
		t.Fatalf("errors before any submit: %v", snap.Errors)
	}
}

func TestField_Rejections(t *testing.T) {
	h := newHarness(t)
	cases := []struct {
		path string
		body url.Values
	}{
		{"/profile/field", url.Values{"name": {"nickname"}, "value": {"x"}}},
		{"/profile/field", url.Values{"name": {"interests"}, "value": {"Music"}}},
		{"/profile/interests", url.Values{"name": {"Chess"}, "selected": {"true"}}},
		{"/profile/interests", url.Values{"name": {"Music"}, "selected": {"maybe"}}},
	}
	for _, tc := range cases {
		tc.body.Set(form.TokenField, token(t))
		rec := h.do(http.MethodPost, tc.path, tc.body, "application/json")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s %v: status = %d, want 400", tc.path, tc.body, rec.Code)
		}
		if e := decode[map[string]string](t, rec); e["error"] == "" {
			t.Fatalf("%s: empty error body", tc.path)
		}
	}
}

func fullPost(t *testing.T) url.Values {
	return url.Values{
		form.TokenField:      {token(t)},
		form.InterestsMarker: {"1"},
		"firstName":          {"Ada"},
		"lastName":           {"Lovelace"},
		"email":              {"ada@example.com"},
		"phoneNumber":        {"555-0100"},
		"password":           {"Abc12345"},
		"confirmPassword":    {"Abc12345"},
		"age":                {"36"},
		"gender":             {"Female"},
		"interests":          {"Music", "Coding"},
		"birthDate":          {"1989-12-10"},
		"city":               {"London"},
		"state":              {"England"},
		"country":            {"UK"},
		"pincode":            {"SW1A"},
	}
}

func TestSubmit_EmptyDraftJSON(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodPost, "/profile/submit", url.Values{form.TokenField: {token(t)}, form.InterestsMarker: {"1"}}, "application/json")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	res := decode[struct {
		Valid  bool              `json:"valid"`
		Errors map[string]string `json:"errors"`
	}](t, rec)
	if res.Valid {
		t.Fatalf("empty draft reported valid")
	}
	for _, f := range []string{"firstName", "email", "password", "interests", "city", "pincode"} {
		if res.Errors[f] == "" {
			t.Fatalf("missing error for %s: %v", f, res.Errors)
		}
	}
	if res.Errors["firstName"] != "First Name is Required!" {
		t.Fatalf("firstName message = %q", res.Errors["firstName"])
	}

	rec = h.do(http.MethodGet, "/profile/draft", nil, "")
	if snap := decode[snapshotJSON](t, rec); len(snap.Errors) != len(res.Errors) {
		t.Fatalf("session ErrorMap not published: %v", snap.Errors)
	}
}

func TestSubmit_ValidReplacesErrors(t *testing.T) {
	h := newHarness(t)

	h.do(http.MethodPost, "/profile/submit", url.Values{form.TokenField: {token(t)}}, "application/json")

	rec := h.do(http.MethodPost, "/profile/submit", fullPost(t), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Form submitted.") {
		t.Fatalf("success banner missing")
	}
	if strings.Contains(rec.Body.String(), "is-invalid") {
		t.Fatalf("valid page still marks fields invalid")
	}

	snap := decode[snapshotJSON](t, h.do(http.MethodGet, "/profile/draft", nil, ""))
	if len(snap.Errors) != 0 {
		t.Fatalf("errors not cleared: %v", snap.Errors)
	}
}

func TestSubmit_InvalidHTML(t *testing.T) {
	h := newHarness(t)

	v := fullPost(t)
	v.Set("email", "not-an-email")
	v.Set("age", "12")
	rec := h.do(http.MethodPost, "/profile/submit", v, "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"Invalid email format!", "You must be at least 18 years old.", "is-invalid", `href="#fld-email"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("page missing %q", want)
		}
	}
}

func TestSubmit_BadTokenKeepsErrors(t *testing.T) {
	h := newHarness(t)
	h.do(http.MethodPost, "/profile/submit", url.Values{form.TokenField: {token(t)}}, "application/json")

	rec := h.do(http.MethodPost, "/profile/submit", url.Values{form.TokenField: {"forged"}}, "application/json")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	snap := decode[snapshotJSON](t, h.do(http.MethodGet, "/profile/draft", nil, ""))
	if len(snap.Errors) == 0 {
		t.Fatalf("rejected submit cleared the ErrorMap")
	}
}

func TestSubmit_UnknownOption(t *testing.T) {
	h := newHarness(t)
	v := fullPost(t)
	v.Set("interests", "Chess")
	rec := h.do(http.MethodPost, "/profile/submit", v, "application/json")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	snap := decode[snapshotJSON](t, h.do(http.MethodGet, "/profile/draft", nil, ""))
	if snap.Draft.FirstName != "" || snap.Draft.Address.City != "" || len(snap.Draft.Interests) != 0 {
		t.Fatalf("rejected submit left %+v in the draft", snap.Draft)
	}
}

func TestReset(t *testing.T) {
	h := newHarness(t)
	h.do(http.MethodPost, "/profile/submit", fullPost(t), "application/json")

	rec := h.do(http.MethodPost, "/profile/reset", url.Values{form.TokenField: {token(t)}}, "")
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/profile" {
		t.Fatalf("reset = %d %q", rec.Code, rec.Header().Get("Location"))
	}
	snap := decode[snapshotJSON](t, h.do(http.MethodGet, "/profile/draft", nil, ""))
	if snap.Draft.FirstName != "" || len(snap.Draft.Interests) != 0 {
		t.Fatalf("draft not emptied: %+v", snap.Draft)
	}
}

func TestSubmit_NotifiesOnlyValid(t *testing.T) {
	rec := &recorder{}
	h := newHarness(t, rec)

	h.do(http.MethodPost, "/profile/submit", url.Values{form.TokenField: {token(t)}}, "application/json")
	h.do(http.MethodPost, "/profile/submit", fullPost(t), "application/json")
	h.queue.Close()

	if len(rec.got) != 1 {
		t.Fatalf("notifications = %d, want 1", len(rec.got))
	}
	sub := rec.got[0]
	if sub.Email != "ada@example.com" || len(sub.Interests) != 2 {
		t.Fatalf("submission = %+v", sub)
	}
	if len(sub.Session) != 8 || !strings.HasPrefix(h.cookie.Value, sub.Session) {
		t.Fatalf("session tag %q does not prefix cookie", sub.Session)
	}
}

func TestReset_DiscardsSession(t *testing.T) {
	h := newHarness(t)
	h.do(http.MethodGet, "/profile", nil, "")
	if h.drafts.Len() != 1 {
		t.Fatalf("drafts = %d, want 1", h.drafts.Len())
	}
	old := h.cookie.Value

	rec := h.do(http.MethodPost, "/profile/reset", url.Values{form.TokenField: {token(t)}}, "application/json")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if h.drafts.Len() != 0 {
		t.Fatalf("session not discarded")
	}
	if h.cookie.Value != "" || h.cookie.MaxAge >= 0 {
		t.Fatalf("cookie not cleared: %+v", h.cookie)
	}

	h.do(http.MethodGet, "/profile", nil, "")
	if h.cookie.Value == old || h.cookie.Value == "" {
		t.Fatalf("new visit did not mint a fresh session")
	}
}
