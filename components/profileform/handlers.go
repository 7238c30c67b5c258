// components/profileform/handlers.go
//
// HTTP handlers.  Every POST carries a CSRF token, in the X-CSRF-Token
// header or the csrf_token form field.  Clients that send
// `Accept: application/json` get JSON for every outcome; browsers get the
// re-rendered page or a plain-text error.

package profileform

import (
	"bytes"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/yanizio/profileform/internal/draft"
	"github.com/yanizio/profileform/internal/form"
	"github.com/yanizio/profileform/internal/head"
	"github.com/yanizio/profileform/internal/logger"
	"github.com/yanizio/profileform/internal/message"
	"github.com/yanizio/profileform/internal/profile"
	"github.com/yanizio/profileform/internal/requestinfo"
)

/*──────────────────────────── response shapes ─────────────────────────────*/

// snapshot is the JSON view of a session.  Passwords never leave the server.
type snapshot struct {
	Draft  profile.Draft    `json:"draft"`
	Errors profile.ErrorMap `json:"errors"`
	Token  string           `json:"csrf_token,omitempty"`
}

type apiError struct {
	Error string `json:"error"`
}

func redact(d profile.Draft) profile.Draft {
	d.Password = ""
	d.ConfirmPassword = ""
	return d
}

// pageData feeds templates/page.html.
type pageData struct {
	Head      *head.Builder
	Form      template.HTML
	Req       *requestinfo.RequestInfo
	Submitted bool
	Valid     bool
	Errors    []form.Violation
}

/*──────────────────────────── handlers ─────────────────────────────────────*/

func (c *Component) handlePage(w http.ResponseWriter, r *http.Request) {
	s, err := c.session(w, r)
	if err != nil {
		c.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	c.renderPage(w, r, s, http.StatusOK, nil)
}

func (c *Component) handleDraft(w http.ResponseWriter, r *http.Request) {
	s, err := c.session(w, r)
	if err != nil {
		c.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	tok, err := form.GenerateToken()
	if err != nil {
		c.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot{Draft: redact(s.Store.Snapshot()), Errors: s.Errors(), Token: tok})
}

func (c *Component) handleField(w http.ResponseWriter, r *http.Request) {
	s, ok := c.guardedSession(w, r)
	if !ok {
		return
	}
	d, err := s.Store.Set(r.PostForm.Get("name"), r.PostForm.Get("value"))
	if err != nil {
		c.fail(w, r, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot{Draft: redact(d), Errors: s.Errors()})
}

func (c *Component) handleInterests(w http.ResponseWriter, r *http.Request) {
	s, ok := c.guardedSession(w, r)
	if !ok {
		return
	}
	name := r.PostForm.Get("name")
	if !c.val.Def().Offers(profile.Interests, name) {
		c.fail(w, r, http.StatusBadRequest, errors.New(strconv.Quote(name)+": "+form.ErrUnknownOption.Error()))
		return
	}
	selected, err := strconv.ParseBool(r.PostForm.Get("selected"))
	if err != nil {
		c.fail(w, r, http.StatusBadRequest, errors.New("selected must be true or false"))
		return
	}
	d := s.Store.ToggleInterest(name, selected)
	writeJSON(w, http.StatusOK, snapshot{Draft: redact(d), Errors: s.Errors()})
}

func (c *Component) handleSubmit(w http.ResponseWriter, r *http.Request) {
	s, err := c.session(w, r)
	if err != nil {
		c.fail(w, r, http.StatusInternalServerError, err)
		return
	}

	var res form.Result
	err = s.Attempt(func(st *profile.Store) (profile.ErrorMap, error) {
		var herr error
		res, herr = form.HandleSubmit(c.val, st, r)
		return res.Errors, herr
	})

	log := logger.FromContext(r.Context())
	switch {
	case err == nil:
		log.Debugw("profile accepted", "session", s.ID[:8])
		if c.notify != nil {
			sub := message.FromDraft(s.ID[:8], res.Draft, time.Now())
			sub.Client = requestinfo.FromContext(r.Context())
			c.notify.Enqueue(sub)
		}
	case form.IsValidationError(err):
		log.Debugw("profile rejected", "fields", res.Errors.Fields())
	case errors.Is(err, form.ErrInvalidToken):
		c.fail(w, r, http.StatusForbidden, err)
		return
	default:
		c.fail(w, r, http.StatusBadRequest, err)
		return
	}

	status := http.StatusOK
	if !res.Valid {
		status = http.StatusUnprocessableEntity
	}
	if wantsJSON(r) {
		writeJSON(w, status, res)
		return
	}
	c.renderPage(w, r, s, status, &res)
}

func (c *Component) handleReset(w http.ResponseWriter, r *http.Request) {
	s, ok := c.guardedSession(w, r)
	if !ok {
		return
	}
	s.Reset()
	c.drafts.Discard(s.ID)
	c.cookies.Clear(w, r)
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, snapshot{Draft: s.Store.Snapshot(), Errors: s.Errors()})
		return
	}
	http.Redirect(w, r, "/"+Name, http.StatusSeeOther)
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

// session resolves the caller's draft, minting a new one (and cookie) when
// the cookie is missing, malformed, or names an evicted draft.
func (c *Component) session(w http.ResponseWriter, r *http.Request) (*draft.Session, error) {
	id, _ := c.cookies.ID(r)
	s, err := c.drafts.Open(id)
	if errors.Is(err, draft.ErrBadID) {
		s, err = c.drafts.Open("")
	}
	if err != nil {
		return nil, err
	}
	if s.ID != id {
		c.cookies.Set(w, r, s.ID)
		logger.FromContext(r.Context()).Debugw("draft opened",
			append([]any{"session", s.ID[:8]}, requestinfo.FromContext(r.Context()).Fields()...)...)
	}
	return s, nil
}

// guardedSession parses the body, checks the token, and resolves the
// session.  It writes the error response itself and reports ok == false.
func (c *Component) guardedSession(w http.ResponseWriter, r *http.Request) (*draft.Session, bool) {
	if err := r.ParseForm(); err != nil {
		c.fail(w, r, http.StatusBadRequest, err)
		return nil, false
	}
	if !form.VerifyRequest(r) {
		c.fail(w, r, http.StatusForbidden, form.ErrInvalidToken)
		return nil, false
	}
	s, err := c.session(w, r)
	if err != nil {
		c.fail(w, r, http.StatusInternalServerError, err)
		return nil, false
	}
	return s, true
}

func (c *Component) renderPage(w http.ResponseWriter, r *http.Request, s *draft.Session, status int, res *form.Result) {
	def := c.val.Def()
	markup, err := form.RenderDef(def, form.RenderOptions{
		Draft:  s.Store.Snapshot(),
		Errors: s.Errors(),
	})
	if err != nil {
		c.fail(w, r, http.StatusInternalServerError, err)
		return
	}

	data := pageData{
		Head: head.New(def.Title),
		Form: markup,
		Req:  requestinfo.FromContext(r.Context()),
	}
	if res != nil {
		data.Submitted = true
		data.Valid = res.Valid
		data.Errors = res.Violations()
	}

	var buf bytes.Buffer
	if err := c.views.Render(&buf, "page", data); err != nil {
		c.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// fail logs server errors and writes the error in the client's format.
func (c *Component) fail(w http.ResponseWriter, r *http.Request, status int, err error) {
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).Errorw("profile handler failed", "path", r.URL.Path, "err", err)
		msg = http.StatusText(status)
	}
	if wantsJSON(r) {
		writeJSON(w, status, apiError{Error: msg})
		return
	}
	http.Error(w, msg, status)
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
