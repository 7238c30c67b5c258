// components/profileform/component.go
//
// Profile form component – page and JSON endpoints for one browser's draft.
//
// Routes (mounted under /profile)
// -------------------------------
//
//	GET  /profile            render the form with values and inline errors
//	POST /profile/field      set one scalar or address field      (CSRF)
//	POST /profile/interests  add or remove one interest           (CSRF)
//	POST /profile/submit     apply the full post and validate     (CSRF)
//	POST /profile/reset      discard the draft and its errors     (CSRF)
//	GET  /profile/draft      snapshot, ErrorMap, and a fresh token as JSON
//
// The draft lives in internal/draft, keyed by the session cookie.  Nothing
// is persisted.  Accepted submissions are handed to the notification queue
// when one is configured.
//
//------------------------------------------------------------------------------

package profileform

import (
	"embed"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yanizio/profileform/internal/component"
	"github.com/yanizio/profileform/internal/draft"
	"github.com/yanizio/profileform/internal/form"
	"github.com/yanizio/profileform/internal/message"
	"github.com/yanizio/profileform/internal/session"
	"github.com/yanizio/profileform/internal/view"
)

// Name is the component key and URL prefix.
const Name = "profile"

//go:embed templates/*.html
var templates embed.FS

// Compile-time assertions.
var (
	_ component.Component = (*Component)(nil)
	_ component.Closer    = (*Component)(nil)
)

// Deps are built by cmd/web.
type Deps struct {
	Drafts    *draft.Cache
	Cookies   session.Cookies
	Validator *form.Validator
	// ThemeDir optionally holds <ThemeDir>/profile/templates/*.html overrides.
	ThemeDir string
	// Notify receives accepted submissions.  Nil disables notifications.
	Notify *message.Queue
	Log    *zap.SugaredLogger
}

// Component serves the profile form.
type Component struct {
	drafts  *draft.Cache
	cookies session.Cookies
	val     *form.Validator
	views   *view.Engine
	notify  *message.Queue
	log     *zap.SugaredLogger
}

// New wires a Component.  A nil Validator selects the built-in definition
// with default options.
func New(d Deps) *Component {
	if d.Validator == nil {
		d.Validator = form.NewValidator(nil, form.Options{})
	}
	if d.Log == nil {
		d.Log = zap.S()
	}
	var opts []view.Option
	if d.ThemeDir != "" {
		opts = append(opts, view.WithOverrideDir(d.ThemeDir))
	}
	return &Component{
		drafts:  d.Drafts,
		cookies: d.Cookies,
		val:     d.Validator,
		views:   view.New(Name, templates, opts...),
		notify:  d.Notify,
		log:     d.Log,
	}
}

// Name returns the canonical component key.
func (c *Component) Name() string { return Name }

// Routes builds the router mounted at /profile.
func (c *Component) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", c.handlePage)
	r.Get("/draft", c.handleDraft)
	r.Post("/field", c.handleField)
	r.Post("/interests", c.handleInterests)
	r.Post("/submit", c.handleSubmit)
	r.Post("/reset", c.handleReset)
	return r
}

// Close stops the draft evictor.  Live drafts are dropped with the process.
func (c *Component) Close() error {
	c.log.Infow("profile component stopping", "drafts", c.drafts.Len())
	c.drafts.Close()
	return nil
}
