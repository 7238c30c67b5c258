// internal/view/render.go
//
// Template engine: lookup with an on-disk override, func-map injection, and
// an LRU of parsed *template.Template* sets.
//
// Lookup precedence (first hit wins):
//  1. <overrideDir>/<comp>/templates/<name>.html   (deployment override)
//  2. templates/<name>.html inside the component's embedded FS
//
// All templates in the same directory are parsed as one set so layouts and
// partials ({{ template "layout" . }}) work out-of-the-box.
//
// execName() chooses the template to execute: the block "<name>" when a file
// defines one via {{ define }}, else the file "<name>.html" itself.

package view

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/yanizio/profileform/internal/cache"
)

// ErrNotFound is returned when no source holds the requested template.
var ErrNotFound = errors.New("view: template not found")

// Engine renders one component's templates.  Safe for concurrent use.
type Engine struct {
	comp        string
	embedded    fs.FS
	overrideDir string
	sets        *cache.LRU[string, *template.Template]
	noCache     bool
}

// Option tunes an Engine.
type Option func(*Engine)

// WithOverrideDir enables on-disk overrides under dir.
func WithOverrideDir(dir string) Option { return func(e *Engine) { e.overrideDir = dir } }

// WithoutCache re-parses on every render.  Useful while editing templates.
func WithoutCache() Option { return func(e *Engine) { e.noCache = true } }

// New returns an engine for comp whose defaults live in embedded.
func New(comp string, embedded fs.FS, opts ...Option) *Engine {
	e := &Engine{
		comp:     comp,
		embedded: embedded,
		sets:     cache.New[string, *template.Template](64),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Render executes the named template and streams it to w.  The output is
// buffered first so a template error never leaves a half-written page.
func (e *Engine) Render(w io.Writer, name string, data any) error {
	t, err := e.load(name)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, execName(t, name), data); err != nil {
		return fmt.Errorf("view: execute %s/%s: %w", e.comp, name, err)
	}
	_, err = buf.WriteTo(w)
	return err
}

// load finds and (if necessary) parses the template set for name.
func (e *Engine) load(name string) (*template.Template, error) {
	if !e.noCache {
		if t, ok := e.sets.Get(name); ok {
			return t, nil
		}
	}

	src, dir, err := e.locate(name)
	if err != nil {
		return nil, err
	}
	t, err := template.New("").Funcs(FuncMap()).ParseFS(src, path.Join(dir, "*.html"))
	if err != nil {
		return nil, fmt.Errorf("view: parse %s/%s: %w", e.comp, name, err)
	}

	if !e.noCache {
		e.sets.Add(name, t)
	}
	return t, nil
}

// locate returns the FS and directory that hold name.html.
func (e *Engine) locate(name string) (fs.FS, string, error) {
	if e.overrideDir != "" {
		dir := filepath.Join(e.overrideDir, e.comp, "templates")
		if _, err := os.Stat(filepath.Join(dir, name+".html")); err == nil {
			return os.DirFS(dir), ".", nil
		}
	}
	if e.embedded != nil {
		if _, err := fs.Stat(e.embedded, path.Join("templates", name+".html")); err == nil {
			return e.embedded, "templates", nil
		}
	}
	return nil, "", fmt.Errorf("%s/%s: %w", e.comp, name, ErrNotFound)
}

//
// helpers
//

// execName picks the template name to execute.
func execName(t *template.Template, name string) string {
	if tmpl := t.Lookup(name); tmpl != nil {
		return name
	}
	return name + ".html"
}
