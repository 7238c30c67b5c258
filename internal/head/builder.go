// internal/head/builder.go
//
// The Builder collects everything that should appear inside a page’s
// <head> element.  It is scoped to a single render call.  Handlers push tags
// into the builder, then the page layout decides where to emit each slice.
//
// Features
// --------
//   - SetTitle      – single <title> tag (last call wins).
//   - Meta, Link    – arbitrary pre-built tags, deduplicated.
//   - MetaName      – convenience for <meta name=… content=…>, escaped.
//   - Render helpers return template.HTML for the layout.
package head

import (
	"html/template"
	"strings"
)

// Builder is owned by one request; it is not safe for concurrent use.
type Builder struct {
	title string
	metas []string
	links []string
	seen  map[string]struct{}
}

// New returns a builder seeded with the charset and viewport tags every page
// carries.
func New(title string) *Builder {
	b := &Builder{title: title, seen: make(map[string]struct{})}
	b.Meta(`<meta charset="utf-8">`)
	b.MetaName("viewport", "width=device-width, initial-scale=1")
	return b
}

// SetTitle overrides the page <title>.
func (b *Builder) SetTitle(t string) { b.title = t }

// Title returns a fully formed <title> tag or an empty string.
func (b *Builder) Title() template.HTML {
	if b.title == "" {
		return ""
	}
	return template.HTML("<title>" + template.HTMLEscapeString(b.title) + "</title>")
}

// Meta adds a pre-built, trusted tag.
func (b *Builder) Meta(tag string) { b.add("meta:"+tag, &b.metas, tag) }

// Link adds a pre-built, trusted tag.
func (b *Builder) Link(tag string) { b.add("link:"+tag, &b.links, tag) }

// MetaName adds <meta name="…" content="…"> with both values escaped.
func (b *Builder) MetaName(name, content string) {
	b.Meta(`<meta name="` + template.HTMLEscapeString(name) +
		`" content="` + template.HTMLEscapeString(content) + `">`)
}

func (b *Builder) add(key string, tgt *[]string, tag string) {
	if _, dup := b.seen[key]; dup {
		return
	}
	b.seen[key] = struct{}{}
	*tgt = append(*tgt, tag)
}

// Metas and Links are called from the layout template.
func (b *Builder) Metas() template.HTML { return concat(b.metas) }
func (b *Builder) Links() template.HTML { return concat(b.links) }

// concat joins pre-escaped tags without a separator.
func concat(sl []string) template.HTML {
	return template.HTML(strings.Join(sl, ""))
}
