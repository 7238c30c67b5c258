// internal/form/renderer.go
//
// Forms subsystem: HTML renderer.
//
// Context
//   Given a FormDef, the current draft, and the latest ErrorMap, this file
//   writes the form markup.  Invalid inputs get the `is-invalid` class and an
//   `invalid-feedback` element holding their message, so any stylesheet that
//   knows those hooks can highlight them.
//
// Workflow
//   •  RenderDef writes each field of a FormDef via writeField, wrapping
//      consecutive address inputs in one <fieldset>.  RenderForm does the
//      same for a registered FormDef looked up by ID.
//   •  Values come from the draft.  Password inputs are never prefilled.
//   •  A CSRF token and the interests marker are written as hidden inputs.
//   •  The caller receives template.HTML so the surrounding page template
//      does not double-escape the markup.
//
//------------------------------------------------------------------------------

package form

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"strings"
	"time"

	"github.com/yanizio/profileform/internal/profile"
)

// DefaultAction is where the rendered form posts.
const DefaultAction = "/profile/submit"

// RenderOptions bundles the state the markup reflects.
type RenderOptions struct {
	Draft  profile.Draft
	Errors profile.ErrorMap
	// Action overrides DefaultAction.
	Action string
}

// RenderForm returns the HTML markup for the specified form ID.
func RenderForm(formID string, opts RenderOptions) (template.HTML, error) {
	fd, ok := GetFormDef(formID)
	if !ok {
		return "", fmt.Errorf("RenderForm: unknown form %q", formID)
	}
	return RenderDef(fd, opts)
}

// RenderDef returns the HTML markup for fd, registered or not.
func RenderDef(fd *FormDef, opts RenderOptions) (template.HTML, error) {
	if fd == nil {
		return "", fmt.Errorf("RenderDef: nil form definition")
	}

	action := opts.Action
	if action == "" {
		action = DefaultAction
	}

	var buf bytes.Buffer
	buf.WriteString(`<form method="post" action="` + html.EscapeString(action) + `" class="profile-form" novalidate>` + "\n")
	if fd.Title != "" {
		buf.WriteString(`<h2>` + html.EscapeString(fd.Title) + `</h2>` + "\n")
	}

	group := ""
	for i := range fd.Fields {
		f := &fd.Fields[i]
		if f.Group != group {
			if group != "" {
				buf.WriteString(`</fieldset>` + "\n")
			}
			if f.Group != "" {
				buf.WriteString(`<fieldset class="` + html.EscapeString(f.Group) + `"><legend>` +
					html.EscapeString(legend(f.Group)) + `</legend>` + "\n")
			}
			group = f.Group
		}
		if err := writeField(&buf, f, opts.Draft, opts.Errors); err != nil {
			return "", err
		}
	}
	if group != "" {
		buf.WriteString(`</fieldset>` + "\n")
	}

	// Hidden meta inputs.
	buf.WriteString(fmt.Sprintf(`<input type="hidden" name="%s" value="%s">`+"\n", TokenField, csrfGenerateToken()))
	buf.WriteString(`<input type="hidden" name="` + InterestsMarker + `" value="1">` + "\n")
	submit := fd.Submit
	if submit == "" {
		submit = "Submit"
	}
	buf.WriteString(`<button type="submit" class="btn btn-primary">` + html.EscapeString(submit) + `</button>` + "\n")

	buf.WriteString(`</form>`)
	return template.HTML(buf.String()), nil
}

// writeField emits HTML for an individual field into buf.  Each field is
// wrapped in a <div class="form-field">.
func writeField(buf *bytes.Buffer, f *FieldDef, d profile.Draft, errs profile.ErrorMap) error {
	field, err := profile.ParseField(f.Name)
	if err != nil {
		return err
	}
	msg := errs.Message(field)

	inputClass := "form-control"
	if msg != "" {
		inputClass += " is-invalid"
	}

	buf.WriteString(`<div class="form-field">` + "\n")

	idAttr := `id="fld-` + html.EscapeString(f.Name) + `"`
	nameAttr := `name="` + html.EscapeString(f.Name) + `"`

	switch f.Type {
	case "text", "email", "password", "number", "date":
		buf.WriteString(`<label for="fld-` + html.EscapeString(f.Name) + `">` + html.EscapeString(f.Label) + `</label>` + "\n")
		buf.WriteString(`<input ` + idAttr + ` ` + nameAttr + ` type="` + f.Type + `" class="` + inputClass + `"`)
		if f.Placeholder != "" {
			buf.WriteString(` placeholder="` + html.EscapeString(f.Placeholder) + `"`)
		}
		// password fields are not prefilled.
		if val := d.Value(field); val != "" && f.Type != "password" {
			buf.WriteString(` value="` + html.EscapeString(val) + `"`)
		}
		buf.WriteString(`>` + "\n")

	case "radio":
		buf.WriteString(`<span class="form-label">` + html.EscapeString(f.Label) + `</span>` + "\n")
		current := d.Value(field)
		for i, opt := range f.Options {
			checked := ""
			if current == opt {
				checked = ` checked`
			}
			writeChoice(buf, "radio", f.Name, i, opt, checked, inputClass)
		}

	case "checkbox":
		buf.WriteString(`<span class="form-label">` + html.EscapeString(f.Label) + `</span>` + "\n")
		for i, opt := range f.Options {
			checked := ""
			if field == profile.Interests && d.Interests.Has(opt) {
				checked = ` checked`
			}
			writeChoice(buf, "checkbox", f.Name, i, opt, checked, inputClass)
		}

	default:
		return fmt.Errorf("writeField: unsupported field type %q in form field %s", f.Type, f.Name)
	}

	if msg != "" {
		buf.WriteString(`<div class="invalid-feedback" aria-live="polite">` + html.EscapeString(msg) + `</div>` + "\n")
	}

	buf.WriteString(`</div>` + "\n")
	return nil
}

// writeChoice renders one radio or checkbox option with its label.
func writeChoice(buf *bytes.Buffer, typ, name string, i int, opt, checked, class string) {
	choiceID := fmt.Sprintf("fld-%s-%d", html.EscapeString(name), i)
	buf.WriteString(`<div class="form-check">` + "\n")
	buf.WriteString(`<input id="` + choiceID + `" name="` + html.EscapeString(name) + `" type="` + typ +
		`" value="` + html.EscapeString(opt) + `" class="` + strings.Replace(class, "form-control", "form-check-input", 1) + `"` + checked + `>` + "\n")
	buf.WriteString(`<label for="` + choiceID + `">` + html.EscapeString(opt) + `</label>` + "\n")
	buf.WriteString(`</div>` + "\n")
}

// legend capitalizes a group name for display.
func legend(group string) string {
	if group == "" {
		return ""
	}
	return strings.ToUpper(group[:1]) + group[1:]
}

// csrfGenerateToken wraps GenerateToken with a fallback that always fails
// verification, so a broken RNG degrades to a rejected submit.
func csrfGenerateToken() string {
	token, err := GenerateToken()
	if err != nil {
		return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
	}
	return token
}
