// internal/form/definition.go
//
// Forms subsystem: YAML definition loader.
//
// Context
//   The profile form is declared in YAML.  The definition carries the
//   presentation half of the schema: labels, input types, offered options,
//   and the message shown for each rule tag.  The rules themselves live in
//   struct tags in validate.go, so the definition can reword a message but
//   never loosen a constraint.
//
// Workflow
//   •  The built-in definition (forms/profile.yaml) is embedded and
//      registered at init.
//   •  LoadFormDef parses an override file and checks it against the closed
//      profile.Field set.  RegisterFile installs it in place of the default.
//   •  GetFormDef offers read-only access by ID.
//
//------------------------------------------------------------------------------

package form

import (
	"embed"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/yanizio/profileform/internal/profile"
)

// DefaultID names the built-in profile form.
const DefaultID = "profile"

//go:embed forms/profile.yaml
var builtin embed.FS

// -----------------------------------------------------------------------------
// Data structures
// -----------------------------------------------------------------------------

// FormDef represents one form definition loaded from YAML.
type FormDef struct {
	ID     string     `yaml:"id"`     // Registry key.  Required.
	Title  string     `yaml:"title"`  // Display title, optional.
	Submit string     `yaml:"submit"` // Submit button text, defaults to "Submit".
	Fields []FieldDef `yaml:"fields"` // Fields in display order.
}

// FieldDef describes a single input control on the form.
type FieldDef struct {
	Name        string            `yaml:"name"`        // Flat profile key.  Required.
	Label       string            `yaml:"label"`       // Human-readable label.  Required.
	Type        string            `yaml:"type"`        // text, email, number, password, date, radio, checkbox.
	Placeholder string            `yaml:"placeholder"` // Optional placeholder text.
	Group       string            `yaml:"group"`       // "address" for nested address inputs.
	Options     []string          `yaml:"options"`     // For radio/checkbox.
	Messages    map[string]string `yaml:"messages"`    // Rule tag → user-facing message.
}

// Field returns the definition for f.
func (fd *FormDef) Field(f profile.Field) (*FieldDef, bool) {
	for i := range fd.Fields {
		if fd.Fields[i].Name == string(f) {
			return &fd.Fields[i], true
		}
	}
	return nil, false
}

// Options returns the offered labels for f, or nil.
func (fd *FormDef) Options(f profile.Field) []string {
	if def, ok := fd.Field(f); ok {
		return def.Options
	}
	return nil
}

// Offers reports whether option is one of f's offered labels.
func (fd *FormDef) Offers(f profile.Field, option string) bool {
	return optionAllowed(fd.Options(f), option)
}

// -----------------------------------------------------------------------------
// Registry
// -----------------------------------------------------------------------------

var (
	registryMu sync.RWMutex
	registry   = make(map[string]*FormDef)
)

func init() {
	raw, err := builtin.ReadFile("forms/profile.yaml")
	if err != nil {
		panic("form: embedded definition missing: " + err.Error())
	}
	fd, err := ParseFormDef(raw, "forms/profile.yaml")
	if err != nil {
		panic(err)
	}
	register(fd)
}

// GetFormDef returns a parsed FormDef by ID.  The boolean is false when the
// ID is unknown.
func GetFormDef(id string) (*FormDef, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	fd, ok := registry[id]
	return fd, ok
}

// Default returns the active profile definition.
func Default() *FormDef {
	fd, _ := GetFormDef(DefaultID)
	return fd
}

// -----------------------------------------------------------------------------
// Loader API
// -----------------------------------------------------------------------------

// LoadFormDef parses one YAML file, validates its structure, and returns a
// populated FormDef.  It NEVER mutates the global registry.
func LoadFormDef(path string) (*FormDef, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read form file %s: %w", path, err)
	}
	return ParseFormDef(raw, path)
}

// ParseFormDef is LoadFormDef for bytes already in memory.  src names the
// origin in error messages.
func ParseFormDef(raw []byte, src string) (*FormDef, error) {
	var fd FormDef
	if err := yaml.Unmarshal(raw, &fd); err != nil {
		return nil, fmt.Errorf("parse YAML %s: %w", src, err)
	}
	if err := validateFormDef(&fd, src); err != nil {
		return nil, err
	}
	return &fd, nil
}

// RegisterFile loads path and installs it, replacing any form with the same
// ID.  Operators use it to reword messages without a rebuild.
func RegisterFile(path string) (*FormDef, error) {
	fd, err := LoadFormDef(path)
	if err != nil {
		return nil, err
	}
	register(fd)
	return fd, nil
}

func register(fd *FormDef) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[fd.ID] = fd
}

// -----------------------------------------------------------------------------
// Validation helpers
// -----------------------------------------------------------------------------

var knownTypes = map[string]bool{
	"text":     true,
	"email":    true,
	"number":   true,
	"password": true,
	"date":     true,
	"radio":    true,
	"checkbox": true,
}

// validateFormDef enforces structural rules that cannot be expressed via YAML
// tags alone.  Every profile field must be declared exactly once.
func validateFormDef(fd *FormDef, path string) error {
	if fd.ID == "" {
		return fmt.Errorf("form definition %s: missing required 'id'", path)
	}
	if len(fd.Fields) == 0 {
		return fmt.Errorf("form definition %s: must have 'fields'", path)
	}

	seen := make(map[profile.Field]struct{})
	for i := range fd.Fields {
		f, err := validateField(&fd.Fields[i], path)
		if err != nil {
			return err
		}
		if _, dup := seen[f]; dup {
			return fmt.Errorf("form %s: duplicate field name '%s'", path, f)
		}
		seen[f] = struct{}{}
	}

	for _, f := range profile.Fields() {
		if _, ok := seen[f]; !ok {
			return fmt.Errorf("form %s: field '%s' not declared", path, f)
		}
	}
	return nil
}

// validateField confirms that essential attributes are present and agree
// with the field's storage kind.
func validateField(fd *FieldDef, path string) (profile.Field, error) {
	if fd.Name == "" {
		return "", fmt.Errorf("form %s: field missing 'name'", path)
	}
	f, err := profile.ParseField(fd.Name)
	if err != nil {
		return "", fmt.Errorf("form %s: %w", path, err)
	}
	if fd.Label == "" {
		return "", fmt.Errorf("form %s: field '%s' missing 'label'", path, fd.Name)
	}
	if !knownTypes[fd.Type] {
		return "", fmt.Errorf("form %s: field '%s' has unsupported type %q", path, fd.Name, fd.Type)
	}

	switch f.Kind() {
	case profile.KindSet:
		if fd.Type != "checkbox" {
			return "", fmt.Errorf("form %s: field '%s' must be a checkbox group", path, fd.Name)
		}
	case profile.KindAddress:
		if fd.Group != "address" {
			return "", fmt.Errorf("form %s: field '%s' must be in group 'address'", path, fd.Name)
		}
	default:
		if fd.Type == "checkbox" || fd.Group != "" {
			return "", fmt.Errorf("form %s: field '%s' must be a top-level scalar input", path, fd.Name)
		}
	}

	if (fd.Type == "radio" || fd.Type == "checkbox") && len(fd.Options) == 0 {
		return "", fmt.Errorf("form %s: field '%s' needs 'options'", path, fd.Name)
	}
	return f, nil
}
