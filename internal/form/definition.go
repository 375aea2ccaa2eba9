// internal/form/definition.go
//
// Forms subsystem: YAML definition loader.
//
// Context
//   Each HTML form is declared in a YAML file: identifier, title, fields,
//   and any post-submit actions.  The site ships its definitions embedded
//   under “defs/”; operators may point at an extra directory whose files
//   override the built-ins by ID.  Parsed definitions live in an in-memory
//   registry so the renderer, decoder, actions, and widgets share a single
//   source of truth.
//
// Workflow
//   •  Structs mirror the YAML schema: FormDef → FieldDef / ActionDef.
//   •  ParseFormDef parses one document and validates structural rules.
//      Every field name must map to a contact.Field; select options named by
//      `options_from` are filled from the content catalogue.
//   •  RegisterFS walks a filesystem, loads every “*.yaml”, and adds the
//      results to the registry.  RegisterDefaults does this for the
//      embedded set.
//   •  GetFormDef offers safe, read-only access to a parsed form by ID.
//
// Style
//   Full sentences, two spaces after periods, Oxford commas.  Helper
//   comments use short noun phrases.
//
//------------------------------------------------------------------------------

package form

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/yanizio/agencysite/internal/contact"
)

//go:embed defs/*.yaml
var builtin embed.FS

// -----------------------------------------------------------------------------
// Data structures
// -----------------------------------------------------------------------------

// FormDef represents one form definition loaded from YAML.
type FormDef struct {
	ID      string      `yaml:"id"`      // Unique identifier, e.g. “contact”.
	Title   string      `yaml:"title"`   // Display title, optional.
	Submit  string      `yaml:"submit"`  // Submit button label.
	Success string      `yaml:"success"` // Success panel copy.
	Fields  []FieldDef  `yaml:"fields"`  // Ordered input list.
	Actions []ActionDef `yaml:"actions"` // Post-submit actions.  May be empty.
}

// FieldDef describes a single input control on the form.  Validation rules
// are not declared here; they come from contact.Validate so the server and
// the rendered hints can never disagree.
type FieldDef struct {
	Name        string   `yaml:"name"`         // Submission key.  Required.
	Label       string   `yaml:"label"`        // Human-readable label.  Required.
	Type        string   `yaml:"type"`         // text, email, tel, textarea, select.
	Placeholder string   `yaml:"placeholder"`  // Placeholder, or the empty option for selects.
	MaxLength   int      `yaml:"maxlength"`    // ≥ 0, 0 means unset.
	Rows        int      `yaml:"rows"`         // Textarea height.
	Options     []string `yaml:"options"`      // Literal select options.
	OptionsFrom string   `yaml:"options_from"` // services, budgets, or timelines.

	field contact.Field // resolved from Name
}

// Field returns the contact field this input feeds.
func (f FieldDef) Field() contact.Field { return f.field }

// Required reports whether the validator requires this field.
func (f FieldDef) Required() bool { return contact.Required(f.field) }

// ActionDef configures an automated action executed after validation.
//
// Action types are loosely typed so new kinds can be introduced without
// schema churn.  Provider-specific keys are kept inline in Params.
type ActionDef struct {
	Type   string         `yaml:"type"`    // email, store, webhook.
	Params map[string]any `yaml:",inline"` // Provider-specific fields inline.
}

// Param returns a string parameter or "".
func (a ActionDef) Param(key string) string {
	s, _ := a.Params[key].(string)
	return s
}

// ContactFields returns the contact fields in definition order.
func (fd *FormDef) ContactFields() []contact.Field {
	out := make([]contact.Field, len(fd.Fields))
	for i, f := range fd.Fields {
		out[i] = f.field
	}
	return out
}

// Lookup returns the FieldDef feeding f.
func (fd *FormDef) Lookup(f contact.Field) (FieldDef, bool) {
	for _, fdef := range fd.Fields {
		if fdef.field == f {
			return fdef, true
		}
	}
	return FieldDef{}, false
}

// HasAction reports whether typ is configured.
func (fd *FormDef) HasAction(typ string) bool {
	for _, a := range fd.Actions {
		if a.Type == typ {
			return true
		}
	}
	return false
}

// OptionSource supplies select options named by `options_from`.
// *content.Catalog implements it.
type OptionSource interface {
	ServiceNames() []string
	Budgets() []string
	Timelines() []string
}

// -----------------------------------------------------------------------------
// Registry
// -----------------------------------------------------------------------------

// registry maps form ID → *FormDef.  Guarded by mutex.
var (
	registryMu sync.RWMutex
	registry   = make(map[string]*FormDef)
)

// GetFormDef returns a parsed FormDef by ID.  The boolean is false when the
// ID is unknown.
func GetFormDef(id string) (*FormDef, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	fd, ok := registry[id]
	return fd, ok
}

// IDs returns every registered form ID, sorted.
func IDs() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]string, 0, len(registry))
	for id := range registry {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// -----------------------------------------------------------------------------
// Loader API
// -----------------------------------------------------------------------------

// ParseFormDef parses one YAML document, validates its structure, and
// returns a populated FormDef.  It NEVER mutates the global registry.
func ParseFormDef(raw []byte, src OptionSource) (*FormDef, error) {
	var fd FormDef
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&fd); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}
	if err := validateFormDef(&fd, src); err != nil {
		return nil, err
	}
	return &fd, nil
}

// RegisterDefaults loads the embedded definitions.
func RegisterDefaults(src OptionSource) error {
	return RegisterFS(builtin, "defs", src)
}

// RegisterFS loads every “*.yaml” under dir in fsys.  A definition whose ID
// is already registered replaces it, so override directories are loaded
// after the defaults.
func RegisterFS(fsys fs.FS, dir string, src OptionSource) error {
	var loaded []*FormDef
	err := fs.WalkDir(fsys, dir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || path.Ext(d.Name()) != ".yaml" {
			return nil // skip non-YAML
		}
		raw, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("read form file %s: %w", p, err)
		}
		fd, err := ParseFormDef(raw, src)
		if err != nil {
			return fmt.Errorf("form definition %s: %w", p, err)
		}
		loaded = append(loaded, fd)
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	for _, fd := range loaded {
		register(fd)
	}
	return nil
}

// register inserts or overrides the form in the global registry and registers
// a corresponding widget.  Caller must ensure the FormDef passed validation.
func register(fd *FormDef) {
	registryMu.Lock()
	registry[fd.ID] = fd
	registryMu.Unlock()
	injectWidgetRegistration(fd) // ensure widget available for templates.
}

// -----------------------------------------------------------------------------
// Validation helpers
// -----------------------------------------------------------------------------

var (
	knownTypes   = map[string]bool{"text": true, "email": true, "tel": true, "textarea": true, "select": true}
	knownActions = map[string]bool{"email": true, "store": true, "webhook": true}
)

// validateFormDef enforces structural rules that cannot be expressed via YAML
// tags alone.
func validateFormDef(fd *FormDef, src OptionSource) error {
	if fd.ID == "" {
		return errors.New("missing required 'id'")
	}
	if len(fd.Fields) == 0 {
		return fmt.Errorf("form %s: must have 'fields'", fd.ID)
	}
	if fd.Submit == "" {
		fd.Submit = "Submit"
	}

	seen := make(map[contact.Field]string)
	for i := range fd.Fields {
		f := &fd.Fields[i]
		if err := validateField(fd.ID, f, src); err != nil {
			return err
		}
		if prev, dup := seen[f.field]; dup {
			return fmt.Errorf("form %s: fields '%s' and '%s' both map to %s", fd.ID, prev, f.Name, f.field)
		}
		seen[f.field] = f.Name
	}

	// Every required contact field must be present, or the form could never
	// pass validation.
	for _, cf := range contact.Fields {
		if _, ok := seen[cf]; !ok && contact.Required(cf) {
			return fmt.Errorf("form %s: required field '%s' missing", fd.ID, cf)
		}
	}

	for _, ac := range fd.Actions {
		if !knownActions[ac.Type] {
			return fmt.Errorf("form %s: unrecognized action type '%s'", fd.ID, ac.Type)
		}
	}
	return nil
}

// validateField confirms that essential attributes are present and sane.
func validateField(formID string, f *FieldDef, src OptionSource) error {
	if f.Name == "" {
		return fmt.Errorf("form %s: field missing 'name'", formID)
	}
	cf, ok := contact.ParseField(f.Name)
	if !ok {
		return fmt.Errorf("form %s: %w", formID, &contact.UnknownFieldError{Name: f.Name})
	}
	f.field = cf

	if f.Label == "" {
		return fmt.Errorf("form %s: field '%s' missing 'label'", formID, f.Name)
	}
	if !knownTypes[f.Type] {
		return fmt.Errorf("form %s: field '%s' has unsupported type %q", formID, f.Name, f.Type)
	}
	if f.MaxLength < 0 || f.Rows < 0 {
		return fmt.Errorf("form %s: field '%s' maxlength/rows cannot be negative", formID, f.Name)
	}

	if f.OptionsFrom != "" {
		if f.Type != "select" {
			return fmt.Errorf("form %s: field '%s' uses options_from but is not a select", formID, f.Name)
		}
		if src == nil {
			return fmt.Errorf("form %s: field '%s' needs an option source", formID, f.Name)
		}
		switch strings.ToLower(f.OptionsFrom) {
		case "services":
			f.Options = src.ServiceNames()
		case "budgets":
			f.Options = src.Budgets()
		case "timelines":
			f.Options = src.Timelines()
		default:
			return fmt.Errorf("form %s: field '%s' unknown options_from %q", formID, f.Name, f.OptionsFrom)
		}
	}
	if f.Type == "select" && len(f.Options) == 0 {
		return fmt.Errorf("form %s: select '%s' has no options", formID, f.Name)
	}
	return nil
}
