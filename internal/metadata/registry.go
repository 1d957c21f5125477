package metadata

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/go-playground/validator/v10"

	"erpdesk/internal/core/apperror"
	appctx "erpdesk/internal/core/context"
)

// FieldType is a desk field type.
type FieldType string

const (
	TypeLink     FieldType = "Link"
	TypeDate     FieldType = "Date"
	TypeData     FieldType = "Data"
	TypeSelect   FieldType = "Select"
	TypeCurrency FieldType = "Currency"
	TypeInt      FieldType = "Int"
	TypeFloat    FieldType = "Float"
	TypeCheck    FieldType = "Check"
	TypeTable    FieldType = "Table"
)

// FieldDef describes a document field.
type FieldDef struct {
	Fieldname string    `json:"fieldname" validate:"required"`
	Label     string    `json:"label,omitempty"`
	Fieldtype FieldType `json:"fieldtype" validate:"required,oneof=Link Date Data Select Currency Int Float Check Table"`
	Options   string    `json:"options,omitempty" validate:"required_if=Fieldtype Link,required_if=Fieldtype Table"` // link target or child doctype
	Reqd      bool      `json:"reqd,omitempty"`
	ReadOnly  bool      `json:"read_only,omitempty"`
}

// DocTypeDef describes a document type and its child tables.
type DocTypeDef struct {
	Name          string     `json:"name" validate:"required"`
	Module        string     `json:"module,omitempty"`
	IsChild       bool       `json:"istable,omitempty"`
	IsSubmittable bool       `json:"is_submittable,omitempty"`
	Fields        []FieldDef `json:"fields" validate:"dive"`
}

// Field returns the field definition by name.
func (d DocTypeDef) Field(name string) (FieldDef, bool) {
	for _, f := range d.Fields {
		if f.Fieldname == name {
			return f, true
		}
	}
	return FieldDef{}, false
}

// Tables returns the child table fields.
func (d DocTypeDef) Tables() []FieldDef {
	var out []FieldDef
	for _, f := range d.Fields {
		if f.Fieldtype == TypeTable {
			out = append(out, f)
		}
	}
	return out
}

// Registry stores report and doctype definitions.
// It is built once at start and handed to consumers explicitly.
type Registry struct {
	mu       sync.RWMutex
	reports  map[string]ReportDef
	doctypes map[string]DocTypeDef
	defaults *Defaults
	validate *validator.Validate
}

// NewRegistry creates an empty registry. defaults compiles and evaluates
// filter default expressions.
func NewRegistry(defaults *Defaults) *Registry {
	return &Registry{
		reports:  make(map[string]ReportDef),
		doctypes: make(map[string]DocTypeDef),
		defaults: defaults,
		validate: newValidator(),
	}
}

// Defaults returns the default expression engine.
func (r *Registry) Defaults() *Defaults {
	return r.defaults
}

// RegisterReport validates and stores a report definition.
// The registry keeps its own copy.
func (r *Registry) RegisterReport(def ReportDef) error {
	if err := validateReport(r.validate, def); err != nil {
		return err
	}
	for _, f := range def.Filters {
		if f.DefaultExpr == "" {
			continue
		}
		if r.defaults == nil {
			return apperror.NewValidation("default expressions need a defaults engine").
				WithDetail("report", def.Name).WithDetail("field", f.Fieldname)
		}
		if _, err := r.defaults.Compile(f.DefaultExpr); err != nil {
			return apperror.NewValidation(fmt.Sprintf("report %q: bad default for %s", def.Name, f.Fieldname)).
				WithCause(err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.reports[def.Name]; exists {
		return apperror.NewDuplicate("report", "name", def.Name)
	}
	r.reports[def.Name] = def.Clone()
	return nil
}

// RegisterDocType validates and stores a doctype definition.
func (r *Registry) RegisterDocType(def DocTypeDef) error {
	if err := validateDocType(r.validate, def); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.doctypes[def.Name]; exists {
		return apperror.NewDuplicate("doctype", "name", def.Name)
	}
	fields := make([]FieldDef, len(def.Fields))
	copy(fields, def.Fields)
	def.Fields = fields
	r.doctypes[def.Name] = def
	return nil
}

// Report returns a copy of the named report definition.
func (r *Registry) Report(name string) (ReportDef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.reports[name]
	if !ok {
		return ReportDef{}, false
	}
	return d.Clone(), true
}

// Reports returns all report definitions sorted by name.
func (r *Registry) Reports() []ReportDef {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]ReportDef, 0, len(r.reports))
	for _, def := range r.reports {
		list = append(list, def.Clone())
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// DocType returns the named doctype definition.
func (r *Registry) DocType(name string) (DocTypeDef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.doctypes[name]
	return d, ok
}

// DocTypes returns all doctype definitions sorted by name.
func (r *Registry) DocTypes() []DocTypeDef {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]DocTypeDef, 0, len(r.doctypes))
	for _, def := range r.doctypes {
		list = append(list, def)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// ResolveDefaults computes the initial filter values of a report for the
// session in ctx. Filters without a default are absent from the result.
func (r *Registry) ResolveDefaults(ctx context.Context, def ReportDef) (map[string]string, error) {
	values := make(map[string]string, len(def.Filters))
	userDefaults := appctx.UserDefaults(ctx)
	for _, f := range def.Filters {
		switch {
		case f.Default != "":
			values[f.Fieldname] = f.Default
		case f.DefaultExpr != "":
			v, err := r.defaults.Eval(f.DefaultExpr, userDefaults)
			if err != nil {
				return nil, fmt.Errorf("report %q default %s: %w", def.Name, f.Fieldname, err)
			}
			if v != "" {
				values[f.Fieldname] = v
			}
		}
	}
	return values, nil
}
