package reports

import (
	"context"
	"fmt"

	"erpdesk/internal/core/apperror"
	"erpdesk/internal/metadata"
)

// Form holds the filter values of one report form.
// Defaults are applied once at construction and never recomputed.
type Form struct {
	def       metadata.ReportDef
	values    map[string]string
	callbacks Callbacks

	refreshes int
	pending   bool
}

// NewForm creates a form for def seeded with defaults.
func NewForm(def metadata.ReportDef, defaults map[string]string, callbacks Callbacks) *Form {
	f := &Form{
		def:       def,
		values:    make(map[string]string, len(def.Filters)),
		callbacks: callbacks,
	}
	for _, fd := range def.Filters {
		if v, ok := defaults[fd.Fieldname]; ok {
			f.values[fd.Fieldname] = v
		}
	}
	return f
}

// Report returns the report definition behind the form.
func (f *Form) Report() metadata.ReportDef {
	return f.def
}

// Get returns the current value of a filter.
func (f *Form) Get(fieldname string) string {
	return f.values[fieldname]
}

// Set updates a filter from user input and runs its change callback.
// Read-only filters can only be written through SetInput.
func (f *Form) Set(ctx context.Context, fieldname, value string) error {
	fd, ok := f.def.Filter(fieldname)
	if !ok {
		return apperror.NewUnknownField(f.def.Name, fieldname)
	}
	if fd.ReadOnly {
		return apperror.NewValidation(fmt.Sprintf("%s is read only", fd.Label)).
			WithDetail("field", fieldname)
	}

	f.values[fieldname] = value
	if fd.OnChange == "" {
		return nil
	}

	cb, ok := f.callbacks[fd.OnChange]
	if !ok {
		return apperror.NewInternal(fmt.Errorf("report %q: callback %q is not bound", f.def.Name, fd.OnChange))
	}
	return cb(ctx, f, value)
}

// SetInput writes a filter value without firing callbacks.
func (f *Form) SetInput(fieldname, value string) error {
	if _, ok := f.def.Filter(fieldname); !ok {
		return apperror.NewUnknownField(f.def.Name, fieldname)
	}
	f.values[fieldname] = value
	return nil
}

// TriggerRefresh asks the caller to re-run the report.
func (f *Form) TriggerRefresh() {
	f.refreshes++
	f.pending = true
}

// RefreshRequested reports whether a refresh is pending and clears the flag.
func (f *Form) RefreshRequested() bool {
	p := f.pending
	f.pending = false
	return p
}

// Refreshes counts every refresh request made on the form.
func (f *Form) Refreshes() int {
	return f.refreshes
}

// Values returns the non-empty filter values as query parameters.
func (f *Form) Values() map[string]string {
	out := make(map[string]string, len(f.values))
	for k, v := range f.values {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

// Missing lists required filters that are empty, in declaration order.
func (f *Form) Missing() []string {
	var missing []string
	for _, fd := range f.def.Filters {
		if fd.Reqd && f.values[fd.Fieldname] == "" {
			missing = append(missing, fd.Fieldname)
		}
	}
	return missing
}

// Validate fails when a required filter is empty.
func (f *Form) Validate() error {
	if missing := f.Missing(); len(missing) > 0 {
		return apperror.NewMissingFilters(f.def.Name, missing)
	}
	return nil
}
