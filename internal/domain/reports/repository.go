package reports

import (
	"context"
)

// Runner executes a report query on the site.
type Runner interface {
	RunReport(ctx context.Context, name string, filters map[string]string) (*Result, error)
}

// ValueGetter reads one field of a remote document.
// A missing document is reported as an apperror NOT_FOUND.
type ValueGetter interface {
	GetValue(ctx context.Context, doctype, name, fieldname string) (string, error)
}
