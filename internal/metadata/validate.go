package metadata

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"erpdesk/internal/core/apperror"
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func validateReport(v *validator.Validate, def ReportDef) error {
	if err := v.Struct(def); err != nil {
		return structError("report", def.Name, err)
	}

	seen := make(map[string]struct{}, len(def.Filters))
	for _, f := range def.Filters {
		if _, dup := seen[f.Fieldname]; dup {
			return apperror.NewDuplicate("filter", "fieldname", f.Fieldname).
				WithDetail("report", def.Name)
		}
		seen[f.Fieldname] = struct{}{}

		if f.Default != "" && f.DefaultExpr != "" {
			return apperror.NewValidation(fmt.Sprintf("report %q: %s has both a default and a default expression", def.Name, f.Fieldname))
		}

		if f.Fieldtype == TypeSelect {
			if len(f.Choices) == 0 {
				return apperror.NewValidation(fmt.Sprintf("report %q: select filter %s has no choices", def.Name, f.Fieldname))
			}
			if f.Default != "" && !slices.Contains(f.Choices, f.Default) {
				return apperror.NewValidation(fmt.Sprintf("report %q: default %q of %s is not a choice", def.Name, f.Default, f.Fieldname))
			}
		}
	}
	return nil
}

func validateDocType(v *validator.Validate, def DocTypeDef) error {
	if err := v.Struct(def); err != nil {
		return structError("doctype", def.Name, err)
	}

	seen := make(map[string]struct{}, len(def.Fields))
	for _, f := range def.Fields {
		if _, dup := seen[f.Fieldname]; dup {
			return apperror.NewDuplicate("field", "fieldname", f.Fieldname).
				WithDetail("doctype", def.Name)
		}
		seen[f.Fieldname] = struct{}{}
	}
	return nil
}

func structError(kind, name string, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.NewInternal(err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s:%s", fe.Namespace(), fe.Tag()))
	}
	return apperror.NewValidation(fmt.Sprintf("invalid %s %q", kind, name)).
		WithDetail("violations", fields)
}
