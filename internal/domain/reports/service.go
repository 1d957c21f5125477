package reports

import (
	"context"
	"fmt"

	"erpdesk/internal/core/apperror"
	"erpdesk/internal/metadata"
	"erpdesk/pkg/logger"
)

// Service builds report forms and runs reports on the site.
type Service struct {
	registry  *metadata.Registry
	runner    Runner
	callbacks Callbacks
	log       *logger.Logger
}

// NewService creates a new reports service.
// Every OnChange name used by a registered report must be bound in callbacks.
func NewService(registry *metadata.Registry, runner Runner, callbacks Callbacks, log *logger.Logger) (*Service, error) {
	for _, def := range registry.Reports() {
		for _, f := range def.Filters {
			if f.OnChange == "" {
				continue
			}
			if _, ok := callbacks[f.OnChange]; !ok {
				return nil, fmt.Errorf("report %q filter %s: callback %q is not bound", def.Name, f.Fieldname, f.OnChange)
			}
		}
	}
	return &Service{
		registry:  registry,
		runner:    runner,
		callbacks: callbacks,
		log:       log.WithComponent("reports"),
	}, nil
}

// Definition returns a report definition and its defaults for the session in ctx.
func (s *Service) Definition(ctx context.Context, name string) (metadata.ReportDef, map[string]string, error) {
	def, ok := s.registry.Report(name)
	if !ok {
		return metadata.ReportDef{}, nil, apperror.NewNotFound("report", name)
	}
	defaults, err := s.registry.ResolveDefaults(ctx, def)
	if err != nil {
		return metadata.ReportDef{}, nil, apperror.NewInternal(err).WithDetail("report", name)
	}
	return def, defaults, nil
}

// NewForm builds a form with defaults resolved now and input applied on top.
// Input is taken as already-entered state, so no callbacks fire.
func (s *Service) NewForm(ctx context.Context, name string, input map[string]string) (*Form, error) {
	def, defaults, err := s.Definition(ctx, name)
	if err != nil {
		return nil, err
	}
	form := NewForm(def, defaults, s.callbacks)
	for k, v := range input {
		if err := form.SetInput(k, v); err != nil {
			return nil, err
		}
	}
	return form, nil
}

// Change applies one user edit to a form and reports the resulting state.
func (s *Service) Change(ctx context.Context, name string, input map[string]string, fieldname, value string) (*State, error) {
	form, err := s.NewForm(ctx, name, input)
	if err != nil {
		return nil, err
	}
	if err := form.Set(ctx, fieldname, value); err != nil {
		return nil, err
	}
	return &State{
		Report:  name,
		Values:  form.Values(),
		Refresh: form.RefreshRequested(),
		Missing: form.Missing(),
	}, nil
}

// Run validates required filters and forwards the query to the site.
func (s *Service) Run(ctx context.Context, name string, input map[string]string) (*Result, error) {
	form, err := s.NewForm(ctx, name, input)
	if err != nil {
		return nil, err
	}
	if err := form.Validate(); err != nil {
		return nil, err
	}

	filters := form.Values()
	s.log.WithContext(ctx).Debugw("running report", "report", name, "filters", filters)

	res, err := s.runner.RunReport(ctx, name, filters)
	if err != nil {
		return nil, fmt.Errorf("run report %q: %w", name, err)
	}
	res.Report = name
	res.Filters = filters
	return res, nil
}
