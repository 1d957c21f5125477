package itemlabel

import (
	"context"
	"fmt"

	"erpdesk/internal/core/apperror"
	"erpdesk/internal/domain/forms"
)

const docstatusSubmitted = 1

// Service runs the label price sync for documents stored on the site.
type Service struct {
	source  LabelSource
	schemas forms.Schemas
	syncer  *Syncer
}

// NewService creates a new item label service.
func NewService(source LabelSource, schemas forms.Schemas, syncer *Syncer) *Service {
	return &Service{source: source, schemas: schemas, syncer: syncer}
}

// Load fetches a label from the site.
func (s *Service) Load(ctx context.Context, name string) (*forms.Doc, error) {
	raw, err := s.source.GetDoc(ctx, DocType, name)
	if err != nil {
		return nil, fmt.Errorf("get %s %q: %w", DocType, name, err)
	}
	doc, err := forms.DecodeDoc(s.schemas, raw)
	if err != nil {
		return nil, err
	}
	if doc.Doctype != DocType {
		return nil, apperror.NewValidation(fmt.Sprintf("%s is a %s", name, doc.Doctype))
	}
	return doc, nil
}

// SyncLabel loads a submitted label and syncs its prices with opts.
// Draft and cancelled labels are rejected.
func (s *Service) SyncLabel(ctx context.Context, name string, opts SyncOptions) (*SyncReport, error) {
	doc, err := s.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	if doc.Docstatus != docstatusSubmitted {
		return nil, apperror.NewValidation(fmt.Sprintf("%s %s is not submitted", DocType, name)).
			WithDetail("docstatus", doc.Docstatus)
	}
	return s.syncer.WithOptions(opts).Sync(ctx, doc), nil
}
