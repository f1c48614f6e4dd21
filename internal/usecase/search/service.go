package search

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/fcdex/internal/usecase/filters"
)

// Service resolves an engine and a filter chain per request and runs the
// search. Limits are clamped server-side so a client cannot force an
// unbounded scan.
type Service struct {
	engines      Registry
	filters      filters.Registry
	defaultLimit int
	maxLimit     int
}

// New creates a search service with DefaultLimit for both bounds; use
// WithLimits to override from configuration.
func New(engines Registry, freg filters.Registry) *Service {
	return &Service{
		engines:      engines,
		filters:      freg,
		defaultLimit: DefaultLimit,
		maxLimit:     DefaultLimit,
	}
}

// WithLimits sets the limit applied when a request names none, and the
// ceiling applied to any requested limit. Non-positive values keep the
// current setting.
func (s *Service) WithLimits(def, max int) *Service {
	if def > 0 {
		s.defaultLimit = def
	}
	if max > 0 {
		s.maxLimit = max
	}
	return s
}

// Search runs the named engine for queryID with the named filters composed
// in front of it. Unknown engine or filter names surface as
// domain.ErrUnknownEngine / domain.ErrUnknownFilter.
func (s *Service) Search(ctx context.Context, engineName, queryID string, filterNames []string, opts Options) ([]Result, error) {
	engine, err := s.engines.New(engineName)
	if err != nil {
		return nil, err
	}
	admit, err := filters.Compose(ctx, filterNames, s.filters, queryID)
	if err != nil {
		return nil, err
	}

	opts.Limit = s.clamp(opts.Limit)
	results, err := engine.Recommend(ctx, queryID, admit, opts)
	if err != nil {
		return nil, fmt.Errorf("engine %s: %w", engineName, err)
	}
	return results, nil
}

// EngineNames lists the available engines in sorted order.
func (s *Service) EngineNames() []string { return s.engines.Names() }

// FilterNames lists the available filters in sorted order.
func (s *Service) FilterNames() []string { return s.filters.Names() }

func (s *Service) clamp(limit int) int {
	if limit <= 0 {
		return s.defaultLimit
	}
	if limit > s.maxLimit {
		return s.maxLimit
	}
	return limit
}
