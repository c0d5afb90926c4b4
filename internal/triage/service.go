package triage

import (
	"context"
	"errors"
	"strings"

	"github.com/linnemanlabs/go-core/log"
	"github.com/oklog/ulid/v2"

	"github.com/linnemanlabs/sitrep/internal/sitrep"
)

// ErrEmptyAlert is the one hard precondition failure: triage without alert
// text is meaningless, so it is rejected before any stage runs.
var ErrEmptyAlert = errors.New("alert summary is required")

// Notifier delivers manual-review results to an analyst channel.
type Notifier interface {
	Send(ctx context.Context, result *Result) error
}

// Service is the business boundary for triage operations: input gate,
// result IDs, storage, notification, metrics.
type Service struct {
	store    Store
	engine   *Engine
	logger   log.Logger
	metrics  *Metrics
	notifier Notifier
}

// NewService creates a triage service. metrics and notifier may be nil.
func NewService(store Store, engine *Engine, logger log.Logger, metrics *Metrics, notifier Notifier) *Service {
	if logger == nil {
		logger = log.Nop()
	}
	return &Service{
		store:    store,
		engine:   engine,
		logger:   logger,
		metrics:  metrics,
		notifier: notifier,
	}
}

// Triage runs the pipeline synchronously and returns the result. Anything
// after the input gate degrades internally rather than erroring; the only
// error returned here is ErrEmptyAlert.
func (s *Service) Triage(ctx context.Context, sr *sitrep.Sitrep) (*Result, error) {
	if strings.TrimSpace(sr.Alert) == "" {
		if s.metrics != nil {
			s.metrics.SubmitsTotal.WithLabelValues("invalid").Inc()
		}
		return nil, ErrEmptyAlert
	}

	id := ulid.Make().String()
	res := s.engine.Run(ctx, id, sr)

	if err := s.store.Put(ctx, res); err != nil {
		s.logger.Error(ctx, err, "failed to store triage result", "triage_id", id)
	}
	if s.metrics != nil {
		s.metrics.SubmitsTotal.WithLabelValues("accepted").Inc()
	}

	if res.ManualReview && s.notifier != nil {
		// pass a copy so notification never races the caller's view
		cp := *res
		go s.notify(context.WithoutCancel(ctx), &cp)
	}
	return res, nil
}

// Get retrieves a stored triage result by ID.
func (s *Service) Get(ctx context.Context, id string) (*Result, bool, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) notify(ctx context.Context, res *Result) {
	if err := s.notifier.Send(ctx, res); err != nil {
		s.logger.Error(ctx, err, "failed to send review notification", "triage_id", res.ID)
	}
}
