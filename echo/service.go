package echo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jonwraymond/rpccache/apierr"
	"github.com/jonwraymond/rpccache/auth"
	"github.com/jonwraymond/rpccache/cache"
	"github.com/jonwraymond/rpccache/observe"
)

// ErrNilDecorator indicates NewService was called without a cache decorator.
var ErrNilDecorator = errors.New("echo: cache decorator is nil")

// Service implements the echo RPCs on top of the cache decorator.
type Service struct {
	cache       *cache.Decorator
	invalidator *cache.Invalidator
	repo        Repository
	logger      observe.Logger
	now         func() time.Time
	newID       func() string
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l observe.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides record ID generation.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// NewService creates the echo service. repo may be nil, in which case only
// UnaryEcho is available.
func NewService(d *cache.Decorator, repo Repository, opts ...Option) (*Service, error) {
	if d == nil {
		return nil, ErrNilDecorator
	}
	s := &Service{
		cache:       d,
		invalidator: d.Invalidator(),
		repo:        repo,
		logger:      observe.NopLogger(),
		now:         time.Now,
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// UnaryEcho returns the request message.
func (s *Service) UnaryEcho(ctx context.Context, req UnaryEchoRequest) (cache.Response[UnaryEchoResponse], error) {
	return cache.Wrap(ctx, s.cache, MethodUnaryEcho, req, func(context.Context) (UnaryEchoResponse, error) {
		if err := req.Validate(); err != nil {
			return UnaryEchoResponse{}, err
		}
		return UnaryEchoResponse{Message: req.Message}, nil
	})
}

// RecordEcho persists a record and invalidates the organizer's cached lists.
func (s *Service) RecordEcho(ctx context.Context, req RecordEchoRequest) (RecordEchoResponse, error) {
	if req.OrganizerKey == "" {
		req.OrganizerKey = auth.PrincipalFromContext(ctx)
	}
	if err := req.Validate(); err != nil {
		return RecordEchoResponse{}, err
	}
	repo, err := s.repository()
	if err != nil {
		return RecordEchoResponse{}, err
	}

	rec, err := repo.Create(ctx, Record{
		ID:           s.newID(),
		Message:      req.Message,
		OrganizerKey: req.OrganizerKey,
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		return RecordEchoResponse{}, err
	}

	n, err := s.invalidator.InvalidateByPattern(ctx, cache.OwnerListPattern(OrganizerKeyField, rec.OrganizerKey))
	if err != nil {
		return RecordEchoResponse{}, err
	}
	s.logger.Debug(ctx, "organizer lists invalidated",
		observe.F("organizer_key", rec.OrganizerKey),
		observe.F("keys", n),
	)

	return RecordEchoResponse{Record: rec}, nil
}

// ListEchoes returns an organizer's records, newest first.
func (s *Service) ListEchoes(ctx context.Context, req ListEchoesRequest) (cache.Response[ListEchoesResponse], error) {
	req = req.WithDefaults()
	return cache.Wrap(ctx, s.cache, MethodListEchoes, req, func(ctx context.Context) (ListEchoesResponse, error) {
		if err := req.Validate(); err != nil {
			return ListEchoesResponse{}, err
		}
		repo, err := s.repository()
		if err != nil {
			return ListEchoesResponse{}, err
		}
		recs, err := repo.ListByOrganizer(ctx, req.Filters.OrganizerKey, req.Limit)
		if err != nil {
			return ListEchoesResponse{}, err
		}
		if recs == nil {
			recs = []Record{}
		}
		return ListEchoesResponse{Records: recs}, nil
	})
}

// GetEcho returns a single record.
func (s *Service) GetEcho(ctx context.Context, req GetEchoRequest) (cache.Response[GetEchoResponse], error) {
	return cache.Wrap(ctx, s.cache, MethodGetEcho, req, func(ctx context.Context) (GetEchoResponse, error) {
		if err := req.Validate(); err != nil {
			return GetEchoResponse{}, err
		}
		repo, err := s.repository()
		if err != nil {
			return GetEchoResponse{}, err
		}
		rec, err := repo.Get(ctx, req.ID)
		if err != nil {
			return GetEchoResponse{}, err
		}
		return GetEchoResponse{Record: rec}, nil
	})
}

func (s *Service) repository() (Repository, error) {
	if s.repo == nil {
		return nil, apierr.BackendUnavailable("database", nil)
	}
	return s.repo, nil
}
