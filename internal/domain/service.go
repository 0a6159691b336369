// Package domain defines the activity registry and the signup workflows built on it.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"example.com/clubs/internal/events"
	"example.com/clubs/internal/observability"
)

// EventPublisher receives roster changes after they are applied.
type EventPublisher interface {
	Publish(ctx context.Context, event events.RosterChanged) error
}

// NoopPublisher discards events. It is used when no broker is configured.
type NoopPublisher struct{}

// Publish does nothing.
func (NoopPublisher) Publish(context.Context, events.RosterChanged) error { return nil }

// Option configures optional Service behaviour.
type Option func(*Service)

// WithPublisher routes roster changes to the given publisher.
func WithPublisher(p EventPublisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithClock overrides the time source used to stamp events.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// Service orchestrates signup workflows on top of a Registry.
type Service struct {
	registry  *Registry
	publisher EventPublisher
	now       func() time.Time
}

// NewService constructs a Service.
func NewService(registry *Registry, opts ...Option) *Service {
	s := &Service{
		registry:  registry,
		publisher: NoopPublisher{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	for name, a := range registry.List() {
		observability.RecordRosterSize(name, len(a.Participants))
	}
	return s
}

// ListActivities returns every activity with its current roster.
func (s *Service) ListActivities(_ context.Context) map[string]Activity {
	return s.registry.List()
}

// Signup registers a student for an activity.
func (s *Service) Signup(ctx context.Context, activity, email string) (Confirmation, error) {
	conf, err := s.registry.Signup(activity, email)
	if err != nil {
		observability.RecordRosterChange(observability.ActionSignup, activity, outcome(err))
		return Confirmation{}, err
	}
	observability.RecordRosterChange(observability.ActionSignup, activity, observability.OutcomeOK)
	observability.RecordRosterSize(activity, conf.RosterSize)
	s.emit(ctx, events.KindSignedUp, conf)
	return conf, nil
}

// Unregister removes a student from an activity.
func (s *Service) Unregister(ctx context.Context, activity, email string) (Confirmation, error) {
	conf, err := s.registry.Unregister(activity, email)
	if err != nil {
		observability.RecordRosterChange(observability.ActionUnregister, activity, outcome(err))
		return Confirmation{}, err
	}
	observability.RecordRosterChange(observability.ActionUnregister, activity, observability.OutcomeOK)
	observability.RecordRosterSize(activity, conf.RosterSize)
	s.emit(ctx, events.KindUnregistered, conf)
	return conf, nil
}

// emit never fails the caller: the roster change has already been applied.
func (s *Service) emit(ctx context.Context, kind string, conf Confirmation) {
	event := events.RosterChanged{
		EventID:    uuid.NewString(),
		Kind:       kind,
		Activity:   conf.Activity,
		Email:      conf.Email,
		RosterSize: conf.RosterSize,
		Capacity:   conf.Capacity,
		OccurredAt: s.now().UTC(),
		Version:    events.Version,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		observability.RecordEventDropped(kind)
	}
}

func outcome(err error) string {
	switch {
	case errors.Is(err, ErrActivityNotFound):
		return observability.OutcomeNotFound
	case errors.Is(err, ErrAlreadyRegistered):
		return observability.OutcomeAlreadyRegistered
	case errors.Is(err, ErrCapacityReached):
		return observability.OutcomeCapacityReached
	case errors.Is(err, ErrNotRegistered):
		return observability.OutcomeNotRegistered
	case errors.Is(err, ErrInvalidEmail):
		return observability.OutcomeInvalid
	default:
		return observability.OutcomeError
	}
}
