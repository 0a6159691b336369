package domain

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var (
	// ErrActivityNotFound is returned when no activity has the requested name.
	ErrActivityNotFound = errors.New("activity not found")
	// ErrAlreadyRegistered is returned when the student is already on the roster.
	ErrAlreadyRegistered = errors.New("student is already signed up")
	// ErrCapacityReached is returned when the roster is at max_participants.
	ErrCapacityReached = errors.New("activity is full")
	// ErrNotRegistered is returned when unregistering a student who is not on the roster.
	ErrNotRegistered = errors.New("student is not signed up for this activity")
	// ErrInvalidEmail is returned when a signup email is empty or blank.
	ErrInvalidEmail = errors.New("invalid email")
)

// Registry holds every activity and its roster. Each activity is guarded by
// its own mutex; the name index never changes after NewRegistry returns.
type Registry struct {
	order   []string
	entries map[string]*entry
}

type entry struct {
	mu       sync.Mutex
	activity Activity
}

// Confirmation describes a completed roster change.
type Confirmation struct {
	Activity   string
	Email      string
	RosterSize int
	Capacity   int
}

// NewRegistry validates the seed activities and builds a Registry.
func NewRegistry(seed []Activity) (*Registry, error) {
	r := &Registry{
		order:   make([]string, 0, len(seed)),
		entries: make(map[string]*entry, len(seed)),
	}
	for _, a := range seed {
		if err := validateSeed(a); err != nil {
			return nil, err
		}
		if _, exists := r.entries[a.Name]; exists {
			return nil, fmt.Errorf("duplicate activity %q", a.Name)
		}
		r.entries[a.Name] = &entry{activity: a.clone()}
		r.order = append(r.order, a.Name)
	}
	return r, nil
}

func validateSeed(a Activity) error {
	if a.Name == "" {
		return errors.New("activity name is required")
	}
	if a.MaxParticipants <= 0 {
		return fmt.Errorf("activity %q: max_participants must be > 0", a.Name)
	}
	if len(a.Participants) > a.MaxParticipants {
		return fmt.Errorf("activity %q: %d participants exceed capacity %d", a.Name, len(a.Participants), a.MaxParticipants)
	}
	seen := make(map[string]struct{}, len(a.Participants))
	for _, email := range a.Participants {
		if _, dup := seen[email]; dup {
			return fmt.Errorf("activity %q: duplicate participant %q", a.Name, email)
		}
		seen[email] = struct{}{}
	}
	return nil
}

// Names returns activity names in seed order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// List returns a copy of every activity keyed by name.
func (r *Registry) List() map[string]Activity {
	out := make(map[string]Activity, len(r.entries))
	for name, e := range r.entries {
		e.mu.Lock()
		out[name] = e.activity.clone()
		e.mu.Unlock()
	}
	return out
}

// Get returns a copy of a single activity.
func (r *Registry) Get(name string) (Activity, error) {
	e, ok := r.entries[name]
	if !ok {
		return Activity{}, ErrActivityNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.activity.clone(), nil
}

// Signup appends email to the activity roster.
func (r *Registry) Signup(name, email string) (Confirmation, error) {
	e, ok := r.entries[name]
	if !ok {
		return Confirmation{}, ErrActivityNotFound
	}
	if err := ValidateEmail(email); err != nil {
		return Confirmation{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	a := &e.activity
	if indexOf(a.Participants, email) >= 0 {
		return Confirmation{}, ErrAlreadyRegistered
	}
	if len(a.Participants) >= a.MaxParticipants {
		return Confirmation{}, ErrCapacityReached
	}
	a.Participants = append(a.Participants, email)
	return Confirmation{Activity: name, Email: email, RosterSize: len(a.Participants), Capacity: a.MaxParticipants}, nil
}

// Unregister removes email from the activity roster, keeping the order of
// the remaining participants.
func (r *Registry) Unregister(name, email string) (Confirmation, error) {
	e, ok := r.entries[name]
	if !ok {
		return Confirmation{}, ErrActivityNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	a := &e.activity
	idx := indexOf(a.Participants, email)
	if idx < 0 {
		return Confirmation{}, ErrNotRegistered
	}
	a.Participants = append(a.Participants[:idx], a.Participants[idx+1:]...)
	return Confirmation{Activity: name, Email: email, RosterSize: len(a.Participants), Capacity: a.MaxParticipants}, nil
}

// ValidateEmail rejects empty and blank addresses. Any other value is
// accepted as the student identifier.
func ValidateEmail(email string) error {
	if err := validation.Validate(strings.TrimSpace(email), validation.Required); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEmail, err)
	}
	return nil
}
