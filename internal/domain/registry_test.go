package domain

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func testSeed() []Activity {
	return []Activity{
		{
			Name:            "Chess Club",
			Description:     "Learn strategies and compete in chess tournaments",
			Schedule:        "Fridays, 3:30 PM - 5:00 PM",
			MaxParticipants: 12,
			Participants:    []string{"michael@mergington.edu", "daniel@mergington.edu"},
		},
		{
			Name:            "Basketball Team",
			Description:     "Practice and compete in basketball tournaments",
			Schedule:        "Tuesdays and Thursdays, 4:00 PM - 6:00 PM",
			MaxParticipants: 15,
		},
		{
			Name:            "Math Club",
			Description:     "Solve challenging problems",
			Schedule:        "Wednesdays, 3:30 PM - 4:30 PM",
			MaxParticipants: 2,
		},
	}
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry(testSeed())
	require.NoError(t, err)
	return r
}

func TestNewRegistryRejectsInvalidSeed(t *testing.T) {
	cases := map[string]Activity{
		"empty name":        {MaxParticipants: 1},
		"zero capacity":     {Name: "A", MaxParticipants: 0},
		"over capacity":     {Name: "A", MaxParticipants: 1, Participants: []string{"a@x.edu", "b@x.edu"}},
		"duplicate student": {Name: "A", MaxParticipants: 3, Participants: []string{"a@x.edu", "a@x.edu"}},
	}
	for name, a := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewRegistry([]Activity{a})
			require.Error(t, err)
		})
	}

	_, err := NewRegistry([]Activity{{Name: "A", MaxParticipants: 1}, {Name: "A", MaxParticipants: 2}})
	require.Error(t, err)
}

func TestNewRegistryCopiesSeed(t *testing.T) {
	seed := testSeed()
	r, err := NewRegistry(seed)
	require.NoError(t, err)

	seed[0].Participants[0] = "mutated@x.edu"
	chess, err := r.Get("Chess Club")
	require.NoError(t, err)
	require.Equal(t, "michael@mergington.edu", chess.Participants[0])
}

func TestListReturnsSnapshots(t *testing.T) {
	r := newTestRegistry(t)

	all := r.List()
	require.Len(t, all, 3)
	chess := all["Chess Club"]
	require.Equal(t, 12, chess.MaxParticipants)
	require.Equal(t, []string{"michael@mergington.edu", "daniel@mergington.edu"}, chess.Participants)

	chess.Participants[0] = "someone@else.edu"
	again, err := r.Get("Chess Club")
	require.NoError(t, err)
	require.Equal(t, "michael@mergington.edu", again.Participants[0])
	require.Equal(t, []string{"Chess Club", "Basketball Team", "Math Club"}, r.Names())
}

func TestSignupAppendsInOrder(t *testing.T) {
	r := newTestRegistry(t)

	conf, err := r.Signup("Chess Club", "new@mergington.edu")
	require.NoError(t, err)
	require.Equal(t, Confirmation{Activity: "Chess Club", Email: "new@mergington.edu", RosterSize: 3, Capacity: 12}, conf)

	chess, err := r.Get("Chess Club")
	require.NoError(t, err)
	require.Equal(t, []string{"michael@mergington.edu", "daniel@mergington.edu", "new@mergington.edu"}, chess.Participants)
}

func TestSignupErrors(t *testing.T) {
	r := newTestRegistry(t)

	_, err := r.Signup("NonExistent", "a@x.edu")
	require.ErrorIs(t, err, ErrActivityNotFound)

	_, err = r.Signup("chess club", "a@x.edu")
	require.ErrorIs(t, err, ErrActivityNotFound, "names are case-sensitive")

	_, err = r.Signup("Chess Club", "michael@mergington.edu")
	require.ErrorIs(t, err, ErrAlreadyRegistered)

	_, err = r.Signup("Chess Club", "")
	require.ErrorIs(t, err, ErrInvalidEmail)

	_, err = r.Signup("Chess Club", "   ")
	require.ErrorIs(t, err, ErrInvalidEmail)

	chess, err := r.Get("Chess Club")
	require.NoError(t, err)
	require.Len(t, chess.Participants, 2)
}

func TestSignupUnknownActivityWinsOverEmail(t *testing.T) {
	r := newTestRegistry(t)

	for _, email := range []string{"", "   ", "not-an-email"} {
		_, err := r.Signup("NonExistent", email)
		require.ErrorIs(t, err, ErrActivityNotFound, "email %q", email)
	}
}

func TestSignupAcceptsAnyNonEmptyIdentifier(t *testing.T) {
	r := newTestRegistry(t)

	for _, email := range []string{"a@b", "student", "Jane Doe", "not-an-email"} {
		_, err := r.Signup("Basketball Team", email)
		require.NoError(t, err, "email %q", email)
	}

	team, err := r.Get("Basketball Team")
	require.NoError(t, err)
	require.Equal(t, []string{"a@b", "student", "Jane Doe", "not-an-email"}, team.Participants)
}

func TestSignupSameEmailAcrossActivities(t *testing.T) {
	r := newTestRegistry(t)

	_, err := r.Signup("Chess Club", "a@x.edu")
	require.NoError(t, err)
	_, err = r.Signup("Basketball Team", "a@x.edu")
	require.NoError(t, err)
}

func TestSignupCapacity(t *testing.T) {
	r := newTestRegistry(t)

	for i := 0; i < 10; i++ {
		_, err := r.Signup("Chess Club", fmt.Sprintf("student%d@mergington.edu", i))
		require.NoError(t, err)
	}

	_, err := r.Signup("Chess Club", "late@mergington.edu")
	require.ErrorIs(t, err, ErrCapacityReached)

	chess, err := r.Get("Chess Club")
	require.NoError(t, err)
	require.Len(t, chess.Participants, 12)
	require.Zero(t, chess.SpotsLeft())
	require.False(t, chess.Has("late@mergington.edu"))
}

func TestDuplicateCheckedBeforeCapacity(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.Signup("Math Club", "a@x.edu")
	require.NoError(t, err)
	_, err = r.Signup("Math Club", "b@x.edu")
	require.NoError(t, err)

	_, err = r.Signup("Math Club", "a@x.edu")
	require.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestUnregister(t *testing.T) {
	r := newTestRegistry(t)

	_, err := r.Unregister("NonExistent", "a@x.edu")
	require.ErrorIs(t, err, ErrActivityNotFound)

	_, err = r.Unregister("Chess Club", "nobody@x.edu")
	require.ErrorIs(t, err, ErrNotRegistered)

	conf, err := r.Unregister("Chess Club", "michael@mergington.edu")
	require.NoError(t, err)
	require.Equal(t, 1, conf.RosterSize)

	chess, err := r.Get("Chess Club")
	require.NoError(t, err)
	require.Equal(t, []string{"daniel@mergington.edu"}, chess.Participants)
}

func TestSignupUnregisterRoundTrip(t *testing.T) {
	r := newTestRegistry(t)
	before, err := r.Get("Chess Club")
	require.NoError(t, err)

	_, err = r.Signup("Chess Club", "roundtrip@x.edu")
	require.NoError(t, err)
	_, err = r.Unregister("Chess Club", "roundtrip@x.edu")
	require.NoError(t, err)

	after, err := r.Get("Chess Club")
	require.NoError(t, err)
	require.Equal(t, before.Participants, after.Participants)
}

func TestUnregisterPreservesOrderOfRemaining(t *testing.T) {
	r := newTestRegistry(t)
	for _, email := range []string{"a@x.edu", "b@x.edu", "c@x.edu"} {
		_, err := r.Signup("Basketball Team", email)
		require.NoError(t, err)
	}
	_, err := r.Unregister("Basketball Team", "b@x.edu")
	require.NoError(t, err)

	team, err := r.Get("Basketball Team")
	require.NoError(t, err)
	require.Equal(t, []string{"a@x.edu", "c@x.edu"}, team.Participants)
}

func TestTwoStateMachine(t *testing.T) {
	r := newTestRegistry(t)

	_, err := r.Signup("Basketball Team", "a@x.edu")
	require.NoError(t, err)
	_, err = r.Signup("Basketball Team", "a@x.edu")
	require.ErrorIs(t, err, ErrAlreadyRegistered)
	_, err = r.Unregister("Basketball Team", "a@x.edu")
	require.NoError(t, err)
	_, err = r.Unregister("Basketball Team", "a@x.edu")
	require.ErrorIs(t, err, ErrNotRegistered)
}

func TestConcurrentSignupsRespectCapacity(t *testing.T) {
	r := newTestRegistry(t)

	const workers = 64
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
		full     int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Half of the workers race on the same address.
			email := fmt.Sprintf("s%d@x.edu", i)
			if i%2 == 0 {
				email = "same@x.edu"
			}
			_, err := r.Signup("Chess Club", email)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				accepted++
			case err == ErrCapacityReached:
				full++
			}
		}(i)
	}
	wg.Wait()

	chess, err := r.Get("Chess Club")
	require.NoError(t, err)
	require.Len(t, chess.Participants, 12)
	require.Equal(t, 10, accepted)
	require.Positive(t, full)

	seen := make(map[string]struct{})
	for _, p := range chess.Participants {
		_, dup := seen[p]
		require.False(t, dup, "duplicate participant %s", p)
		seen[p] = struct{}{}
	}
}

func TestConcurrentSignupAndUnregister(t *testing.T) {
	r := newTestRegistry(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			email := fmt.Sprintf("s%d@x.edu", i%5)
			if _, err := r.Signup("Math Club", email); err == nil {
				_, _ = r.Unregister("Math Club", email)
			}
			_ = r.List()
		}(i)
	}
	wg.Wait()

	math, err := r.Get("Math Club")
	require.NoError(t, err)
	require.LessOrEqual(t, len(math.Participants), math.MaxParticipants)
}
