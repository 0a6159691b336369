package domain

// Activity is an extracurricular offering together with its live roster.
type Activity struct {
	Name            string
	Description     string
	Schedule        string
	MaxParticipants int
	// Participants holds student emails in signup order.
	Participants []string
}

// SpotsLeft reports how many more students can join.
func (a Activity) SpotsLeft() int {
	left := a.MaxParticipants - len(a.Participants)
	if left < 0 {
		return 0
	}
	return left
}

// Has reports whether email is on the roster.
func (a Activity) Has(email string) bool {
	return indexOf(a.Participants, email) >= 0
}

func (a Activity) clone() Activity {
	out := a
	out.Participants = append(make([]string, 0, len(a.Participants)), a.Participants...)
	return out
}

func indexOf(participants []string, email string) int {
	for i, p := range participants {
		if p == email {
			return i
		}
	}
	return -1
}
