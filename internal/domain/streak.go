package domain

// UserStreak is the consecutive-answer counter embedded in a user.
type UserStreak struct {
	Current      int    `json:"current"`
	Max          int    `json:"max"`
	LastAnswered Period `json:"lastAnswered"`
}

// RecordAnswer applies an answer given in period p and reports whether Current grew.
//
//	last == p-1       -> Current+1
//	last == p         -> unchanged
//	last after p      -> unchanged (clock skew between instances)
//	otherwise         -> Current = 1
func (s UserStreak) RecordAnswer(p Period) (UserStreak, bool) {
	if p.IsZero() {
		return s, false
	}
	before := s.Current
	switch {
	case s.LastAnswered.IsZero():
		s.Current = 1
	case s.LastAnswered.Equal(p.Prev()):
		s.Current++
	case s.LastAnswered.Equal(p), s.LastAnswered.After(p):
		return s, false
	default:
		s.Current = 1
	}
	if s.Current > s.Max {
		s.Max = s.Current
	}
	s.LastAnswered = p
	return s, s.Current > before
}

// CheckLoss zeroes Current when the period before p was missed.
func (s UserStreak) CheckLoss(p Period) (UserStreak, bool) {
	if s.Current <= 0 || s.LastAnswered.IsZero() || p.IsZero() {
		return s, false
	}
	if s.LastAnswered.Before(p.Prev()) {
		s.Current = 0
		return s, true
	}
	return s, false
}
