package domain

import "math"

// OptionTally is the vote count of one option.
type OptionTally struct {
	Option  int    `json:"option"`
	Text    string `json:"text"`
	Count   int    `json:"count"`
	Percent int    `json:"percent"`
}

// VoteTally aggregates all answers of one question.
type VoteTally struct {
	QuestionID int64         `json:"questionId"`
	Total      int           `json:"total"`
	Options    []OptionTally `json:"options"`
}

// BuildTally turns per-option counts (keyed by option number) into a tally in option order.
// Percentages use round-half-to-even, so {3,5} over 8 votes gives {38,62}.
func BuildTally(q Question, counts map[int]int) VoteTally {
	tally := VoteTally{
		QuestionID: q.ID,
		Options:    make([]OptionTally, 0, len(q.Options)),
	}
	for i := range q.Options {
		tally.Total += counts[i+1]
	}
	for i, text := range q.Options {
		n := counts[i+1]
		tally.Options = append(tally.Options, OptionTally{
			Option:  i + 1,
			Text:    text,
			Count:   n,
			Percent: Percent(n, tally.Total),
		})
	}
	return tally
}

// Percent returns n as a share of total, rounded half to even.
func Percent(n, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.RoundToEven(float64(n) * 100 / float64(total)))
}
