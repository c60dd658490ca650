package domain

import (
	"errors"
	"testing"
)

func TestBuildTallyRounding(t *testing.T) {
	q := Question{ID: 7, Text: "Pick one", Options: []string{"A", "B", "C"}}
	tally := BuildTally(q, map[int]int{1: 3, 2: 5})

	if tally.Total != 8 {
		t.Fatalf("expected 8 votes, got %d", tally.Total)
	}
	want := []int{38, 62, 0}
	for i, opt := range tally.Options {
		if opt.Percent != want[i] {
			t.Fatalf("option %d: percent %d, want %d", opt.Option, opt.Percent, want[i])
		}
		if opt.Text != q.Options[i] {
			t.Fatalf("option %d: text %q, want %q", opt.Option, opt.Text, q.Options[i])
		}
	}
}

func TestBuildTallyEmpty(t *testing.T) {
	q := Question{ID: 1, Options: []string{"yes", "no"}}
	tally := BuildTally(q, nil)
	if tally.Total != 0 || len(tally.Options) != 2 {
		t.Fatalf("unexpected empty tally %+v", tally)
	}
	for _, opt := range tally.Options {
		if opt.Percent != 0 {
			t.Fatalf("expected 0%% without votes, got %d", opt.Percent)
		}
	}
}

func TestBuildTallyIgnoresUnknownOptions(t *testing.T) {
	q := Question{ID: 1, Options: []string{"yes", "no"}}
	tally := BuildTally(q, map[int]int{1: 1, 2: 1, 4: 9})
	if tally.Total != 2 {
		t.Fatalf("expected votes for unknown options to be ignored, got total %d", tally.Total)
	}
}

func TestNewQuestionValidation(t *testing.T) {
	if _, err := NewQuestion("  ", []string{"a", "b"}); !errors.Is(err, ErrInvalidQuestion) {
		t.Fatalf("expected invalid question for empty text, got %v", err)
	}
	if _, err := NewQuestion("q", []string{"a", " "}); !errors.Is(err, ErrInvalidQuestion) {
		t.Fatalf("expected invalid question for one option, got %v", err)
	}
	if _, err := NewQuestion("q", []string{"a", "b", "c", "d", "e"}); !errors.Is(err, ErrInvalidQuestion) {
		t.Fatalf("expected invalid question for five options, got %v", err)
	}
	q, err := NewQuestion(" Coffee or tea? ", []string{"Coffee", "", "Tea"})
	if err != nil {
		t.Fatalf("new question: %v", err)
	}
	if q.Text != "Coffee or tea?" || len(q.Options) != 2 {
		t.Fatalf("unexpected question %+v", q)
	}
	if _, err := q.OptionText(3); !errors.Is(err, ErrInvalidOption) {
		t.Fatalf("expected invalid option, got %v", err)
	}
	if text, _ := q.OptionText(2); text != "Tea" {
		t.Fatalf("expected Tea, got %q", text)
	}
}
