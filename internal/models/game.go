package models

import (
	"fmt"
	"strings"
	"time"
)

// Section identifies one independently drawn group of numbers.
type Section int

const (
	Primary Section = iota
	Secondary
)

// String returns the section name
func (s Section) String() string {
	if s == Secondary {
		return "secondary"
	}
	return "primary"
}

// SectionSpec describes the legal range and draw size of a section.
// A Size of zero means the game has no such section.
type SectionSpec struct {
	Name string `json:"name"`
	Low  int    `json:"low"`
	High int    `json:"high"`
	Size int    `json:"size"`
}

// RangeSize returns the number of legal candidates in the section
func (s SectionSpec) RangeSize() int {
	if s.Size == 0 {
		return 0
	}
	return s.High - s.Low + 1
}

// Contains reports whether n is a legal number for the section
func (s SectionSpec) Contains(n int) bool {
	return n >= s.Low && n <= s.High
}

// SumBounds returns the smallest and largest possible section sum
func (s SectionSpec) SumBounds() (int, int) {
	minSum, maxSum := 0, 0
	for i := 0; i < s.Size; i++ {
		minSum += s.Low + i
		maxSum += s.High - i
	}
	return minSum, maxSum
}

// Game describes a lottery game's draw contract and schedule.
type Game struct {
	Code         string         `json:"code"`
	Name         string         `json:"name"`
	Primary      SectionSpec    `json:"primary"`
	Secondary    SectionSpec    `json:"secondary"`
	DrawWeekdays []time.Weekday `json:"draw_weekdays"`
}

// Built-in games
var (
	SSQ = Game{
		Code:         "ssq",
		Name:         "Double Color Ball",
		Primary:      SectionSpec{Name: "red", Low: 1, High: 33, Size: 6},
		Secondary:    SectionSpec{Name: "blue", Low: 1, High: 16, Size: 1},
		DrawWeekdays: []time.Weekday{time.Tuesday, time.Thursday, time.Sunday},
	}

	KL8 = Game{
		Code:    "kl8",
		Name:    "Happy 8",
		Primary: SectionSpec{Name: "number", Low: 1, High: 80, Size: 20},
		DrawWeekdays: []time.Weekday{
			time.Sunday, time.Monday, time.Tuesday, time.Wednesday,
			time.Thursday, time.Friday, time.Saturday,
		},
	}
)

// LookupGame resolves a game by its code
func LookupGame(code string) (Game, error) {
	switch strings.ToLower(strings.TrimSpace(code)) {
	case SSQ.Code:
		return SSQ, nil
	case KL8.Code:
		return KL8, nil
	default:
		return Game{}, fmt.Errorf("%w: %q", ErrUnknownGame, code)
	}
}

// Spec returns the spec for a section
func (g Game) Spec(s Section) SectionSpec {
	if s == Secondary {
		return g.Secondary
	}
	return g.Primary
}

// Sections returns the sections the game actually draws
func (g Game) Sections() []Section {
	if g.Secondary.Size > 0 {
		return []Section{Primary, Secondary}
	}
	return []Section{Primary}
}

// HasSecondary reports whether the game draws a secondary section
func (g Game) HasSecondary() bool {
	return g.Secondary.Size > 0
}

// IsDrawDay reports whether wd is a scheduled draw weekday
func (g Game) IsDrawDay(wd time.Weekday) bool {
	for _, d := range g.DrawWeekdays {
		if d == wd {
			return true
		}
	}
	return false
}

// NextDrawWeekday returns the weekday of the first scheduled draw strictly after the given date.
func (g Game) NextDrawWeekday(after time.Time) time.Weekday {
	if len(g.DrawWeekdays) == 0 {
		return after.AddDate(0, 0, 1).Weekday()
	}
	for step := 1; step <= 7; step++ {
		wd := after.AddDate(0, 0, step).Weekday()
		if g.IsDrawDay(wd) {
			return wd
		}
	}
	return after.Weekday()
}
