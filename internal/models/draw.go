package models

import (
	"fmt"
	"time"
)

// Draw is one historical result. Treat it as immutable once created.
type Draw struct {
	Index     int       `json:"index"`
	Period    string    `json:"period"`
	Date      time.Time `json:"date"`
	Primary   []int     `json:"primary"`
	Secondary []int     `json:"secondary,omitempty"`
}

// NewDraw copies the number slices so later mutation of the inputs cannot
// change the draw.
func NewDraw(index int, period string, date time.Time, primary, secondary []int) Draw {
	return Draw{
		Index:     index,
		Period:    period,
		Date:      date,
		Primary:   append([]int(nil), primary...),
		Secondary: append([]int(nil), secondary...),
	}
}

// Numbers returns the numbers drawn for a section
func (d Draw) Numbers(s Section) []int {
	if s == Secondary {
		return d.Secondary
	}
	return d.Primary
}

// Weekday returns the weekday of the draw date
func (d Draw) Weekday() time.Weekday {
	return d.Date.Weekday()
}

// Validate checks the draw against the game's size and range contract
func (d Draw) Validate(g Game) error {
	if err := validateSection(d.Primary, g.Primary); err != nil {
		return fmt.Errorf("%w: draw %d %s: %v", ErrInvalidDraw, d.Index, g.Primary.Name, err)
	}
	if err := validateSection(d.Secondary, g.Secondary); err != nil {
		return fmt.Errorf("%w: draw %d %s: %v", ErrInvalidDraw, d.Index, g.Secondary.Name, err)
	}
	if d.Date.IsZero() {
		return fmt.Errorf("%w: draw %d has no date", ErrInvalidDraw, d.Index)
	}
	return nil
}

func validateSection(nums []int, spec SectionSpec) error {
	if len(nums) != spec.Size {
		return fmt.Errorf("expected %d numbers, got %d", spec.Size, len(nums))
	}
	seen := make(map[int]struct{}, len(nums))
	for _, n := range nums {
		if !spec.Contains(n) {
			return fmt.Errorf("number %d outside [%d, %d]", n, spec.Low, spec.High)
		}
		if _, dup := seen[n]; dup {
			return fmt.Errorf("duplicate number %d", n)
		}
		seen[n] = struct{}{}
	}
	return nil
}

// Sum returns the sum of the numbers
func Sum(nums []int) int {
	total := 0
	for _, n := range nums {
		total += n
	}
	return total
}

// OddCount returns how many numbers are odd
func OddCount(nums []int) int {
	odd := 0
	for _, n := range nums {
		if n%2 != 0 {
			odd++
		}
	}
	return odd
}
