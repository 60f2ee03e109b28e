package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupGame(t *testing.T) {
	g, err := LookupGame(" SSQ ")
	require.NoError(t, err)
	assert.Equal(t, "ssq", g.Code)

	_, err = LookupGame("powerball")
	assert.True(t, errors.Is(err, ErrUnknownGame))
}

func TestNextDrawWeekday(t *testing.T) {
	tue := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Thursday, SSQ.NextDrawWeekday(tue))

	thu := tue.AddDate(0, 0, 2)
	assert.Equal(t, time.Sunday, SSQ.NextDrawWeekday(thu))

	sun := tue.AddDate(0, 0, 5)
	assert.Equal(t, time.Tuesday, SSQ.NextDrawWeekday(sun))

	assert.Equal(t, time.Wednesday, KL8.NextDrawWeekday(tue))
}

func TestSumBounds(t *testing.T) {
	lo, hi := SSQ.Primary.SumBounds()
	assert.Equal(t, 21, lo)
	assert.Equal(t, 183, hi)
	assert.Equal(t, 0, KL8.Secondary.RangeSize())
}

func TestDrawValidate(t *testing.T) {
	date := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		draw    Draw
		wantErr bool
	}{
		{"valid", NewDraw(1, "2024001", date, []int{1, 2, 3, 4, 5, 6}, []int{7}), false},
		{"short primary", NewDraw(1, "2024001", date, []int{1, 2, 3}, []int{7}), true},
		{"out of range", NewDraw(1, "2024001", date, []int{1, 2, 3, 4, 5, 34}, []int{7}), true},
		{"duplicate", NewDraw(1, "2024001", date, []int{1, 1, 3, 4, 5, 6}, []int{7}), true},
		{"missing blue", NewDraw(1, "2024001", date, []int{1, 2, 3, 4, 5, 6}, nil), true},
		{"no date", NewDraw(1, "2024001", time.Time{}, []int{1, 2, 3, 4, 5, 6}, []int{7}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.draw.Validate(SSQ)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidDraw))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewDrawCopiesInput(t *testing.T) {
	primary := []int{1, 2, 3, 4, 5, 6}
	d := NewDraw(1, "", time.Now(), primary, []int{1})
	primary[0] = 33
	assert.Equal(t, 1, d.Primary[0])
}
