package payout

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/lotto-backtest/internal/models"
	"github.com/yourusername/lotto-backtest/internal/testutil"
)

func TestHypergeometricPMFSumsToOne(t *testing.T) {
	for n := 1; n <= 10; n++ {
		total := 0.0
		for h := 0; h <= n; h++ {
			p := HypergeometricPMF(n, h)
			assert.GreaterOrEqual(t, p, 0.0)
			total += p
		}
		assert.InDelta(t, 1.0, total, 1e-9, "n=%d", n)
	}

	assert.InDelta(t, 0.25, HypergeometricPMF(1, 1), 1e-12)
	assert.Equal(t, 0.0, HypergeometricPMF(3, 4))
	assert.Equal(t, 0.0, HypergeometricPMF(3, -1))
}

func TestEvaluateSSQ(t *testing.T) {
	draw := models.NewDraw(0, "2024001", testutil.Epoch, []int{1, 2, 3, 4, 5, 6}, []int{9})

	tests := []struct {
		name    string
		primary []int
		blue    int
		want    Tier
	}{
		{"6+1", []int{1, 2, 3, 4, 5, 6}, 9, 1},
		{"6+0", []int{1, 2, 3, 4, 5, 6}, 8, 2},
		{"5+1", []int{1, 2, 3, 4, 5, 30}, 9, 3},
		{"5+0", []int{1, 2, 3, 4, 5, 30}, 8, 4},
		{"4+1", []int{1, 2, 3, 4, 29, 30}, 9, 4},
		{"4+0", []int{1, 2, 3, 4, 29, 30}, 8, 5},
		{"3+1", []int{1, 2, 3, 28, 29, 30}, 9, 5},
		{"3+0", []int{1, 2, 3, 28, 29, 30}, 8, TierNone},
		{"2+1", []int{1, 2, 27, 28, 29, 30}, 9, 6},
		{"0+1", []int{25, 26, 27, 28, 29, 30}, 9, 6},
		{"0+0", []int{25, 26, 27, 28, 29, 30}, 8, TierNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EvaluateSSQ(tt.primary, []int{tt.blue}, draw))
		})
	}
}

func TestExpectedValue(t *testing.T) {
	empty := Table{Choose: 5, Price: decimal.NewFromInt(2), Payouts: map[int]decimal.Decimal{}}
	assert.True(t, ExpectedValue(empty).Equal(decimal.NewFromInt(-2)))

	pickOne := Table{Choose: 1, Price: decimal.NewFromInt(2), Payouts: map[int]decimal.Decimal{1: decimal.NewFromInt(8)}}
	assert.True(t, ExpectedValue(pickOne).Equal(decimal.Zero), ExpectedValue(pickOne).String())
}

func TestKellyFraction(t *testing.T) {
	favourable := Table{Choose: 1, Price: decimal.NewFromInt(2), Payouts: map[int]decimal.Decimal{1: decimal.NewFromInt(20)}}
	assert.InDelta(t, 1.5/9, KellyFraction(favourable, 500), 0.005)

	unfavourable := Table{Choose: 1, Price: decimal.NewFromInt(2), Payouts: map[int]decimal.Decimal{1: decimal.NewFromInt(4)}}
	assert.Equal(t, 0.0, KellyFraction(unfavourable, 500))
	assert.Equal(t, 0, Stakes(unfavourable, decimal.NewFromInt(100), 1))

	stakes := Stakes(favourable, decimal.NewFromInt(200), 0.5)
	assert.InDelta(t, 8, stakes, 1)
}

func TestParseTable(t *testing.T) {
	table, err := ParseTable(strings.NewReader(`{"choose":7,"price_per_bet":2.0,"payouts":{"0":0,"4":28,"7":80000}}`))
	require.NoError(t, err)
	assert.Equal(t, 7, table.Choose)
	assert.True(t, table.Payouts[7].Equal(decimal.NewFromInt(80000)))

	_, err = ParseTable(strings.NewReader(`{"choose":3,"price_per_bet":2,"payouts":{"5":10}}`))
	assert.True(t, errors.Is(err, models.ErrConfiguration))

	_, err = ParseTable(strings.NewReader(`{"choose":3,"price_per_bet":0,"payouts":{}}`))
	assert.True(t, errors.Is(err, models.ErrConfiguration))

	_, err = ParseTable(strings.NewReader(`not json`))
	assert.True(t, errors.Is(err, models.ErrConfiguration))
}
