package service

import (
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/yourusername/lotto-backtest/internal/datasource"
)

// DataNormalizer canonicalizes fetched notices before validation
type DataNormalizer struct{}

// NewDataNormalizer creates a new data normalizer
func NewDataNormalizer() *DataNormalizer {
	return &DataNormalizer{}
}

// NormalizeNotice keeps only the digits of the period code, sorts both
// number sections and reduces the date to its UTC calendar day.
func (n *DataNormalizer) NormalizeNotice(notice datasource.DrawNotice) datasource.DrawNotice {
	out := notice
	out.Period = NormalizePeriod(notice.Period)

	out.Primary = append([]int(nil), notice.Primary...)
	sort.Ints(out.Primary)
	if len(notice.Secondary) > 0 {
		out.Secondary = append([]int(nil), notice.Secondary...)
		sort.Ints(out.Secondary)
	}

	if !notice.Date.IsZero() {
		y, m, d := notice.Date.Date()
		out.Date = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	return out
}

// NormalizePeriod strips separators such as "2024-001" down to "2024001".
func NormalizePeriod(period string) string {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, period)
	if digits == "" {
		return strings.TrimSpace(period)
	}
	return digits
}
