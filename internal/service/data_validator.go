package service

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/lotto-backtest/internal/datasource"
	"github.com/yourusername/lotto-backtest/internal/models"
)

// DataValidator validates fetched draw notices against a game contract
type DataValidator struct {
	logger *logrus.Logger
	now    func() time.Time
}

// NewDataValidator creates a new data validator
func NewDataValidator(logger *logrus.Logger) *DataValidator {
	return &DataValidator{
		logger: logger,
		now:    time.Now,
	}
}

// ValidateNotice returns every rule the notice breaks. An empty slice means
// the notice can be stored.
func (v *DataValidator) ValidateNotice(game models.Game, notice datasource.DrawNotice) []string {
	var errors []string

	if notice.Period == "" {
		errors = append(errors, "period is required")
	}

	if notice.Date.IsZero() {
		errors = append(errors, "draw date is required")
	} else {
		if notice.Date.After(v.now().Add(24 * time.Hour)) {
			errors = append(errors, fmt.Sprintf("draw date %s is in the future", notice.Date.Format("2006-01-02")))
		}
		if !game.IsDrawDay(notice.Date.Weekday()) {
			errors = append(errors, fmt.Sprintf("%s is not a %s draw day", notice.Date.Weekday(), game.Code))
		}
	}

	draw := models.NewDraw(0, notice.Period, notice.Date, notice.Primary, notice.Secondary)
	if err := draw.Validate(game); err != nil {
		errors = append(errors, err.Error())
	}

	if notice.Sales.IsNegative() {
		errors = append(errors, "sales cannot be negative")
	}
	if notice.PoolMoney.IsNegative() {
		errors = append(errors, "pool money cannot be negative")
	}

	if len(errors) > 0 && v.logger != nil {
		v.logger.WithFields(logrus.Fields{
			"game":   game.Code,
			"period": notice.Period,
			"errors": errors,
		}).Debug("Notice failed validation")
	}

	return errors
}
