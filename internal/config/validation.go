package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"

	"github.com/yourusername/lotto-backtest/internal/models"
)

// customRule is a validator tag registered by NewValidator
type customRule struct {
	fn      validator.Func
	message string
}

var customRules = map[string]customRule{
	"environment": {
		fn:      oneOfValidator("development", "staging", "production"),
		message: "must be one of: development, staging, production",
	},
	"loglevel": {
		fn:      oneOfValidator("debug", "info", "warn", "error"),
		message: "must be one of: debug, info, warn, error",
	},
	"game_code": {
		fn: func(fl validator.FieldLevel) bool {
			_, err := models.LookupGame(fl.Field().String())
			return err == nil
		},
		message: fmt.Sprintf("must be one of: %s, %s", models.SSQ.Code, models.KL8.Code),
	},
	"cron": {
		fn: func(fl validator.FieldLevel) bool {
			_, err := cron.ParseStandard(fl.Field().String())
			return err == nil
		},
		message: "must be a standard five-field cron expression",
	},
}

// CustomValidator wraps the validator with the lotto-specific rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a validator with every custom rule registered
func NewValidator() *CustomValidator {
	v := validator.New()
	for tag, rule := range customRules {
		_ = v.RegisterValidation(tag, rule.fn)
	}
	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	return NewValidator().Validate(cfg)
}

// Validate runs the struct tags first, then the rules that span several fields.
// Every failure wraps models.ErrConfiguration.
func (cv *CustomValidator) Validate(cfg *Config) error {
	if err := cv.validator.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			return formatValidationErrors(fieldErrs)
		}
		return fmt.Errorf("%w: validation failed: %v", models.ErrConfiguration, err)
	}

	for _, rule := range crossFieldRules {
		if msg := rule(cfg); msg != "" {
			return fmt.Errorf("%w: %s", models.ErrConfiguration, msg)
		}
	}
	return nil
}

func oneOfValidator(allowed ...string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		for _, a := range allowed {
			if value == a {
				return true
			}
		}
		return false
	}
}

// crossFieldRules return a message when the configuration breaks them
var crossFieldRules = []func(*Config) string{
	func(c *Config) string {
		bt := c.Backtest
		if bt.EndIndex >= 0 && bt.StartIndex > bt.EndIndex {
			return fmt.Sprintf("backtest start_index (%d) must not exceed end_index (%d)", bt.StartIndex, bt.EndIndex)
		}
		return ""
	},
	func(c *Config) string {
		bt := c.Backtest
		if bt.ShortWindow > bt.LongWindow {
			return fmt.Sprintf("backtest short_window (%d) cannot exceed long_window (%d)", bt.ShortWindow, bt.LongWindow)
		}
		return ""
	},
	func(c *Config) string {
		bt := c.Backtest
		if bt.MaxWindow > 0 && bt.MinWindow > bt.MaxWindow {
			return fmt.Sprintf("backtest min_window (%d) cannot exceed max_window (%d)", bt.MinWindow, bt.MaxWindow)
		}
		return ""
	},
	func(c *Config) string {
		if c.Recommend.Pick > models.KL8.Primary.Size {
			return fmt.Sprintf("recommend pick (%d) cannot exceed %d", c.Recommend.Pick, models.KL8.Primary.Size)
		}
		return ""
	},
	func(c *Config) string {
		if c.IsProduction() && c.Database.Enabled && c.Database.SSLMode == "disable" {
			return "production environment requires SSL mode to be 'require' or 'verify-full'"
		}
		return ""
	},
	func(c *Config) string {
		if c.Database.MaxIdleConnections > c.Database.MaxConnections {
			return "max_idle_connections cannot exceed max_connections"
		}
		return ""
	},
}

// formatValidationErrors lists one line per failed field
func formatValidationErrors(fieldErrs validator.ValidationErrors) error {
	var b strings.Builder
	for _, fe := range fieldErrs {
		fmt.Fprintf(&b, "- Field '%s' %s\n", fe.StructNamespace(), describe(fe))
	}
	return fmt.Errorf("%w: configuration validation failed:\n%s", models.ErrConfiguration, b.String())
}

func describe(fe validator.FieldError) string {
	if rule, ok := customRules[fe.Tag()]; ok {
		return fmt.Sprintf("%s, got '%v'", rule.message, fe.Value())
	}
	switch fe.Tag() {
	case "required", "required_if":
		return "is required"
	case "url":
		return fmt.Sprintf("must be a valid URL, got '%v'", fe.Value())
	case "min", "max", "gt", "gte", "lt", "lte":
		return fmt.Sprintf("violates %s=%s", fe.Tag(), fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got '%v'", fe.Param(), fe.Value())
	default:
		return "failed validation: " + fe.Tag()
	}
}
