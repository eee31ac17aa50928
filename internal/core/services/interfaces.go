package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"aidmap-api/internal/adapters/realtime"
	"aidmap-api/internal/pkg/logger"

	"github.com/go-playground/validator/v10"
)

// ErrValidation wraps the first failing field of an input struct
var ErrValidation = errors.New("validation failed")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// validateStruct runs struct tag validation and reports the first failure
func validateStruct(input interface{}) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%w: %s is required", ErrValidation, fe.Field())
	case "email":
		return fmt.Errorf("%w: %s must be a valid email", ErrValidation, fe.Field())
	case "min":
		return fmt.Errorf("%w: %s must be at least %s characters", ErrValidation, fe.Field(), fe.Param())
	case "max":
		return fmt.Errorf("%w: %s must be at most %s characters", ErrValidation, fe.Field(), fe.Param())
	case "oneof":
		return fmt.Errorf("%w: %s must be one of [%s]", ErrValidation, fe.Field(), fe.Param())
	default:
		return fmt.Errorf("%w: %s is invalid", ErrValidation, fe.Field())
	}
}

// publish sends a row event when a publisher is wired
func publish(p realtime.Publisher, topic, eventType, id string, createdAt time.Time, row interface{}) {
	if p == nil {
		return
	}
	ev, err := realtime.NewEvent(topic, eventType, id, createdAt, row)
	if err != nil {
		logger.WithError(err).WithField("topic", topic).Warn("⚠️ realtime event skipped")
		return
	}
	p.Publish(ev)
}

// trimmed returns nil for blank strings
func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
