package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/geocoder89/authportal/internal/domain/user"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report fields by their JSON names
	v.RegisterTagNameFunc(func(sf reflect.StructField) string {
		name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return sf.Name
		}
		return name
	})

	// length rules on optional profile fields apply to the value; null and
	// absent read as empty so omitempty skips them
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if o, ok := field.Interface().(user.Optional[string]); ok && o.Value != nil {
			return *o.Value
		}
		return ""
	}, user.Optional[string]{})

	return v
}

// firstFailure returns the failed field whose rule ranks earliest in order.
// Rules not listed rank after all listed ones.
func firstFailure(err error, order ...string) (validator.FieldError, bool) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return nil, false
	}

	rank := func(tag string) int {
		for i, t := range order {
			if t == tag {
				return i
			}
		}
		return len(order)
	}

	best := verrs[0]
	for _, fe := range verrs[1:] {
		if rank(fe.Tag()) < rank(best.Tag()) {
			best = fe
		}
	}
	return best, true
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	default:
		return fe.Field() + " is invalid"
	}
}
