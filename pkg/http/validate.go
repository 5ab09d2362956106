package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var validate = newValidator()

// newValidator reports fields by their query or json name so that error
// fields match what the client sent.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"query", "json"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	return v
}

// ReadAndValidateRequest binds query/body into req, applies `default` tags and
// runs `validate` tags. It returns nil or one entry per problem.
func ReadAndValidateRequest(c echo.Context, req interface{}) []ValidationError {
	if err := c.Bind(req); err != nil {
		return toValidationErrors(err)
	}
	if err := defaults.Set(req); err != nil {
		return toValidationErrors(err)
	}
	if err := validate.StructCtx(c.Request().Context(), req); err != nil {
		return toValidationErrors(err)
	}
	return nil
}

func toValidationErrors(err error) []ValidationError {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		out := make([]ValidationError, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			out = append(out, ValidationError{
				Code:    "ERR_" + strings.ToUpper(fe.Tag()),
				Field:   fe.Field(),
				Message: fieldMessage(fe),
				Params:  fieldParams(fe),
			})
		}
		return out
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		return []ValidationError{{Code: "ERR_BIND", Message: fmt.Sprintf("%v", he.Message)}}
	}
	return []ValidationError{{Code: "ERR_UNKNOWN", Message: err.Error()}}
}

var messages = map[string]string{
	"required": "%s is required",
	"datetime": "%s must match the layout %s",
	"oneof":    "%s must be one of: %s",
	"gt":       "%s must be greater than %s",
	"gte":      "%s must be greater than or equal to %s",
	"lt":       "%s must be less than %s",
	"lte":      "%s must be less than or equal to %s",
	"min":      "%s must be at least %s",
	"max":      "%s must be at most %s",
}

// params key per tag
var paramKeys = map[string]string{
	"min":      "min",
	"gte":      "min",
	"max":      "max",
	"lte":      "max",
	"gt":       "value",
	"lt":       "value",
	"datetime": "layout",
}

func fieldMessage(fe validator.FieldError) string {
	tmpl, ok := messages[fe.Tag()]
	if !ok {
		return fmt.Sprintf("%s failed validation: %s", fe.Field(), fe.Tag())
	}
	param := fe.Param()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf(tmpl, fe.Field())
	case "oneof":
		param = strings.ReplaceAll(param, " ", ", ")
	case "min", "max":
		if fe.Kind() == reflect.String {
			tmpl += " characters"
		}
	}
	return fmt.Sprintf(tmpl, fe.Field(), param)
}

func fieldParams(fe validator.FieldError) map[string]interface{} {
	if fe.Tag() == "oneof" {
		return map[string]interface{}{"options": strings.Fields(fe.Param())}
	}
	if key, ok := paramKeys[fe.Tag()]; ok {
		return map[string]interface{}{key: fe.Param()}
	}
	return nil
}
