package validators

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/friotec/fieldservice-backend/pkg/errors"
)

const maxBodyBytes = 1 << 20

// enumValue is implemented by every string enum in pkg/enums.
type enumValue interface {
	IsValid() bool
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
	if err := v.RegisterValidation("enum", isKnownEnum); err != nil {
		panic(err)
	}
	return v
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	}
	return name
}

// isKnownEnum backs the `enum` tag: the value must report IsValid.
func isKnownEnum(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.CanInterface() {
		if e, ok := field.Interface().(enumValue); ok {
			return e.IsValid()
		}
	}
	return false
}

// DecodeJSONBody decodes a single JSON object into dest, rejecting unknown
// fields and trailing data, then applies dest's validate tags.
func DecodeJSONBody(r *http.Request, dest any) error {
	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	defer io.Copy(io.Discard, body)

	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return invalidBody(err)
	}
	if dec.More() {
		return invalidBody(errors.New("body must contain a single JSON object"))
	}

	var fieldErrs validator.ValidationErrors
	switch err := validate.Struct(dest); {
	case errors.As(err, &fieldErrs):
		details := make(map[string]string, len(fieldErrs))
		for _, fe := range fieldErrs {
			details[fe.Field()] = describe(fe)
		}
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	case err != nil:
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
	}
	return nil
}

func invalidBody(err error) error {
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body").
		WithDetails(map[string]any{"error": err.Error()})
}

func describe(fe validator.FieldError) string {
	param := fe.Param()
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + param
	case "max":
		return "must be at most " + param
	case "email":
		return "must be a valid email"
	case "oneof":
		return "must be one of " + param
	case "uuid":
		return "must be a valid uuid"
	case "enum":
		return fmt.Sprintf("%q is not a recognised value", fe.Value())
	case "dive":
		return "contains an invalid entry"
	default:
		return "is invalid"
	}
}
