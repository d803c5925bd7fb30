package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rpupo63/fadarc-site-backend/errs"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report json names so the field matches what the client sent
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateRequest maps the first failed rule to a 400 ApiErr.
func validateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return errs.NewBadRequestError(err.Error())
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return errs.NewMissingRequiredFieldError(fe.Field())
	case "email":
		return errs.NewInvalidFieldError(fe.Field(), "must be a valid email address")
	case "max":
		return errs.NewInvalidFieldError(fe.Field(), "must be at most "+fe.Param()+" characters")
	default:
		return errs.NewInvalidFieldError(fe.Field(), "failed "+fe.Tag()+" check")
	}
}

// decodeJSON reads a single JSON object from the request body.
func decodeJSON(r *http.Request, payloadName string, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errs.NewMalformedPayloadError(payloadName, errors.New("empty body"))
		}
		return errs.NewMalformedPayloadError(payloadName, err)
	}
	return nil
}
