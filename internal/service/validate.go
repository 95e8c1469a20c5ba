package service

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/nyaruka/phonenumbers"

	"gitlab.com/phonebookapi/phonebook-service/internal/model"
)

// fieldError names one offending field of a rejected request, with the
// location split into the request part ("body", "path", "query") and the
// field name.
type fieldError struct {
	Loc []string `json:"loc"`
	Msg string   `json:"msg"`
}

// abortValidation answers a request carrying malformed or out-of-constraint
// input with 422 and the list of offending fields.
func abortValidation(c *gin.Context, errs ...fieldError) {
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"detail": errs})
}

// bindContact decodes and validates a contact payload. On success the phone
// number has been replaced by its canonical tel: URI form; on failure the
// request has been answered with 422 and the offending fields.
func bindContact(c *gin.Context) (*model.ContactInput, bool) {
	var input model.ContactInput
	if err := c.ShouldBindJSON(&input); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			abortValidation(c, bindingFieldErrors(verrs)...)
		} else {
			abortValidation(c, fieldError{Loc: []string{"body"}, Msg: "invalid JSON"})
		}
		return nil, false
	}
	normalized, ok := NormalizePhone(input.Phone)
	if !ok {
		abortValidation(c, fieldError{
			Loc: []string{"body", "phone"},
			Msg: "value is not a valid phone number",
		})
		return nil, false
	}
	input.Phone = normalized
	return &input, true
}

// NormalizePhone parses a phone number and returns its canonical
// international tel: URI form, for example "tel:+48-33-311-12-22". The
// canonical form parses again to itself, so normalization is idempotent.
func NormalizePhone(raw string) (string, bool) {
	number, err := phonenumbers.Parse(raw, "")
	if err != nil || !phonenumbers.IsValidNumber(number) {
		return "", false
	}
	return phonenumbers.Format(number, phonenumbers.RFC3966), true
}

// bindingFieldErrors translates the binding tag violations into per-field
// error objects.
func bindingFieldErrors(verrs validator.ValidationErrors) []fieldError {
	errs := make([]fieldError, 0, len(verrs))
	for _, verr := range verrs {
		var msg string
		switch verr.Tag() {
		case "required":
			msg = "field required"
		case "max":
			msg = fmt.Sprintf("ensure this value has at most %s characters", verr.Param())
		case "email":
			msg = "value is not a valid email address"
		default:
			msg = fmt.Sprintf("failed on the '%s' rule", verr.Tag())
		}
		errs = append(errs, fieldError{
			Loc: []string{"body", strings.ToLower(verr.Field())},
			Msg: msg,
		})
	}
	return errs
}
