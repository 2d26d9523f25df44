// Package validation checks inbound webhook payloads and operator forms.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/popeskul/rentverify/internal/models"
)

// PhonePattern is the accepted international phone format for senders and recipients.
var PhonePattern = regexp.MustCompile(`^\+?\d{10,15}$`)

var validate *validator.Validate

func init() {
	validate = validator.New()

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	_ = validate.RegisterValidation("intlphone", func(fl validator.FieldLevel) bool {
		return PhonePattern.MatchString(fl.Field().String())
	})
	_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
}

// Errors maps a field name to a human-readable reason.
type Errors map[string]string

func (e Errors) Error() string {
	fields := e.Fields()
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, e[f]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Fields returns the failing field names in sorted order.
func (e Errors) Fields() []string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

type smsPayload struct {
	From string `form:"From" validate:"required,intlphone"`
	Body string `form:"Body" validate:"required,notblank"`
}

var smsMessages = map[string]string{
	"From": "Invalid or missing phone number.",
	"Body": "Message body is required.",
}

// ValidateSMSPayload checks an inbound SMS webhook payload. A missing key is
// treated the same as an empty value.
func ValidateSMSPayload(payload map[string]string) (bool, Errors) {
	errs := check(smsPayload{From: payload["From"], Body: payload["Body"]}, smsMessages)
	return len(errs) == 0, errs
}

type loginForm struct {
	Username string `form:"username" validate:"required,notblank"`
	Password string `form:"password" validate:"required,notblank"`
}

var loginMessages = map[string]string{
	"username": "Username is required.",
	"password": "Password is required.",
}

// ValidateLoginForm checks that both credentials were submitted.
func ValidateLoginForm(username, password string) (bool, Errors) {
	errs := check(loginForm{Username: username, Password: password}, loginMessages)
	return len(errs) == 0, errs
}

var outboundMessages = map[string]string{
	"name":    "Recipient name is required.",
	"phone":   "Invalid or missing phone number.",
	"address": "Recipient address is required.",
	"email":   "Email address is invalid.",
	"message": "Message body is required.",
}

// ValidateOutboundRequest checks the operator's send form. Email is optional.
func ValidateOutboundRequest(req models.OutboundRequest) (bool, Errors) {
	errs := check(req, outboundMessages)
	return len(errs) == 0, errs
}

func check(v any, messages map[string]string) Errors {
	errs := Errors{}

	err := validate.Struct(v)
	if err == nil {
		return errs
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		errs["_"] = err.Error()
		return errs
	}

	for _, fe := range fieldErrs {
		if _, seen := errs[fe.Field()]; seen {
			continue
		}
		msg, ok := messages[fe.Field()]
		if !ok {
			msg = fmt.Sprintf("failed on %s", fe.Tag())
		}
		errs[fe.Field()] = msg
	}
	return errs
}
