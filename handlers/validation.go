package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var (
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern    = regexp.MustCompile(`^(\+?[0-9]{1,4})?[0-9]{9,15}$`)
	walletPattern   = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)
	fullNamePattern = regexp.MustCompile(`^\p{L}[\p{L}\s]{0,48}\p{L}$`)
	specialChars    = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>]`)
)

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
	must := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(err)
		}
	}
	must("email_address", matches(emailPattern))
	must("phone", matches(phonePattern))
	must("wallet", matches(walletPattern))
	must("fullname", matches(fullNamePattern))
	must("studyhub_password", func(fl validator.FieldLevel) bool {
		return passwordProblem(fl.Field().String()) == ""
	})
	must("past_date", func(fl validator.FieldLevel) bool {
		t, err := parseDate(fl.Field().String())
		return err == nil && !t.After(time.Now())
	})
	return v
}

func matches(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(strings.TrimSpace(fl.Field().String()))
	}
}

// passwordProblem returns the first policy rule the password breaks, or "".
func passwordProblem(pw string) string {
	switch {
	case len(pw) < 8:
		return "Password must be at least 8 characters long"
	case !strings.ContainsAny(pw, "ABCDEFGHIJKLMNOPQRSTUVWXYZ"):
		return "Password must contain at least one uppercase letter"
	case !strings.ContainsAny(pw, "abcdefghijklmnopqrstuvwxyz"):
		return "Password must contain at least one lowercase letter"
	case !strings.ContainsAny(pw, "0123456789"):
		return "Password must contain at least one number"
	case !specialChars.MatchString(pw):
		return "Password must contain at least one special character"
	}
	return ""
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

var fieldMessages = map[string]string{
	"email.required":           "Email is required",
	"email.email_address":      "Please provide a valid email address",
	"phone.required":           "Phone number is required",
	"phone.phone":              "Please provide a valid phone number (9-15 digits, optionally with country code)",
	"password.required":        "Password is required",
	"newPassword.required":     "New password is required",
	"currentPassword.required": "Current password is required",
	"fullName.required":        "Fullname is required",
	"fullName.fullname":        "Please provide a valid name (2-50 characters, only letters allowed)",
	"dob.required":             "Day of birth is required",
	"dob.past_date":            "Please provide a valid date of birth (less than or equal to the present)",
	"gender.required":          "Gender is required",
	"gender.oneof":             "Please provide a valid gender (male, female, other)",
	"walletAddress.required":   "Wallet address is required",
	"walletAddress.wallet":     "Please provide a valid wallet address",
	"refreshToken.required":    "Refresh token is required",
	"token.required":           "Token is required",
}

// validationMessage turns the first validator failure into a user-facing message.
func validationMessage(err error) string {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return err.Error()
	}
	fe := errs[0]
	if fe.Tag() == "studyhub_password" {
		return passwordProblem(fmt.Sprint(fe.Value()))
	}
	if msg, ok := fieldMessages[fe.Field()+"."+fe.Tag()]; ok {
		return msg
	}
	if fe.Tag() == "required" {
		return fmt.Sprintf("%s is required", fe.Field())
	}
	return fmt.Sprintf("Invalid value for %s", fe.Field())
}

// parseBody decodes and validates the request body, writing the 400 itself.
// The returned bool is false when the handler should stop.
func parseBody(c *fiber.Ctx, out interface{}) (bool, error) {
	if err := c.BodyParser(out); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(out); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationMessage(err)})
	}
	return true, nil
}

func paramUUID(c *fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	return id, err == nil
}
