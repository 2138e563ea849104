package validator

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

var (
	e164Regex         = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)
	alphanumericRegex = regexp.MustCompile(`^[a-zA-Z0-9]+$`)
)

// Required checks that value is not blank.
func Required(field, value string) Rule {
	return Rule{
		Check: func() bool { return strings.TrimSpace(value) != "" },
		Error: fail(field, "required", "field is required"),
	}
}

// MaxLen checks the length of value in characters.
func MaxLen(field, value string, max int) Rule {
	return Rule{
		Check: func() bool { return utf8.RuneCountInString(value) <= max },
		Error: fail(field, "max_length", fmt.Sprintf("must be at most %d characters long", max)),
	}
}

// Email checks value is a bare RFC 5322 address with a dotted domain.
func Email(field, value string) Rule {
	return Rule{
		Check: func() bool {
			addr, err := mail.ParseAddress(value)
			if err != nil || addr.Address != strings.TrimSpace(value) {
				return false
			}
			at := strings.LastIndexByte(addr.Address, '@')
			if at <= 0 {
				return false
			}
			domain := addr.Address[at+1:]
			return strings.Contains(domain, ".") &&
				!strings.HasPrefix(domain, ".") &&
				!strings.HasSuffix(domain, ".")
		},
		Error: fail(field, "email", "must be a valid email address"),
	}
}

// E164Phone checks value is a phone number in E.164 form, e.g. +56912345678.
func E164Phone(field, value string) Rule {
	return Rule{
		Check: func() bool { return e164Regex.MatchString(value) },
		Error: fail(field, "phone", "must be a phone number in E.164 format"),
	}
}

// Alphanumeric checks value is non-empty ASCII letters and digits after the
// characters in ignore are removed.
func Alphanumeric(field, value, ignore string) Rule {
	return Rule{
		Check: func() bool {
			cleaned := strings.Map(func(r rune) rune {
				if strings.ContainsRune(ignore, r) {
					return -1
				}
				return r
			}, value)
			return alphanumericRegex.MatchString(cleaned)
		},
		Error: fail(field, "alphanumeric", "must contain only letters and numbers"),
	}
}

// UUID checks value parses as a UUID.
func UUID(field, value string) Rule {
	return Rule{
		Check: func() bool {
			_, err := uuid.Parse(value)
			return err == nil
		},
		Error: fail(field, "uuid", "must be a valid UUID"),
	}
}
