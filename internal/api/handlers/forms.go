package handlers

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"locatify/wanderlust/internal/services"
)

// bindErrorMessage turns a form binding error into a flash message.
func bindErrorMessage(err error) string {
	if verr, ok := services.FromValidatorErrors(err); ok {
		return sentence(verr.Error())
	}
	return "Invalid form submission."
}

// sentence upper-cases the first letter of msg.
func sentence(msg string) string {
	r, size := utf8.DecodeRuneInString(msg)
	if r == utf8.RuneError {
		return msg
	}
	var b strings.Builder
	b.WriteRune(unicode.ToUpper(r))
	b.WriteString(msg[size:])
	return b.String()
}
