package entity

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var purposeLabels = map[string]string{
	"2fa": "Two-Factor Authentication",
}

// PurposeLabel turns a purpose wire value into a human title, for example
// "password_reset" -> "Password Reset".
func PurposeLabel(purpose string) string {
	if label, ok := purposeLabels[purpose]; ok {
		return label
	}
	return cases.Title(language.English).String(strings.ReplaceAll(purpose, "_", " "))
}
