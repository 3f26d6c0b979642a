package auth

import (
	"regexp"
	"strings"
	"unicode"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether email looks like an address.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// Strength grades a password.
type Strength string

const (
	StrengthWeak   Strength = "weak"
	StrengthMedium Strength = "medium"
	StrengthStrong Strength = "strong"
)

// PasswordChecks lists which password rules are satisfied.
type PasswordChecks struct {
	MinLength      bool `json:"minLength"`
	HasUpperCase   bool `json:"hasUpperCase"`
	HasLowerCase   bool `json:"hasLowerCase"`
	HasNumbers     bool `json:"hasNumbers"`
	HasSpecialChar bool `json:"hasSpecialChar"`
}

// PasswordReport is the result of PasswordStrength.
type PasswordReport struct {
	Score    int            `json:"score"`
	Strength Strength       `json:"strength"`
	Checks   PasswordChecks `json:"checks"`
}

const specialChars = `!@#$%^&*(),.?":{}|<>`

// PasswordStrength scores password on five rules: <=2 weak, 3 medium, more strong.
func PasswordStrength(password string) PasswordReport {
	c := PasswordChecks{MinLength: len(password) >= 6}
	for _, r := range password {
		switch {
		case unicode.IsUpper(r) && r < unicode.MaxASCII:
			c.HasUpperCase = true
		case unicode.IsLower(r) && r < unicode.MaxASCII:
			c.HasLowerCase = true
		case r >= '0' && r <= '9':
			c.HasNumbers = true
		case strings.ContainsRune(specialChars, r):
			c.HasSpecialChar = true
		}
	}

	score := 0
	for _, ok := range []bool{c.MinLength, c.HasUpperCase, c.HasLowerCase, c.HasNumbers, c.HasSpecialChar} {
		if ok {
			score++
		}
	}

	strength := StrengthStrong
	switch {
	case score <= 2:
		strength = StrengthWeak
	case score == 3:
		strength = StrengthMedium
	}
	return PasswordReport{Score: score, Strength: strength, Checks: c}
}

// SanitizeName trims name and collapses inner whitespace.
func SanitizeName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// SafeRedirect returns target if it is a local absolute path, otherwise fallback.
func SafeRedirect(target, fallback string) string {
	if strings.HasPrefix(target, "/") && !strings.HasPrefix(target, "//") {
		return target
	}
	if fallback == "" {
		return "/"
	}
	return fallback
}
