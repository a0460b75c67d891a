package validate

import (
	"strconv"
	"strings"
)

const passwordSymbols = `!@#$%^&*(),.?":{}|<>`

func Required(value string) bool {
	return strings.TrimSpace(value) != ""
}

// IsValidIPv4 accepts exactly four dot-separated decimal octets in [0,255].
// Leading zeros are rejected, so "8.8.8.8" passes and "08.8.8.8" does not.
func IsValidIPv4(value string) bool {
	parts := strings.Split(value, ".")
	if len(parts) != 4 {
		return false
	}

	for _, part := range parts {
		if part == "" || len(part) > 3 {
			return false
		}
		if len(part) > 1 && part[0] == '0' {
			return false
		}
		for i := 0; i < len(part); i++ {
			if part[i] < '0' || part[i] > '9' {
				return false
			}
		}
		n, err := strconv.Atoi(part)
		if err != nil || n > 255 {
			return false
		}
	}

	return true
}

// IsStrongPassword requires at least 8 characters with at least one uppercase
// letter, one lowercase letter, one digit and one symbol from the fixed set.
func IsStrongPassword(password string) bool {
	if len(password) < 8 {
		return false
	}

	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSymbols, r):
			symbol = true
		}
	}

	return upper && lower && digit && symbol
}

// IsValidEmail requires a single "@" with non-empty local and domain parts and
// a dotted domain.
func IsValidEmail(email string) bool {
	if strings.Count(email, "@") != 1 {
		return false
	}
	if strings.ContainsAny(email, " \t\r\n") {
		return false
	}

	at := strings.Index(email, "@")
	local, domain := email[:at], email[at+1:]
	if local == "" || domain == "" {
		return false
	}

	dot := strings.LastIndex(domain, ".")
	if dot <= 0 || dot == len(domain)-1 {
		return false
	}

	return true
}

// IsValidPhone accepts 8 to 15 characters of digits, spaces, "+", "(", ")"
// and "-".
func IsValidPhone(phone string) bool {
	if len(phone) < 8 || len(phone) > 15 {
		return false
	}

	for _, r := range phone {
		switch {
		case r >= '0' && r <= '9':
		case r == ' ' || r == '+' || r == '(' || r == ')' || r == '-':
		default:
			return false
		}
	}

	return true
}
