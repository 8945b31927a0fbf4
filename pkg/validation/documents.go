package validation

import (
	"regexp"
	"strings"
)

var nonDigits = regexp.MustCompile(`\D`)

// Digits strips every non-digit rune from s.
func Digits(s string) string {
	return nonDigits.ReplaceAllString(s, "")
}

// ValidateCPF checks a Brazilian CPF number, with or without the
// XXX.XXX.XXX-XX separators. The two check digits are weighted sums
// modulo 11; a remainder of 10 or 11 maps to 0. Sequences of a single
// repeated digit pass the checksum but are not valid documents.
func ValidateCPF(cpf string) bool {
	d := Digits(cpf)
	if len(d) != 11 {
		return false
	}
	if strings.Count(d, string(d[0])) == 11 {
		return false
	}

	sum := 0
	for i := 0; i < 9; i++ {
		sum += int(d[i]-'0') * (10 - i)
	}
	check := 11 - sum%11
	if check >= 10 {
		check = 0
	}
	if check != int(d[9]-'0') {
		return false
	}

	sum = 0
	for i := 0; i < 10; i++ {
		sum += int(d[i]-'0') * (11 - i)
	}
	check = 11 - sum%11
	if check >= 10 {
		check = 0
	}
	return check == int(d[10]-'0')
}

// FormatCPF renders a CPF as XXX.XXX.XXX-XX. Idempotent: already
// formatted input passes through unchanged. Input that does not strip
// to 11 digits is returned digits-only, matching the lenient behavior
// the registration form relies on.
func FormatCPF(cpf string) string {
	d := Digits(cpf)
	if len(d) != 11 {
		return d
	}
	return d[0:3] + "." + d[3:6] + "." + d[6:9] + "-" + d[9:11]
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail accepts local@domain.tld addresses, including
// subdomains and +tags, and rejects whitespace and consecutive dots.
func ValidateEmail(email string) bool {
	if strings.Contains(email, "..") {
		return false
	}
	return emailPattern.MatchString(email)
}

// ValidateISBN checks an ISBN-10 or ISBN-13, separators optional.
func ValidateISBN(isbn string) bool {
	d := Digits(isbn)
	switch len(d) {
	case 10:
		sum := 0
		for i := 0; i < 9; i++ {
			sum += int(d[i]-'0') * (10 - i)
		}
		rest := 11 - sum%11
		// An X check digit never survives the digit strip, so a
		// remainder of 10 cannot match.
		if rest == 10 {
			return false
		}
		if rest == 11 {
			rest = 0
		}
		return rest == int(d[9]-'0')
	case 13:
		sum := 0
		for i := 0; i < 12; i++ {
			w := 1
			if i%2 == 1 {
				w = 3
			}
			sum += int(d[i]-'0') * w
		}
		check := 10 - sum%10
		if check == 10 {
			check = 0
		}
		return check == int(d[12]-'0')
	default:
		return false
	}
}

// FormatISBN hyphenates a 10- or 13-digit ISBN; anything else passes
// through unchanged.
func FormatISBN(isbn string) string {
	d := Digits(isbn)
	switch len(d) {
	case 13:
		return d[0:3] + "-" + d[3:4] + "-" + d[4:9] + "-" + d[9:12] + "-" + d[12:13]
	case 10:
		return d[0:1] + "-" + d[1:6] + "-" + d[6:9] + "-" + d[9:10]
	default:
		return isbn
	}
}

// FormatPhone renders Brazilian phone numbers as (DD) NNNNN-NNNN for
// mobile (11 digits) or (DD) NNNN-NNNN for landline (10 digits).
// Anything else passes through unchanged.
func FormatPhone(phone string) string {
	d := Digits(phone)
	switch len(d) {
	case 11:
		return "(" + d[0:2] + ") " + d[2:7] + "-" + d[7:11]
	case 10:
		return "(" + d[0:2] + ") " + d[2:6] + "-" + d[6:10]
	default:
		return phone
	}
}
