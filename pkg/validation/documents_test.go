package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateCPF(t *testing.T) {
	valid := []string{
		"11144477735",
		"123.456.789-09",
		"12345678909",
		"529.982.247-25",
		"98765432100",
	}
	for _, cpf := range valid {
		assert.True(t, ValidateCPF(cpf), "expected valid: %s", cpf)
	}

	invalid := []string{
		"",
		"123",
		"11144477734",       // wrong check digit
		"123.456.789-00",    // wrong check digit
		"111.111.111-11",    // repeated digit passes checksum but is rejected
		"00000000000",
		"1114447773",        // 10 digits
		"111444777355",      // 12 digits
		"abc.def.ghi-jk",
	}
	for _, cpf := range invalid {
		assert.False(t, ValidateCPF(cpf), "expected invalid: %s", cpf)
	}
}

func TestFormatCPF(t *testing.T) {
	assert.Equal(t, "111.444.777-35", FormatCPF("11144477735"))
	// idempotent
	assert.Equal(t, "111.444.777-35", FormatCPF("111.444.777-35"))
	// not 11 digits: digits-only passthrough
	assert.Equal(t, "123", FormatCPF("1-2-3"))
}

func TestValidateEmail(t *testing.T) {
	valid := []string{
		"user@example.com",
		"first.last@sub.example.edu.br",
		"tag+filter@example.org",
		"u_123%x@example.io",
	}
	for _, e := range valid {
		assert.True(t, ValidateEmail(e), "expected valid: %s", e)
	}

	invalid := []string{
		"",
		"plainaddress",
		"@example.com",
		"user@",
		"user@example",
		"user..name@example.com", // consecutive dots
		"user name@example.com",  // whitespace
		"user@exa mple.com",
	}
	for _, e := range invalid {
		assert.False(t, ValidateEmail(e), "expected invalid: %s", e)
	}
}

func TestValidateISBN(t *testing.T) {
	assert.True(t, ValidateISBN("9780306406157"))
	assert.True(t, ValidateISBN("978-0-13-235088-4"))
	assert.True(t, ValidateISBN("0306406152"))
	assert.True(t, ValidateISBN("0-306-40615-2"))

	assert.False(t, ValidateISBN(""))
	assert.False(t, ValidateISBN("9780306406158"))
	assert.False(t, ValidateISBN("0306406151"))
	assert.False(t, ValidateISBN("12345"))
}

func TestFormatISBN(t *testing.T) {
	assert.Equal(t, "978-0-30640-615-7", FormatISBN("9780306406157"))
	assert.Equal(t, "0-30640-615-2", FormatISBN("0306406152"))
	// passthrough for anything else
	assert.Equal(t, "not-an-isbn", FormatISBN("not-an-isbn"))
}

func TestFormatPhone(t *testing.T) {
	assert.Equal(t, "(11) 98765-4321", FormatPhone("11987654321"))
	assert.Equal(t, "(11) 3456-7890", FormatPhone("1134567890"))
	assert.Equal(t, "123", FormatPhone("123"))
}

func TestDigits(t *testing.T) {
	assert.Equal(t, "11144477735", Digits("111.444.777-35"))
	assert.Equal(t, "", Digits("abc"))
}
