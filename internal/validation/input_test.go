package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePhone(t *testing.T) {
	tests := []struct {
		phone   string
		wantErr bool
	}{
		{"+7 (900) 123-45-67", false},
		{"89001234567", false},
		{"900123456", true},
		{"", true},
		{"+7 900 abc 45 67", true},
		{"1234567890123456", true},
	}

	for _, tt := range tests {
		t.Run(tt.phone, func(t *testing.T) {
			err := ValidatePhone(tt.phone)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateContact(t *testing.T) {
	assert.NoError(t, ValidateContact("Анна Петрова", "89001234567", ""))
	assert.NoError(t, ValidateContact("Anna", "89001234567", "anna@example.com"))
	assert.Error(t, ValidateContact(" ", "89001234567", ""))
	assert.Error(t, ValidateContact("Анна", "12345", ""))
	assert.Error(t, ValidateContact("Анна", "89001234567", "anna@"))
}

func TestValidateStyle(t *testing.T) {
	assert.NoError(t, ValidateStyle("платье-футляр", "шерсть", ""))
	assert.Error(t, ValidateStyle(strings.Repeat("a", MaxStyleRefLength+1), "", ""))
}

func TestIsPublicHost(t *testing.T) {
	tests := map[string]bool{
		"cdn.example.com":  true,
		"8.8.8.8":          true,
		"localhost":        false,
		"api.localhost":    false,
		"127.0.0.1":        false,
		"10.0.0.5":         false,
		"192.168.1.10":     false,
		"169.254.169.254":  false,
		"::1":              false,
		"0.0.0.0":          false,
		"":                 false,
		"fd00::1":          false,
		"LOCALHOST.":       false,
		"storage.internal": true,
	}
	for host, want := range tests {
		assert.Equal(t, want, IsPublicHost(host), host)
	}
}
