package authutil

import (
	"strings"
	"testing"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{"exactly six", "abc123", nil},
		{"common but long enough", "123456", nil},
		{"with spaces", "my secret password", nil},
		{"max length", strings.Repeat("a", 72), nil},
		{"five chars", "abcde", ErrPasswordTooShort},
		{"empty", "", ErrPasswordTooShort},
		{"too long", strings.Repeat("a", 73), ErrPasswordTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidatePassword(tt.password); err != tt.wantErr {
				t.Errorf("ValidatePassword(%q) = %v, want %v", tt.password, err, tt.wantErr)
			}
		})
	}
}

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == "" || hash == "correct horse" {
		t.Fatalf("HashPassword() = %q, want a bcrypt hash", hash)
	}
	if !strings.HasPrefix(hash, "$2a$12$") {
		t.Errorf("hash %q does not use cost %d", hash, BcryptCost)
	}

	if !CheckPassword("correct horse", hash) {
		t.Error("CheckPassword() with the right password = false")
	}
	if CheckPassword("wrong horse", hash) {
		t.Error("CheckPassword() with the wrong password = true")
	}
	if CheckPassword("", "") {
		t.Error("CheckPassword() with empty inputs = true")
	}
}

func TestPhoneEmail(t *testing.T) {
	tests := []struct {
		phone, domain, want string
	}{
		{"5550101234", "", "5550101234@phoneuser.nursinglecture.com"},
		{"5550101234", " Example.COM ", "5550101234@example.com"},
		{"5550101234", "@users.example.org", "5550101234@users.example.org"},
	}
	for _, tt := range tests {
		if got := PhoneEmail(tt.phone, tt.domain); got != tt.want {
			t.Errorf("PhoneEmail(%q, %q) = %q, want %q", tt.phone, tt.domain, got, tt.want)
		}
	}
}

func TestAllowlist(t *testing.T) {
	a := NewAllowlist("Admin@Example.com, second@example.com", "", "third@example.com ")

	for _, email := range []string{"admin@example.com", "ADMIN@example.com", "second@example.com", "third@example.com"} {
		if !a.Contains(email) {
			t.Errorf("Contains(%q) = false, want true", email)
		}
	}
	for _, email := range []string{"", "other@example.com", "example.com"} {
		if a.Contains(email) {
			t.Errorf("Contains(%q) = true, want false", email)
		}
	}
	if len(a) != 3 {
		t.Errorf("len(allowlist) = %d, want 3", len(a))
	}
}
