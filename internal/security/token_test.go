package security

import (
	"strings"
	"testing"
	"time"
)

const testSecret = "test_secret_key_minimum_32_chars"

func TestGenerateToken(t *testing.T) {
	tests := []struct {
		name   string
		userID string
		email  string
	}{
		{
			name:   "Regular user",
			userID: "6f1c2a7e-3d4b-4c5a-9e8f-0a1b2c3d4e5f",
			email:  "member@example.com",
		},
		{
			name:   "Admin user",
			userID: "0d9e8f7a-6b5c-4d3e-8f2a-1b0c9d8e7f6a",
			email:  "admin@example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := GenerateJWT(tt.userID, tt.email, testSecret, time.Hour)
			if err != nil {
				t.Fatalf("GenerateJWT() error = %v", err)
			}

			if token == "" {
				t.Error("GenerateJWT() returned empty token")
			}

			claims, err := ValidateJWT(token, testSecret)
			if err != nil {
				t.Fatalf("ValidateJWT() error = %v", err)
			}

			if claims.UserID != tt.userID {
				t.Errorf("UserID = %s, want %s", claims.UserID, tt.userID)
			}

			if claims.Email != tt.email {
				t.Errorf("Email = %s, want %s", claims.Email, tt.email)
			}
		})
	}
}

func TestValidateToken_InvalidToken(t *testing.T) {
	other, err := GenerateJWT("6f1c2a7e-3d4b-4c5a-9e8f-0a1b2c3d4e5f", "", "another_secret_key_minimum_32_chars", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT() error = %v", err)
	}
	expired, err := GenerateJWT("6f1c2a7e-3d4b-4c5a-9e8f-0a1b2c3d4e5f", "", testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("GenerateJWT() error = %v", err)
	}
	noUser, err := GenerateJWT("", "", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT() error = %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{name: "Empty token", token: ""},
		{name: "Invalid format", token: "invalid.token.here"},
		{name: "Random string", token: "randomstring"},
		{name: "Wrong secret", token: other},
		{name: "Expired", token: expired},
		{name: "Missing user id", token: noUser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ValidateJWT(tt.token, testSecret); err == nil {
				t.Error("ValidateJWT() expected error, got nil")
			}
		})
	}
}

func TestGenerateCheckoutToken(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		token, err := GenerateCheckoutToken()
		if err != nil {
			t.Fatalf("GenerateCheckoutToken() error = %v", err)
		}
		if len(token) != 64 {
			t.Fatalf("token length = %d, want 64", len(token))
		}
		if seen[token] {
			t.Fatalf("duplicate token generated")
		}
		seen[token] = true
	}
}

func TestHashToken(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Simple string",
			input:    "hello",
			expected: "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824",
		},
		{
			name:     "Empty string",
			input:    "",
			expected: "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HashToken(tt.input); got != tt.expected {
				t.Errorf("HashToken() = %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxRunes int
		expected string
	}{
		{name: "Plain text", input: "  Read a book  ", maxRunes: MaxTitleLength, expected: "Read a book"},
		{name: "Script removed", input: "<script>alert(1)</script>Walk", maxRunes: MaxTitleLength, expected: "Walk"},
		{name: "Tags stripped", input: "<b>Save</b> money", maxRunes: MaxTitleLength, expected: "Save money"},
		{name: "Ampersand kept", input: "Salt & pepper", maxRunes: MaxTitleLength, expected: "Salt & pepper"},
		{name: "Null bytes", input: "a\x00b", maxRunes: MaxTitleLength, expected: "ab"},
		{name: "Truncated by runes", input: "ééééé", maxRunes: 3, expected: "ééé"},
		{name: "Encoded script removed", input: "&lt;script&gt;alert(1)&lt;/script&gt;Read", maxRunes: MaxTitleLength, expected: "Read"},
		{name: "Encoded img handler removed", input: "&lt;img src=x onerror=alert(1)&gt;", maxRunes: MaxTitleLength, expected: ""},
		{name: "Double encoded script removed", input: "&amp;lt;script&amp;gt;x&amp;lt;/script&amp;gt;Go", maxRunes: MaxTitleLength, expected: "Go"},
		{name: "Literal less than kept", input: "a &lt; b", maxRunes: MaxTitleLength, expected: "a < b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanText(tt.input, tt.maxRunes); got != tt.expected {
				t.Errorf("CleanText(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSanitizeString_NoLimit(t *testing.T) {
	long := strings.Repeat("x", 5000)
	if got := SanitizeString(long, 0); len(got) != 5000 {
		t.Errorf("len = %d, want 5000", len(got))
	}
}
