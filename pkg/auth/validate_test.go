package auth

import "testing"

func TestValidateLoginInput(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		wantErr  bool
	}{
		{"valid", "user@example.com", "secret", false},
		{"trims email", "  user@example.com  ", "secret", false},
		{"empty email", "", "secret", true},
		{"bad email", "not-an-email", "secret", true},
		{"empty password", "user@example.com", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input, authErr := ValidateLoginInput(tt.email, tt.password)
			if tt.wantErr {
				if authErr == nil {
					t.Fatal("expected a validation error")
				}
				if authErr.Code != CodeParseError {
					t.Errorf("expected parse_error, got %s", authErr.Code)
				}
				return
			}
			if authErr != nil {
				t.Fatalf("unexpected error: %v", authErr)
			}
			if input.Email != "user@example.com" {
				t.Errorf("expected trimmed email, got %q", input.Email)
			}
		})
	}
}

func TestValidateSignupInput(t *testing.T) {
	tests := []struct {
		name     string
		fullName string
		email    string
		password string
		wantErr  bool
	}{
		{"valid", "Ada Lovelace", "ada@example.com", "longenough", false},
		{"missing name", "", "ada@example.com", "longenough", true},
		{"whitespace name", "   ", "ada@example.com", "longenough", true},
		{"bad email", "Ada", "ada@", "longenough", true},
		{"short password", "Ada", "ada@example.com", "seven77", true},
		{"exactly eight", "Ada", "ada@example.com", "eight888", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, authErr := ValidateSignupInput(tt.fullName, tt.email, tt.password)
			if tt.wantErr && authErr == nil {
				t.Error("expected a validation error")
			}
			if !tt.wantErr && authErr != nil {
				t.Errorf("unexpected error: %v", authErr)
			}
		})
	}
}
