package handler

import "testing"

func TestValidator_Messages(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name string
		req  any
		want string
	}{
		{"missing password", &loginRequest{Email: "a@b.com"}, "Please enter your password."},
		{"unknown role", &signUpRequest{Email: "a@b.com", Password: "secret1", Role: "admin"}, "The role must be one of: student, instructor."},
		{"missing role", &signUpRequest{Email: "a@b.com", Password: "secret1"}, "Please enter your role."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			if err == nil || err.Error() != tt.want {
				t.Fatalf("expected %q, got %v", tt.want, err)
			}
		})
	}

	if err := v.Validate(&loginRequest{Email: "a@b.com", Password: "x"}); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}
}
