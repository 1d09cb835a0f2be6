package domain

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestUserJSON_PasswordHashHidden(t *testing.T) {
	user := User{
		DNI:          "12345678A",
		Name:         "Alice",
		Email:        "alice@example.com",
		PasswordHash: "$2a$10$examplehash",
		Role:         RoleDoctor,
	}

	raw, err := json.Marshal(user)
	if err != nil {
		t.Fatalf("marshal user: %v", err)
	}

	body := string(raw)
	if strings.Contains(body, "password_hash") {
		t.Fatalf("json should not contain password_hash, got: %s", body)
	}
	if strings.Contains(body, "$2a$10$examplehash") {
		t.Fatalf("json should not contain PasswordHash value, got: %s", body)
	}
	if !strings.Contains(body, "\"dni\":\"12345678A\"") {
		t.Fatalf("json should include dni field, got: %s", body)
	}
	if !strings.Contains(body, "\"role\":\"DOCTOR\"") {
		t.Fatalf("json should include role field, got: %s", body)
	}
}

func TestUserJSON_UnmarshalIgnoresPasswordHashField(t *testing.T) {
	input := `{"name":"Alice","email":"alice@example.com","password_hash":"attacker-controlled"}`

	var user User
	if err := json.Unmarshal([]byte(input), &user); err != nil {
		t.Fatalf("unmarshal user: %v", err)
	}

	if user.Name != "Alice" {
		t.Fatalf("Name = %q, want %q", user.Name, "Alice")
	}
	if user.PasswordHash != "" {
		t.Fatalf("PasswordHash = %q, want empty", user.PasswordHash)
	}
}

func TestRole_Valid(t *testing.T) {
	tests := []struct {
		role Role
		want bool
	}{
		{RoleAdmin, true},
		{RoleDoctor, true},
		{RoleClient, true},
		{"admin", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := tt.role.Valid(); got != tt.want {
			t.Errorf("Role(%q).Valid() = %v; want %v", tt.role, got, tt.want)
		}
	}
}

func TestPrincipal_IsAdmin(t *testing.T) {
	if !(Principal{UserID: 1, Role: RoleAdmin}).IsAdmin() {
		t.Error("ADMIN principal should be admin")
	}
	if (Principal{UserID: 1, Role: RoleDoctor}).IsAdmin() {
		t.Error("DOCTOR principal should not be admin")
	}
}
