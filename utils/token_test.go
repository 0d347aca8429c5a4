package utils

import (
	"testing"
)

func TestJwtRoundTrip(t *testing.T) {
	t.Setenv("API_SECRET", "test-secret")

	token, err := JwtGenerate(3, "Aye Aye", "clerk")
	if err != nil {
		t.Fatalf("JwtGenerate: %v", err)
	}
	claims, err := JwtValidate(token)
	if err != nil {
		t.Fatalf("JwtValidate: %v", err)
	}
	if claims.ID != 3 || claims.Name != "Aye Aye" || claims.Role != "clerk" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestJwtRejectsOtherSecret(t *testing.T) {
	t.Setenv("API_SECRET", "one")
	token, err := JwtGenerate(1, "a", "clerk")
	if err != nil {
		t.Fatalf("JwtGenerate: %v", err)
	}
	t.Setenv("API_SECRET", "two")
	if _, err := JwtValidate(token); err == nil {
		t.Fatalf("token signed with another secret accepted")
	}
}
