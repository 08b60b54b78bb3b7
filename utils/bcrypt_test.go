package utils

import "testing"

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret-portal-pw")
	if err != nil {
		t.Fatal(err)
	}
	if err := ComparePassword(string(hash), "s3cret-portal-pw"); err != nil {
		t.Fatalf("correct password rejected: %v", err)
	}
	if err := ComparePassword(string(hash), "wrong-password"); err == nil {
		t.Fatal("wrong password accepted")
	}
}
