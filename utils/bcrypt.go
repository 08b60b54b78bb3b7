package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword hashes a portal account password at bcrypt's default cost.
// The stored hash embeds the cost, so it can be raised without migrating
// existing accounts.
func HashPassword(plain string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
}

// ComparePassword checks a login attempt against the stored hash.
func ComparePassword(hashed string, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}
