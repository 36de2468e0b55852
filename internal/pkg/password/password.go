package password

import "golang.org/x/crypto/bcrypt"

// Hash produces a bcrypt hash of the plaintext. Callers must invoke it exactly
// once per password-set event and never re-hash an unchanged password.
func Hash(plaintext string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// Compare reports whether plaintext matches the stored bcrypt hash.
func Compare(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
