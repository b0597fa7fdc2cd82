package helpers

import "golang.org/x/crypto/bcrypt"

// HashDeviceKey hashes device credential material with bcrypt before it is stored.
func HashDeviceKey(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CompareDeviceKey reports whether plain matches a hash from HashDeviceKey.
func CompareDeviceKey(hash string, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
