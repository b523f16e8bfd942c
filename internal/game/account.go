package game

import (
	"fmt"

	"github.com/pixil98/go-errors"
	"golang.org/x/crypto/bcrypt"
)

// Account is the durable identity anchor for a user: a name and a bcrypt
// password hash, persisted through the storage layer. Everything else about
// a logged-on user is transient actor state.
type Account struct {
	Name     string `json:"name"`
	Password string `json:"password"` // bcrypt hash, never plaintext
}

// Validate satisfies storage.ValidatingSpec.
func (a *Account) Validate() error {
	el := errors.NewErrorList()

	if a.Name == "" {
		el.Add(fmt.Errorf("account name is required"))
	}
	if a.Password == "" {
		el.Add(fmt.Errorf("account password hash is required"))
	}

	return el.Err()
}

// CheckPassword reports whether the plaintext matches the stored hash.
func (a *Account) CheckPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(a.Password), []byte(plain)) == nil
}

// HashPassword produces the stored form of a plaintext password.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}
