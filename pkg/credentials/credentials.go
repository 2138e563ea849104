package credentials

import (
	"errors"
	"fmt"

	"github.com/dmitrymomot/fundalert/pkg/secrets"
	"github.com/dmitrymomot/fundalert/pkg/validator"
)

// Sealer encrypts and decrypts secrets bound to a subject.
// *secrets.Cipher implements it.
type Sealer interface {
	Encrypt(subject, plaintext string) (string, error)
	Decrypt(subject, ciphertext string) (string, error)
}

// Credentials are a user's marketplace login. Password is always held
// encrypted for the owning user.
type Credentials struct {
	AccountID int64  `json:"id" bson:"id"`
	Email     string `json:"email" bson:"email"`
	Password  string `json:"password" bson:"password"`
}

// New validates the login and encrypts password for userID.
func New(sealer Sealer, userID string, accountID int64, email, password string) (Credentials, error) {
	if err := validator.Apply(
		validator.Min("id", accountID, 1),
		validator.Email("email", email),
		validator.Required("password", password),
	); err != nil {
		return Credentials{}, errors.Join(ErrInvalidCredentials, err)
	}
	enc, err := sealer.Encrypt(userID, password)
	if err != nil {
		return Credentials{}, fmt.Errorf("encrypt password: %w", err)
	}
	return Credentials{AccountID: accountID, Email: email, Password: enc}, nil
}

// Validate checks a decoded record: a valid email and an encrypted password.
func (c Credentials) Validate() error {
	err := validator.Apply(
		validator.Min("id", c.AccountID, 1),
		validator.Email("email", c.Email),
		validator.Rule{
			Check: func() bool { return secrets.IsEncrypted(c.Password) },
			Error: validator.ValidationError{Field: "password", Code: "encrypted", Message: "must be encrypted"},
		},
	)
	if err != nil {
		return errors.Join(ErrInvalidCredentials, err)
	}
	return nil
}

// PlainPassword decrypts the password for userID.
func (c Credentials) PlainPassword(sealer Sealer, userID string) (string, error) {
	p, err := sealer.Decrypt(userID, c.Password)
	if err != nil {
		return "", fmt.Errorf("decrypt password: %w", err)
	}
	return p, nil
}
