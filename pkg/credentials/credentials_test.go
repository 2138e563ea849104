package credentials_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fundalert/pkg/credentials"
	"github.com/dmitrymomot/fundalert/pkg/secrets"
	"github.com/dmitrymomot/fundalert/pkg/validator"
)

type MockSealer struct {
	mock.Mock
}

func (m *MockSealer) Encrypt(subject, plaintext string) (string, error) {
	args := m.Called(subject, plaintext)
	return args.String(0), args.Error(1)
}

func (m *MockSealer) Decrypt(subject, ciphertext string) (string, error) {
	args := m.Called(subject, ciphertext)
	return args.String(0), args.Error(1)
}

func TestNew(t *testing.T) {
	t.Parallel()

	key, err := secrets.GenerateKey()
	require.NoError(t, err)
	cipher, err := secrets.NewCipher(key)
	require.NoError(t, err)

	t.Run("encrypts password", func(t *testing.T) {
		c, err := credentials.New(cipher, "user-1", 42, "investor@example.com", "hunter2")
		require.NoError(t, err)
		assert.NotEqual(t, "hunter2", c.Password)
		assert.True(t, secrets.IsEncrypted(c.Password))
		assert.NoError(t, c.Validate())

		plain, err := c.PlainPassword(cipher, "user-1")
		require.NoError(t, err)
		assert.Equal(t, "hunter2", plain)
	})

	t.Run("invalid fields", func(t *testing.T) {
		_, err := credentials.New(cipher, "user-1", 0, "not-an-email", "")
		require.ErrorIs(t, err, credentials.ErrInvalidCredentials)
		ve := validator.Extract(err)
		assert.ElementsMatch(t, []string{"id", "email", "password"}, ve.Fields())
	})

	t.Run("sealer failure", func(t *testing.T) {
		sealer := &MockSealer{}
		sealer.On("Encrypt", "user-1", "pw").Return("", errors.New("kms down"))

		_, err := credentials.New(sealer, "user-1", 1, "a@b.co", "pw")
		assert.ErrorContains(t, err, "kms down")
		sealer.AssertExpectations(t)
	})
}

func TestValidate(t *testing.T) {
	t.Parallel()

	c := credentials.Credentials{AccountID: 1, Email: "a@b.co", Password: "plaintext"}
	err := c.Validate()
	require.ErrorIs(t, err, credentials.ErrInvalidCredentials)
	assert.True(t, validator.Extract(err).Has("password"))
}
