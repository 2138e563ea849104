// Package secrets encrypts marketplace credentials at rest.
//
// A Cipher holds a 32-byte master key. For every subject it derives a
// separate AES-256 key with HKDF-SHA256 and seals values with AES-GCM,
// binding the subject as additional data:
//
//	c, err := secrets.NewCipherFromBase64(cfg.PasswordsEncryptionKey)
//	enc, err := c.Encrypt(user.ID, password)   // "enc:v1:..."
//	plain, err := c.Decrypt(user.ID, enc)
package secrets
