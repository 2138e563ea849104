// Package credentials stores a user's marketplace login with the password
// encrypted through a Sealer.
package credentials
