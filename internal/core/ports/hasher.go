package ports

// PasswordHasher is the salted one-way hash used for stored credentials.
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Compare returns nil when password matches hash.
	Compare(hash, password string) error
}
