package domain

// Context carries the authenticated data bound to a stored value's location.
//
// It is derived deterministically from the record's storage path, supplied on
// both encrypt and decrypt, and authenticated but never persisted inside the
// envelope. Decrypting with a context that differs from the one used at
// encryption time fails authentication, which prevents a valid envelope from
// being replayed at a different storage location.
//
// The derivation must be fixed exactly once per deployment: any change to it
// invalidates the authentication of every existing envelope and requires a
// full rotation-style rewrite.
type Context []byte

// DefaultContext builds the authenticated-data context for a record stored at
// the given path. The path bytes are used as-is.
func DefaultContext(path string) Context {
	return Context(path)
}

// AuthenticatedData returns the bytes to be authenticated by the AEAD seal.
func (c Context) AuthenticatedData() []byte {
	return []byte(c)
}
