package domain

// Zero securely overwrites a byte slice with zeros to clear sensitive data from memory.
func Zero(b []byte) {
	if b == nil {
		return
	}
	for i := range b {
		b[i] = 0
	}
}

// zero is a package-internal alias used by the keyring loaders.
func zero(b []byte) {
	Zero(b)
}
