//go:build !unix

package magic

// checkDescriptor is left to the engine on platforms without fcntl.
func checkDescriptor(int) error {
	return nil
}

// isRegular assumes a regular file; the engine reads it directly.
func isRegular(int) (bool, error) {
	return true, nil
}
