//go:build unix

package magic

import "golang.org/x/sys/unix"

// checkDescriptor reports whether fd refers to an open file description.
func checkDescriptor(fd int) error {
	_, err := unix.FcntlInt(uintptr(fd), unix.F_GETFD, 0)
	return err
}

// isRegular reports whether fd refers to a regular file.
func isRegular(fd int) (bool, error) {
	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		return false, err
	}
	return st.Mode&unix.S_IFMT == unix.S_IFREG, nil
}
