//go:build linux

package agent

import "golang.org/x/sys/unix"

func statfs(path string) (total, free uint64, err error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, 0, err
	}
	frsize := uint64(st.Frsize)
	if frsize == 0 {
		frsize = uint64(st.Bsize)
	}
	return st.Blocks * frsize, st.Bfree * frsize, nil
}
