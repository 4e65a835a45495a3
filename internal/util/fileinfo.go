package util

import (
	"os"

	"golang.org/x/sys/unix"
)

// FileInfo contains the file attributes used to validate cached fragments
type FileInfo struct {
	ModTime int64  // Last modification time in nanoseconds
	Size    int64  // File size in bytes
	Inode   uint64 // Inode number, changes when an export is replaced
}

// GetFileInfo stats filepath. Supported on Linux and macOS.
func GetFileInfo(filepath string) (*FileInfo, error) {
	stat, err := os.Stat(filepath)
	if err != nil {
		return nil, err
	}

	var st unix.Stat_t
	if err := unix.Stat(filepath, &st); err != nil {
		return nil, err
	}

	return &FileInfo{
		ModTime: stat.ModTime().UnixNano(),
		Size:    stat.Size(),
		Inode:   uint64(st.Ino),
	}, nil
}
