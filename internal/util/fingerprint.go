package util

import (
	"fmt"
	"hash/crc32"
	"io"
	"os"
)

const fingerprintWindow = 2048

// CalculateFileFingerprint returns a CRC32 over the first and last 2KB of a
// file. Archive fragments are rewritten whole, so both ends are sampled.
func CalculateFileFingerprint(filepath string) (string, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return "", err
	}

	hash := crc32.NewIEEE()
	size := stat.Size()

	head := min(size, fingerprintWindow)
	if _, err := io.CopyN(hash, file, head); err != nil {
		return "", err
	}

	if size > fingerprintWindow {
		tailStart := max(size-fingerprintWindow, head)
		if _, err := io.Copy(hash, io.NewSectionReader(file, tailStart, size-tailStart)); err != nil {
			return "", err
		}
	}

	return fmt.Sprintf("%08x", hash.Sum32()), nil
}
