// Package util provides file-opening helpers shared by the library and CLI.
package util

import (
	"compress/gzip"
	"io"
	"os"
	"strings"
)

// OpenFile opens a file for reading, transparently decompressing if it
// is gzip-compressed. Returns the reader, a cleanup function (to close
// resources), and any error. The caller must call the cleanup function
// when done reading.
func OpenFile(path string) (io.Reader, func() error, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}

	if IsGzipFile(path) {
		gzReader, err := gzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, nil, err
		}
		cleanup := func() error {
			gzReader.Close()
			return file.Close()
		}
		return gzReader, cleanup, nil
	}

	cleanup := func() error {
		return file.Close()
	}
	return file, cleanup, nil
}

// ReadRaw reads the whole file at path, decompressing gzip transparently.
func ReadRaw(path string) ([]byte, error) {
	r, cleanup, err := OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer cleanup()
	return io.ReadAll(r)
}

// IsGzipFile returns true if the file path indicates gzip compression.
func IsGzipFile(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".gz")
}

// StripCompression removes compression extensions (.gz) from a path.
func StripCompression(path string) string {
	if IsGzipFile(path) {
		return path[:len(path)-3]
	}
	return path
}
