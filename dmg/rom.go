package dmg

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"
)

// ErrEmptyArchive is returned when an archive holds no ROM file.
var ErrEmptyArchive = errors.New("archive contains no rom file")

// romExtensions are the entries picked from an archive, first match wins.
var romExtensions = []string{".gb", ".gbc", ".bin"}

// LoadFile reads a ROM image, unpacking it when the extension says it is
// compressed: .gz, .zip and .7z are supported. Archives yield their first
// .gb/.gbc/.bin entry, or the first entry when none matches.
func LoadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rom: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		return readGzip(data)
	case ".zip":
		return readZip(data)
	case ".7z":
		return readSevenZip(data)
	default:
		return data, nil
	}
}

func readGzip(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("opening gzip rom: %w", err)
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decompressing gzip rom: %w", err)
	}
	return out, nil
}

func readZip(data []byte) ([]byte, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening zip rom: %w", err)
	}

	names := make([]string, len(r.File))
	for i, f := range r.File {
		names[i] = f.Name
	}
	index, err := pickEntry(names)
	if err != nil {
		return nil, err
	}

	return readEntry(r.File[index].Open)
}

func readSevenZip(data []byte) ([]byte, error) {
	r, err := sevenzip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening 7z rom: %w", err)
	}

	names := make([]string, len(r.File))
	for i, f := range r.File {
		names[i] = f.Name
	}
	index, err := pickEntry(names)
	if err != nil {
		return nil, err
	}

	return readEntry(r.File[index].Open)
}

func readEntry(open func() (io.ReadCloser, error)) ([]byte, error) {
	rc, err := open()
	if err != nil {
		return nil, fmt.Errorf("opening archive entry: %w", err)
	}
	defer rc.Close()

	out, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading archive entry: %w", err)
	}
	return out, nil
}

// pickEntry returns the index of the archive entry holding the ROM.
func pickEntry(names []string) (int, error) {
	if len(names) == 0 {
		return 0, ErrEmptyArchive
	}
	for i, name := range names {
		ext := strings.ToLower(filepath.Ext(name))
		for _, want := range romExtensions {
			if ext == want {
				return i, nil
			}
		}
	}
	return 0, nil
}
