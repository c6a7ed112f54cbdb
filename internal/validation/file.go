package validation

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrUnsupportedExtension = errors.New("unsupported file extension")
	ErrEmptyFile            = errors.New("file is empty")
	ErrFileTooLarge         = errors.New("file is too large")
	ErrContentMismatch      = errors.New("file content does not match its extension")
)

var AllowedExtensions = []string{".xlsx", ".xls", ".xlsm", ".csv", ".txt"}

const DefaultMaxUploadMB = 10

// ValidateFile checks the name, size and sniffed content type of an upload.
func ValidateFile(name string, content []byte, maxBytes int64) error {
	ext := strings.ToLower(filepath.Ext(name))
	if !slices.Contains(AllowedExtensions, ext) {
		return fmt.Errorf("%w: %q (allowed: %s)", ErrUnsupportedExtension, ext, strings.Join(AllowedExtensions, ", "))
	}
	if len(content) == 0 {
		return ErrEmptyFile
	}
	if maxBytes > 0 && int64(len(content)) > maxBytes {
		return fmt.Errorf("%w: %.2f MB (maximum %.0f MB)", ErrFileTooLarge,
			float64(len(content))/(1024*1024), float64(maxBytes)/(1024*1024))
	}
	detected := mimetype.Detect(content)
	if !contentMatches(ext, detected) {
		return fmt.Errorf("%w: %s detected for %s", ErrContentMismatch, detected.String(), ext)
	}
	return nil
}

func contentMatches(ext string, detected *mimetype.MIME) bool {
	var want []string
	switch ext {
	case ".xlsx", ".xlsm":
		want = []string{"application/zip"}
	case ".xls":
		want = []string{"application/vnd.ms-excel", "application/x-ole-storage"}
	default:
		want = []string{"text/plain"}
	}
	for m := detected; m != nil; m = m.Parent() {
		for _, w := range want {
			if m.Is(w) {
				return true
			}
		}
	}
	return false
}
