package corpus

import (
	"os"
	"path/filepath"
	"strings"
)

// SanitizeFileName turns a display name into a filesystem-safe token:
// only letters, digits, spaces, '-', '_' and '.' survive, and spaces
// become underscores.
func SanitizeFileName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		}
	}
	return strings.ReplaceAll(strings.TrimSpace(b.String()), " ", "_")
}

// renameDocumentFile renames a stored document file to match a new
// display name, preserving the original extension and any UUID prefix
// the upload step added (a 36-character token before the first '_').
func renameDocumentFile(oldPath, newName string) (string, error) {
	if _, err := os.Stat(oldPath); err != nil {
		return "", err
	}

	dir := filepath.Dir(oldPath)
	ext := filepath.Ext(oldPath)
	safe := SanitizeFileName(strings.TrimSuffix(newName, ext))

	base := filepath.Base(oldPath)
	newBase := safe + ext
	if idx := strings.Index(base, "_"); idx == 36 {
		newBase = base[:36] + "_" + safe + ext
	}

	newPath := filepath.Join(dir, newBase)
	if err := os.Rename(oldPath, newPath); err != nil {
		return "", err
	}
	return newPath, nil
}
