package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateInputFile(t *testing.T) {
	dir := t.TempDir()
	small := filepath.Join(dir, "resume.txt")
	require.NoError(t, os.WriteFile(small, []byte("Experience\nSkills\n"), 0600))

	tests := []struct {
		name    string
		path    string
		maxSize int64
		wantErr string
	}{
		{"ok", small, 0, ""},
		{"within limit", small, 1024, ""},
		{"empty name", "", 0, "cannot be empty"},
		{"missing", filepath.Join(dir, "nope.txt"), 0, "does not exist"},
		{"directory", dir, 0, "is a directory"},
		{"too large", small, 4, "larger than the 4 B limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateInputFile(tt.path, tt.maxSize)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateOutputFileCreatesDirectory(t *testing.T) {
	out := filepath.Join(t.TempDir(), "reports", "nested", "out.json")
	require.NoError(t, ValidateOutputFile(out))

	info, err := os.Stat(filepath.Dir(out))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.NoError(t, ValidateOutputFile(""))
}

func TestIsTextFile(t *testing.T) {
	assert.True(t, IsTextFile("cv.TXT"))
	assert.True(t, IsTextFile("cv.md"))
	assert.False(t, IsTextFile("cv.pdf"))
	assert.False(t, IsTextFile("cv"))
	assert.True(t, IsStdin("-"))
	assert.False(t, IsStdin("cv.txt"))
}

func TestFormatFileSize(t *testing.T) {
	tests := map[int64]string{
		0:               "0 B",
		1023:            "1023 B",
		1024:            "1.0 KB",
		1536:            "1.5 KB",
		5 * 1024 * 1024: "5.0 MB",
	}
	for size, want := range tests {
		assert.Equal(t, want, FormatFileSize(size), "size %d", size)
	}
}
