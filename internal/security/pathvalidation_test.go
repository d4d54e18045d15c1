package security

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidatePathWithinDirectory(t *testing.T) {
	t.Parallel()

	safe := t.TempDir()

	if err := ValidatePathWithinDirectory(filepath.Join(safe, "true_color.png"), safe); err != nil {
		t.Errorf("path inside directory rejected: %v", err)
	}
	if err := ValidatePathWithinDirectory(filepath.Join(safe, "sub", "out.png"), safe); err != nil {
		t.Errorf("nested path rejected: %v", err)
	}
	if err := ValidatePathWithinDirectory(filepath.Join(safe, "..", "escape.png"), safe); err == nil {
		t.Error("dot-dot escape accepted")
	}
	if err := ValidatePathWithinDirectory("/etc/passwd", safe); err == nil {
		t.Error("absolute path outside directory accepted")
	}
}

func TestValidatePathWithinDirectorySymlinkEscape(t *testing.T) {
	t.Parallel()

	safe := t.TempDir()
	outside := t.TempDir()
	link := filepath.Join(safe, "link")
	if err := os.Symlink(outside, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	if err := ValidatePathWithinDirectory(filepath.Join(link, "out.png"), safe); err == nil {
		t.Error("symlink escape accepted")
	}
}

func TestSanitizeFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"true_color", "true_color"},
		{"true color!", "true_color"},
		{"../../etc/passwd", "etc_passwd"},
		{"fog (night)", "fog_night"},
		{"", "unknown"},
		{"///", "unknown"},
		{"m05.corrected", "m05.corrected"},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
