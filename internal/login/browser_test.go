package login

import (
	"os/exec"
	"runtime"
	"strings"
	"testing"
)

// stubLauncher swaps the browser launcher for one that never opens
// anything, restoring the real one afterwards.
func stubLauncher(t *testing.T, launcher func(*exec.Cmd) error) {
	t.Helper()
	original := browserLauncher
	browserLauncher = launcher
	t.Cleanup(func() { browserLauncher = original })
}

func TestOpenBrowser(t *testing.T) {
	supported := runtime.GOOS == "linux" || runtime.GOOS == "darwin" || runtime.GOOS == "windows"

	t.Run("opens valid URLs", func(t *testing.T) {
		stubLauncher(t, func(*exec.Cmd) error { return nil })

		err := OpenBrowser("https://auth.example.com/authorize?client_id=123")
		if supported && err != nil {
			t.Errorf("expected success on %s, got %v", runtime.GOOS, err)
		}
		if !supported {
			if err == nil || !strings.Contains(err.Error(), "unsupported platform") {
				t.Errorf("expected unsupported platform error, got %v", err)
			}
		}
	})

	t.Run("rejects an empty URL", func(t *testing.T) {
		err := OpenBrowser("")
		if err == nil || !strings.Contains(err.Error(), "cannot be empty") {
			t.Errorf("expected empty URL rejection, got %v", err)
		}
	})

	t.Run("rejects non-web schemes", func(t *testing.T) {
		for _, rawURL := range []string{
			"file:///etc/passwd",
			"javascript:alert(1)",
			"myapp://callback",
			"example.com",
		} {
			err := OpenBrowser(rawURL)
			if err == nil || !strings.Contains(err.Error(), "invalid URL scheme") {
				t.Errorf("expected scheme rejection for %q, got %v", rawURL, err)
			}
		}
	})

	t.Run("rejects malformed URLs", func(t *testing.T) {
		if err := OpenBrowser("://missing-scheme"); err == nil {
			t.Error("expected an error for a malformed URL")
		}
	})

	t.Run("surfaces launcher failures", func(t *testing.T) {
		if !supported {
			t.Skipf("no launcher on %s", runtime.GOOS)
		}
		stubLauncher(t, func(*exec.Cmd) error { return exec.ErrNotFound })

		err := OpenBrowser("https://example.com")
		if err == nil || !strings.Contains(err.Error(), "failed to open browser") {
			t.Errorf("expected launcher failure surfaced, got %v", err)
		}
	})
}
