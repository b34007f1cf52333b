package acquisition

import (
	"fmt"
	"os"
	"path/filepath"
)

// materializeCert writes pemCert to <workingDir>/<host>.crt using an
// atomic temp-file-then-rename write, then returns the final path. The
// working directory must be writable and private.
func materializeCert(workingDir, host string, pemCert []byte) (string, error) {
	if err := os.MkdirAll(workingDir, 0o700); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", workingDir, err)
	}
	path := filepath.Join(workingDir, host+".crt")

	tmp, err := os.CreateTemp(workingDir, ".cert-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(pemCert); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("write: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("chmod: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("close: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("rename: %w", err)
	}
	return path, nil
}
