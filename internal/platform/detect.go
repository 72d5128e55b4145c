package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const appDir = "voxworker"

type Runtime struct {
	OS   string
	Arch string
}

func (r Runtime) String() string {
	return r.OS + "/" + r.Arch
}

func CurrentRuntime() Runtime {
	return Runtime{
		OS:   runtime.GOOS,
		Arch: NormalizeArch(runtime.GOARCH),
	}
}

func NormalizeArch(arch string) string {
	switch arch {
	case "x86_64":
		return "amd64"
	case "aarch64":
		return "arm64"
	default:
		return arch
	}
}

func DefaultModelDirFor(goos, homeDir, xdgDataHome string) (string, error) {
	dataDir, err := defaultDataDirFor(goos, homeDir, xdgDataHome)
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "models"), nil
}

func ResolveModelDir(override string) (string, error) {
	if override != "" {
		return filepath.Clean(override), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve user home: %w", err)
	}

	return DefaultModelDirFor(runtime.GOOS, homeDir, os.Getenv("XDG_DATA_HOME"))
}

// ResolveScratchDir returns the directory that holds per-request audio
// files, creating override when given. Without override the system temp
// directory is used.
func ResolveScratchDir(override string) (string, error) {
	if override == "" {
		return os.TempDir(), nil
	}

	dir := filepath.Clean(override)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create scratch directory %s: %w", dir, err)
	}
	return dir, nil
}

func defaultDataDirFor(goos, homeDir, xdgDataHome string) (string, error) {
	if homeDir == "" {
		return "", errors.New("home directory is empty")
	}

	switch goos {
	case "linux":
		if xdgDataHome != "" {
			return filepath.Join(xdgDataHome, appDir), nil
		}
		return filepath.Join(homeDir, ".local", "share", appDir), nil
	case "darwin":
		return filepath.Join(homeDir, "Library", "Application Support", appDir), nil
	default:
		return "", fmt.Errorf("unsupported OS: %s", goos)
	}
}
