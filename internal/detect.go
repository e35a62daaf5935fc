package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// AppPaths holds the on-disk locations used by the client
type AppPaths struct {
	ConfigDir string // directory holding config.yaml
	StorePath string // session store database
}

// DetectAppPaths resolves the client directories based on the operating system.
// XDG_CONFIG_HOME is honoured on Linux.
func DetectAppPaths() (AppPaths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return AppPaths{}, fmt.Errorf("failed to get home directory: %w", err)
	}

	var configDir string
	switch runtime.GOOS {
	case "darwin":
		configDir = filepath.Join(home, "Library/Application Support/skillswap")
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			configDir = filepath.Join(xdg, "skillswap")
		} else {
			configDir = filepath.Join(home, ".config/skillswap")
		}
	default:
		configDir = filepath.Join(home, ".skillswap")
	}

	return AppPaths{
		ConfigDir: configDir,
		StorePath: filepath.Join(configDir, "session.db"),
	}, nil
}

// StoreExists reports whether the session store file is present
func (p AppPaths) StoreExists() bool {
	info, err := os.Stat(p.StorePath)
	return err == nil && !info.IsDir()
}

// IsCIEnvironment reports whether we run under a CI system
func IsCIEnvironment() bool {
	for _, key := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "BUILDKITE"} {
		if os.Getenv(key) != "" {
			return true
		}
	}
	return false
}
