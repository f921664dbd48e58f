package profile

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/hedns/certbot-he-hook/internal/constants"
)

// Profile defines deployment-specific configuration
type Profile struct {
	Name         string
	DataDir      string // Where the config file lives
	ConfigPerm   os.FileMode
	SecurePerm   os.FileMode
	DirPerm      os.FileMode
	DeviceIDPath string // Path to hardware identifier for config encryption
}

var (
	// Linux standard profile
	Linux = Profile{
		Name:         "linux",
		DataDir:      "$HOME/.he-ddns",
		ConfigPerm:   constants.ConfigFilePerm,
		SecurePerm:   constants.SecureConfigPerm,
		DirPerm:      constants.ConfigDirPerm,
		DeviceIDPath: "/sys/class/net/eth0/address",
	}

	// macOS profile
	MacOS = Profile{
		Name:         "macos",
		DataDir:      "$HOME/.he-ddns",
		ConfigPerm:   constants.ConfigFilePerm,
		SecurePerm:   constants.SecureConfigPerm,
		DirPerm:      constants.ConfigDirPerm,
		DeviceIDPath: "", // Use hostname only
	}

	// Docker container profile
	Docker = Profile{
		Name:         "docker",
		DataDir:      "/config",
		ConfigPerm:   constants.ConfigFilePerm,
		SecurePerm:   constants.SecureConfigPerm,
		DirPerm:      constants.ConfigDirPerm,
		DeviceIDPath: "/proc/self/cgroup",
	}

	// Windows profile
	Windows = Profile{
		Name:         "windows",
		DataDir:      "$APPDATA/he-ddns",
		ConfigPerm:   0600,
		SecurePerm:   0400,
		DirPerm:      0700,
		DeviceIDPath: "", // Use hostname only
	}
)

// Current holds the active deployment profile
var Current *Profile

// Detect automatically detects the deployment environment
func Detect() *Profile {
	// Check for Docker first (most specific)
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return &Docker
	}

	// Check OS
	switch runtime.GOOS {
	case "darwin":
		return &MacOS
	case "linux":
		return &Linux
	case "windows":
		return &Windows
	default:
		return &Linux // Default fallback
	}
}

// Init initializes the profile system
func Init() {
	if Current == nil {
		Current = Detect()
	}
}

// GetDataDir returns the expanded data directory path
func (p *Profile) GetDataDir() string {
	switch p.DataDir {
	case "$HOME/.he-ddns":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".he-ddns")
	case "$APPDATA/he-ddns":
		// Windows: Use %APPDATA% or fallback to user home
		if appdata := os.Getenv("APPDATA"); appdata != "" {
			return filepath.Join(appdata, "he-ddns")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "AppData", "Roaming", "he-ddns")
	default:
		return p.DataDir
	}
}

// GetConfigPath returns the full config file path
func (p *Profile) GetConfigPath() string {
	return filepath.Join(p.GetDataDir(), "config.yaml")
}

// GetSecurePath returns the full secure config path
func (p *Profile) GetSecurePath() string {
	return filepath.Join(p.GetDataDir(), "config.secure")
}
