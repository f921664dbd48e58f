package constants

import "os"

// File and directory permissions used throughout certbot-he-hook
const (
	// ConfigFilePerm is the standard config file permission (owner read/write only)
	ConfigFilePerm os.FileMode = 0600 // rw-------

	// SecureConfigPerm is the permission for encrypted config (owner read only)
	SecureConfigPerm os.FileMode = 0400 // r--------

	// ConfigDirPerm is the permission for config directories (owner full access)
	ConfigDirPerm os.FileMode = 0700 // rwx------
)
