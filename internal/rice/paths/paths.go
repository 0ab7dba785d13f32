package paths

import "path/filepath"

// Directory and file name constants for the Riceify layout under a home directory.
const (
	RiceifyDirName  = "Riceify"
	RicesDirName    = "rices"
	DBFileName      = "db.rcf"
	CurrentFileName = ".riceify_current"
	LockFileName    = ".lock"
	EnvFileName     = ".env"
	ConfigDirName   = ".config"
)

// PathBuilder provides methods to construct Riceify paths relative to a home directory.
type PathBuilder struct {
	homeDir string
}

// New creates a new PathBuilder for the given home directory.
func New(homeDir string) *PathBuilder {
	return &PathBuilder{homeDir: homeDir}
}

// HomeDir returns the home directory every other path is derived from.
func (p *PathBuilder) HomeDir() string {
	return p.homeDir
}

// RiceifyDir returns the ~/Riceify directory path.
func (p *PathBuilder) RiceifyDir() string {
	return filepath.Join(p.homeDir, RiceifyDirName)
}

// RicesDir returns the directory holding one subdirectory per rice.
func (p *PathBuilder) RicesDir() string {
	return filepath.Join(p.RiceifyDir(), RicesDirName)
}

// DBPath returns the reserved ~/Riceify/db.rcf path. Nothing reads or writes it.
func (p *PathBuilder) DBPath() string {
	return filepath.Join(p.RiceifyDir(), DBFileName)
}

// CurrentPath returns the path to the state file naming the current rice.
func (p *PathBuilder) CurrentPath() string {
	return filepath.Join(p.homeDir, CurrentFileName)
}

// LockPath returns the advisory lock file path.
func (p *PathBuilder) LockPath() string {
	return filepath.Join(p.RiceifyDir(), LockFileName)
}

// EnvPath returns the optional dotenv file read at startup.
func (p *PathBuilder) EnvPath() string {
	return filepath.Join(p.RiceifyDir(), EnvFileName)
}

// HomeConfigDir returns the user's ~/.config directory.
func (p *PathBuilder) HomeConfigDir() string {
	return filepath.Join(p.homeDir, ConfigDirName)
}

// RicePath returns the directory for a named rice.
func (p *PathBuilder) RicePath(name string) string {
	return filepath.Join(p.RicesDir(), name)
}
