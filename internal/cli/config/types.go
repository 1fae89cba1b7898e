// Package config provides configuration management for the verokit CLI.
//
// Settings come from, in increasing priority: built-in defaults, a
// verokit.yaml in the project root, VEROKIT_ environment variables and
// flags set on the command line.
package config

// Config holds all CLI configuration options.
type Config struct {
	// ProjectRoot is the directory holding the config file, or the working
	// directory when there is none. Relative paths resolve against it.
	ProjectRoot string `koanf:"-"`

	IndentUnit   string   `koanf:"indent_unit"`
	Trigger      string   `koanf:"trigger"`
	PagesDir     string   `koanf:"pages_dir"`
	ActionsFiles []string `koanf:"actions_files"`
	LogLevel     string   `koanf:"log_level"`
	LogFormat    string   `koanf:"log_format"`
	OutputFormat string   `koanf:"output"`

	Serve  ServeConfig  `koanf:"serve"`
	LSP    LSPConfig    `koanf:"lsp"`
	Screen ScreenConfig `koanf:"screen"`
}

// ServeConfig holds configuration for the HTTP API server.
type ServeConfig struct {
	Addr          string `koanf:"addr"`
	Watch         bool   `koanf:"watch"`
	SessionSecret string `koanf:"session_secret"`
}

// LSPConfig holds configuration for the language server.
type LSPConfig struct {
	Watch bool `koanf:"watch"`
}

// ScreenConfig sizes a character cell for popup placement.
type ScreenConfig struct {
	CellWidth  int `koanf:"cell_width"`
	CellHeight int `koanf:"cell_height"`
}

// Default configuration values
const (
	DefaultIndentUnit = "    "
	DefaultTrigger    = "/"
	DefaultPagesDir   = "pages"
	DefaultLogLevel   = "warn"
	DefaultLogFormat  = "text"
	DefaultOutput     = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultServeAddr  = "127.0.0.1:7411"
	DefaultCellWidth  = 8
	DefaultCellHeight = 16
)

// FileNames are the config file names looked up in the project root.
var FileNames = []string{"verokit.yaml", "verokit.yml"}
