package ui

// Config contains TUI-specific configuration.
type Config struct {
	GlamourMaxWidth uint
	GlamourStyle    string `env:"GLAMOUR_STYLE" envDefault:"auto"`
	EnableMouse     bool

	// Path of the script being edited. It need not exist yet.
	Path string

	// For debugging the UI
	GlamourEnabled bool `env:"AUTOCAST_ENABLE_GLAMOUR" envDefault:"true"`
}
