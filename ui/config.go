package ui

import (
	env "github.com/caarlos0/env/v11"
)

// Config contains TUI-specific configuration.
type Config struct {
	// File being narrated, empty for stdin or typed text
	Path string

	// Name of the speech backend in use, shown in the status bar
	Backend string

	// Whether the file is reloaded on change
	Watch bool

	HighlightColor string `env:"NARRATE_HIGHLIGHT_COLOR" envDefault:"226"`
	MaxWidth       int    `env:"NARRATE_MAX_WIDTH"       envDefault:"100"`
	ShowAvatar     bool   `env:"NARRATE_SHOW_AVATAR"     envDefault:"true"`
	EnableMouse    bool   `env:"NARRATE_ENABLE_MOUSE"`

	// Brackets instead of colour around the spoken word. Forced on when the
	// terminal has no colour support.
	ASCII bool `env:"NARRATE_ASCII"`
}

// LoadConfig reads UI settings from the environment.
func LoadConfig() (Config, error) {
	return env.ParseAs[Config]()
}
