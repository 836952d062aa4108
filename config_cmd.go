package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfig = `# debug logging
debug: false
# log file (default: the user log directory)
log_file: ""
# reload the text when the file changes (TUI-mode only)
watch: false
# mouse support (TUI-mode only)
mouse: false

narration:
  # speech backend: auto, pcm, espeak or mock
  backend: "auto"
  # start over from the first word when the text changes
  reset_on_text_change: true

  # pauses between words
  pacing:
    sentence_delay: "400ms"
    clause_delay: "150ms"
    default_delay: "0s"

  # language tags picked by script
  locale:
    default: "en-US"
    devanagari: "hi-IN"

  espeak:
    # binary: "/usr/bin/espeak-ng"
    # words per minute (80-450)
    speed: 175
    # volume (0-200)
    amplitude: 100
    # espeak voice per language tag, see "narrate voices"
    voices:
      en-US: "en-us"
      hi-IN: "hi"

  pcm:
    # in-memory clip cache in MiB
    cache_size: 16
    # on-disk clip cache in MiB (0 disables)
    disk_cache_size: 128
    # cache_dir: "~/.cache/narrate"

  mock:
    word_duration: "250ms"
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the narrate config file",
	Long:    paragraph(fmt.Sprintf("\n%s the narrate config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("narrate config\nnarrate config --config path/to/config.yml"),
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd("narrate", configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Wrote config file to:", configFile)
		return nil
	},
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
	}
	if configFile == "" {
		return errors.New("no config file location")
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil { // some other error occurred
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}
