// Package main provides the entry point for the narrate CLI application.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/narrate/internal/source"
	"github.com/dgnsrekt/narrate/internal/watch"
	"github.com/dgnsrekt/narrate/narration"
	"github.com/dgnsrekt/narrate/ui"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile   string
	watchFile    bool
	plain        bool
	markdown     bool
	mouse        bool
	narrationCfg = narration.DefaultConfig()
	logCloser    = func() error { return nil }

	rootCmd = &cobra.Command{
		Use:   "narrate [FILE]",
		Short: "Read text aloud, word by word, in the terminal",
		Long: paragraph(
			fmt.Sprintf("\nRead text aloud in the terminal, %s. Space pauses and resumes, s stops.", keyword("highlighting every word")),
		),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.MaximumNArgs(1),
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return nil, cobra.ShellCompDirectiveDefault
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
		RunE: execute,
	}
)

func validateOptions(cmd *cobra.Command) error {
	if cmd.Flags().Changed("config") {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("unable to read config file: %w", err)
		}
	}

	closer, err := setupLog(viper.GetString("log_file"), viper.GetBool("debug"))
	if err != nil {
		return fmt.Errorf("unable to set up logging: %w", err)
	}
	logCloser = closer

	watchFile = viper.GetBool("watch")
	mouse = viper.GetBool("mouse")

	if plain && markdown {
		return errors.New("cannot use both plain and markdown")
	}

	cfg, err := narration.LoadConfig(viper.GetViper())
	if err != nil {
		return err //nolint:wrapcheck
	}

	if cfg.PCM.CacheDir == "" {
		if dir, err := gap.NewScope(gap.User, "narrate").CacheDir(); err == nil {
			cfg.PCM.CacheDir = dir
		}
	} else if cfg.PCM.CacheDir, err = source.ExpandPath(cfg.PCM.CacheDir); err != nil {
		return err //nolint:wrapcheck
	}

	narrationCfg = cfg
	log.Debug("configuration loaded", "file", viper.ConfigFileUsed(), "backend", cfg.Backend)
	return nil
}

func stdinIsPipe() (bool, error) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false, fmt.Errorf("unable to open file: %w", err)
	}
	if stat.Mode()&os.ModeCharDevice == 0 || stat.Size() > 0 {
		return true, nil
	}
	return false, nil
}

func loadSource(arg string) (*source.Source, error) {
	return source.Load(arg, os.Stdin, source.Options{Plain: plain, Markdown: markdown}) //nolint:wrapcheck
}

func execute(cmd *cobra.Command, args []string) error {
	arg := ""
	if len(args) == 1 {
		arg = args[0]
	} else if yes, err := stdinIsPipe(); err != nil {
		return err
	} else if yes {
		// note that you can also explicitly use a - to read from stdin.
		arg = "-"
	}

	var src *source.Source
	if arg != "" {
		var err error
		if src, err = loadSource(arg); err != nil {
			return err
		}
	}

	// Without a terminal there is nothing to show, so just read aloud.
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		if src == nil {
			return errNothingToRead
		}
		return runSay(cmd.Context(), src.Text, cmd.OutOrStdout())
	}

	return runTUI(cmd.Context(), src)
}

func runTUI(ctx context.Context, src *source.Source) error {
	// Read environment to get UI settings
	cfg, err := ui.LoadConfig()
	if err != nil {
		return fmt.Errorf("error parsing config: %v", err)
	}

	sess, err := newSession(narrationCfg)
	if err != nil {
		return err
	}
	defer sess.Close() //nolint:errcheck

	text := ""
	if src != nil {
		text = src.Text
		cfg.Path = src.Path
	}
	cfg.Backend = sess.backend
	cfg.Watch = watchFile && cfg.Path != ""
	cfg.EnableMouse = cfg.EnableMouse || mouse

	p := ui.NewProgram(cfg, sess.ctrl, text)

	if cfg.Watch {
		w, err := watch.New(cfg.Path, watch.DefaultDebounce, log.WithPrefix("watch"))
		if err != nil {
			return err //nolint:wrapcheck
		}
		defer w.Close() //nolint:errcheck

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			_ = w.Run(ctx, func() {
				s, err := loadSource(cfg.Path)
				if err != nil {
					log.Warn("unable to reload file", "path", cfg.Path, "err", err)
					return
				}
				p.Send(ui.TextMsg{Text: s.Text})
			})
		}()
	}

	// Run Bubble Tea program
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("unable to run tui program: %w", err)
	}

	return nil
}

func main() {
	err := rootCmd.Execute()
	_ = logCloser()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", configFile, "config file")
	rootCmd.PersistentFlags().StringP("backend", "b", narration.BackendAuto, "speech backend: auto, pcm, espeak or mock")
	rootCmd.PersistentFlags().Bool("debug", false, "log debug messages")
	rootCmd.PersistentFlags().String("log-file", "", "log file (default in the user log directory)")
	rootCmd.PersistentFlags().BoolVar(&plain, "plain", false, "read Markdown files as plain text")
	rootCmd.PersistentFlags().BoolVar(&markdown, "markdown", false, "treat the input as Markdown regardless of extension")
	rootCmd.Flags().BoolP("watch", "w", false, "reload the text when the file changes")
	rootCmd.Flags().BoolP("mouse", "m", false, "enable mouse support")
	_ = rootCmd.Flags().MarkHidden("mouse")

	// Config bindings
	_ = viper.BindPFlag("narration.backend", rootCmd.PersistentFlags().Lookup("backend"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("log_file", rootCmd.PersistentFlags().Lookup("log-file"))
	_ = viper.BindPFlag("watch", rootCmd.Flags().Lookup("watch"))
	_ = viper.BindPFlag("mouse", rootCmd.Flags().Lookup("mouse"))

	viper.SetDefault("debug", false)
	viper.SetDefault("watch", false)
	viper.SetDefault("mouse", false)
	narration.SetDefaults()

	rootCmd.AddCommand(sayCmd, voicesCmd, configCmd, manCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "narrate")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "narrate")}, dirs...)
	}

	if c := os.Getenv("NARRATE_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("narrate")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("narrate")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", used)
		configFile = used
		return
	}

	configFile = filepath.Join(dirs[0], "narrate.yml")
}
