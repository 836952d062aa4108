package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"time"

	"github.com/dgnsrekt/narrate/narration"
	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/spf13/cobra"
)

var errNothingToRead = errors.New("nothing to read")

var (
	sayText string
	sayEcho bool

	sayCmd = &cobra.Command{
		Use:   "say [FILE]",
		Short: "Read text aloud without the TUI",
		Long: paragraph(fmt.Sprintf("\n%s a file, standard input or the --text flag aloud and exit when done. "+
			"This is what narrate does when stdout is not a terminal.", keyword("Read"))),
		Example: paragraph("narrate say notes.md\necho 'hello world' | narrate say\nnarrate say --text 'नमस्ते दुनिया'"),
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := sayText
			if text == "" {
				arg := "-"
				if len(args) == 1 {
					arg = args[0]
				}
				src, err := loadSource(arg)
				if err != nil {
					return err
				}
				text = src.Text
			}
			return runSay(cmd.Context(), text, cmd.OutOrStdout())
		},
	}
)

func runSay(ctx context.Context, text string, w io.Writer) error {
	sess, err := newSession(narrationCfg)
	if err != nil {
		return err
	}
	defer sess.Close() //nolint:errcheck

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	return say(ctx, sess.ctrl, text, w, sayEcho)
}

// say narrates text from the first word and blocks until the run ends, ctx
// is cancelled or the backend fails. With echo set each word is printed as
// it is spoken.
func say(ctx context.Context, ctrl *narration.Controller, text string, w io.Writer, echo bool) error {
	if strings.TrimSpace(text) == "" {
		return errNothingToRead
	}

	ctrl.SetText(text)
	if !ctrl.State().Available {
		return fmt.Errorf("%w: install espeak-ng or espeak", narration.ErrBackendUnavailable)
	}

	var (
		mu   sync.Mutex
		errs []error
		once sync.Once
		done = make(chan narration.State, 1)
		last = -1
	)
	ctrl.OnError(func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	})
	ctrl.OnChange(func(s narration.State) {
		if echo && s.CurrentPosition >= 0 && s.CurrentPosition != last {
			last = s.CurrentPosition
			fmt.Fprintln(w, s.Units[last].Text) //nolint:errcheck
		}
		if s.Status == narration.StateIdle {
			once.Do(func() { done <- s })
		}
	})

	start := time.Now()
	ctrl.TogglePlayPause()

	select {
	case <-ctx.Done():
		ctrl.Stop()
		return ctx.Err() //nolint:wrapcheck
	case s := <-done:
		mu.Lock()
		err := errors.Join(errs...)
		mu.Unlock()
		if err != nil {
			return fmt.Errorf("narration stopped at word %d: %w", s.ResumePosition+1, err)
		}

		n := len(s.Units)
		_, err = fmt.Fprintf(w, "Read %s %s in %s.\n",
			humanize.Comma(int64(n)),
			english.PluralWord(n, "word", ""),
			time.Since(start).Round(100*time.Millisecond))
		return err //nolint:wrapcheck
	}
}

func init() {
	sayCmd.Flags().StringVarP(&sayText, "text", "t", "", "text to read instead of a file")
	sayCmd.Flags().BoolVarP(&sayEcho, "echo", "e", false, "print each word as it is spoken")
}
