package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/narrate/narration"
	"github.com/dgnsrekt/narrate/narration/backends/espeak"
	"github.com/dgnsrekt/narrate/narration/backends/mock"
	"github.com/dgnsrekt/narrate/narration/lang"
	"github.com/dgnsrekt/narrate/narration/segment"
	"github.com/spf13/viper"
)

func newTestController(t *testing.T, backend narration.Backend) *narration.Controller {
	t.Helper()
	ctrl := narration.NewController(backend, segment.New(), lang.NewDefault(),
		narration.WithPacing(narration.Pacing{}),
		narration.WithLogger(log.New(io.Discard)))
	t.Cleanup(func() { ctrl.Close() })
	return ctrl
}

func TestSay(t *testing.T) {
	ctrl := newTestController(t, mock.NewAuto(5*time.Millisecond))

	var buf bytes.Buffer
	if err := say(context.Background(), ctrl, "one two three", &buf, true); err != nil {
		t.Fatalf("say() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("output = %q, want 3 words and a summary", buf.String())
	}
	for i, want := range []string{"one", "two", "three"} {
		if lines[i] != want {
			t.Errorf("line %d = %q, want %q", i, lines[i], want)
		}
	}
	if !strings.HasPrefix(lines[3], "Read 3 words in ") {
		t.Errorf("summary = %q", lines[3])
	}
}

func TestSayQuiet(t *testing.T) {
	ctrl := newTestController(t, mock.NewAuto(5*time.Millisecond))

	var buf bytes.Buffer
	if err := say(context.Background(), ctrl, "single", &buf, false); err != nil {
		t.Fatalf("say() error = %v", err)
	}
	if !strings.HasPrefix(buf.String(), "Read 1 word in ") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestSayErrors(t *testing.T) {
	t.Run("nothing to read", func(t *testing.T) {
		ctrl := newTestController(t, mock.New())
		if err := say(context.Background(), ctrl, " \n ", io.Discard, false); !errors.Is(err, errNothingToRead) {
			t.Errorf("say() error = %v, want %v", err, errNothingToRead)
		}
	})

	t.Run("no backend", func(t *testing.T) {
		ctrl := newTestController(t, nil)
		if err := say(context.Background(), ctrl, "hello", io.Discard, false); !errors.Is(err, narration.ErrBackendUnavailable) {
			t.Errorf("say() error = %v, want %v", err, narration.ErrBackendUnavailable)
		}
	})

	t.Run("speak failure", func(t *testing.T) {
		backend := mock.New()
		speakErr := errors.New("voice missing")
		backend.SetSpeakError(speakErr)
		ctrl := newTestController(t, backend)

		err := say(context.Background(), ctrl, "hello world", io.Discard, false)
		if !errors.Is(err, speakErr) {
			t.Fatalf("say() error = %v, want %v", err, speakErr)
		}
		if !strings.Contains(err.Error(), "word 1") {
			t.Errorf("error %q should name the failed word", err)
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		backend := mock.New()
		ctrl := newTestController(t, backend)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		if err := say(ctx, ctrl, "never finishes", io.Discard, false); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("say() error = %v, want %v", err, context.DeadlineExceeded)
		}
		if backend.CancelCount() == 0 {
			t.Error("cancelled say should stop the backend")
		}
		if s := ctrl.State(); s.Status != narration.StateIdle {
			t.Errorf("status = %v, want idle", s.Status)
		}
	})
}

func TestFilterVoices(t *testing.T) {
	voices := []espeak.Voice{
		{Language: "af", Gender: "M", Name: "Afrikaans"},
		{Language: "en-us", Gender: "M", Name: "English_(America)"},
		{Language: "hi", Gender: "M", Name: "Hindi"},
	}

	got := filterVoices(voices, "hindi")
	if len(got) == 0 || got[0].Language != "hi" {
		t.Fatalf("filterVoices(hindi) = %+v", got)
	}

	if got := filterVoices(voices, "zzz"); len(got) != 0 {
		t.Errorf("filterVoices(zzz) = %+v, want none", got)
	}
}

func TestPrintVoices(t *testing.T) {
	var buf bytes.Buffer
	if err := printVoices(&buf, nil); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "No voices found.\n" {
		t.Errorf("printVoices(nil) = %q", buf.String())
	}

	buf.Reset()
	if err := printVoices(&buf, []espeak.Voice{{Language: "hi", Gender: "M", Name: "Hindi"}}); err != nil {
		t.Fatal(err)
	}
	if fields := strings.Fields(buf.String()); len(fields) != 3 || fields[0] != "hi" || fields[2] != "Hindi" {
		t.Errorf("printVoices() = %q", buf.String())
	}
}

func TestEnsureConfigFile(t *testing.T) {
	prev := configFile
	t.Cleanup(func() { configFile = prev })

	configFile = filepath.Join(t.TempDir(), "nested", "narrate.yml")
	if err := ensureConfigFile(); err != nil {
		t.Fatalf("ensureConfigFile() error = %v", err)
	}

	// The default file must load into a valid configuration.
	v := viper.New()
	v.SetConfigFile(configFile)
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig() error = %v", err)
	}
	cfg, err := narration.LoadConfig(v)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Backend != narration.BackendAuto || cfg.Espeak.Voices["hi-IN"] != "hi" {
		t.Errorf("default config = %+v", cfg)
	}
	if cfg.Pacing.SentenceDelay != 400*time.Millisecond {
		t.Errorf("sentence delay = %v", cfg.Pacing.SentenceDelay)
	}

	// An existing file is left alone.
	if err := os.WriteFile(configFile, []byte("debug: true\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := ensureConfigFile(); err != nil {
		t.Fatal(err)
	}
	if b, _ := os.ReadFile(configFile); string(b) != "debug: true\n" {
		t.Errorf("existing config overwritten: %q", b)
	}

	configFile = filepath.Join(t.TempDir(), "narrate.json")
	if err := ensureConfigFile(); err == nil {
		t.Error("expected error for unsupported extension")
	}
}

func TestSetupLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "narrate.log")
	closer, err := setupLog(path, true)
	if err != nil {
		t.Fatalf("setupLog() error = %v", err)
	}
	t.Cleanup(func() {
		log.SetOutput(io.Discard)
		log.SetLevel(log.InfoLevel)
	})

	log.Debug("hello from the test")
	if err := closer(); err != nil {
		t.Fatal(err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "hello from the test") {
		t.Errorf("log file = %q", b)
	}
}

func TestManPage(t *testing.T) {
	page, err := manPage()
	if err != nil {
		t.Fatalf("manPage() error = %v", err)
	}
	if !strings.Contains(page, "narrate") {
		t.Error("man page should name the command")
	}
}
