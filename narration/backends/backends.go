// Package backends selects and builds the speech backend named in the
// configuration.
package backends

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/narrate/internal/cache"
	"github.com/dgnsrekt/narrate/narration"
	"github.com/dgnsrekt/narrate/narration/backends/espeak"
	"github.com/dgnsrekt/narrate/narration/backends/mock"
	"github.com/dgnsrekt/narrate/narration/backends/pcm"
)

// NameNone is reported when no backend could be built.
const NameNone = "none"

const mib = 1024 * 1024

// openOutput is replaced in tests.
var openOutput = pcm.OpenOutput

// Selection is the backend chosen for a session plus the resources it owns.
// Backend is nil when nothing is available.
type Selection struct {
	Backend narration.Backend
	Name    string

	closers []io.Closer
}

// Close releases resources held by the backend, such as the clip cache.
func (s *Selection) Close() error {
	var errs []error
	if s.Backend != nil {
		errs = append(errs, s.Backend.Cancel())
	}
	for _, c := range s.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// Open builds the backend named by cfg.Backend. auto prefers pcm, then
// espeak, and settles on no backend when neither works. An explicitly named
// backend is returned even when it is unavailable so the controller can
// report it.
func Open(cfg narration.Config, logger *log.Logger) (*Selection, error) {
	if logger == nil {
		logger = log.Default()
	}

	switch cfg.Backend {
	case narration.BackendMock:
		return &Selection{Backend: mock.NewAuto(cfg.Mock.WordDuration), Name: narration.BackendMock}, nil

	case narration.BackendEspeak:
		return &Selection{Backend: newEspeak(cfg, logger), Name: narration.BackendEspeak}, nil

	case narration.BackendPCM:
		sel, err := openPCM(cfg, logger)
		if err != nil {
			logger.Warn("pcm backend unavailable", "err", err)
			return &Selection{Backend: pcm.New(nil, nil, cfg.Espeak), Name: narration.BackendPCM}, nil
		}
		return sel, nil

	case narration.BackendAuto, "":
		sel, err := openPCM(cfg, logger)
		if err == nil {
			return sel, nil
		}
		logger.Debug("pcm backend unavailable, trying espeak", "err", err)

		if b := newEspeak(cfg, logger); b.Available() {
			return &Selection{Backend: b, Name: narration.BackendEspeak}, nil
		}

		logger.Warn("no speech backend available", "err", narration.ErrBackendUnavailable)
		return &Selection{Name: NameNone}, nil
	}

	return nil, fmt.Errorf("%w: unknown backend %q", narration.ErrInvalidConfig, cfg.Backend)
}

func newEspeak(cfg narration.Config, logger *log.Logger) *espeak.Backend {
	return espeak.New(cfg.Espeak, logger.WithPrefix("espeak"))
}

func openPCM(cfg narration.Config, logger *log.Logger) (*Selection, error) {
	synth := newEspeak(cfg, logger)
	if !synth.Available() {
		return nil, espeak.ErrNotFound
	}

	out, err := openOutput(pcm.DefaultSampleRate, pcm.DefaultChannels)
	if err != nil {
		return nil, err
	}

	cacheCfg := cache.DefaultCacheConfig()
	cacheCfg.MemoryCapacity = int64(cfg.PCM.CacheSize) * mib
	if cfg.PCM.CacheDir != "" {
		cacheCfg.DiskPath = filepath.Join(cfg.PCM.CacheDir, "clips")
		cacheCfg.DiskCapacity = int64(cfg.PCM.DiskCacheSize) * mib
	}

	clips, err := cache.NewManager(cacheCfg, logger.WithPrefix("cache"))
	if err != nil {
		return nil, err
	}

	b := pcm.New(synth, out, cfg.Espeak,
		pcm.WithCache(clips),
		pcm.WithLogger(logger.WithPrefix("pcm")))

	return &Selection{Backend: b, Name: narration.BackendPCM, closers: []io.Closer{clips}}, nil
}
