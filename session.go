package main

import (
	"errors"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/narrate/narration"
	"github.com/dgnsrekt/narrate/narration/backends"
	"github.com/dgnsrekt/narrate/narration/lang"
	"github.com/dgnsrekt/narrate/narration/segment"
)

// session is a controller bound to the backend chosen by the configuration.
type session struct {
	ctrl    *narration.Controller
	backend string
	sel     *backends.Selection
}

func newSession(cfg narration.Config) (*session, error) {
	sel, err := backends.Open(cfg, log.Default())
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	log.Debug("speech backend selected", "backend", sel.Name)

	ctrl := narration.NewController(
		sel.Backend,
		segment.New(),
		lang.New(cfg.DefaultLocale(), cfg.DevanagariLocale()),
		narration.WithConfig(cfg),
		narration.WithLogger(log.WithPrefix("narration")),
	)

	return &session{ctrl: ctrl, backend: sel.Name, sel: sel}, nil
}

func (s *session) Close() error {
	return errors.Join(s.ctrl.Close(), s.sel.Close())
}
