//go:build !unix

package espeak

import (
	"errors"
	"os"
)

func suspend(*os.Process) error {
	return ErrPauseUnsupported
}

func resume(*os.Process) error {
	return nil
}

func terminate(p *os.Process) error {
	if err := p.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}
