//go:build unix

package espeak

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

func suspend(p *os.Process) error {
	return p.Signal(unix.SIGSTOP)
}

func resume(p *os.Process) error {
	return p.Signal(unix.SIGCONT)
}

func terminate(p *os.Process) error {
	if err := p.Signal(unix.SIGKILL); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}
