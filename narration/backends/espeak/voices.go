package espeak

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Voice is one entry of `espeak --voices`.
type Voice struct {
	Priority int
	Language string
	Gender   string
	Name     string
	File     string
}

// Voices lists the voices the installed espeak knows about.
func (b *Backend) Voices(ctx context.Context) ([]Voice, error) {
	if !b.Available() {
		return nil, ErrNotFound
	}

	out, err := exec.CommandContext(ctx, b.binary, "--voices").Output()
	if err != nil {
		return nil, fmt.Errorf("failed to list voices: %w", err)
	}
	return ParseVoices(string(out)), nil
}

// ParseVoices parses the table printed by `espeak --voices`:
//
//	Pty Language       Age/Gender VoiceName          File                 Other Languages
//	 5  af              --/M      Afrikaans          gmw/af
func ParseVoices(output string) []Voice {
	lines := strings.Split(output, "\n")
	voices := make([]Voice, 0, len(lines))

	for i, line := range lines {
		// Skip header line
		if i == 0 || strings.TrimSpace(line) == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 5 {
			continue
		}

		pty, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}

		gender := fields[2]
		if _, g, ok := strings.Cut(gender, "/"); ok {
			gender = g
		}

		voices = append(voices, Voice{
			Priority: pty,
			Language: fields[1],
			Gender:   gender,
			Name:     fields[3],
			File:     fields[4],
		})
	}

	return voices
}

// Title is a one-line description for listings.
func (v Voice) Title() string {
	return fmt.Sprintf("%s (%s)", v.Name, v.Language)
}
