package main

import (
	"fmt"

	mcobra "github.com/muesli/mango-cobra"
	"github.com/muesli/roff"
	"github.com/spf13/cobra"
)

var manCmd = &cobra.Command{
	Use:                   "man",
	Short:                 "Generates manpages",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Hidden:                true,
	Args:                  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		page, err := manPage()
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), page)
		return err //nolint:wrapcheck
	},
}

func manPage() (string, error) {
	page, err := mcobra.NewManPage(1, rootCmd)
	if err != nil {
		return "", err //nolint:wrapcheck
	}
	page = page.WithSection("Bugs", "Pausing in the middle of a word relies on job control signals, so the espeak backend cannot pause on Windows.")
	return page.Build(roff.NewDocument()), nil
}
