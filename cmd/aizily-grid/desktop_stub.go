//go:build !desktop

package main

import (
	"errors"

	"github.com/spf13/cobra"
)

var desktopCmd = &cobra.Command{
	Use:   "desktop",
	Short: "Show the day grid in a window (needs a build with -tags desktop)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return errors.New("this binary was built without the desktop window; rebuild with -tags desktop")
	},
}
