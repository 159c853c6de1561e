package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pseudo9608/interpreter-go/pkg/driver"
)

var rootCmd = &cobra.Command{
	Use:   "pseudo FILE",
	Short: "pseudo — a 9608 pseudocode interpreter",
	Long: `pseudo runs a Cambridge 9608 pseudocode source file.

The program's OUTPUT goes to stdout and INPUT reads from stdin; file
statements operate on paths relative to the working directory.`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return driver.RunFile(args[0], driver.Options{})
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
