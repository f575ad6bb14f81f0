package main

import (
	"fmt"
	"strings"

	"github.com/claytonlovin/Botinho"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of botinho",
	// No configuration is needed to print the version.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("botinho version %s\n", strings.TrimSpace(botinho.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
