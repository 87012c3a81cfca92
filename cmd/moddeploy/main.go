package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev" // Will be set during build

var rootCmd = &cobra.Command{
	Use:   "moddeploy",
	Short: "Deployment orchestration for game community infrastructure",
	Long: `Moddeploy receives GitHub webhooks and orchestrates deployments for a
gaming community: web services are synced and restarted in place, featured-mod
game content is built, versioned and published.`,
	Version: version,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}
