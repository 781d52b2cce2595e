// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mealdesk-web",
	Short: "MealDesk web is the browser front end of the MealDesk meal service",
	Long: `MealDesk web serves the MealDesk pages. Every page navigation passes a
session guard that resolves the signed in user through the MealDesk backend
and sends anonymous visitors of protected pages to the login page.`,
	Args: cobra.OnlyValidArgs,
}

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().StringVarP(
		&configPath,
		"config",
		"c",
		"",
		"Path to the configuration directory (default: "+defaultConfigHint+")",
	)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
