package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/LeEricCH/cohere-slack-starter-app/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter configuration file",
	Long:  `Writes a commented .coslack.yml with default values to fill in with your Slack, Cohere, and OpenAI credentials.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(cfgFile); err == nil {
			return fmt.Errorf("%s already exists, refusing to overwrite", cfgFile)
		}
		if err := config.WriteStarter(cfgFile); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", cfgFile)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
