package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "coslack",
	Short: "Conversational Slack assistant backed by Cohere",
	Long: `Coslack answers /ask questions in Slack threads using Cohere's chat API
with web-search augmentation, renders cited answers with feedback
controls, and summarizes threads on reaction.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".coslack.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
