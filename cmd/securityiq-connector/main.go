package main

import (
	"os"

	"github.com/spf13/cobra"
)

func NewRootCommand() *cobra.Command {

	var listenAddr string
	var actionFile string

	// rootCmd represents the base command when called without any subcommands
	var rootCmd = &cobra.Command{
		Use: "securityiq-connector",
	}

	var actionServerCmd = &cobra.Command{
		Use:   "action_server",
		Short: "Action API server",
		Run: func(cmd *cobra.Command, args []string) {
			startActionServer(listenAddr)
		},
	}

	var runActionCmd = &cobra.Command{
		Use:   "run_action",
		Short: "Run a single action from a json file and print the result",
		Run: func(cmd *cobra.Command, args []string) {
			runActionFromFile(actionFile)
		},
	}

	rootCmd.AddCommand(actionServerCmd)
	actionServerCmd.Flags().StringVarP(&listenAddr, "listen-addr", "l", ":8081", "Hostname:port")

	rootCmd.AddCommand(runActionCmd)
	runActionCmd.Flags().StringVarP(&actionFile, "file", "f", "action.json", "Path to the action request json file")

	return rootCmd
}

func main() {
	cmd := NewRootCommand()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
