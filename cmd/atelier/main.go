// cmd/atelier/main.go
package main

import (
	"fmt"
	"os"

	"atelier/client"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var addr string

var rootCmd = &cobra.Command{
	Use:   "atelier",
	Short: "Atelier is a gateway that turns agent streams into deployed apps",
	Long: `Atelier proxies chat turns to a generative agent, mirrors the stream
back to the client, and persists the file operations it describes. This CLI
talks to a running gateway.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&addr, "addr", "http://localhost:3002", "gateway address")

	var healthCmd = &cobra.Command{
		Use:   "health",
		Short: "Check the gateway is up",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.New(addr).Health(); err != nil {
				return fmt.Errorf("checking health: %w", err)
			}
			color.Green("gateway is healthy")
			return nil
		},
	}

	var stateCmd = &cobra.Command{
		Use:   "state [project]",
		Short: "Show what a project currently holds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := client.New(addr).State(args[0])
			if err != nil {
				return fmt.Errorf("fetching state: %w", err)
			}

			if !state.HasApp {
				color.Yellow("no app stored for %s", args[0])
				return nil
			}

			color.Green("app stored for %s", args[0])
			if state.Metadata != nil {
				fmt.Println("summary: ", state.Metadata.Summary)
				fmt.Println("updated: ", state.Metadata.UpdatedAt.Format("2006-01-02 15:04:05"))
				fmt.Println("sources: ", len(state.Metadata.SourceFiles))
				fmt.Println("compiled:", len(state.Metadata.CompiledFiles))
			}
			return nil
		},
	}

	var createCmd = &cobra.Command{
		Use:   "create [project] [prompt]",
		Short: "Generate a new app for a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := client.New(addr).Create(args[0], args[1])
			if err != nil {
				return fmt.Errorf("creating app: %w", err)
			}

			color.Green("app created: %s", result.Summary)
			for _, path := range result.Files {
				fmt.Println("  ", path)
			}
			fmt.Println("view at", result.ViewURL)
			return nil
		},
	}

	var editCmd = &cobra.Command{
		Use:   "edit [project] [prompt]",
		Short: "Rework a project's app",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := client.New(addr).Edit(args[0], args[1])
			if err != nil {
				return fmt.Errorf("editing app: %w", err)
			}

			color.Green("app updated: %s", result.Summary)
			for _, path := range result.Files {
				fmt.Println("  ", path)
			}
			return nil
		},
	}

	rootCmd.AddCommand(healthCmd, stateCmd, createCmd, editCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		color.Red("error: %v", err)
		os.Exit(1)
	}
}
