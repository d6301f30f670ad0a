package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dialflow/dialflow/pkg/domain"
)

var validateCmd = &cobra.Command{
	Use:   "validate <workflow.yaml>",
	Short: "Check a workflow definition for consistency",
	Long:  `Parses a workflow file and reports structural errors: missing start node, dangling edges, unreachable nodes and invalid node kinds.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runValidate(args[0]); err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var graph domain.Graph
	if err := yaml.Unmarshal(data, &graph); err != nil {
		return fmt.Errorf("invalid workflow yaml: %w", err)
	}

	result := graph.Validate()
	for _, warning := range result.Warnings {
		fmt.Printf("warning: %s\n", warning)
	}
	if !result.OK() {
		for _, msg := range result.Errors {
			fmt.Printf("error: %s\n", msg)
		}
		return fmt.Errorf("%d error(s)", len(result.Errors))
	}

	fmt.Println("Workflow is valid")
	return nil
}
