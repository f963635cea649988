package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/query"
)

func newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <question>",
		Short: "Show how the router classifies a question, without calling a model",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.Join(args, " ")
			cmd.Print(renderClassification(question, query.Classify(question)))
			return nil
		},
	}
}
