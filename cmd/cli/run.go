package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/smadinen7/Market-Intelligence-Assistant/internal/bootstrap"
	"github.com/smadinen7/Market-Intelligence-Assistant/internal/util"
	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/workflow"
)

type runOptions struct {
	company    string
	analyzeAll bool
	parallel   int
}

func newRunCmd() *cobra.Command {
	opts := runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Discover competitors of a company and chat about them",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg := bootstrap.ConfigFromEnv()
			client, err := bootstrap.NewAIClient(cfg)
			if err != nil {
				return err
			}
			stack := bootstrap.NewStack(cfg, client, nil)
			s := stack.Session(workflow.NewSessionParams{
				ID:      "cli",
				Timeout: util.GetEnvDuration("COLLABORATOR_TIMEOUT", 0),
			})
			defer s.Close()

			return runSession(ctx, s, opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&opts.company, "company", "", "Company to analyze")
	cmd.Flags().BoolVar(&opts.analyzeAll, "analyze-all", false, "Analyze every discovered competitor before chatting")
	cmd.Flags().IntVar(&opts.parallel, "parallel", 2, "Competitors analyzed at the same time")
	_ = cmd.MarkFlagRequired("company")
	return cmd
}

// runSession drives one session: discovery, optional analysis, then a chat
// loop over in until EOF or "exit".
func runSession(ctx context.Context, s *workflow.Session, opts runOptions, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, styles.Muted.Render("Identifying competitors of "+opts.company+"..."))
	if err := s.SelectCompany(ctx, opts.company); err != nil {
		return err
	}

	if opts.analyzeAll {
		fmt.Fprintln(out, styles.Muted.Render("Analyzing competitors..."))
		if err := s.AnalyzeAll(ctx, opts.parallel); err != nil {
			if errors.Is(err, workflow.ErrSessionReset) || ctx.Err() != nil {
				return err
			}
			// Failed competitors are listed in the summary.
			fmt.Fprintln(out, styles.Warning.Render(err.Error()))
		}
	}
	fmt.Fprintln(out, renderState(s.CurrentState()))

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, styles.Title.Render("> "))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		question := strings.TrimSpace(scanner.Text())
		switch question {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		if name, ok := strings.CutPrefix(question, "/analyze "); ok {
			if _, err := s.SelectCompetitor(ctx, strings.TrimSpace(name)); err != nil {
				fmt.Fprintln(out, styles.Error.Render(err.Error()))
			}
			fmt.Fprintln(out, renderState(s.CurrentState()))
			continue
		}

		answer, err := s.Chat(ctx, question)
		if err != nil {
			fmt.Fprintln(out, styles.Error.Render(err.Error()))
			continue
		}
		fmt.Fprintln(out, renderAnswer(answer))
	}
}
