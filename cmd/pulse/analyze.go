package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"samilabs.app/pulse/internal/analysis"
	"samilabs.app/pulse/internal/conversation"
	"samilabs.app/pulse/internal/export"
	"samilabs.app/pulse/internal/model"
)

type analyzeOptions struct {
	limit       int
	mode        string
	interactive bool
	save        string
}

func newAnalyzeCmd(a *app) *cobra.Command {
	opts := &analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze <entity>",
		Short: "Collect mentions and ask the analysis model about them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAnalyze(cmd, strings.Join(args, " "), opts)
		},
	}
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 20, "Maximum number of mentions")
	cmd.Flags().StringVarP(&opts.mode, "mode", "m", "summary", "Analysis mode: summary or report")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "Keep asking follow-up questions")
	cmd.Flags().StringVar(&opts.save, "save", "", "Write mentions and analysis as JSON to this file")
	return cmd
}

func (a *app) runAnalyze(cmd *cobra.Command, entity string, opts *analyzeOptions) error {
	mode, err := model.ParseAnalysisMode(opts.mode)
	if err != nil {
		return err
	}

	invoker, err := a.newInvoker(a.cfg.AnalysisLLM)
	if err != nil {
		return err
	}

	result, err := a.aggregate(cmd, entity, opts.limit, nil, 0)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("Collected %d mentions of %s", len(result.Mentions), result.Query)))

	session := conversation.NewManager(a.cfg.Aggregation.WindowSize).NewSession(conversation.DefaultSystemPrompt)
	analyst := conversation.NewAnalyst(invoker)

	prompt := conversation.BuildMentionsPrompt(result.Query, result.Mentions, conversation.DefaultPromptItems)
	reply := analyst.Ask(cmd.Context(), session, prompt, mode)
	printReply(out, reply)

	if opts.save != "" {
		path := outputPath(opts.save, result.Query, "report", "json")
		if err := saveReport(path, export.NewReport(result, reply.Result)); err != nil {
			return fmt.Errorf("save report: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Saved report to %s\n", path)
	}

	if opts.interactive {
		return repl(cmd, analyst, session)
	}
	return nil
}

// repl reads follow-up questions until EOF or quit. Answers use summary
// mode; each question sees only the session's bounded window.
func repl(cmd *cobra.Command, analyst *conversation.Analyst, session *conversation.Session) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(cmd.ErrOrStderr(), "Ask a follow-up question (or 'quit' to exit):")

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, promptStyle.Render("> "))
		if !scanner.Scan() {
			break
		}

		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if question == "quit" || question == "exit" || question == "q" {
			break
		}

		printReply(out, analyst.Ask(cmd.Context(), session, question, model.AnalysisSummary))
		if err := cmd.Context().Err(); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func printReply(w io.Writer, reply conversation.Reply) {
	if reply.Failed {
		fmt.Fprintln(w, errorStyle.Render(reply.Content))
		if analysis.IsRetryable(reply.Err) {
			fmt.Fprintln(w, mutedStyle.Render("The analysis service is temporarily unavailable; asking again may work."))
		}
		return
	}
	fmt.Fprintln(w, reply.Content)
	fmt.Fprintln(w)
}

func saveReport(path string, report export.Report) error {
	return writeFile(path, func(w io.Writer) error {
		return export.WriteJSON(w, report)
	})
}
