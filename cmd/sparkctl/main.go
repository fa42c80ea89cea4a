// Command sparkctl is the operator CLI for content checks, offline quiz
// scoring, exam calendar export, usage event summaries and completion
// provider checks.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/spark-career/spark/internal/ai"
	"github.com/spark-career/spark/internal/analytics"
	"github.com/spark-career/spark/internal/catalog"
	"github.com/spark-career/spark/internal/platform/config"
	"github.com/spark-career/spark/internal/platform/database"
	"github.com/spark-career/spark/internal/quiz"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "sparkctl",
		Short:        "Operate a S.P.A.R.K deployment",
		SilenceUsage: true,
	}
	root.AddCommand(newContentCmd(), newQuizCmd(), newExamsCmd(), newEventsCmd(), newAICmd())
	return root
}

// =============================================================================
// content
// =============================================================================

func newContentCmd() *cobra.Command {
	content := &cobra.Command{
		Use:   "content",
		Short: "Inspect content tables",
	}
	content.AddCommand(&cobra.Command{
		Use:   "check [dir]",
		Short: "Validate a content directory against the schema",
		Long:  "Loads every .yaml/.yml file under dir and checks it. Without dir the built-in content is checked.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) == 1 {
				dir = args[0]
			}
			cat, err := catalog.Load(dir)
			if err != nil {
				if catalog.IsSchemaError(err) {
					return fmt.Errorf("schema violation: %w", err)
				}
				return err
			}
			return printContentSummary(cmd.OutOrStdout(), cat)
		},
	})
	return content
}

func printContentSummary(w io.Writer, cat *catalog.Catalog) error {
	rows := []struct {
		name string
		n    int
	}{
		{"classes", len(cat.Classes())},
		{"streams", len(cat.StreamNames())},
		{"states", len(cat.StateNames())},
		{"scholarships", len(cat.Scholarships())},
		{"pg options", len(cat.PGOptions())},
		{"exams", len(cat.Exams())},
		{"faqs", len(cat.FAQs())},
	}
	fmt.Fprintln(w, "OK")
	for _, r := range rows {
		if _, err := fmt.Fprintf(w, "  %-13s %d\n", r.name, r.n); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// quiz
// =============================================================================

func newQuizCmd() *cobra.Command {
	q := &cobra.Command{
		Use:   "quiz",
		Short: "Work with the built-in quizzes",
	}
	q.AddCommand(&cobra.Command{
		Use:   "score <test> <answers>",
		Short: "Score a comma-separated list of option indexes",
		Long:  `Answers are zero-based option indexes in question order. Use "-" for an unanswered question, e.g. "0,2,-,1".`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := quiz.DefaultRegistry()
			if err != nil {
				return err
			}
			t, ok := reg.Get(args[0])
			if !ok {
				return fmt.Errorf("unknown test %q (have %s)", args[0], strings.Join(reg.IDs(), ", "))
			}
			res, err := scoreAnswers(t, args[1])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	})
	return q
}

func scoreAnswers(t *quiz.Test, list string) (quiz.Result, error) {
	s := t.Resume(&quiz.State{})
	parts := strings.Split(list, ",")
	if len(parts) > t.Len() {
		return quiz.Result{}, fmt.Errorf("%d answers for %d questions", len(parts), t.Len())
	}
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "-" || p == "" {
			continue
		}
		opt, err := strconv.Atoi(p)
		if err != nil {
			return quiz.Result{}, fmt.Errorf("answer %d: %q is not an option index", i+1, p)
		}
		if err := s.Select(i, opt); err != nil {
			return quiz.Result{}, fmt.Errorf("answer %d: %w", i+1, err)
		}
	}
	return s.Submit(), nil
}

// =============================================================================
// exams
// =============================================================================

func newExamsCmd() *cobra.Command {
	var (
		out     string
		month   int
		content string
	)
	export := &cobra.Command{
		Use:   "export",
		Short: "Write the exam calendar with urgency tiers to an .xlsx file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := catalog.Load(content)
			if err != nil {
				return err
			}
			now := time.Now()
			if month != 0 {
				if month < 1 || month > 12 {
					return fmt.Errorf("--month must be 1-12, got %d", month)
				}
				now = time.Date(now.Year(), time.Month(month), 1, 0, 0, 0, 0, time.Local)
			}

			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := catalog.WriteExamWorkbook(f, cat.ExamCalendar(now)); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (as of %s)\n", out, now.Month())
			return nil
		},
	}
	export.Flags().StringVarP(&out, "output", "o", "exams.xlsx", "output file")
	export.Flags().IntVar(&month, "month", 0, "reference month 1-12 (default: current month)")
	export.Flags().StringVar(&content, "content", "", "content directory (default: built-in content)")

	exams := &cobra.Command{
		Use:   "exams",
		Short: "Exam calendar tools",
	}
	exams.AddCommand(export)
	return exams
}

// =============================================================================
// events
// =============================================================================

func newEventsCmd() *cobra.Command {
	var since time.Duration
	summary := &cobra.Command{
		Use:   "summary",
		Short: "Count usage events per type from the event log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.Database.URL == "" {
				return fmt.Errorf("SPARK_DATABASE_URL is not set")
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			db, err := database.New(ctx, cfg.Database.URL, 2, 1)
			if err != nil {
				return err
			}
			defer db.Close()

			counts, err := analytics.NewPostgresEventLogger(db.Pool).Counts(ctx, time.Now().Add(-since))
			if err != nil {
				return err
			}
			return printCounts(cmd.OutOrStdout(), counts)
		},
	}
	summary.Flags().DurationVar(&since, "since", 24*time.Hour, "look-back window")

	events := &cobra.Command{
		Use:   "events",
		Short: "Usage event tools",
	}
	events.AddCommand(summary)
	return events
}

func printCounts(w io.Writer, counts map[string]int64) error {
	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	slices.Sort(types)
	if len(types) == 0 {
		_, err := fmt.Fprintln(w, "no events")
		return err
	}
	for _, t := range types {
		if _, err := fmt.Fprintf(w, "%-16s %d\n", t, counts[t]); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// ai
// =============================================================================

func newAICmd() *cobra.Command {
	var ping bool
	check := &cobra.Command{
		Use:   "check",
		Short: "List the configured completion providers and optionally ping them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			router := ai.NewDefaultRouter(
				ai.Endpoint{APIKey: cfg.AI.Groq.APIKey, Model: cfg.AI.Groq.Model},
				ai.Endpoint{APIKey: cfg.AI.OpenAI.APIKey, Model: cfg.AI.OpenAI.Model},
			)
			if err := printProviders(cmd.OutOrStdout(), router); err != nil {
				return err
			}
			if !ping {
				return nil
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()
			if err := router.HealthCheck(ctx); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "all providers reachable")
			return err
		},
	}
	check.Flags().BoolVar(&ping, "ping", false, "call each provider's model listing endpoint")

	a := &cobra.Command{
		Use:   "ai",
		Short: "Completion provider tools",
	}
	a.AddCommand(check)
	return a
}

func printProviders(w io.Writer, router *ai.Router) error {
	if !router.HasProvider() {
		return ai.ErrNoProvider
	}
	models := router.Models()
	for i, name := range router.Providers() {
		ids := make([]string, 0, len(models[name]))
		for _, m := range models[name] {
			ids = append(ids, m.ID)
		}
		if _, err := fmt.Fprintf(w, "%d. %-8s %s\n", i+1, name, strings.Join(ids, ", ")); err != nil {
			return err
		}
	}
	return nil
}
