// Command orecli scores outcome attainment for a course snapshot file.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mind-engage/mindengage-outcomes/internal/course"
	"github.com/mind-engage/mindengage-outcomes/internal/logger"
	"github.com/mind-engage/mindengage-outcomes/internal/outcome"
	"github.com/mind-engage/mindengage-outcomes/internal/report"
	"github.com/mind-engage/mindengage-outcomes/internal/validate"
)

// errMissing makes check exit non-zero without printing a second message.
var errMissing = errors.New("missing associations")

type inputs struct {
	snapshot string
	outcomes string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errMissing) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string
	root := &cobra.Command{
		Use:           "orecli",
		Short:         "Outcome attainment scoring for course snapshots",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level")
	logFn := func() zerolog.Logger { return logger.New(os.Stderr, logLevel, "pretty") }

	root.AddCommand(newScoreCmd(logFn), newCheckCmd())
	return root
}

func (in *inputs) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&in.snapshot, "snapshot", "", "course snapshot JSON file")
	cmd.Flags().StringVar(&in.outcomes, "outcomes", "", "outcome definitions (.yaml, .yml or .json)")
	_ = cmd.MarkFlagRequired("snapshot")
	_ = cmd.MarkFlagRequired("outcomes")
}

func newScoreCmd(logFn func() zerolog.Logger) *cobra.Command {
	var (
		in       inputs
		students []string
		workers  int
	)
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score every outcome and print the report as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, outs, err := in.load()
			if err != nil {
				return err
			}
			b := report.NewBuilder(report.WithLogger(logFn()), report.WithWorkers(workers))
			rep, err := b.Build(cmd.Context(), c, outs, students)
			var me *report.MissingAssociationsError
			if errors.As(err, &me) {
				printMissing(cmd.ErrOrStderr(), me.Missing)
				return errMissing
			}
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rep)
		},
	}
	in.bind(cmd)
	cmd.Flags().StringSliceVar(&students, "student", nil, "limit the report to these student ids (repeatable)")
	cmd.Flags().IntVar(&workers, "workers", 0, "outcomes scored in parallel (0 = CPU count)")
	return cmd
}

func newCheckCmd() *cobra.Command {
	var in inputs
	cmd := &cobra.Command{
		Use:   "check",
		Short: "List outcome associations that do not resolve against the snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, outs, err := in.load()
			if err != nil {
				return err
			}
			missing := report.Check(outcome.NewAggregator(c), outcome.NormalizeOutcomes(outs))
			if len(missing) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "all associations found")
				return nil
			}
			printMissing(cmd.OutOrStdout(), missing)
			return errMissing
		},
	}
	in.bind(cmd)
	return cmd
}

func printMissing(w io.Writer, missing []report.Missing) {
	for _, m := range missing {
		fmt.Fprintf(w, "%s: %s\n", m.Outcome, m.Association.Label())
	}
}

func (in inputs) load() (*course.Course, []outcome.Outcome, error) {
	snap, err := readSnapshot(in.snapshot)
	if err != nil {
		return nil, nil, err
	}
	c, err := course.Build(snap)
	if err != nil {
		return nil, nil, err
	}
	outs, err := readOutcomes(in.outcomes)
	if err != nil {
		return nil, nil, err
	}
	return c, outs, nil
}

func readSnapshot(path string) (course.Input, error) {
	var in course.Input
	f, err := os.Open(path)
	if err != nil {
		return in, err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(&in); err != nil {
		return in, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	if err := validate.Struct(in); err != nil {
		return in, fmt.Errorf("snapshot %s: %s", path, joinFields(validate.TranslateErrors(err)))
	}
	return in, nil
}

// outcomeFile accepts either a bare list or a document with an outcomes key.
type outcomeFile struct {
	Outcomes []outcome.Outcome `json:"outcomes" yaml:"outcomes"`
}

func readOutcomes(path string) ([]outcome.Outcome, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var outs []outcome.Outcome
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(buf, &outs); err != nil {
			var doc outcomeFile
			if derr := yaml.Unmarshal(buf, &doc); derr != nil {
				return nil, fmt.Errorf("decode outcomes %s: %w", path, err)
			}
			outs = doc.Outcomes
		}
	default:
		if err := json.Unmarshal(buf, &outs); err != nil {
			var doc outcomeFile
			if derr := json.Unmarshal(buf, &doc); derr != nil {
				return nil, fmt.Errorf("decode outcomes %s: %w", path, err)
			}
			outs = doc.Outcomes
		}
	}
	if err := validate.Struct(outs); err != nil {
		return nil, fmt.Errorf("outcomes %s: %s", path, joinFields(validate.TranslateErrors(err)))
	}
	return outs, nil
}

func joinFields(fields map[string]string) string {
	parts := make([]string, 0, len(fields))
	for k, v := range fields {
		parts = append(parts, k+": "+v)
	}
	slices.Sort(parts)
	return strings.Join(parts, "; ")
}
