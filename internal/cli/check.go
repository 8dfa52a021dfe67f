package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/scholarseal/veritas/infrastructure/config"
	"github.com/scholarseal/veritas/infrastructure/metrics"
	"github.com/scholarseal/veritas/internal/application"
	"github.com/scholarseal/veritas/internal/domain"
)

// ErrCheckFailed marks a run that completed normally with a FAILED
// verdict, so main can exit 1 rather than 2.
var ErrCheckFailed = errors.New("submission failed integrity check")

var (
	checkSubject string
	checkFile    string
	checkCorpus  string
	checkStrict  bool
)

// checkCmd represents the check command.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check one submission against a reference corpus",
	Long: `Check runs the full integrity pipeline for a single submission and
prints the verdict as JSON on stdout.

The corpus may be a JSON file holding an array of references
([{"title": ..., "url": ..., "text": ...}]) or a directory of .txt
files, one reference per file. It may also be omitted entirely, in
which case the similarity signals are reported as unavailable and only
authenticity and relevance analysis can fail the submission.

Example:
  veritas check --subject "history" --file essay.txt --corpus refs.json
  veritas check --subject "physics" --file paper.txt --corpus ./sources/ --strict

Exit codes: 0 passed, 1 failed, 2 the check could not be completed.`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&checkSubject, "subject", "", "claimed subject of the submission")
	checkCmd.Flags().StringVar(&checkFile, "file", "", "path to the submission text")
	checkCmd.Flags().StringVar(&checkCorpus, "corpus", "", "reference corpus: JSON file or directory of .txt files")
	checkCmd.Flags().BoolVar(&checkStrict, "strict", false, "use strict decision thresholds")

	_ = checkCmd.MarkFlagRequired("subject")
	_ = checkCmd.MarkFlagRequired("file")
}

func runCheck(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if checkStrict {
		cfg.Mode = application.ModeStrict
	}

	text, err := os.ReadFile(checkFile)
	if err != nil {
		return fmt.Errorf("reading submission: %w", err)
	}
	sub, err := domain.NewSubmission(uuid.NewString(), checkSubject, string(text))
	if err != nil {
		return err
	}

	corpus, err := loadCorpus(checkCorpus)
	if err != nil {
		return err
	}

	engine, err := application.NewEngine(cfg,
		application.WithLogger(logger),
		application.WithMetrics(metrics.NewPrometheusMetrics(prometheus.NewRegistry())),
	)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RunTimeout)
	defer cancel()

	verdict, err := engine.Validate(ctx, sub, corpus)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(verdict); err != nil {
		return fmt.Errorf("encoding verdict: %w", err)
	}

	if verdict.Status == domain.StatusFailed {
		return ErrCheckFailed
	}
	return nil
}

// loadCorpus reads the reference corpus from a JSON file or a directory
// of .txt files. An empty path yields an empty corpus.
func loadCorpus(path string) (*domain.ReferenceCorpus, error) {
	if path == "" {
		return &domain.ReferenceCorpus{}, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading corpus: %w", err)
	}
	if info.IsDir() {
		return loadCorpusDir(path)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading corpus: %w", err)
	}
	var refs []domain.Reference
	if err := json.Unmarshal(raw, &refs); err != nil {
		return nil, fmt.Errorf("parsing corpus %s: %w", path, err)
	}
	return &domain.ReferenceCorpus{References: refs}, nil
}

func loadCorpusDir(dir string) (*domain.ReferenceCorpus, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading corpus directory: %w", err)
	}
	corpus := &domain.ReferenceCorpus{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		text, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading corpus file %s: %w", entry.Name(), err)
		}
		corpus.References = append(corpus.References, domain.Reference{
			Title: strings.TrimSuffix(entry.Name(), ".txt"),
			Text:  string(text),
		})
	}
	return corpus, nil
}
