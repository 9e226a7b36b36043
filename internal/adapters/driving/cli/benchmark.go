package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	generateSample int
	benchmarkLimit int
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate benchmark questions from random chunks",
	Long: `Samples benchmark.sample_size chunks at random and asks the generator model
for benchmark.pairs_per_chunk question and answer pairs per chunk. The result
is written to benchmark_dataset.json in the data directory.`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Keep only questions grounded in their context",
	Long: `Reads benchmark_dataset.json, rejects items whose context is too short or
whose answer is not supported by the context, and writes the rest to
benchmark_dataset_clean.json.`,
	Args: cobra.NoArgs,
	RunE: runAudit,
}

var benchmarkCmd = &cobra.Command{
	Use:   "benchmark",
	Short: "Score the answering pipeline on the audited dataset",
	Long: `Answers every question in benchmark_dataset_clean.json with the full
retrieval pipeline, grades each answer against its ground truth and writes
benchmark_report.json.`,
	Args: cobra.NoArgs,
	RunE: runBenchmark,
}

func init() {
	generateCmd.Flags().IntVarP(&generateSample, "sample", "n", 0, "chunks to sample (default benchmark.sample_size)")
	benchmarkCmd.Flags().IntVarP(&benchmarkLimit, "limit", "n", 0, "score only the first n questions")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(benchmarkCmd)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	p, err := requireProvider()
	if err != nil {
		return err
	}
	datasets, err := p.Datasets()
	if err != nil {
		return err
	}
	generator, err := p.Generator(cmd.Context())
	if err != nil {
		return err
	}

	items, stats, err := generator.Generate(cmd.Context(), generateSample)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}
	if err := datasets.SaveCandidates(cmd.Context(), items); err != nil {
		return fmt.Errorf("save dataset: %w", err)
	}

	cmd.Printf("Generated %d questions from %d chunks (%d chunks failed).\n",
		stats.Pairs, stats.Sampled, stats.Failed)
	return nil
}

func runAudit(cmd *cobra.Command, _ []string) error {
	p, err := requireProvider()
	if err != nil {
		return err
	}
	datasets, err := p.Datasets()
	if err != nil {
		return err
	}

	candidates, err := datasets.LoadCandidates(cmd.Context())
	if err != nil {
		return fmt.Errorf("load dataset (run 'udirag generate' first): %w", err)
	}

	auditor, err := p.Auditor(cmd.Context())
	if err != nil {
		return err
	}
	result, err := auditor.Audit(cmd.Context(), candidates)
	if err != nil {
		return fmt.Errorf("audit: %w", err)
	}
	if err := datasets.SaveVerified(cmd.Context(), result.Kept); err != nil {
		return fmt.Errorf("save verified dataset: %w", err)
	}

	cmd.Println("Audit complete")
	cmd.Printf("  Total:                %d\n", result.Stats.Total)
	cmd.Printf("  Context too short:    %d\n", result.Stats.RejectedShortContext)
	cmd.Printf("  Not grounded:         %d\n", result.Stats.RejectedHallucination)
	cmd.Printf("  Judge errors:         %d\n", result.Stats.Failed)
	cmd.Printf("  Kept:                 %d\n", result.Stats.Kept)
	return nil
}

func runBenchmark(cmd *cobra.Command, _ []string) error {
	p, err := requireProvider()
	if err != nil {
		return err
	}
	datasets, err := p.Datasets()
	if err != nil {
		return err
	}

	items, err := datasets.LoadVerified(cmd.Context())
	if err != nil {
		return fmt.Errorf("load verified dataset (run 'udirag audit' first): %w", err)
	}
	if benchmarkLimit > 0 && benchmarkLimit < len(items) {
		items = items[:benchmarkLimit]
	}

	runner, err := p.Runner(cmd.Context())
	if err != nil {
		return err
	}
	report, err := runner.Run(cmd.Context(), items)
	if err != nil {
		return fmt.Errorf("benchmark: %w", err)
	}
	if err := datasets.SaveReport(cmd.Context(), report); err != nil {
		return fmt.Errorf("save report: %w", err)
	}

	for i, r := range report.Results {
		cmd.Printf("[%d] %s %s\n", i+1, r.Verdict, r.Question)
		cmd.Printf("      Expected: %s\n", snippet(r.GroundTruth, 200))
		cmd.Printf("      Got:      %s\n", snippet(r.Answer, 200))
		if r.Reason != "" {
			cmd.Printf("      %s\n", r.Reason)
		}
	}
	cmd.Println()
	cmd.Printf("Accuracy: %.1f%% (%d/%d) with %s, k=%d\n",
		report.Accuracy, report.Passed, report.Total, report.Model, report.K)
	return nil
}
