package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/udirag/internal/core/domain"
)

var (
	askJSON     bool
	askSources  bool
	retrieveK   int
	retrieveRaw bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Chunk, embed and index the corpus",
	Long: `Reads every page in the corpus directory, splits it into overlapping chunks,
embeds the chunks and rebuilds the vector index from scratch. The previous
index stays in use until the new one is complete.`,
	Args: cobra.NoArgs,
	RunE: runIngest,
}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from the indexed pages",
	Args:  cobra.ExactArgs(1),
	RunE:  runAsk,
}

var retrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Show the chunks most similar to a query",
	Args:  cobra.ExactArgs(1),
	RunE:  runRetrieve,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	askCmd.Flags().BoolVarP(&askSources, "sources", "s", false, "list the source URLs")
	retrieveCmd.Flags().IntVarP(&retrieveK, "k", "k", 0, "number of chunks (default retrieval.k)")
	retrieveCmd.Flags().BoolVar(&retrieveRaw, "full", false, "print full chunk text")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(retrieveCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	p, err := requireProvider()
	if err != nil {
		return err
	}
	ingester, err := p.Ingester(cmd.Context())
	if err != nil {
		return err
	}

	stats, err := ingester.Ingest(cmd.Context())
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}

	cmd.Printf("Indexed %d chunks from %d documents (%d files skipped).\n",
		stats.Chunks, stats.Documents, stats.Skipped)
	return nil
}

// askOutput is the JSON form of an answer.
type askOutput struct {
	Answer   string   `json:"answer"`
	Degraded bool     `json:"degraded,omitempty"`
	Sources  []string `json:"sources"`
}

func runAsk(cmd *cobra.Command, args []string) error {
	p, err := requireProvider()
	if err != nil {
		return err
	}
	answers, err := p.Answerer(cmd.Context())
	if err != nil {
		return err
	}

	answer := answers.Answer(cmd.Context(), args[0])
	sources := sourceOrigins(answer.Sources)

	if askJSON {
		data, err := json.MarshalIndent(askOutput{
			Answer:   answer.Text,
			Degraded: answer.Degraded,
			Sources:  sources,
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal answer: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(answer.Text)
	if askSources && len(sources) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for _, src := range sources {
			cmd.Printf("  - %s\n", src)
		}
	}
	return nil
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	p, err := requireProvider()
	if err != nil {
		return err
	}
	retriever, err := p.Retriever(cmd.Context())
	if err != nil {
		return err
	}

	results, err := retriever.Retrieve(cmd.Context(), args[0], retrieveK)
	if err != nil {
		return fmt.Errorf("retrieve: %w", err)
	}
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	for i, r := range results {
		cmd.Printf("  [%d] %s (%.3f)\n", i+1, r.Chunk.Origin, r.Score)
		text := r.Chunk.Content
		if !retrieveRaw {
			text = snippet(text, 200)
		}
		cmd.Printf("      %s\n\n", text)
	}
	return nil
}

// sourceOrigins lists distinct origins in rank order.
func sourceOrigins(sources []domain.RetrievedChunk) []string {
	seen := make(map[string]bool, len(sources))
	out := make([]string, 0, len(sources))
	for _, s := range sources {
		if s.Chunk.Origin == "" || seen[s.Chunk.Origin] {
			continue
		}
		seen[s.Chunk.Origin] = true
		out = append(out, s.Chunk.Origin)
	}
	return out
}

// snippet shortens text to at most n runes on one line.
func snippet(text string, n int) string {
	runes := []rune(text)
	for i, r := range runes {
		if r == '\n' || r == '\r' || r == '\t' {
			runes[i] = ' '
		}
	}
	if len(runes) <= n {
		return string(runes)
	}
	return string(runes[:n]) + "..."
}
