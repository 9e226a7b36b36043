package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Inspect ingested documents",
	Long:  `List and view the documents and chunks recorded by the last ingest.`,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ingested documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentGetCmd = &cobra.Command{
	Use:   "get [doc-id]",
	Short: "Show document info",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentGet,
}

var documentContentCmd = &cobra.Command{
	Use:   "content [doc-id]",
	Short: "Print document content",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentContent,
}

var documentChunksCmd = &cobra.Command{
	Use:   "chunks [doc-id]",
	Short: "List a document's chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentChunks,
}

func init() {
	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentContentCmd)
	documentCmd.AddCommand(documentChunksCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	p, err := requireProvider()
	if err != nil {
		return err
	}
	store, err := p.Documents()
	if err != nil {
		return err
	}

	docs, err := store.ListDocuments(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Println("No documents ingested. Run 'udirag ingest' first.")
		return nil
	}

	for i := range docs {
		cmd.Printf("  %s\n", docs[i].ID)
		if docs[i].Title != "" {
			cmd.Printf("    Title:  %s\n", docs[i].Title)
		}
		cmd.Printf("    Origin: %s\n", docs[i].Origin)
		cmd.Println()
	}

	chunks, err := store.CountChunks(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to count chunks: %w", err)
	}
	cmd.Printf("Total: %d documents, %d chunks\n", len(docs), chunks)
	return nil
}

func runDocumentGet(cmd *cobra.Command, args []string) error {
	p, err := requireProvider()
	if err != nil {
		return err
	}
	store, err := p.Documents()
	if err != nil {
		return err
	}

	doc, err := store.GetDocument(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}
	chunks, err := store.GetChunks(cmd.Context(), doc.ID)
	if err != nil {
		return fmt.Errorf("failed to get chunks: %w", err)
	}

	cmd.Printf("Document: %s\n\n", doc.ID)
	cmd.Printf("  Title:    %s\n", doc.Title)
	cmd.Printf("  Origin:   %s\n", doc.Origin)
	cmd.Printf("  Length:   %d characters\n", len([]rune(doc.Content)))
	cmd.Printf("  Chunks:   %d\n", len(chunks))
	cmd.Printf("  Ingested: %s\n", doc.CreatedAt.Format("2006-01-02 15:04:05"))

	if len(doc.Metadata) > 0 {
		cmd.Println("\n  Metadata:")
		for k, v := range doc.Metadata {
			cmd.Printf("    %s: %v\n", k, v)
		}
	}

	return nil
}

func runDocumentContent(cmd *cobra.Command, args []string) error {
	p, err := requireProvider()
	if err != nil {
		return err
	}
	store, err := p.Documents()
	if err != nil {
		return err
	}

	doc, err := store.GetDocument(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document content: %w", err)
	}

	cmd.Println(doc.Content)
	return nil
}

func runDocumentChunks(cmd *cobra.Command, args []string) error {
	p, err := requireProvider()
	if err != nil {
		return err
	}
	store, err := p.Documents()
	if err != nil {
		return err
	}

	chunks, err := store.GetChunks(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get chunks: %w", err)
	}

	for i := range chunks {
		cmd.Printf("  [%d] %s (overlap %d)\n", chunks[i].Position, chunks[i].ID, chunks[i].Overlap)
		cmd.Printf("      %s\n\n", snippet(chunks[i].Content, 120))
	}
	cmd.Printf("Total: %d chunks\n", len(chunks))
	return nil
}
