package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"taskforge/internal/domain"
	"taskforge/internal/provider"
	"taskforge/internal/rag"
)

// defaultEmbeddingDimension matches gemini's text-embedding-004 default
// output size (config.DefaultConfig()'s Embedder slot).
const defaultEmbeddingDimension = 768

var (
	ingestProjectID string
	ingestSourceID  string
	ingestFile      string
	ingestStrategy  string
	ingestChunkSize int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Chunk, embed, and store a text file as Artifacts under a project",
	RunE: func(cmd *cobra.Command, args []string) error {
		if ingestFile == "" || ingestProjectID == "" {
			return fmt.Errorf("--file and --project are required")
		}
		content, err := os.ReadFile(ingestFile)
		if err != nil {
			return fmt.Errorf("reading %s: %w", ingestFile, err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		factory, err := provider.New(cfg)
		if err != nil {
			return fmt.Errorf("building provider factory: %w", err)
		}
		embedder, err := factory.CreateEmbedderAdapter(ctx, defaultEmbeddingDimension)
		if err != nil {
			return fmt.Errorf("building embedder: %w", err)
		}

		sourceID := ingestSourceID
		if sourceID == "" {
			sourceID = ingestFile
		}

		svc := rag.NewService(st, embedder, rag.ChunkOptions{
			Strategy: rag.ChunkStrategy(ingestStrategy),
			Size:     ingestChunkSize,
		})
		artifacts, err := svc.Ingest(ctx, ingestProjectID, sourceID, domain.SourceTypeFile, string(content), nil)
		if err != nil {
			return fmt.Errorf("ingesting %s: %w", ingestFile, err)
		}

		fmt.Printf("ingested %s as %d artifacts under project %s\n", ingestFile, len(artifacts), ingestProjectID)
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestProjectID, "project", "", "Project id to ingest under (required)")
	ingestCmd.Flags().StringVar(&ingestSourceID, "source-id", "", "Source id (default: the file path)")
	ingestCmd.Flags().StringVar(&ingestFile, "file", "", "Path to the text file to ingest (required)")
	ingestCmd.Flags().StringVar(&ingestStrategy, "strategy", string(rag.ChunkByParagraph), "Chunk strategy: Paragraph, Sentence, FixedSize, WholeFile")
	ingestCmd.Flags().IntVar(&ingestChunkSize, "chunk-size", 500, "Chunk size in runes, for the FixedSize strategy")
}
