package cli

import (
	"context"
	"fmt"

	"github.com/skipai/podrag/internal/client"
	"github.com/skipai/podrag/internal/models"
	"github.com/skipai/podrag/internal/service"
	"github.com/spf13/cobra"
)

var (
	askTopK   int
	askServer string
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question about the indexed transcripts",
	Long: `Ask a question about the indexed podcast transcripts.

Embeds the question, retrieves the nearest transcript chunks, and
generates an answer with the configured LLM. The episodes the answer
drew from are listed as sources.

With --server the question is sent to a running podrag server instead
of answering locally.

Examples:
  podrag ask "What do they say about career ladders?"
  podrag ask "Who talked about hiring?" --top-k 4
  podrag ask "What is the skip?" --server http://localhost:8080`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of chunks to retrieve (default from config)")
	askCmd.Flags().StringVar(&askServer, "server", "", "ask a running podrag server instead of answering locally")
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var text string
	var sources []models.Source

	if askServer != "" {
		resp, err := client.New(askServer).Query(ctx, question)
		if err != nil {
			return fmt.Errorf("ask server: %w", err)
		}
		text, sources = resp.Answer, resp.Sources
	} else {
		emb, err := getEmbedder()
		if err != nil {
			return err
		}
		mdl, err := getModel(ctx)
		if err != nil {
			return err
		}

		topK := cfg.TopK
		if askTopK > 0 {
			topK = askTopK
		}
		svc := service.NewAnswerService(st, emb, mdl, topK, cfg.AnswerTimeout, nil)

		answer, err := svc.Ask(ctx, question)
		if err != nil {
			return fmt.Errorf("ask: %w", err)
		}
		text, sources = answer.Text, answer.Sources
	}

	fmt.Println(text)
	if len(sources) > 0 {
		fmt.Println("\nSources:")
		for _, src := range sources {
			if src.URL != "" {
				fmt.Printf("  - %s (%s)\n", src.Title, src.URL)
			} else {
				fmt.Printf("  - %s\n", src.Title)
			}
		}
	}
	return nil
}
