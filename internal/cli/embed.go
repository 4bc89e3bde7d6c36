package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"ollamakit/pkg/ollama"
)

func newEmbedCmd(o *rootOptions) *cobra.Command {
	var (
		asJSON   bool
		truncate bool
	)
	cmd := &cobra.Command{
		Use:     "embed MODEL TEXT...",
		Short:   "Embed one or more texts",
		Example: "  ollamakit embed nomic-embed-text \"first text\" \"second text\"",
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := &ollama.EmbedRequest{Model: args[0], Input: args[1:]}
			if cmd.Flags().Changed("truncate") {
				req.Truncate = ollama.Ptr(truncate)
			}
			resp, err := o.client().Embed(cmd.Context(), req)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}
			for i, e := range resp.Embeddings {
				fmt.Fprintf(out, "%d: %d dims %v\n", i, len(e), preview(e, 4))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full response as JSON")
	cmd.Flags().BoolVar(&truncate, "truncate", true, "Truncate inputs that exceed the context length")
	return cmd
}

func preview(v []float32, n int) []float32 {
	if len(v) > n {
		return v[:n]
	}
	return v
}
