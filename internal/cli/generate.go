package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ollamakit/pkg/ollama"
)

func newGenerateCmd(o *rootOptions) *cobra.Command {
	var (
		system   string
		format   string
		images   []string
		verbose  bool
		noStream bool
		opts     optionFlags
	)
	cmd := &cobra.Command{
		Use:     "generate MODEL PROMPT...",
		Aliases: []string{"gen"},
		Short:   "Generate a completion for a single prompt",
		Example: "  ollamakit generate llama3:8b why is the sky blue\n  ollamakit generate llava:7b describe this --image cat.png",
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := &ollama.GenerateRequest{
				Model:   args[0],
				Prompt:  strings.Join(args[1:], " "),
				System:  system,
				Options: opts.options(cmd),
			}
			if format != "" {
				req.Format = formatValue(format)
			}
			for _, p := range images {
				img, err := ollama.EncodeImage(p)
				if err != nil {
					return err
				}
				req.Images = append(req.Images, img)
			}
			out := cmd.OutOrStdout()
			c := o.client()
			if noStream {
				req.Stream = ollama.Ptr(false)
				resp, err := c.Complete(cmd.Context(), req)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, resp.Response)
				if verbose {
					fmt.Fprintln(cmd.ErrOrStderr(), statsLine(resp.Metrics))
				}
				return nil
			}
			var final ollama.GenerateResponse
			err := c.Generate(cmd.Context(), req, func(r ollama.GenerateResponse) error {
				fmt.Fprint(out, r.Response)
				if r.Done {
					final = r
				}
				return nil
			})
			fmt.Fprintln(out)
			if err != nil {
				return err
			}
			if verbose {
				fmt.Fprintln(cmd.ErrOrStderr(), statsLine(final.Metrics))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&system, "system", "s", "", "System prompt")
	cmd.Flags().StringVar(&format, "format", "", `Response format: "json" or a JSON schema`)
	cmd.Flags().StringArrayVar(&images, "image", nil, "Image file to attach (repeatable)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print token statistics to stderr")
	cmd.Flags().BoolVar(&noStream, "no-stream", false, "Wait for the whole reply")
	opts.register(cmd)
	return cmd
}

// formatValue accepts "json" or a literal JSON schema.
func formatValue(s string) json.RawMessage {
	s = strings.TrimSpace(s)
	if json.Valid([]byte(s)) && (strings.HasPrefix(s, "{") || strings.HasPrefix(s, `"`)) {
		return json.RawMessage(s)
	}
	b, _ := json.Marshal(s)
	return b
}
