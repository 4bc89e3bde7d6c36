package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print client and server versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ollamakit %s\n", Version)
			c := o.client()
			v, err := c.Version(cmd.Context())
			if err != nil {
				fmt.Fprintf(out, "ollama server at %s: unreachable (%v)\n", c.Host(), err)
				return nil
			}
			fmt.Fprintf(out, "ollama server at %s: %s\n", c.Host(), v)
			return nil
		},
	}
}
