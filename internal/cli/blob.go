package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBlobCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blob",
		Short: "Manage blobs on the Ollama server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return fmt.Errorf("blob requires a subcommand: push")
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "push FILE",
		Short: "Upload a file as a blob and print its digest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			digest, err := o.client().CreateBlobFromFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), digest)
			return nil
		},
	})
	return cmd
}
