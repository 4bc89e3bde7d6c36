package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"ollamakit/internal/common/fsutil"
	"ollamakit/pkg/ollama"
)

func newCreateCmd(o *rootOptions) *cobra.Command {
	var (
		file     string
		quantize string
	)
	cmd := &cobra.Command{
		Use:     "create MODEL -f Modelfile",
		Short:   "Create a model from a Modelfile",
		Example: "  ollamakit create coder -f ./Modelfile",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mf, err := ollama.LoadModelfile(file)
			if err != nil {
				return err
			}
			c := o.client()
			req, err := createRequest(cmd.Context(), c, mf, args[0], filepath.Dir(file))
			if err != nil {
				return err
			}
			req.Quantize = quantize
			return c.Create(cmd.Context(), req, progressPrinter(cmd.ErrOrStderr()))
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "Modelfile", "Path to the Modelfile")
	cmd.Flags().StringVarP(&quantize, "quantize", "q", "", "Quantize the model to this level (e.g. q4_K_M)")
	return cmd
}

// createRequest turns mf into a create request. A FROM or ADAPTER that names
// a local file is uploaded as a blob and referenced by digest.
func createRequest(ctx context.Context, c *ollama.Client, mf *ollama.Modelfile, name, dir string) (*ollama.CreateRequest, error) {
	req := mf.CreateRequest(name)
	if p := localFile(dir, mf.From); p != "" {
		digest, err := c.CreateBlobFromFile(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("upload %s: %w", mf.From, err)
		}
		req.From = ""
		req.Files = map[string]string{filepath.Base(p): digest}
	}
	if len(mf.Adapters) > 0 {
		req.Adapters = map[string]string{}
		for _, a := range mf.Adapters {
			p := localFile(dir, a)
			if p == "" {
				return nil, fmt.Errorf("adapter %s: file not found", a)
			}
			digest, err := c.CreateBlobFromFile(ctx, p)
			if err != nil {
				return nil, fmt.Errorf("upload %s: %w", a, err)
			}
			req.Adapters[filepath.Base(p)] = digest
		}
	}
	return req, nil
}

// localFile resolves ref against dir and returns it when it is a regular file.
func localFile(dir, ref string) string {
	if ref == "" {
		return ""
	}
	p, err := fsutil.ExpandHome(ref)
	if err != nil {
		return ""
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(dir, p)
	}
	if !fsutil.PathExists(p) {
		return ""
	}
	return p
}
