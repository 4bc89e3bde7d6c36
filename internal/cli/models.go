package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"ollamakit/pkg/ollama"
)

func newModelsCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Manage models on the Ollama server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return fmt.Errorf("models requires a subcommand: list|show|pull|push|copy|delete|ps")
		},
	}

	list := &cobra.Command{Use: "list", Aliases: []string{"ls"}, Short: "List installed models", Args: cobra.NoArgs, RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := o.client().List(cmd.Context())
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(resp.Models))
		for _, m := range resp.Models {
			rows = append(rows, []string{m.Name, shortDigest(m.Digest), humanSize(m.Size), m.Details.ParameterSize, m.ModifiedAt.Format(time.DateTime)})
		}
		printTable(cmd.OutOrStdout(), []string{"NAME", "ID", "SIZE", "PARAMS", "MODIFIED"}, rows)
		return nil
	}}

	var modelfile bool
	show := &cobra.Command{Use: "show MODEL", Short: "Show model details", Args: cobra.ExactArgs(1), RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := o.client().Show(cmd.Context(), &ollama.ShowRequest{Model: args[0]})
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if modelfile {
			fmt.Fprintln(out, resp.Modelfile)
			return nil
		}
		printShow(out, args[0], resp)
		return nil
	}}
	show.Flags().BoolVar(&modelfile, "modelfile", false, "Print the Modelfile only")

	var insecure bool
	pull := &cobra.Command{Use: "pull MODEL", Short: "Pull a model from the registry", Args: cobra.ExactArgs(1), RunE: func(cmd *cobra.Command, args []string) error {
		return o.client().Pull(cmd.Context(), &ollama.PullRequest{Model: args[0], Insecure: insecure}, progressPrinter(cmd.ErrOrStderr()))
	}}
	pull.Flags().BoolVar(&insecure, "insecure", false, "Allow insecure registry connections")
	push := &cobra.Command{Use: "push MODEL", Short: "Push a model to the registry", Args: cobra.ExactArgs(1), RunE: func(cmd *cobra.Command, args []string) error {
		return o.client().Push(cmd.Context(), &ollama.PushRequest{Model: args[0], Insecure: insecure}, progressPrinter(cmd.ErrOrStderr()))
	}}
	push.Flags().BoolVar(&insecure, "insecure", false, "Allow insecure registry connections")

	cp := &cobra.Command{Use: "copy SOURCE DESTINATION", Aliases: []string{"cp"}, Short: "Copy a model", Args: cobra.ExactArgs(2), RunE: func(cmd *cobra.Command, args []string) error {
		if err := o.client().Copy(cmd.Context(), &ollama.CopyRequest{Source: args[0], Destination: args[1]}); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "copied %s to %s\n", args[0], args[1])
		return nil
	}}
	rm := &cobra.Command{Use: "delete MODEL...", Aliases: []string{"rm"}, Short: "Delete models", Args: cobra.MinimumNArgs(1), RunE: func(cmd *cobra.Command, args []string) error {
		c := o.client()
		for _, name := range args {
			if err := c.Delete(cmd.Context(), &ollama.DeleteRequest{Model: name}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", name)
		}
		return nil
	}}
	ps := &cobra.Command{Use: "ps", Short: "List models loaded in memory", Args: cobra.NoArgs, RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := o.client().ListRunning(cmd.Context())
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(resp.Models))
		for _, m := range resp.Models {
			rows = append(rows, []string{m.Name, shortDigest(m.Digest), humanSize(m.Size), processor(m), until(m.ExpiresAt)})
		}
		printTable(cmd.OutOrStdout(), []string{"NAME", "ID", "SIZE", "PROCESSOR", "UNTIL"}, rows)
		return nil
	}}

	cmd.AddCommand(list, show, pull, push, cp, rm, ps)
	return cmd
}

func printTable(w io.Writer, headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.HiddenBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.PaddingRight(2)
			}
			return lipgloss.NewStyle().PaddingRight(2)
		})
	fmt.Fprintln(w, t.Render())
}

func printShow(w io.Writer, name string, r *ollama.ShowResponse) {
	fmt.Fprintln(w, headerStyle.Render(name))
	kv := [][]string{
		{"family", r.Details.Family},
		{"parameters", r.Details.ParameterSize},
		{"quantization", r.Details.QuantizationLevel},
		{"format", r.Details.Format},
		{"capabilities", strings.Join(r.Capabilities, ", ")},
	}
	for _, row := range kv {
		if row[1] != "" {
			fmt.Fprintf(w, "  %-14s %s\n", row[0], row[1])
		}
	}
	if r.Parameters != "" {
		fmt.Fprintln(w, headerStyle.Render("parameters"))
		for _, line := range strings.Split(strings.TrimSpace(r.Parameters), "\n") {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}
	if r.System != "" {
		fmt.Fprintln(w, headerStyle.Render("system"))
		fmt.Fprintf(w, "  %s\n", r.System)
	}
	if r.License != "" {
		first, _, _ := strings.Cut(strings.TrimSpace(r.License), "\n")
		fmt.Fprintln(w, headerStyle.Render("license"))
		fmt.Fprintf(w, "  %s\n", first)
	}
}

// progressPrinter writes one line per status change and a percentage while
// a layer downloads.
func progressPrinter(w io.Writer) ollama.ProgressFunc {
	last := ""
	return func(p ollama.ProgressResponse) error {
		if p.Total > 0 {
			fmt.Fprintf(w, "\r%s %s %3d%%", p.Status, shortDigest(p.Digest), p.Completed*100/p.Total)
			if p.Completed >= p.Total {
				fmt.Fprintln(w)
			}
			last = ""
			return nil
		}
		if p.Status != last {
			fmt.Fprintln(w, p.Status)
			last = p.Status
		}
		return nil
	}
}

func shortDigest(d string) string {
	d = strings.TrimPrefix(d, "sha256:")
	if len(d) > 12 {
		return d[:12]
	}
	return d
}

func processor(m ollama.ProcessModelResponse) string {
	switch {
	case m.Size == 0:
		return "-"
	case m.SizeVRAM == 0:
		return "100% CPU"
	case m.SizeVRAM >= m.Size:
		return "100% GPU"
	default:
		gpu := m.SizeVRAM * 100 / m.Size
		return fmt.Sprintf("%d%%/%d%% CPU/GPU", 100-gpu, gpu)
	}
}

func until(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := time.Until(t).Round(time.Second)
	if d <= 0 {
		return "stopping"
	}
	return d.String()
}
