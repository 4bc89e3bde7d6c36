package cli

import (
	"github.com/spf13/cobra"

	"ollamakit/pkg/ollama"
)

// optionFlags binds the commonly tuned model options. Only flags the user
// set end up in the request.
type optionFlags struct {
	temperature float64
	topP        float64
	topK        int
	numCtx      int
	numPredict  int
	seed        int
	stop        []string
}

func (f *optionFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.Float64Var(&f.temperature, "temperature", 0, "Sampling temperature")
	fl.Float64Var(&f.topP, "top-p", 0, "Nucleus sampling threshold")
	fl.IntVar(&f.topK, "top-k", 0, "Top-k sampling")
	fl.IntVar(&f.numCtx, "num-ctx", 0, "Context window in tokens")
	fl.IntVar(&f.numPredict, "num-predict", 0, "Maximum tokens to generate")
	fl.IntVar(&f.seed, "seed", 0, "Random seed")
	fl.StringSliceVar(&f.stop, "stop", nil, "Stop sequence (repeatable)")
}

// options returns nil when no option flag was given.
func (f *optionFlags) options(cmd *cobra.Command) *ollama.Options {
	fl := cmd.Flags()
	o := &ollama.Options{}
	if fl.Changed("temperature") {
		o.Temperature = ollama.Ptr(f.temperature)
	}
	if fl.Changed("top-p") {
		o.TopP = ollama.Ptr(f.topP)
	}
	if fl.Changed("top-k") {
		o.TopK = ollama.Ptr(f.topK)
	}
	if fl.Changed("num-ctx") {
		o.NumCtx = ollama.Ptr(f.numCtx)
	}
	if fl.Changed("num-predict") {
		o.NumPredict = ollama.Ptr(f.numPredict)
	}
	if fl.Changed("seed") {
		o.Seed = ollama.Ptr(f.seed)
	}
	if fl.Changed("stop") {
		o.Stop = f.stop
	}
	if o.IsZero() {
		return nil
	}
	return o
}
