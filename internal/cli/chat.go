package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"ollamakit/internal/common/fsutil"
	"ollamakit/internal/config"
	"ollamakit/internal/session"
	"ollamakit/internal/settings"
	"ollamakit/pkg/ollama"
)

func newChatCmd(o *rootOptions) *cobra.Command {
	var (
		sessionPath string
		system      string
		noMarkdown  bool
		opts        optionFlags
	)
	cmd := &cobra.Command{
		Use:   "chat [MODEL]",
		Short: "Start an interactive chat",
		Long: "Start an interactive chat. With --session the conversation is resumed from the file\n" +
			"when it exists and saved back after every reply.",
		Example: "  ollamakit chat llama3:8b\n  ollamakit chat --session rust.json",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(sessionPath, o.client().Host(), o.host != "", o.clientOptions())
			if err != nil {
				return err
			}
			if len(args) == 1 {
				sess.Model = args[0]
			}
			if sess.Model == "" {
				sess.Model = settings.FallbackModel
			}
			sess.SetDefaultOptions(opts.options(cmd))

			line := liner.NewLiner()
			line.SetCtrlCAborts(true)
			histFile := historyFile()
			if f, err := os.Open(histFile); err == nil {
				line.ReadHistory(f)
				f.Close()
			}
			defer func() {
				if f, err := os.OpenFile(histFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600); err == nil {
					line.WriteHistory(f)
					f.Close()
				}
				line.Close()
			}()

			out := cmd.OutOrStdout()
			r := &repl{sess: sess, in: line, out: out, savePath: sessionPath, system: system, log: o.log}
			if !noMarkdown && isTTY(out) {
				r.md = newMarkdown(out)
			}
			fmt.Fprintln(out, infoStyle.Render(fmt.Sprintf("Chatting with %s at %s. Type /help for commands.", sess.Model, sess.BaseURL)))
			return r.run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&sessionPath, "session", "", "Session file to resume and save")
	cmd.Flags().StringVarP(&system, "system", "s", "", "System prompt sent with every message")
	cmd.Flags().BoolVar(&noMarkdown, "no-markdown", false, "Print replies as they stream instead of rendering markdown")
	opts.register(cmd)
	return cmd
}

// openSession resumes path when it exists. An explicit --host replaces the
// server saved in the file.
func openSession(path, baseURL string, hostSet bool, opts []ollama.Option) (*session.Session, error) {
	if path != "" && fsutil.PathExists(path) {
		sess, err := session.Load(path, opts...)
		if err != nil {
			return nil, err
		}
		if hostSet {
			sess.BaseURL = baseURL
		}
		return sess, nil
	}
	return session.New(baseURL, "", opts...), nil
}

func historyFile() string {
	dir, err := fsutil.ExpandHome(config.DefaultDataDir)
	if err != nil || os.MkdirAll(dir, 0o755) != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "chat_history")
}

// lineReader is the part of *liner.State the loop uses.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

type repl struct {
	sess     *session.Session
	in       lineReader
	out      io.Writer
	md       *markdown
	savePath string
	system   string
	log      zerolog.Logger
}

const replHelp = `Commands:
  /help             show this help
  /clear            forget the conversation
  /model [NAME]     show or switch the model
  /system [TEXT]    show or set the system prompt
  /history          print the conversation
  /save [PATH]      save the session (defaults to --session)
  /quit             leave (Ctrl+D works too)`

func (r *repl) run(ctx context.Context) error {
	for {
		input, err := r.in.Prompt(promptStyle.Render(">>> "))
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			fmt.Fprintln(r.out)
			return nil
		}
		if err != nil {
			return err
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		r.in.AppendHistory(input)
		if strings.HasPrefix(input, "/") {
			quit, err := r.command(input)
			if err != nil {
				fmt.Fprintln(r.out, errorStyle.Render("error:"), err)
			}
			if quit {
				return nil
			}
			continue
		}
		if err := r.send(ctx, input); err != nil {
			fmt.Fprintln(r.out, errorStyle.Render("error:"), err)
		}
	}
}

// send streams one reply. Ctrl+C cancels the reply, not the chat.
func (r *repl) send(ctx context.Context, input string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	var (
		buf   strings.Builder
		final ollama.ChatResponse
	)
	_, err := r.sess.StreamPrompt(ctx, input, &session.PromptOptions{System: r.system}, func(c ollama.ChatResponse) error {
		if r.md == nil {
			fmt.Fprint(r.out, c.Message.Content)
		} else {
			buf.WriteString(c.Message.Content)
		}
		if c.Done {
			final = c
		}
		return nil
	})
	if r.md == nil {
		fmt.Fprintln(r.out)
	} else if buf.Len() > 0 {
		fmt.Fprint(r.out, r.md.render(buf.String()))
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(r.out, statsLine(final.Metrics))
	if r.savePath != "" {
		if err := r.sess.Export(r.savePath); err != nil {
			return err
		}
		r.log.Debug().Str("path", r.savePath).Msg("session saved")
	}
	return nil
}

func (r *repl) command(line string) (quit bool, err error) {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case "/quit", "/exit", "/bye", "/q":
		return true, nil
	case "/help", "/h", "/?":
		fmt.Fprintln(r.out, replHelp)
	case "/clear":
		r.sess.ClearHistory()
		fmt.Fprintln(r.out, infoStyle.Render("conversation cleared"))
	case "/model":
		if arg != "" {
			r.sess.Model = arg
		}
		fmt.Fprintln(r.out, infoStyle.Render("model: "+r.sess.Model))
	case "/system":
		if arg != "" {
			r.system = arg
		}
		fmt.Fprintln(r.out, infoStyle.Render("system: "+r.system))
	case "/history":
		for _, m := range r.sess.History {
			fmt.Fprintf(r.out, "%s %s\n", headerStyle.Render(m.Role+":"), m.Content)
		}
	case "/save":
		path := arg
		if path == "" {
			path = r.savePath
		}
		if path == "" {
			return false, fmt.Errorf("usage: /save PATH")
		}
		if err := r.sess.Export(path); err != nil {
			return false, err
		}
		r.savePath = path
		fmt.Fprintln(r.out, infoStyle.Render("saved "+path))
	default:
		return false, fmt.Errorf("unknown command %s (try /help)", cmd)
	}
	return false, nil
}
