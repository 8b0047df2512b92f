package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/kiranshivaraju/agerating/internal/render"
	"github.com/kiranshivaraju/agerating/internal/session"
)

const shellHelp = `commands:
  select PATH    choose the file to analyze
  analyze        upload the selected file and wait for the result in the background
  open N|NAME    expand a category (collapses any other), again to collapse
  show           print the checklist
  help           this text
  quit           exit, cancelling a running analysis
`

func newShellCommand(a *app) *cobra.Command {
	var color bool
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Interactive session: select files, analyze, expand categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sh := &shell{app: a, out: cmd.OutOrStdout(), opts: render.Options{Color: color}}
			return sh.run(cmd.Context(), cmd.InOrStdin())
		},
	}
	cmd.Flags().BoolVar(&color, "color", false, "Draw severity swatches with ANSI colors")
	return cmd
}

// shell reads one command per line. Analyses run in the background so a new
// analyze can supersede one that is still polling.
type shell struct {
	*app
	opts render.Options
	sess *session.Session

	mu  sync.Mutex
	out io.Writer

	wg sync.WaitGroup
}

func (sh *shell) run(ctx context.Context, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer sh.wg.Wait()
	defer cancel()

	sh.sess = sh.newSession(session.WithNotifier(session.NotifierFunc(sh.notify)))
	sh.printf("Age Rating Analyzer. Type help for commands.\n")

	sc := bufio.NewScanner(in)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		verb, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)

		switch strings.ToLower(verb) {
		case "select", "file":
			sh.selectFile(arg)
		case "analyze":
			sh.analyze(ctx)
		case "open", "toggle":
			cat, err := sh.resolveCategory(arg)
			if err != nil {
				sh.printf("! %v\n", err)
				continue
			}
			sh.show(sh.sess.Toggle(cat))
		case "show":
			sh.show(sh.sess.State())
		case "help":
			sh.printf("%s", shellHelp)
		case "quit", "exit":
			return nil
		default:
			sh.printf("! unknown command %q, type help\n", verb)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	// Input ended without quit: let running analyses finish.
	sh.wg.Wait()
	return nil
}

func (sh *shell) selectFile(path string) {
	if path == "" {
		sh.printf("! usage: select PATH\n")
		return
	}
	if _, err := os.Stat(path); err != nil {
		sh.printf("! %v\n", err)
		return
	}
	sh.sess.Select(session.FileSource(path))
	sh.printf("selected %s\n", sh.sess.State().Selected)
}

func (sh *shell) analyze(ctx context.Context) {
	sh.wg.Add(1)
	go func() {
		defer sh.wg.Done()
		err := sh.sess.Submit(ctx)
		switch {
		case err == nil:
			sh.show(sh.sess.State())
		case errors.Is(err, session.ErrNoFileSelected):
			sh.printf("! select a file first\n")
		}
	}()
}

func (sh *shell) notify(n session.Notice) {
	if n.Kind == session.NoticeCanceled {
		return
	}
	sh.printf("! %s\n", render.NoticeText(n))
}

func (sh *shell) show(st session.State) {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if err := render.Text(sh.out, render.Build(st, sh.cfg.Categories), sh.opts); err != nil {
		fmt.Fprintf(sh.out, "! %v\n", err)
	}
}

func (sh *shell) printf(format string, args ...any) {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	fmt.Fprintf(sh.out, format, args...)
}
