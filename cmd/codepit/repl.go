package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/caffeineduck/codepit/executor"
	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
)

func newReplCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Interactive prompt for running snippets",
		Long: `Start an interactive REPL (Read-Eval-Print Loop).

Every entry runs in a fresh interpreter; nothing carries over between
entries, the same as running snippets from the editor.

Features:
  - Command history (up/down arrows)
  - Line editing (left/right, backspace, delete)
  - History search (Ctrl+R)
  - Multi-line input (end line with \)
  - Switch language with :lang <name>

Type 'exit' or 'quit' to end the session, or press Ctrl+D.`,
		RunE: c.runRepl,
	}
	cmd.Flags().StringP("lang", "l", "javascript", "Language: javascript, typescript, python")
	cmd.Flags().String("history", "", "History file path (default: ~/.codepit_history)")
	return cmd
}

func (c *cli) runRepl(cmd *cobra.Command, args []string) error {
	lang, _ := cmd.Flags().GetString("lang")
	historyFile, _ := cmd.Flags().GetString("history")

	if historyFile == "" {
		home, _ := os.UserHomeDir()
		historyFile = filepath.Join(home, ".codepit_history")
	}

	a := newApp(c.cfg, c.logger).withExecutors()
	defer a.Close()

	language := executor.Parse(lang)
	if !a.dispatcher.IsLanguageSupported(language) {
		return fmt.Errorf("%s execution is not supported", language)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            prompt(language, false),
		HistoryFile:       historyFile,
		HistoryLimit:      1000,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
		Stdin:             io.NopCloser(cmd.InOrStdin()),
		Stdout:            cmd.OutOrStdout(),
		Stderr:            cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("initializing readline: %w", err)
	}
	defer rl.Close()

	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	fmt.Fprintf(errOut, "codepit %s REPL (type 'exit' to quit, Ctrl+D to exit)\n", language)

	var multiLine strings.Builder
	inMultiLine := false

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				if inMultiLine {
					multiLine.Reset()
					inMultiLine = false
					rl.SetPrompt(prompt(language, false))
				}
				continue
			}
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(out)
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		}

		if strings.HasSuffix(line, "\\") {
			multiLine.WriteString(strings.TrimSuffix(line, "\\"))
			multiLine.WriteString("\n")
			inMultiLine = true
			rl.SetPrompt(prompt(language, true))
			continue
		}

		if inMultiLine {
			multiLine.WriteString(line)
			line = multiLine.String()
			multiLine.Reset()
			inMultiLine = false
			rl.SetPrompt(prompt(language, false))
		}

		line = strings.TrimSpace(line)
		switch {
		case line == "":
			continue
		case line == "exit" || line == "quit":
			return nil
		case strings.HasPrefix(line, ":lang"):
			next := executor.Parse(strings.TrimSpace(strings.TrimPrefix(line, ":lang")))
			if !a.dispatcher.IsLanguageSupported(next) {
				fmt.Fprintf(errOut, "Error: %s execution is not supported\n", next)
				continue
			}
			language = next
			rl.SetPrompt(prompt(language, false))
			continue
		}

		result := a.dispatcher.RunCode(cmd.Context(), line, language)
		if result.Output != "" {
			fmt.Fprint(out, result.Output)
			if !strings.HasSuffix(result.Output, "\n") {
				fmt.Fprintln(out)
			}
		}
		if result.Failed() {
			fmt.Fprintf(errOut, "Error: %s\n", result.Error)
		}
	}
}

func prompt(lang executor.Language, continuation bool) string {
	if continuation {
		return "... "
	}
	return string(lang) + "> "
}
