package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newRunCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [file]",
		Short: "Run a snippet",
		Long: `Execute JavaScript, TypeScript or Python code.

Code can be provided via:
  - File argument: codepit run script.py
  - Inline flag: codepit run --lang js -c 'console.log(1 + 1)'
  - Stdin: echo 'print(1 + 1)' | codepit run --lang python

The language is taken from --lang or guessed from the file extension.`,
		Args: cobra.MaximumNArgs(1),
		RunE: c.runRun,
	}
	addRunFlags(cmd)
	return cmd
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("code", "c", "", "Code to execute")
	cmd.Flags().StringP("lang", "l", "", "Language: javascript, typescript, python (default: from file extension)")
	cmd.Flags().Duration("timeout", 0, "Execution timeout (default: per-language timeout)")
}

func (c *cli) runRun(cmd *cobra.Command, args []string) error {
	code, _ := cmd.Flags().GetString("code")
	lang, _ := cmd.Flags().GetString("lang")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	var source, filename string

	switch {
	case code != "":
		source = code
	case len(args) > 0:
		filename = args[0]
		data, err := os.ReadFile(filename)
		if err != nil {
			return err
		}
		source = string(data)
	default:
		in := cmd.InOrStdin()
		if f, ok := in.(*os.File); ok {
			// No piped input, show help
			if stat, err := f.Stat(); err == nil && stat.Mode()&os.ModeCharDevice != 0 {
				return cmd.Help()
			}
		}
		data, err := io.ReadAll(in)
		if err != nil {
			return err
		}
		source = string(data)
		if strings.TrimSpace(source) == "" {
			return cmd.Help()
		}
	}

	language, err := detectLanguage(lang, filename)
	if err != nil {
		return err
	}

	cfg := c.cfg
	if timeout > 0 {
		cfg.Exec.Timeout = timeout
		cfg.JavaScript.Timeout = timeout
		cfg.Python.Timeout = timeout
	}

	a := newApp(cfg, c.logger).withExecutors()
	defer a.Close()

	result := a.dispatcher.RunCode(cmd.Context(), source, language)

	out := cmd.OutOrStdout()
	fmt.Fprint(out, result.Output)
	if result.Output != "" && !strings.HasSuffix(result.Output, "\n") {
		fmt.Fprintln(out)
	}
	if result.Failed() {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", result.Error)
		return errRunFailed
	}
	return nil
}
