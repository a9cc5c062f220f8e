package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/caffeineduck/codepit/snippet"
	"github.com/spf13/cobra"
)

var errNoArchive = errors.New("--s3 needs CODEPIT_S3_ENDPOINT and CODEPIT_S3_BUCKET (or the s3 section of the config file)")

func newExportCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all snippets as a JSON bundle",
		Long: `Write every stored snippet to a JSON bundle.

The bundle goes to --out (default codepit-snippets-<date>.json, '-' for
stdout) or, with --s3, to the configured bucket.`,
		Args: cobra.NoArgs,
		RunE: c.runExport,
	}
	cmd.Flags().StringP("out", "o", "", "Output file ('-' for stdout)")
	cmd.Flags().Bool("s3", false, "Upload the bundle to S3 instead of writing a file")
	return cmd
}

func newImportCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import snippets from a JSON bundle",
		Long: `Read a bundle produced by 'codepit export' and store its snippets.

Imported snippets get new IDs and timestamps. Without --replace, snippets
whose title already exists are skipped; with --replace, all existing
snippets are deleted first. Use '-' to read from stdin, or --s3 to treat
the argument as an object key in the configured bucket.`,
		Args: cobra.ExactArgs(1),
		RunE: c.runImport,
	}
	cmd.Flags().Bool("replace", false, "Delete existing snippets before importing")
	cmd.Flags().Bool("s3", false, "Read the bundle from S3")
	return cmd
}

func (c *cli) runExport(cmd *cobra.Command, args []string) error {
	out, _ := cmd.Flags().GetString("out")
	toS3, _ := cmd.Flags().GetBool("s3")

	a, err := newApp(c.cfg, c.logger).withStore(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	data, err := a.snippets.Export(cmd.Context())
	if err != nil {
		return err
	}
	name := snippet.ExportFilename(time.Now())

	if toS3 {
		if _, err := a.withArchive(); err != nil {
			return err
		}
		if a.archive == nil {
			return errNoArchive
		}
		key, err := a.archive.Upload(cmd.Context(), name, data)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Uploaded s3://%s/%s\n", a.archive.Bucket(), key)
		return nil
	}

	switch out {
	case "-":
		_, err := cmd.OutOrStdout().Write(append(data, '\n'))
		return err
	case "":
		out = name
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Exported to %s\n", out)
	return nil
}

func (c *cli) runImport(cmd *cobra.Command, args []string) error {
	replace, _ := cmd.Flags().GetBool("replace")
	fromS3, _ := cmd.Flags().GetBool("s3")

	a, err := newApp(c.cfg, c.logger).withStore(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	var r io.Reader
	switch {
	case fromS3:
		if _, err := a.withArchive(); err != nil {
			return err
		}
		if a.archive == nil {
			return errNoArchive
		}
		data, err := a.archive.Download(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		r = bytes.NewReader(data)
	case args[0] == "-":
		r = cmd.InOrStdin()
	default:
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	report, err := a.snippets.Import(cmd.Context(), r, replace)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d snippets, skipped %d\n", report.Imported, len(report.Skipped))
	for _, title := range report.Skipped {
		fmt.Fprintf(cmd.ErrOrStderr(), "  skipped: %q\n", title)
	}
	return nil
}
