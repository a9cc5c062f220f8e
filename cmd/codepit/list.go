package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/caffeineduck/codepit/executor"
	"github.com/caffeineduck/codepit/snippet"
	"github.com/spf13/cobra"
)

func newListCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [terms...]",
		Short: "Search stored snippets",
		Long: `List snippets whose tags, title, description or language contain every
search term (case-insensitive).`,
		RunE: c.runList,
	}
	cmd.Flags().StringP("lang", "l", "", "Only this language")
	cmd.Flags().String("sort", "newest", "Sort order: newest, oldest, title")
	return cmd
}

func newStatsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show per-language snippet statistics",
		Args:  cobra.NoArgs,
		RunE:  c.runStats,
	}
}

func newLanguagesCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List known languages and which can be executed",
		Args:  cobra.NoArgs,
		RunE:  c.runLanguages,
	}
}

func (c *cli) runList(cmd *cobra.Command, args []string) error {
	lang, _ := cmd.Flags().GetString("lang")
	sortOrder, _ := cmd.Flags().GetString("sort")

	a, err := newApp(c.cfg, c.logger).withStore(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	var filter executor.Language
	if lang != "" {
		filter = executor.Parse(lang)
	}
	list, err := a.snippets.List(cmd.Context(), snippet.Query{
		Text:     strings.Join(args, " "),
		Language: filter,
		Sort:     snippet.ParseSortOrder(sortOrder),
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(list) == 0 {
		fmt.Fprintln(out, "No snippets found")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tLANGUAGE\tTAGS\tUPDATED")
	for _, s := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			s.ID, s.Title, s.Language, strings.Join(s.Tags, ","),
			time.UnixMilli(s.UpdatedAt).Format(time.DateTime))
	}
	return tw.Flush()
}

func (c *cli) runStats(cmd *cobra.Command, args []string) error {
	a, err := newApp(c.cfg, c.logger).withStore(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	stats, err := a.snippets.Stats(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(stats) == 0 {
		fmt.Fprintln(out, "No snippets found")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LANGUAGE\tCOUNT\tPERCENT\tCHARS\tAVG")
	for _, s := range stats {
		fmt.Fprintf(tw, "%s\t%d\t%.1f%%\t%d\t%d\n", s.Language, s.Count, s.Percentage, s.TotalChars, s.AvgChars)
	}
	return tw.Flush()
}

func (c *cli) runLanguages(cmd *cobra.Command, args []string) error {
	a := newApp(c.cfg, c.logger).withExecutors()
	defer a.Close()

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LANGUAGE\tEXECUTABLE")
	for _, l := range executor.Languages() {
		mark := "no"
		if a.dispatcher.IsLanguageSupported(l) {
			mark = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\n", l, mark)
	}
	return tw.Flush()
}
