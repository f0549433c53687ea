package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	clipSourceApp string
	recentLimit   int
	searchLimit   int
)

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Capture and search clipboard items and notes",
}

var contextClipCmd = &cobra.Command{
	Use:   "clip [text]",
	Short: "Record a clipboard item (reads stdin without an argument)",
	RunE:  runContextClip,
}

var contextNoteCmd = &cobra.Command{
	Use:   "note <title> <body>",
	Short: "Save a note",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()
		return a.context.AddNote(cmd.Context(), args[0], strings.Join(args[1:], " "))
	},
}

var contextRecentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Show the most recent clipboard items",
	RunE:  runContextRecent,
}

var contextSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search clipboard items, notes and past conversations",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runContextSearch,
}

func init() {
	contextClipCmd.Flags().StringVar(&clipSourceApp, "app", "", "Application the text was copied from")
	contextRecentCmd.Flags().IntVarP(&recentLimit, "limit", "n", 5, "Maximum number of results")
	contextSearchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "Maximum number of results")

	contextCmd.AddCommand(contextClipCmd, contextNoteCmd, contextRecentCmd, contextSearchCmd)
}

func runContextClip(cmd *cobra.Command, args []string) error {
	content := strings.Join(args, " ")
	if content == "" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		content = string(data)
	}

	a, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	_, err = a.context.Add(cmd.Context(), content, clipSourceApp)
	return err
}

func runContextRecent(cmd *cobra.Command, args []string) error {
	a, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	entries, err := a.context.Recent(cmd.Context(), recentLimit)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "COPIED\tAPP\tCONTENT")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.CopiedAt.Local().Format("2006-01-02 15:04"), e.SourceApp, oneLine(e.Content, 80))
	}
	return w.Flush()
}

func runContextSearch(cmd *cobra.Command, args []string) error {
	a, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	hits, err := a.context.Search(cmd.Context(), strings.Join(args, " "), searchLimit)
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No matches.")
		return nil
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tSOURCE\tTITLE\tSNIPPET")
	for _, h := range hits {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", h.Timestamp.Local().Format("2006-01-02 15:04"), h.Source, h.Title, oneLine(h.Snippet, 80))
	}
	return w.Flush()
}

func oneLine(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > max {
		return string(r[:max-3]) + "..."
	}
	return s
}
