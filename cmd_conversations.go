package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var conversationsCmd = &cobra.Command{
	Use:     "conversations",
	Aliases: []string{"conv"},
	Short:   "List and manage stored conversations",
	RunE:    runConversationsList,
}

var conversationsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print the turns of a conversation",
	Args:  cobra.ExactArgs(1),
	RunE:  runConversationsShow,
}

var conversationsArchiveCmd = &cobra.Command{
	Use:   "archive <id>",
	Short: "Mark a conversation as archived",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()
		return a.convs.Archive(cmd.Context(), args[0])
	},
}

var conversationsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()
		if err := a.convs.Delete(args[0]); err != nil {
			return err
		}
		if current, _ := a.convs.LoadCurrentID(); current == args[0] {
			return a.convs.SaveCurrentID("")
		}
		return nil
	},
}

func init() {
	conversationsCmd.AddCommand(conversationsShowCmd, conversationsArchiveCmd, conversationsDeleteCmd)
}

func runConversationsList(cmd *cobra.Command, args []string) error {
	a, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	list, err := a.convs.List()
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No conversations yet.")
		return nil
	}

	current, _ := a.convs.LoadCurrentID()
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tMESSAGES\tUPDATED")
	for _, c := range list {
		id := c.ID
		if id == current {
			id += " *"
		}
		title := c.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", id, title, c.Status, c.MessageCount, c.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func runConversationsShow(cmd *cobra.Command, args []string) error {
	a, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	conv, err := a.convs.Load(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if conv.Title != "" {
		fmt.Fprintf(out, "# %s\n\n", conv.Title)
	}
	for _, m := range conv.Messages {
		switch {
		case len(m.ToolCalls) > 0:
			for _, tc := range m.ToolCalls {
				fmt.Fprintf(out, "%s: -> %s %s\n", m.Role.Label(), tc.ToolName, tc.ArgumentsJSON)
			}
		case len(m.ToolResults) > 0:
			for _, r := range m.ToolResults {
				fmt.Fprintf(out, "%s: <- %s\n", m.Role.Label(), r.ResultJSON)
			}
		default:
			fmt.Fprintf(out, "%s: %s\n", m.Role.Label(), m.Content)
		}
	}
	return nil
}
