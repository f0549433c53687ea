package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"sol/model"
)

var (
	memoryCategoryFlag   string
	memoryConfidenceFlag float64
	memorySearchLimit    int
)

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Inspect and edit what Sol remembers about you",
	RunE:  runMemoryList,
}

var memoryAddCmd = &cobra.Command{
	Use:   "add <key> <value>",
	Short: "Remember a fact",
	Long: `Remember a fact. Saving a key that already exists in the category
replaces its value.

Categories: ` + categoryNames(),
	Args: cobra.MinimumNArgs(2),
	RunE: runMemoryAdd,
}

var memorySearchCmd = &cobra.Command{
	Use:   "search <keywords...>",
	Short: "Find remembered facts matching any keyword",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runMemorySearch,
}

var memoryForgetCmd = &cobra.Command{
	Use:   "forget <id>",
	Short: "Delete a remembered fact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()
		return a.db.Memories().Delete(cmd.Context(), args[0])
	},
}

func init() {
	memoryAddCmd.Flags().StringVar(&memoryCategoryFlag, "category", string(model.MemoryUserPreference), "Fact category")
	memoryAddCmd.Flags().Float64Var(&memoryConfidenceFlag, "confidence", 1.0, "Confidence between 0 and 1")
	memorySearchCmd.Flags().IntVarP(&memorySearchLimit, "limit", "n", 10, "Maximum number of results")

	memoryCmd.AddCommand(memoryAddCmd, memorySearchCmd, memoryForgetCmd)
}

func categoryNames() string {
	var names []string
	for _, c := range model.MemoryCategories() {
		names = append(names, string(c))
	}
	return strings.Join(names, ", ")
}

func runMemoryAdd(cmd *cobra.Command, args []string) error {
	category, ok := model.ParseMemoryCategory(memoryCategoryFlag)
	if !ok {
		return fmt.Errorf("unknown category %q (want one of %s)", memoryCategoryFlag, categoryNames())
	}
	if memoryConfidenceFlag < 0 || memoryConfidenceFlag > 1 {
		return fmt.Errorf("confidence must be between 0 and 1")
	}

	a, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	fact, err := a.db.Memories().Save(cmd.Context(), model.MemoryFact{
		Category:   category,
		Key:        args[0],
		Value:      strings.Join(args[1:], " "),
		Confidence: memoryConfidenceFlag,
		Source:     "cli",
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%s/%s)\n", fact.ID, fact.Category, fact.Key)
	return nil
}

func runMemoryList(cmd *cobra.Command, args []string) error {
	a, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	facts, err := a.db.Memories().List(cmd.Context())
	if err != nil {
		return err
	}
	return printFacts(cmd, facts)
}

func runMemorySearch(cmd *cobra.Command, args []string) error {
	a, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	facts, err := a.db.Memories().Query(cmd.Context(), model.MemoryQuery{
		Keywords: args,
		Limit:    memorySearchLimit,
	})
	if err != nil {
		return err
	}
	return printFacts(cmd, facts)
}

func printFacts(cmd *cobra.Command, facts []model.MemoryFact) error {
	if len(facts) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Nothing remembered.")
		return nil
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCATEGORY\tKEY\tVALUE\tCONFIDENCE\tUSED")
	for _, f := range facts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2f\t%d\n", f.ID, f.Category, f.Key, f.Value, f.Confidence, f.UsageCount)
	}
	return w.Flush()
}
