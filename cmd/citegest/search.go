package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dgallion1/citegest/internal/document"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search section text, titles and chapter titles",
	Long: `Search finds sections containing the query, case-insensitively, in
document order. With --topic the query is expanded through the topic keyword
map first.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().Int("max-results", 10, "maximum number of results to return")
	searchCmd.Flags().Bool("topic", false, "treat the query as a topic")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	a, r, err := loadApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	query := strings.Join(args, " ")
	limit, _ := cmd.Flags().GetInt("max-results")
	topic, _ := cmd.Flags().GetBool("topic")

	var secs []*document.Section
	if topic {
		secs = r.SectionsForTopic(query, limit)
	} else {
		secs = r.Search(query, limit)
	}

	refs := make([]document.CitationReference, 0, len(secs))
	for _, s := range secs {
		if ref, ok := r.Citation(s.Num); ok {
			refs = append(refs, ref)
		}
	}
	if viper.GetBool("json") {
		return printJSON(refs)
	}
	if len(refs) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	for _, ref := range refs {
		fmt.Fprintf(os.Stdout, "%-40s  %s\n", ref.Display(), ref.Excerpt)
	}
	fmt.Fprintf(os.Stdout, "\n%d results\n", len(refs))
	return nil
}
