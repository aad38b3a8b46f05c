package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var parseCmd = &cobra.Command{
	Use:   "parse [document]",
	Short: "Parse a document and print its structure",
	Long: `Parse loads a document with the selected strategy and prints its
table of contents. Structural problems the parser recovered from are logged
as warnings on stderr.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		viper.Set("document", args[0])
	}
	a, r, err := loadApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	if viper.GetBool("json") {
		return printJSON(map[string]any{
			"context":  r.Context(),
			"chapters": r.ChapterSummaries(),
		})
	}
	doc := r.Document()
	lo, hi := doc.SectionRange()
	fmt.Printf("%s: %d chapters, %d sections (%s %d-%d)\n\n",
		doc.Name, doc.ChapterCount(), doc.SectionCount(), r.Label(), lo, hi)
	fmt.Println(r.TableOfContents())
	return nil
}
