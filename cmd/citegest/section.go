package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dgallion1/citegest/internal/errs"
)

var sectionCmd = &cobra.Command{
	Use:   "section [number | citation]",
	Short: "Print one section by number or rendered citation",
	Long: `Section prints a section's full text. The argument is either a number
("9") or a citation as it appears in generated content ("Section 9 (Equality)").`,
	Args: cobra.ExactArgs(1),
	RunE: runSection,
}

func init() {
	sectionCmd.Flags().Bool("context", false, "include the neighbouring sections")

	rootCmd.AddCommand(sectionCmd)
}

func runSection(cmd *cobra.Command, args []string) error {
	a, r, err := loadApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	num, convErr := strconv.Atoi(args[0])
	if convErr != nil {
		s, ok := r.Resolve(args[0])
		if !ok {
			return errs.NewNotFound("citation", args[0])
		}
		num = s.Num
	}
	sc, ok := r.Neighbours(num)
	if !ok {
		return errs.NewNotFound(r.Label(), num)
	}

	withContext, _ := cmd.Flags().GetBool("context")
	if viper.GetBool("json") {
		if withContext {
			return printJSON(sc)
		}
		return printJSON(sc.Section)
	}
	if withContext && sc.Previous != nil {
		fmt.Println(r.FormatSection(sc.Previous))
		fmt.Println("\n---")
	}
	fmt.Println(r.FormatSection(sc.Section))
	if withContext && sc.Next != nil {
		fmt.Println("\n---")
		fmt.Println(r.FormatSection(sc.Next))
	}
	return nil
}
