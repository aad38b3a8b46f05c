package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dgallion1/citegest/internal/modes"
	"github.com/dgallion1/citegest/internal/pipeline"
)

var generateCmd = &cobra.Command{
	Use:   "generate [topic]",
	Short: "Generate cited content in one of the generation modes",
	Long: `Generate runs a generation mode against the loaded document and prints
the formatted result with the sections it cites. Modes: bot_proposed,
user_provided, historical, insight, commentary. Content that fails
validation is printed with status needs_review and its problems.`,
	RunE: runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.String("mode", modes.UserProvided, "generation mode")
	f.String("type", "tweet", "content type: tweet, thread or script")
	f.String("language", "en", "output language (BCP 47)")
	f.IntSlice("sections", nil, "section numbers to ground on")
	f.Int("posts", 0, "thread length")
	f.String("duration", "", "script duration, e.g. 60s")
	f.Bool("spotlight", false, "bot_proposed: spotlight a random section")
	f.Bool("featured", false, "bot_proposed: draw from the featured chapter")
	f.String("task", "", "user_provided task: explain, compare, faq or reply")
	f.String("mention", "", "user_provided reply: the message being answered")
	f.String("event", "", "historical: event name")
	f.String("date", "", "historical: event date, MM-DD")
	f.String("perspective", "", "insight perspective")
	f.String("kind", "", "commentary kind")
	f.Bool("deep", false, "commentary: longer analysis")
	f.Int("retries", pipeline.MaxRetries, "attempts on retryable provider errors")

	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	a, _, err := loadApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	f := cmd.Flags()
	req := modes.Request{Topic: strings.Join(args, " ")}
	req.Mode, _ = f.GetString("mode")
	req.ContentType, _ = f.GetString("type")
	req.Language, _ = f.GetString("language")
	req.Sections, _ = f.GetIntSlice("sections")
	req.NumPosts, _ = f.GetInt("posts")
	req.Duration, _ = f.GetString("duration")
	req.Spotlight, _ = f.GetBool("spotlight")
	req.Featured, _ = f.GetBool("featured")
	req.Task, _ = f.GetString("task")
	req.Mention, _ = f.GetString("mention")
	req.Event, _ = f.GetString("event")
	req.EventDate, _ = f.GetString("date")
	req.Perspective, _ = f.GetString("perspective")
	req.Kind, _ = f.GetString("kind")
	req.Deep, _ = f.GetBool("deep")
	retries, _ := f.GetInt("retries")

	job := pipeline.NewGenerateJob(req)
	pipeline.NewWorker(a.Deps(), retries, logger()).Process(cmd.Context(), job)
	out, err := job.Result()
	if err != nil {
		return err
	}

	if viper.GetBool("json") {
		return printJSON(out)
	}
	fmt.Println(out.FormattedContent)
	fmt.Println()
	for _, ref := range out.Citations {
		fmt.Printf("  cites %s\n", ref.Display())
	}
	fmt.Printf("\nstatus: %s  id: %s  provider: %s/%s\n", out.Status, out.ID, out.Provider, out.Model)
	for _, e := range out.Validation.Errors {
		fmt.Printf("  error: %s\n", e)
	}
	for _, w := range out.Validation.Warnings {
		fmt.Printf("  warning: %s\n", w)
	}
	return nil
}
