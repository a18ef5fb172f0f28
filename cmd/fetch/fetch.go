// Package fetch provides the "rosterfmt fetch" command, which pulls report
// attachments out of an Outlook inbox.
package fetch

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/klytics/rosterfmt/cmd/cmdutil"
	"github.com/klytics/rosterfmt/internal/auth"
	"github.com/klytics/rosterfmt/internal/graph"
	"github.com/klytics/rosterfmt/internal/output"
	"github.com/klytics/rosterfmt/internal/pipeline"
)

// NewCommand creates the "fetch" command.
func NewCommand() *cobra.Command {
	var (
		since    string
		reports  []string
		saveDir  string
		markRead bool
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Pull report attachments from Outlook and build the workbook",
		Long: `Search the signed-in user's inbox for each profile report, take the newest
matching .xls attachment and build the workbook from them.

A report's mail.subject (default: its id) and mail.from select the message,
its file_pattern selects the attachment. Every report must be found or
nothing is written.

Examples:
  rosterfmt fetch
  rosterfmt fetch --since 2025-12-20 --mark-read
  rosterfmt fetch --report roster --save-dir ./raw`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cmdutil.Load(cmd)
			if err != nil {
				return err
			}

			cutoff, err := Cutoff(since, env.Config.Mail.SinceDays, time.Now())
			if err != nil {
				return output.Usage(err)
			}
			if !cmd.Flags().Changed("save-dir") {
				saveDir = env.Config.Mail.SaveDir
			}
			if !cmd.Flags().Changed("mark-read") {
				markRead = env.Config.Mail.MarkRead
			}

			client, err := auth.RequireAuth(cmd.Context(), env.Config.Azure.ClientID)
			if err != nil {
				return output.Usage(err)
			}

			src := &pipeline.MailSource{
				Mail:     graph.NewOutlook(client),
				Since:    cutoff,
				SaveDir:  saveDir,
				MarkRead: markRead,
			}
			runner := &pipeline.Runner{Profile: env.Profile, Source: src, Only: reports}
			res, err := runner.Run(cmd.Context(), env.Output)
			if err != nil {
				return cmdutil.Classify(err)
			}

			if env.JSON {
				return output.PrintJSON("fetch", map[string]any{
					"result":  res,
					"fetched": src.Fetched,
				})
			}

			printFetched(src.Fetched)
			output.PrintResult(os.Stdout, res)
			return nil
		},
	}

	cmd.Flags().StringVar(&since, "since", "", "Oldest message date to consider, YYYY-MM-DD (default: mail.since_days ago)")
	cmd.Flags().StringSliceVar(&reports, "report", nil, "Only fetch these report ids")
	cmd.Flags().StringVar(&saveDir, "save-dir", "", "Also save each raw attachment into this directory")
	cmd.Flags().BoolVar(&markRead, "mark-read", false, "Mark each used message as read")

	return cmd
}

// Cutoff resolves the --since value. An empty value means sinceDays before now.
func Cutoff(since string, sinceDays int, now time.Time) (time.Time, error) {
	if since == "" {
		if sinceDays <= 0 {
			return time.Time{}, nil
		}
		return now.AddDate(0, 0, -sinceDays), nil
	}
	t, err := time.ParseInLocation(time.DateOnly, since, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --since date %q — use YYYY-MM-DD", since)
	}
	return t, nil
}

func printFetched(fetched map[string]graph.Found) {
	ids := make([]string, 0, len(fetched))
	for id := range fetched {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "REPORT\tATTACHMENT\tFROM\tRECEIVED\n")
	for _, id := range ids {
		f := fetched[id]
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			id, f.Attachment.Name, f.Message.From.EmailAddress.Address,
			graph.FormatEmailDate(f.Message.ReceivedAt))
	}
	tw.Flush()
}
