package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"shortly/internal/config"
	"shortly/internal/models"
)

func newStatsCommand(loadConfig func() *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats [CODE]",
		Short: "Show statistics for all links or one shortcode.",
		Long: `Without CODE, prints totals and every link, newest first. With CODE,
prints that link and its latest clicks. Never records a click.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")

			a, err := newApp(loadConfig())
			if err != nil {
				return err
			}
			defer a.close()

			out := cmd.OutOrStdout()

			if len(args) == 1 {
				stats, err := a.service.LinkStats(cmd.Context(), args[0], limit)
				if err != nil {
					return err
				}
				printLink(out, stats)
				return nil
			}

			summary, err := a.service.Summary(cmd.Context())
			if err != nil {
				return err
			}
			printSummary(out, summary)
			return nil
		},
	}

	cmd.Flags().IntP("limit", "l", 10, "Number of recent clicks to show with CODE")

	return cmd
}

func printSummary(w io.Writer, s *models.StatsSummary) {
	fmt.Fprintf(w, "Links: %d (%d active, %d expired)\n", s.TotalLinks, s.ActiveLinks, s.ExpiredLinks)
	fmt.Fprintf(w, "Clicks: %d\n", s.TotalClicks)
	if len(s.Links) == 0 {
		return
	}

	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tSTATUS\tCLICKS\tSHARE\tTIME LEFT\tLONG URL")
	for _, l := range s.Links {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%.1f%%\t%s\t%s\n", l.Shortcode, l.Status, l.Clicks, l.ClickShare, l.TimeLeft, l.LongURL)
	}
	tw.Flush()
}

func printLink(w io.Writer, l *models.LinkStats) {
	fmt.Fprintf(w, "Shortcode: %s\n", l.Shortcode)
	fmt.Fprintf(w, "Short URL: %s\n", l.ShortURL)
	fmt.Fprintf(w, "Long URL:  %s\n", l.LongURL)
	fmt.Fprintf(w, "Created:   %s\n", l.Created.Local().Format(timeLayout))
	fmt.Fprintf(w, "Expires:   %s (%s)\n", l.Expiry.Local().Format(timeLayout), l.TimeLeft)
	fmt.Fprintf(w, "Status:    %s\n", l.Status)
	fmt.Fprintf(w, "Clicks:    %d\n", l.Clicks)

	if len(l.RecentClicks) == 0 {
		return
	}

	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tSOURCE\tLOCATION\tUSER AGENT")
	for _, c := range l.RecentClicks {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.Timestamp.Local().Format(timeLayout), c.Source, c.Location, c.UserAgent)
	}
	tw.Flush()
}
