package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"shortly/internal/config"
	"shortly/internal/models"
	"shortly/internal/validation"
)

const timeLayout = "2006-01-02 15:04:05"

func newShortenCommand(loadConfig func() *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shorten",
		Short: "Create short links for up to five URLs.",
		Long: `Creates one short link per --url. --validity (minutes) and --code
(custom shortcode) pair with the --url at the same position.

Example:
  shortly shorten --url example.com --validity 60 --code Promo1 --url https://golang.org`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			urls, _ := cmd.Flags().GetStringArray("url")
			validities, _ := cmd.Flags().GetStringArray("validity")
			codes, _ := cmd.Flags().GetStringArray("code")

			entries, err := pairEntries(urls, validities, codes)
			if err != nil {
				return err
			}

			a, err := newApp(loadConfig())
			if err != nil {
				return err
			}
			defer a.close()

			resp, err := a.service.Shorten(cmd.Context(), entries)
			if err != nil {
				var report *validation.Report
				if errors.As(err, &report) {
					printReport(cmd.ErrOrStderr(), report)
					return errors.New("batch rejected")
				}
				return err
			}

			out := cmd.OutOrStdout()
			for _, link := range resp.Links {
				fmt.Fprintf(out, "%s\t%s\n", link.Shortcode, link.ShortURL)
				fmt.Fprintf(out, "  long URL: %s\n", link.LongURL)
				fmt.Fprintf(out, "  expires:  %s\n", link.Expiry.Local().Format(timeLayout))
			}
			return nil
		},
	}

	cmd.Flags().StringArrayP("url", "u", nil, "Long URL to shorten (repeatable, up to 5)")
	cmd.Flags().StringArrayP("validity", "v", nil, "Validity in minutes for the URL at the same position (default 30)")
	cmd.Flags().StringArrayP("code", "c", nil, "Custom shortcode for the URL at the same position")
	_ = cmd.MarkFlagRequired("url")

	return cmd
}

// pairEntries zips the repeated flags by position
func pairEntries(urls, validities, codes []string) ([]models.EntryRequest, error) {
	if len(validities) > len(urls) || len(codes) > len(urls) {
		return nil, fmt.Errorf("got %d --url but %d --validity and %d --code", len(urls), len(validities), len(codes))
	}

	entries := make([]models.EntryRequest, len(urls))
	for i, u := range urls {
		entries[i].LongURL = u
		if i < len(validities) {
			entries[i].Validity = models.Validity(validities[i])
		}
		if i < len(codes) {
			entries[i].Shortcode = codes[i]
		}
	}
	return entries, nil
}

func printReport(w io.Writer, report *validation.Report) {
	fmt.Fprintln(w, "Validation failed:")
	for _, fe := range report.FieldErrors() {
		if fe.Index < 0 {
			fmt.Fprintf(w, "  %s\n", fe.Message)
			continue
		}
		fmt.Fprintf(w, "  url #%d %s: %s\n", fe.Index+1, fe.Field, fe.Message)
	}
}
