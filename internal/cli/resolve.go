package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"shortly/internal/config"
	"shortly/internal/entities"
)

func newResolveCommand(loadConfig func() *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve CODE",
		Short: "Resolve a shortcode and record a click.",
		Long: `Looks up CODE. An active code records a click and prints its target;
missing and expired codes are reported without changing the store.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			referrer, _ := cmd.Flags().GetString("referrer")
			userAgent, _ := cmd.Flags().GetString("user-agent")

			a, err := newApp(loadConfig())
			if err != nil {
				return err
			}
			defer a.close()

			res, err := a.service.Resolve(cmd.Context(), args[0], referrer, userAgent)
			switch {
			case errors.Is(err, entities.ErrNotFound):
				return fmt.Errorf("shortcode %q not found", args[0])
			case errors.Is(err, entities.ErrExpired):
				return fmt.Errorf("shortcode %q has expired", args[0])
			case err != nil:
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Redirecting to %s in %s\n", res.Target, res.Delay)
			fmt.Fprintf(out, "Clicks: %d\n", res.Link.Clicks)
			return nil
		},
	}

	cmd.Flags().StringP("referrer", "r", "", "Referrer recorded as the click source (default direct)")
	cmd.Flags().String("user-agent", "shortly-cli", "User agent recorded with the click")

	return cmd
}
