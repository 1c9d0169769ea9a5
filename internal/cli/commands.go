package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/trico-scraper/internal/calendar"
	"github.com/pfrederiksen/trico-scraper/internal/meeting"
)

func newCollateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "collate",
		Short: "Rebuild out_collate.json from the cached raw records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat()
			if err != nil {
				return err
			}
			store, err := openStorage()
			if err != nil {
				return err
			}

			summary, err := collateFromCache(store)
			if err != nil {
				return err
			}
			if err := WriteSummary(cmd.OutOrStdout(), summary, format); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}
			printMetrics(cmd.ErrOrStderr())
			return nil
		},
	}
}

var (
	flagTermStart string
	flagTermEnd   string
	flagTimezone  string
	flagOutput    string
)

const dateLayout = "2006-01-02"

func newICSCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ics",
		Short: "Export collated meetings as an iCalendar file",
		Long: `Reads out_collate.json and writes one weekly recurring event per timed
meeting slot, running from --term-start through --term-end.`,
		Args: cobra.NoArgs,
		RunE: runICS,
	}

	cmd.Flags().StringVar(&flagTermStart, "term-start", "", "First day of classes (YYYY-MM-DD, required)")
	cmd.Flags().StringVar(&flagTermEnd, "term-end", "", "Last day of classes (YYYY-MM-DD, required)")
	cmd.Flags().StringVar(&flagTimezone, "tz", "America/New_York", "Time zone of the meeting times")
	cmd.Flags().StringVarP(&flagOutput, "output", "o", "-", "Output file, - for stdout")

	cmd.MarkFlagRequired("term-start") // nolint:errcheck
	cmd.MarkFlagRequired("term-end")   // nolint:errcheck

	return cmd
}

func runICS(cmd *cobra.Command, args []string) error {
	loc, err := time.LoadLocation(flagTimezone)
	if err != nil {
		return fmt.Errorf("loading time zone: %w", err)
	}
	start, err := time.ParseInLocation(dateLayout, flagTermStart, loc)
	if err != nil {
		return fmt.Errorf("invalid --term-start: %w", err)
	}
	end, err := time.ParseInLocation(dateLayout, flagTermEnd, loc)
	if err != nil {
		return fmt.Errorf("invalid --term-end: %w", err)
	}

	store, err := openStorage()
	if err != nil {
		return err
	}
	buckets, err := store.LoadCollation()
	if err != nil {
		return fmt.Errorf("loading collation: %w", err)
	}

	out, err := calendar.GenerateICS(buckets, calendar.Term{Start: start, End: end, Location: loc}, time.Now())
	if err != nil {
		return err
	}

	if flagOutput == "-" {
		_, err = fmt.Fprint(cmd.OutOrStdout(), out)
		return err
	}
	if err := os.WriteFile(flagOutput, []byte(out), 0644); err != nil {
		return fmt.Errorf("writing calendar: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", flagOutput)
	return nil
}

func newParseTimeCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "parse-time <time-and-days>",
		Short:   "Parse a course guide day/time string",
		Example: `  trico-scraper parse-time "MWF 11:30am-12:20pm, TH 1:00pm-2:20pm"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat()
			if err != nil {
				return err
			}
			meetings, err := meeting.Parse(args[0])
			if err != nil {
				return err
			}
			return WriteMeetings(cmd.OutOrStdout(), meetings, format)
		},
	}
}
