package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"sol/briefing"
	"sol/config"
	"sol/provider"
)

var (
	prepDate       string
	prepEventID    string
	prepHoursAhead int
	prepPrint      bool
)

var meetingPrepCmd = &cobra.Command{
	Use:   "meeting-prep",
	Short: "Prepare briefs for upcoming external meetings",
	Long: `Write a brief for each upcoming meeting with external attendees and
submit it to the companion's action queue for review.

Without --event every external meeting starting in the next --hours-ahead
hours is prepared. With --event only that event is prepared, looked up on
--date (default today).`,
	Args: cobra.NoArgs,
	RunE: runMeetingPrep,
}

func init() {
	meetingPrepCmd.Flags().StringVar(&prepDate, "date", "", "Day to look up --event on (YYYY-MM-DD)")
	meetingPrepCmd.Flags().StringVar(&prepEventID, "event", "", "Prepare only this event id")
	meetingPrepCmd.Flags().IntVar(&prepHoursAhead, "hours-ahead", 24, "How far ahead to look for meetings")
	meetingPrepCmd.Flags().BoolVar(&prepPrint, "print", false, "Also print each brief")
}

func prepOptions() (briefing.Options, error) {
	opts := briefing.Options{
		EventID: prepEventID,
		Window:  time.Duration(prepHoursAhead) * time.Hour,
	}
	if prepHoursAhead <= 0 {
		return opts, fmt.Errorf("--hours-ahead must be positive, got %d", prepHoursAhead)
	}
	if prepDate != "" {
		if prepEventID == "" {
			return opts, errors.New("--date is only used with --event")
		}
		day, err := time.ParseInLocation("2006-01-02", prepDate, time.Local)
		if err != nil {
			return opts, fmt.Errorf("invalid --date %q, want YYYY-MM-DD", prepDate)
		}
		opts.Date = day
	}
	return opts, nil
}

func runMeetingPrep(cmd *cobra.Command, args []string) error {
	opts, err := prepOptions()
	if err != nil {
		return err
	}

	a, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	preparer, err := a.preparer()
	if err != nil {
		return err
	}

	results, err := preparer.Run(cmd.Context(), opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(results) == 0 {
		fmt.Fprintln(out, "No upcoming external meetings.")
		return nil
	}

	var failed []error
	for _, r := range results {
		when := r.Event.Start.Local().Format("Mon 15:04")
		if r.Err != nil {
			fmt.Fprintf(out, "FAIL  %s  %s: %v\n", when, r.Event.Title, r.Err)
			failed = append(failed, r.Err)
			continue
		}
		fmt.Fprintf(out, "ok    %s  %s -> action %s\n", when, r.Event.Title, r.ActionID)
		if prepPrint {
			fmt.Fprintf(out, "\n%s\n\n", r.Brief)
		}
	}
	if err := errors.Join(failed...); err != nil {
		if errors.Is(err, provider.ErrMissingCredential) {
			return fmt.Errorf("%w: set %s or run 'sol credentials set %s <key>'",
				err, config.APIKeyEnvVar(a.cfg.Provider), a.cfg.Provider)
		}
		return err
	}
	return nil
}
