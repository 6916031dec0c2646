package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/platinummonkey/crm/pkg/reports"
	"github.com/spf13/cobra"
)

func newReportCommand(rt *runtime) *cobra.Command {
	var (
		from, to, output string
		publish          bool
	)
	cmd := &cobra.Command{
		Use:       "report <leads|clients>",
		Short:     "Export a report as CSV",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(reports.KindLeads), string(reports.KindClients)},
	}
	cmd.Flags().StringVar(&from, "from", "", "first day to include (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "last day to include (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to a file instead of stdout")
	cmd.Flags().BoolVar(&publish, "publish", false, "upload to the configured export sink")

	cmd.RunE = rt.run(func(cmd *cobra.Command, args []string) error {
		kind, err := reports.ParseKind(args[0])
		if err != nil {
			return err
		}
		fromDate, err := rt.parseDay(from)
		if err != nil {
			return err
		}
		toDate, err := rt.parseDay(to)
		if err != nil {
			return err
		}
		if toDate != nil {
			end := reports.EndOfDay(*toDate)
			toDate = &end
		}

		if publish {
			location, err := rt.crm.PublishReport(cmd.Context(), kind, fromDate, toDate)
			if err != nil {
				return err
			}
			fmt.Fprintf(rt.opts.Out, "Published %s\n", location)
			return nil
		}

		name, body, err := rt.crm.ExportReport(kind, fromDate, toDate)
		if err != nil {
			return err
		}
		if output == "" {
			_, err = rt.opts.Out.Write(body)
			return err
		}
		if err := os.WriteFile(output, body, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(rt.opts.Out, "Wrote %s to %s\n", name, output)
		return nil
	})
	return cmd
}

func (rt *runtime) parseDay(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation("2006-01-02", value, rt.loc)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", value)
	}
	return &t, nil
}

func newUsersCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Inspect the user directory",
	}
	list := &cobra.Command{
		Use:   "list",
		Short: "List user accounts",
		Args:  cobra.NoArgs,
	}
	list.RunE = rt.run(func(cmd *cobra.Command, args []string) error {
		accounts, err := rt.crm.Users()
		if err != nil {
			return err
		}
		w := rt.table("ID\tNAME\tEMAIL\tROLE")
		for _, a := range accounts {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", a.ID, a.Name, a.Email, a.Role)
		}
		return w.Flush()
	})
	cmd.AddCommand(list)
	return cmd
}

func newSettingsCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change application settings",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the current settings",
		Args:  cobra.NoArgs,
	}
	show.RunE = rt.run(func(cmd *cobra.Command, args []string) error {
		current, err := rt.crm.Settings()
		if err != nil {
			return err
		}
		return rt.printJSON(current)
	})

	roundRobin := &cobra.Command{
		Use:       "round-robin <on|off>",
		Short:     "Turn round-robin assignment of imported leads on or off",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"on", "off"},
	}
	roundRobin.RunE = rt.run(func(cmd *cobra.Command, args []string) error {
		var enabled bool
		switch args[0] {
		case "on":
			enabled = true
		case "off":
		default:
			return fmt.Errorf("expected on or off, got %q", args[0])
		}

		current, err := rt.crm.Settings()
		if err != nil {
			return err
		}
		current.RoundRobin = enabled
		if _, err := rt.crm.UpdateSettings(cmd.Context(), current); err != nil {
			return err
		}
		fmt.Fprintf(rt.opts.Out, "Round-robin assignment %s\n", args[0])
		return nil
	})

	cmd.AddCommand(show, roundRobin)
	return cmd
}
