package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/platinummonkey/crm/pkg/records"
	"github.com/spf13/cobra"
)

func newLeadsCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leads",
		Short: "List, import, assign and complete leads",
	}
	cmd.AddCommand(
		newLeadsListCommand(rt),
		newLeadsImportCommand(rt),
		newLeadsAssignCommand(rt),
		newLeadsCompleteCommand(rt),
	)
	return cmd
}

func newLeadsListCommand(rt *runtime) *cobra.Command {
	var (
		q    records.Query
		sort string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the leads you can see",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringVar(&q.Search, "search", "", "match lead name, company or source")
	cmd.Flags().StringVar(&q.Status, "status", "", "not-started, in-progress or follow-up")
	cmd.Flags().StringVar(&sort, "sort", "", "leadName, company, status, assignedTo, createdAt or source")
	cmd.Flags().BoolVar(&q.Descending, "desc", false, "sort descending")

	cmd.RunE = rt.run(func(cmd *cobra.Command, args []string) error {
		field, err := records.ParseSortField(sort)
		if err != nil {
			return err
		}
		q.SortField = field

		leads, err := rt.crm.Leads(q)
		if err != nil {
			return err
		}
		return rt.printLeads(leads)
	})
	return cmd
}

func (rt *runtime) printLeads(leads []records.Lead) error {
	if rt.asJSON {
		return rt.printJSON(leads)
	}
	w := rt.table("ID\tLEAD\tCOMPANY\tSTATUS\tASSIGNED TO")
	for _, l := range leads {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", l.ID, l.LeadName, l.Company, l.Status, rt.crm.DisplayAssignee(l.AssignedTo))
	}
	return w.Flush()
}

func newLeadsImportCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import leads from a CSV file with leadName, company and email columns",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = rt.run(func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		result, err := rt.crm.ImportLeads(cmd.Context(), f)
		if err != nil {
			return err
		}
		if rt.asJSON {
			return rt.printLeads(result.Leads)
		}
		fmt.Fprintf(rt.opts.Out, "Imported %d leads\n", len(result.Leads))
		for _, row := range result.Skipped {
			fmt.Fprintf(rt.opts.Out, "Skipped line %d: missing %s\n", row.Line, strings.Join(row.Missing, ", "))
		}
		return rt.printLeads(result.Leads)
	})
	return cmd
}

func newLeadsAssignCommand(rt *runtime) *cobra.Command {
	var to string
	cmd := &cobra.Command{
		Use:   "assign <lead-id>...",
		Short: "Hand leads to a user",
		Args:  cobra.MinimumNArgs(1),
	}
	cmd.Flags().StringVar(&to, "to", "", "assignee email")
	cmd.MarkFlagRequired("to")

	cmd.RunE = rt.run(func(cmd *cobra.Command, args []string) error {
		n, err := rt.crm.AssignLeads(cmd.Context(), args, to)
		if err != nil {
			return err
		}
		fmt.Fprintf(rt.opts.Out, "Assigned %d leads to %s\n", n, to)
		return nil
	})
	return cmd
}

func newLeadsCompleteCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "complete <lead-id>",
		Short: "Mark a lead completed and move it to meetings",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = rt.run(func(cmd *cobra.Command, args []string) error {
		meeting, err := rt.crm.CompleteLead(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(rt.opts.Out, "%s moved to meetings\n", meeting.LeadName)
		return nil
	})
	return cmd
}

func newMeetingsCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meetings",
		Short: "List and reopen completed leads",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List the meetings you can see",
		Args:  cobra.NoArgs,
	}
	list.RunE = rt.run(func(cmd *cobra.Command, args []string) error {
		meetings, err := rt.crm.Meetings()
		if err != nil {
			return err
		}
		if rt.asJSON {
			return rt.printJSON(meetings)
		}
		w := rt.table("ID\tLEAD\tCOMPANY\tASSIGNED TO\tCOMPLETED")
		for _, m := range meetings {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", m.ID, m.LeadName, m.Company,
				rt.crm.DisplayAssignee(m.AssignedTo), m.CompletedAt.In(rt.loc).Format("2006-01-02 15:04"))
		}
		return w.Flush()
	})

	reopen := &cobra.Command{
		Use:   "reopen <meeting-id>",
		Short: "Move a meeting back to the active leads",
		Args:  cobra.ExactArgs(1),
	}
	reopen.RunE = rt.run(func(cmd *cobra.Command, args []string) error {
		lead, err := rt.crm.ReopenMeeting(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(rt.opts.Out, "%s is back in leads (%s)\n", lead.LeadName, lead.Status)
		return nil
	})

	cmd.AddCommand(list, reopen)
	return cmd
}
