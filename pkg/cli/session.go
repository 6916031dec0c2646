package cli

import (
	"fmt"

	"github.com/platinummonkey/crm/pkg/auth"
	"github.com/spf13/cobra"
)

func newLoginCommand(rt *runtime) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with an email and password",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")

	cmd.RunE = rt.run(func(cmd *cobra.Command, args []string) error {
		account, err := rt.crm.Login(cmd.Context(), email, password)
		if err != nil {
			return err
		}
		fmt.Fprintf(rt.opts.Out, "Signed in as %s (%s)\n", account.Name, account.Role)
		return nil
	})
	return cmd
}

func newLogoutCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Sign out",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = rt.run(func(cmd *cobra.Command, args []string) error {
		if err := rt.crm.Logout(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(rt.opts.Out, "Signed out")
		return nil
	})
	return cmd
}

func newWhoamiCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account and the sections it can open",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = rt.run(func(cmd *cobra.Command, args []string) error {
		session, ok := rt.crm.Session()
		if !ok {
			return auth.ErrNotSignedIn
		}
		sections, err := rt.crm.Sections()
		if err != nil {
			return err
		}

		if rt.asJSON {
			return rt.printJSON(map[string]interface{}{"session": session, "sections": sections})
		}
		fmt.Fprintf(rt.opts.Out, "%s <%s>\nrole: %s\nsections:", session.Name, session.Email, session.Role)
		for _, s := range sections {
			fmt.Fprintf(rt.opts.Out, " %s", s)
		}
		fmt.Fprintln(rt.opts.Out)
		return nil
	})
	return cmd
}
