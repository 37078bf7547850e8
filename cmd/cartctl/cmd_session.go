// cmd/cartctl/cmd_session.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	sessiondom "github.com/MaYdaN875/Papeleria-store-sub000/internal/domain/session"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Show or change who owns the cart",
}

var (
	setToken string
	setEmail string
	setName  string
	setUID   string
	setID    int64
)

var sessionShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current owner",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		s, ok := cont.Sessions.Current(cmd.Context())
		if !ok {
			fmt.Fprintln(out, "owner: guest (no valid session)")
			return nil
		}
		fmt.Fprintf(out, "owner: %s\n", sessiondom.KeyFor(*s.User))
		fmt.Fprintf(out, "email: %s\n", s.User.Email)
		if s.User.Name != "" {
			fmt.Fprintf(out, "name:  %s\n", s.User.Name)
		}
		if s.User.Provider != "" {
			fmt.Fprintf(out, "via:   %s\n", s.User.Provider)
		}
		return nil
	},
}

var sessionSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store a session issued by the shop API (password login)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s := sessiondom.Session{
			Token: setToken,
			User: &sessiondom.User{
				ID:       setID,
				UID:      setUID,
				Name:     setName,
				Email:    setEmail,
				Provider: sessiondom.ProviderPassword,
			},
		}
		if err := cont.Sessions.SetSession(cmd.Context(), s); err != nil {
			return err
		}
		printCart(cmd.OutOrStdout(), cont.Cart.Snapshot(), nil)
		return nil
	},
}

var sessionFirebaseCmd = &cobra.Command{
	Use:   "firebase ID_TOKEN",
	Short: "Sign in with a Firebase ID token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		identity, err := cont.FirebaseIdentity(cmd.Context())
		if err != nil {
			return err
		}
		s, err := identity.SessionFromIDToken(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if err := cont.Sessions.SetSession(cmd.Context(), s); err != nil {
			return err
		}
		printCart(cmd.OutOrStdout(), cont.Cart.Snapshot(), nil)
		return nil
	},
}

var sessionClearCmd = &cobra.Command{
	Use:     "clear",
	Aliases: []string{"logout"},
	Short:   "Log out; the cart switches back to the guest partition",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cont.Sessions.ClearSession(cmd.Context())
	},
}

func init() {
	f := sessionSetCmd.Flags()
	f.StringVar(&setToken, "token", "", "session token (required)")
	f.StringVar(&setEmail, "email", "", "account email (required)")
	f.Int64Var(&setID, "id", 0, "numeric account id")
	f.StringVar(&setUID, "uid", "", "federated uid")
	f.StringVar(&setName, "name", "", "display name")
	_ = sessionSetCmd.MarkFlagRequired("token")
	_ = sessionSetCmd.MarkFlagRequired("email")

	sessionCmd.AddCommand(sessionShowCmd, sessionSetCmd, sessionFirebaseCmd, sessionClearCmd)
}
