package main

import (
	"net/http"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/givehub/console/core"
	"github.com/givehub/console/core/auth"
	"github.com/givehub/console/core/user"
	"github.com/givehub/console/storage/remote"
)

func (cli *commandLine) loginCmd() *cobra.Command {
	var (
		email       string
		association bool
	)
	cmd := &cobra.Command{
		Use:         "login",
		Short:       "Sign in and store the session",
		Annotations: map[string]string{screenKey: core.LoginPath},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			email = core.CleanString(email, true /* lower */)
			if email == "" {
				_ = cmd.Usage()
				return errHelp
			}
			pwd, err := cli.readPassword("Password: ")
			if err != nil {
				return err
			}
			if pwd == "" {
				_ = cmd.Usage()
				return errHelp
			}

			kind := remote.AccountUser
			if association {
				kind = remote.AccountAssociation
			}
			if err := cli.session.Login(cmd.Context(), email, pwd, kind); err != nil {
				if status := core.TransportStatus(err); status == http.StatusBadRequest || status == http.StatusUnauthorized {
					cli.notifier.Notify(core.NoticeError, "Invalid email or password.")
					return errFailed
				}
				return cli.fail(err)
			}
			if err := cli.store.Save(cli.client); err != nil {
				return err
			}
			cli.notifier.Notify(core.NoticeSuccess, "Logged in as "+email+".")
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email (required)")
	cmd.Flags().BoolVar(&association, "association", false, "Sign in with an association account")
	return cmd
}

func (cli *commandLine) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and forget it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// the local session is dropped even if the API is unreachable
			if err := cli.session.Logout(cmd.Context()); err != nil && core.TransportStatus(err) != http.StatusUnauthorized {
				cli.logger.Warn("logging out", err)
			}
			if err := cli.store.Clear(); err != nil {
				return err
			}
			cli.client = nil // nothing to save
			cli.notifier.Notify(core.NoticeSuccess, "Logged out.")
			return nil
		},
	}
}

func (cli *commandLine) signupCmd() *cobra.Command {
	var (
		nu   user.NewUser
		role string
	)
	cmd := &cobra.Command{
		Use:         "signup",
		Short:       "Create a donor or recipient account",
		Annotations: map[string]string{screenKey: "/signup"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := auth.ParseRole(role)
			if err != nil || r == auth.RoleAdmin {
				return errors.Errorf("invalid role %q (want %s or %s)", role, auth.RoleDonor, auth.RoleRecipient)
			}
			nu.UserType = r

			if nu.Password, err = cli.readPassword("Password: "); err != nil {
				return err
			}
			strength := user.PasswordStrength(nu.Password, nu.FirstName, nu.LastName, nu.Email)
			if strength == user.StrengthWeak {
				cli.notifier.Notify(core.NoticeWarning, "Password strength: "+strength.String())
			} else {
				cli.notifier.Notify(core.NoticeInfo, "Password strength: "+strength.String())
			}
			if nu.PasswordConfirm, err = cli.readPassword("Confirm password: "); err != nil {
				return err
			}

			usr, err := cli.usrSvc.Register(cmd.Context(), nu)
			if err != nil {
				return cli.fail(err)
			}
			cli.notifier.Notify(core.NoticeSuccess, "Account created. Run `givehub login` to sign in.")
			return cli.renderUser(usr)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&nu.FirstName, "first-name", "", "First name")
	flags.StringVar(&nu.LastName, "last-name", "", "Last name")
	flags.StringVarP(&nu.Email, "email", "e", "", "Email")
	flags.StringVar(&nu.Phone, "phone", "", "Phone number")
	flags.StringVar(&nu.Address, "address", "", "Address")
	flags.StringVar(&role, "role", auth.RoleDonor.String(), "DONOR or RECIPIENT")
	return cmd
}

func (cli *commandLine) whoamiCmd() *cobra.Command {
	var association bool
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if association {
				assoc := cli.assocSvc.Profile(cmd.Context())
				if assoc == nil {
					cli.notifier.Notify(core.NoticeWarning, "No association is signed in.")
					return errFailed
				}
				return cli.renderAssociation(*assoc)
			}

			p := cli.guard.Accessor().CurrentPrincipal(cmd.Context())
			if p == nil {
				cli.notifier.Notify(core.NoticeWarning, "You are not signed in.")
				return errFailed
			}
			return cli.renderDetails(p, [][2]string{
				{"ID", strconv.Itoa(p.ID)},
				{"Name", p.DisplayName()},
				{"Email", p.Email},
				{"Role", p.Role.Label()},
				{"Phone", orDash(p.Phone)},
				{"Address", orDash(p.Address)},
				{"Member since", formatDate(p.CreatedAt)},
			})
		},
	}
	cmd.Flags().BoolVar(&association, "association", false, "Show the signed-in association")
	return cmd
}
