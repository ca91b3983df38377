package main

import (
	"context"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/volatiletech/null/v8"

	"github.com/givehub/console/core"
	"github.com/givehub/console/core/auth"
	"github.com/givehub/console/core/user"
	"github.com/givehub/console/core/view"
)

func (cli *commandLine) usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "users",
		Short:       "Manage user accounts (admin)",
		Annotations: map[string]string{screenKey: "/admin/users"},
	}
	cmd.AddCommand(
		cli.usersListCmd(),
		cli.usersGetCmd(),
		cli.usersCreateCmd(),
		cli.usersUpdateCmd(),
		cli.usersDeleteCmd(),
	)
	return cmd
}

// mountUsers opens the users screen.
func (cli *commandLine) mountUsers(ctx context.Context, filter user.QueryFilter) (*view.ListView[user.User], error) {
	v := view.NewListView[user.User]("users", cli.notifier, cli.logger)
	err := v.Mount(ctx, func(ctx context.Context) ([]user.User, error) {
		return cli.usrSvc.List(ctx, filter)
	})
	return v, err
}

func (cli *commandLine) usersListCmd() *cobra.Command {
	var search, role string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter := user.QueryFilter{Search: search}
			if role != "" {
				r, err := auth.ParseRole(role)
				if err != nil {
					return err
				}
				filter.Role = r
			}
			v, err := cli.mountUsers(cmd.Context(), filter)
			defer v.Dispose()
			if err != nil {
				return cli.failView(err)
			}
			return cli.renderUsers(v.Items())
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "Search in names and emails")
	cmd.Flags().StringVar(&role, "role", "", "Only users with this role (DONOR, RECIPIENT or ADMIN)")
	return cmd
}

func (cli *commandLine) usersGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args)
			if err != nil {
				return err
			}
			usr, err := cli.usrSvc.Get(cmd.Context(), id)
			if err != nil {
				return cli.fail(err)
			}
			return cli.renderUser(usr)
		},
	}
}

func (cli *commandLine) usersCreateCmd() *cobra.Command {
	var (
		nu   user.NewUser
		role string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := auth.ParseRole(role)
			if err != nil {
				return err
			}
			nu.UserType = r
			if nu.Password, err = cli.readPassword("Password: "); err != nil {
				return err
			}

			v, err := cli.mountUsers(cmd.Context(), user.QueryFilter{})
			defer v.Dispose()
			if err != nil {
				return cli.failView(err)
			}
			created, err := v.Create(cmd.Context(), func(ctx context.Context) (user.User, error) {
				return cli.usrSvc.Create(ctx, nu)
			})
			if err != nil {
				return cli.failView(err)
			}
			cli.notifier.Notify(core.NoticeSuccess, "User "+created.FullName()+" created.")
			return cli.renderUsers(v.Items())
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&nu.FirstName, "first-name", "", "First name")
	flags.StringVar(&nu.LastName, "last-name", "", "Last name")
	flags.StringVarP(&nu.Email, "email", "e", "", "Email")
	flags.StringVar(&nu.Phone, "phone", "", "Phone number")
	flags.StringVar(&nu.Address, "address", "", "Address")
	flags.StringVar(&role, "role", auth.RoleDonor.String(), "DONOR, RECIPIENT or ADMIN")
	return cmd
}

func (cli *commandLine) usersUpdateCmd() *cobra.Command {
	var (
		firstName, lastName, email, phone, address, role string
		setPassword                                      bool
	)
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Update a user; only the given flags are changed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args)
			if err != nil {
				return err
			}

			var uu user.UpdateUser
			flags := cmd.Flags()
			changed := func(name, val string) null.String {
				if flags.Changed(name) {
					return null.StringFrom(val)
				}
				return null.String{}
			}
			uu.FirstName = changed("first-name", firstName)
			uu.LastName = changed("last-name", lastName)
			uu.Email = changed("email", email)
			uu.Phone = changed("phone", phone)
			uu.Address = changed("address", address)
			if flags.Changed("role") {
				r, err := auth.ParseRole(role)
				if err != nil {
					return err
				}
				uu.UserType = &r
			}
			if setPassword {
				pwd, err := cli.readPassword("New password: ")
				if err != nil {
					return err
				}
				uu.Password = null.StringFrom(pwd)
			}
			if uu.IsEmpty() {
				_ = cmd.Usage()
				return errHelp
			}

			v, err := cli.mountUsers(cmd.Context(), user.QueryFilter{})
			defer v.Dispose()
			if err != nil {
				return cli.failView(err)
			}
			updated, err := v.Update(cmd.Context(), func(ctx context.Context) (user.User, error) {
				return cli.usrSvc.Update(ctx, id, uu)
			})
			if err != nil {
				return cli.failView(err)
			}
			cli.notifier.Notify(core.NoticeSuccess, "User "+updated.FullName()+" updated.")
			return cli.renderUsers(v.Items())
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&firstName, "first-name", "", "First name")
	flags.StringVar(&lastName, "last-name", "", "Last name")
	flags.StringVarP(&email, "email", "e", "", "Email")
	flags.StringVar(&phone, "phone", "", "Phone number (empty clears it)")
	flags.StringVar(&address, "address", "", "Address (empty clears it)")
	flags.StringVar(&role, "role", "", "DONOR, RECIPIENT or ADMIN")
	flags.BoolVar(&setPassword, "password", false, "Prompt for a new password")
	return cmd
}

func (cli *commandLine) usersDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args)
			if err != nil {
				return err
			}
			v, err := cli.mountUsers(cmd.Context(), user.QueryFilter{})
			defer v.Dispose()
			if err != nil {
				return cli.failView(err)
			}
			if err := v.Remove(cmd.Context(), id, func(ctx context.Context) error {
				return cli.usrSvc.Delete(ctx, id)
			}); err != nil {
				return cli.failView(err)
			}
			cli.notifier.Notify(core.NoticeSuccess, "User #"+strconv.Itoa(id)+" deleted.")
			return cli.renderUsers(v.Items())
		},
	}
}

func (cli *commandLine) renderUsers(users []user.User) error {
	data := pterm.TableData{{"ID", "NAME", "EMAIL", "ROLE", "PHONE", "JOINED"}}
	for _, usr := range users {
		data = append(data, []string{
			strconv.Itoa(usr.ID), usr.FullName(), usr.Email, usr.UserType.Label(), orDash(usr.Phone), formatDate(usr.CreatedAt),
		})
	}
	return cli.render(users, data)
}

func (cli *commandLine) renderUser(usr user.User) error {
	return cli.renderDetails(usr, [][2]string{
		{"ID", strconv.Itoa(usr.ID)},
		{"Name", usr.FullName()},
		{"Email", usr.Email},
		{"Role", usr.UserType.Label()},
		{"Phone", orDash(usr.Phone)},
		{"Address", orDash(usr.Address)},
		{"Joined", formatDate(usr.CreatedAt)},
	})
}
