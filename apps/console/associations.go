package main

import (
	"context"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/volatiletech/null/v8"

	"github.com/givehub/console/core"
	"github.com/givehub/console/core/association"
	"github.com/givehub/console/core/view"
)

func (cli *commandLine) associationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "associations",
		Aliases:     []string{"assocs"},
		Short:       "Browse and manage associations",
		Annotations: map[string]string{screenKey: "/admin/associations"},
	}
	cmd.AddCommand(
		cli.associationsListCmd(),
		cli.associationsPublicCmd(),
		cli.associationsGetCmd(),
		cli.associationsCreateCmd(),
		cli.associationsUpdateCmd(),
		cli.associationsDeleteCmd(),
		cli.associationsProfileCmd(),
	)
	return cmd
}

func (cli *commandLine) mountAssociations(ctx context.Context, load view.LoadFunc[association.Association]) (*view.ListView[association.Association], error) {
	v := view.NewListView[association.Association]("associations", cli.notifier, cli.logger)
	return v, v.Mount(ctx, load)
}

func (cli *commandLine) adminAssociations(filter association.QueryFilter) view.LoadFunc[association.Association] {
	return func(ctx context.Context) ([]association.Association, error) {
		return cli.assocSvc.List(ctx, filter)
	}
}

func (cli *commandLine) associationsListCmd() *cobra.Command {
	var name, category string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all associations (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter := association.QueryFilter{Name: name}
			if category != "" {
				c, err := association.ParseCategory(category)
				if err != nil {
					return err
				}
				filter.Category = c
			}
			v, err := cli.mountAssociations(cmd.Context(), cli.adminAssociations(filter))
			defer v.Dispose()
			if err != nil {
				return cli.failView(err)
			}
			return cli.renderAssociations(v.Items())
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "Filter by name")
	cmd.Flags().StringVarP(&category, "category", "c", "", "Filter by category")
	return cmd
}

func (cli *commandLine) associationsPublicCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "public",
		Short:       "List the associations shown to donors",
		Annotations: map[string]string{screenKey: "/associations"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := cli.mountAssociations(cmd.Context(), cli.assocSvc.ListPublic)
			defer v.Dispose()
			if err != nil {
				return cli.failView(err)
			}
			return cli.renderAssociations(v.Items())
		},
	}
}

func (cli *commandLine) associationsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "get ID",
		Short:       "Show an association",
		Annotations: map[string]string{screenKey: "/associations"},
		Args:        cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args)
			if err != nil {
				return err
			}
			assoc, err := cli.assocSvc.Get(cmd.Context(), id)
			if err != nil {
				return cli.fail(err)
			}
			return cli.renderAssociation(assoc)
		},
	}
}

func (cli *commandLine) associationsProfileCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "profile",
		Short:       "Show the signed-in association",
		Annotations: map[string]string{screenKey: "/association/profile"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			assoc := cli.assocSvc.Profile(cmd.Context())
			if assoc == nil {
				cli.notifier.Notify(core.NoticeWarning, "No association is signed in.")
				return errFailed
			}
			return cli.renderAssociation(*assoc)
		},
	}
}

func (cli *commandLine) associationsCreateCmd() *cobra.Command {
	var (
		na       association.NewAssociation
		category string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register an association (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			na.Category = association.Category(category)
			if c, err := association.ParseCategory(category); err == nil {
				na.Category = c
			}
			var err error
			if na.Password, err = cli.readPassword("Password: "); err != nil {
				return err
			}

			v, err := cli.mountAssociations(cmd.Context(), cli.adminAssociations(association.QueryFilter{}))
			defer v.Dispose()
			if err != nil {
				return cli.failView(err)
			}
			created, err := v.Create(cmd.Context(), func(ctx context.Context) (association.Association, error) {
				return cli.assocSvc.Create(ctx, na)
			})
			if err != nil {
				return cli.failView(err)
			}
			cli.notifier.Notify(core.NoticeSuccess, "Association "+created.Name+" created.")
			return cli.renderAssociations(v.Items())
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&na.Name, "name", "n", "", "Name")
	flags.StringVarP(&na.Email, "email", "e", "", "Email")
	flags.StringVar(&na.Phone, "phone", "", "Phone number")
	flags.StringVar(&na.Address, "address", "", "Address")
	flags.StringVarP(&category, "category", "c", "", "Food, Clothes, Healthcare, Education or Home supplies")
	flags.StringVar(&na.Description, "description", "", "Description")
	flags.StringVar(&na.Logo, "logo", "", "Logo URL")
	flags.StringVar(&na.FoundationDate, "founded", "", "Foundation date (YYYY-MM-DD)")
	return cmd
}

func (cli *commandLine) associationsUpdateCmd() *cobra.Command {
	var (
		vals        = make(map[string]*string)
		setPassword bool
	)
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Update an association (admin); only the given flags are changed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			changed := func(name string) null.String {
				if flags.Changed(name) {
					return null.StringFrom(*vals[name])
				}
				return null.String{}
			}
			ua := association.UpdateAssociation{
				Name:           changed("name"),
				Email:          changed("email"),
				Phone:          changed("phone"),
				Address:        changed("address"),
				Category:       changed("category"),
				Description:    changed("description"),
				Logo:           changed("logo"),
				FoundationDate: changed("founded"),
			}
			if setPassword {
				pwd, err := cli.readPassword("New password: ")
				if err != nil {
					return err
				}
				ua.Password = null.StringFrom(pwd)
			}
			if ua.IsEmpty() {
				_ = cmd.Usage()
				return errHelp
			}

			v, err := cli.mountAssociations(cmd.Context(), cli.adminAssociations(association.QueryFilter{}))
			defer v.Dispose()
			if err != nil {
				return cli.failView(err)
			}
			updated, err := v.Update(cmd.Context(), func(ctx context.Context) (association.Association, error) {
				return cli.assocSvc.Update(ctx, id, ua)
			})
			if err != nil {
				return cli.failView(err)
			}
			cli.notifier.Notify(core.NoticeSuccess, "Association "+updated.Name+" updated.")
			return cli.renderAssociations(v.Items())
		},
	}
	flags := cmd.Flags()
	for _, f := range []struct{ name, short, usage string }{
		{"name", "n", "Name"},
		{"email", "e", "Email"},
		{"phone", "", "Phone number (empty clears it)"},
		{"address", "", "Address (empty clears it)"},
		{"category", "c", "Food, Clothes, Healthcare, Education or Home supplies"},
		{"description", "", "Description (empty clears it)"},
		{"logo", "", "Logo URL (empty clears it)"},
		{"founded", "", "Foundation date (YYYY-MM-DD, empty clears it)"},
	} {
		vals[f.name] = flags.StringP(f.name, f.short, "", f.usage)
	}
	flags.BoolVar(&setPassword, "password", false, "Prompt for a new password")
	return cmd
}

func (cli *commandLine) associationsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete an association (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args)
			if err != nil {
				return err
			}
			v, err := cli.mountAssociations(cmd.Context(), cli.adminAssociations(association.QueryFilter{}))
			defer v.Dispose()
			if err != nil {
				return cli.failView(err)
			}
			if err := v.Remove(cmd.Context(), id, func(ctx context.Context) error {
				return cli.assocSvc.Delete(ctx, id)
			}); err != nil {
				return cli.failView(err)
			}
			cli.notifier.Notify(core.NoticeSuccess, "Association #"+strconv.Itoa(id)+" deleted.")
			return cli.renderAssociations(v.Items())
		},
	}
}

func (cli *commandLine) renderAssociations(assocs []association.Association) error {
	data := pterm.TableData{{"ID", "NAME", "CATEGORY", "EMAIL", "PHONE", "FOUNDED"}}
	for _, a := range assocs {
		data = append(data, []string{
			strconv.Itoa(a.ID), a.Name, string(a.Category), a.Email, orDash(a.Phone), founded(a),
		})
	}
	return cli.render(assocs, data)
}

func (cli *commandLine) renderAssociation(a association.Association) error {
	return cli.renderDetails(a, [][2]string{
		{"ID", strconv.Itoa(a.ID)},
		{"Name", a.Name},
		{"Category", string(a.Category)},
		{"Email", a.Email},
		{"Phone", orDash(a.Phone)},
		{"Address", orDash(a.Address)},
		{"Description", orDash(a.Description)},
		{"Logo", orDash(a.Logo)},
		{"Founded", founded(a)},
	})
}

func founded(a association.Association) string {
	if t, ok := a.Founded(); ok {
		return formatDate(t)
	}
	return "-"
}
