package main

import (
	"context"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/givehub/console/core/association"
	"github.com/givehub/console/core/auth"
	"github.com/givehub/console/core/user"
	"github.com/givehub/console/core/view"
)

type (
	countStat struct {
		Label string `json:"label"`
		Count int    `json:"count"`
	}

	dashboardStats struct {
		TotalUsers        int         `json:"totalUsers"`
		TotalAssociations int         `json:"totalAssociations"`
		Users             []countStat `json:"users"`
		Associations      []countStat `json:"associations"`
	}
)

func (cli *commandLine) dashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "dashboard",
		Short:       "Show platform statistics (admin)",
		Annotations: map[string]string{screenKey: "/admin"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// failures are reported once below, not per screen
			users := view.NewListView[user.User]("users", nil, cli.logger)
			assocs := view.NewListView[association.Association]("associations", nil, cli.logger)
			defer users.Dispose()
			defer assocs.Dispose()

			var g errgroup.Group
			g.Go(func() error {
				return users.Mount(cmd.Context(), func(ctx context.Context) ([]user.User, error) {
					return cli.usrSvc.List(ctx, user.QueryFilter{})
				})
			})
			g.Go(func() error {
				return assocs.Mount(cmd.Context(), func(ctx context.Context) ([]association.Association, error) {
					return cli.assocSvc.List(ctx, association.QueryFilter{})
				})
			})
			if err := g.Wait(); err != nil {
				return cli.fail(err)
			}

			stats := computeStats(users.Items(), assocs.Items())
			if cli.output == outputJSON {
				return cli.renderJSON(stats)
			}
			return cli.renderStats(stats)
		},
	}
}

func computeStats(users []user.User, assocs []association.Association) dashboardStats {
	stats := dashboardStats{TotalUsers: len(users), TotalAssociations: len(assocs)}
	for _, role := range auth.Roles {
		n := 0
		for _, usr := range users {
			if usr.UserType == role {
				n++
			}
		}
		stats.Users = append(stats.Users, countStat{Label: role.Label(), Count: n})
	}
	for _, cat := range association.Categories {
		n := 0
		for _, a := range assocs {
			if a.Category == cat {
				n++
			}
		}
		stats.Associations = append(stats.Associations, countStat{Label: string(cat), Count: n})
	}
	return stats
}

func (cli *commandLine) renderStats(stats dashboardStats) error {
	section := pterm.DefaultSection.WithWriter(cli.out)
	table := func(title string, total int, counts []countStat) error {
		section.Println(title + " (" + strconv.Itoa(total) + ")")
		data := pterm.TableData{{"", "COUNT"}}
		for _, c := range counts {
			data = append(data, []string{c.Label, strconv.Itoa(c.Count)})
		}
		return pterm.DefaultTable.WithHasHeader().WithWriter(cli.out).WithData(data).Render()
	}
	if err := table("Users", stats.TotalUsers, stats.Users); err != nil {
		return err
	}
	return table("Associations", stats.TotalAssociations, stats.Associations)
}
