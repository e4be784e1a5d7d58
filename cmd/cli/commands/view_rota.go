package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harborlight/rota/pkg/core/services"
)

// ViewRotaCmd creates the viewRota command
func ViewRotaCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "viewRota [rota_id]",
		Short: "View a stored rota (defaults to the latest allocated rota)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var rotaID string
			if len(args) > 0 {
				rotaID = args[0]
			}

			app.Logger.Debug("viewRota command", zap.String("rota_id", rotaID))

			result, err := services.ViewRota(app.Ctx, app.Database, app.Logger, rotaID)
			if err != nil {
				return err
			}

			fmt.Printf("\n📅 Rota %s (starts %s, %d shifts)\n\n",
				result.Rotation.ID, result.Rotation.Start, result.Rotation.ShiftCount)

			for _, shift := range result.Shifts {
				teamLead := shift.TeamLead
				if teamLead == "" {
					teamLead = "-"
				}

				entries := append([]string{}, shift.Volunteers...)
				for _, custom := range shift.CustomEntries {
					entries = append(entries, fmt.Sprintf("[%s]", custom))
				}
				volunteersStr := "-"
				if len(entries) > 0 {
					volunteersStr = strings.Join(entries, ", ")
				}

				fmt.Printf("  %s  lead: %-20s  %s\n", shift.Date, teamLead, volunteersStr)
			}
			fmt.Println()

			return nil
		},
	}
}
