package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harborlight/rota/pkg/core/services"
)

// ImportAvailabilityCmd creates the importAvailability command
func ImportAvailabilityCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "importAvailability <file>",
		Short: "Import volunteer availability responses from a YAML file",
		Long:  "Import availability responses for the latest rota. Each entry names a volunteer, whether they responded, and the shift dates they are unavailable for.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			app.Logger.Debug("importAvailability command", zap.String("path", path))

			result, err := services.ImportAvailability(app.Ctx, app.Database, app.Logger, path)
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Availability imported!\n\n")
			fmt.Printf("Rota ID:   %s\n", result.RotaID)
			fmt.Printf("Imported:  %d responses (%d responded)\n\n", result.ImportedCount, result.RespondedCount)

			return nil
		},
	}
}
