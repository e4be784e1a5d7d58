package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harborlight/rota/pkg/core/services"
)

// AllocateRotaCmd creates the allocateRota command
func AllocateRotaCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "allocateRota",
		Short: "Allocate the latest rota from availability responses",
		Long:  "Run the allocation algorithm to assign volunteers to the latest rota's shifts based on imported availability responses",
		RunE: func(cmd *cobra.Command, args []string) error {
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			forceCommit, _ := cmd.Flags().GetBool("force-commit")

			app.Logger.Debug("allocateRota command",
				zap.Bool("dry_run", dryRun),
				zap.Bool("force_commit", forceCommit))

			result, err := services.AllocateRota(app.Ctx, app.Database, app.Cfg, app.Logger, dryRun, forceCommit)
			if err != nil {
				return fmt.Errorf("allocation failed: %w", err)
			}

			fmt.Printf("\n🎯 Rota Allocation Results\n\n")
			fmt.Printf("Rota ID:     %s\n", result.RotaID)
			fmt.Printf("Start Date:  %s\n", result.RotaStart)
			fmt.Printf("Shift Count: %d\n", result.ShiftCount)
			if dryRun {
				fmt.Printf("Mode:        🧪 DRY RUN (not saved)\n")
			} else if result.Success {
				fmt.Printf("Status:      ✅ SUCCESS (saved to database)\n")
			} else if forceCommit {
				fmt.Printf("Status:      ⚠️  FORCED (saved despite validation errors)\n")
			} else {
				fmt.Printf("Status:      ❌ FAILED (not saved)\n")
			}
			fmt.Println()

			if len(result.ValidationErrors) > 0 {
				fmt.Printf("⚠️  Validation Errors (%d):\n", len(result.ValidationErrors))
				for _, verr := range result.ValidationErrors {
					fmt.Printf("  • Shift %d (%s) - %s: %s\n",
						verr.ShiftIndex+1,
						verr.ShiftDate,
						verr.CriterionName,
						verr.Description)
				}
				fmt.Println()
			}

			fmt.Printf("📅 Allocated Shifts:\n\n")
			for _, shift := range result.AllocatedShifts {
				if shift.Closed {
					fmt.Printf("  %s  (closed)\n", shift.Date)
					continue
				}

				teamLeadStr := "-"
				if shift.TeamLead != nil {
					teamLeadStr = fmt.Sprintf("%s %s", shift.TeamLead.FirstName, shift.TeamLead.LastName)
				}

				volunteers := []string{}
				for _, group := range shift.AllocatedGroups {
					for _, member := range group.Members {
						if shift.TeamLead != nil && member.ID == shift.TeamLead.ID {
							continue
						}
						volunteers = append(volunteers, fmt.Sprintf("%s %s", member.FirstName, member.LastName))
					}
				}
				for _, customEntry := range shift.CustomPreallocations {
					volunteers = append(volunteers, fmt.Sprintf("[%s]", customEntry))
				}

				volunteersStr := "-"
				if len(volunteers) > 0 {
					volunteersStr = strings.Join(volunteers, ", ")
				}

				fmt.Printf("  %s  lead: %-20s  %s  (%d/%d)\n",
					shift.Date, teamLeadStr, volunteersStr, shift.CurrentSize(), shift.Size)
			}
			fmt.Println()

			if len(result.UnderutilizedGroups) > 0 {
				fmt.Printf("ℹ️  Underutilized Groups (%d):\n", len(result.UnderutilizedGroups))
				fmt.Println("  (Groups with remaining availability that weren't fully allocated)")
				for _, group := range result.UnderutilizedGroups {
					fmt.Printf("  • %s: allocated %d/%d shifts\n",
						group.GroupKey,
						len(group.AllocatedShiftIndices),
						len(group.AvailableShiftIndices))
				}
				fmt.Println()
			}

			if dryRun {
				fmt.Println("💡 This was a dry run. Use without --dry-run to save allocations.")
			} else if result.Success {
				fmt.Println("✅ Allocations have been saved to the database.")
			} else if forceCommit {
				fmt.Println("⚠️  Allocations were saved despite validation errors (--force-commit).")
			} else {
				fmt.Println("❌ Allocations were not saved due to validation errors.")
				fmt.Println("💡 Use --force-commit to save anyway, or fix the issues and try again.")
			}

			return nil
		},
	}

	cmd.Flags().Bool("dry-run", false, "Run without saving to database")
	cmd.Flags().Bool("force-commit", false, "Save allocations even if validation fails")

	return cmd
}
