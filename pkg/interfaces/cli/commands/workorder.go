package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vsinha/recipeplan/pkg/domain/entities"
)

func newWorkOrderCommand() *cobra.Command {
	var (
		scenarioPath string
		typeName     string
		startStr     string
	)

	cmd := &cobra.Command{
		Use:   "workorder",
		Short: "Generate a staged work order scheduled forward from a start date",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment(scenarioPath)
			if err != nil {
				return err
			}

			resourceTypeID, exists := env.index.ResourceTypes[typeName]
			if !exists {
				return fmt.Errorf("unknown resource type %q", typeName)
			}
			start, err := time.Parse("2006-01-02", startStr)
			if err != nil {
				return fmt.Errorf("invalid start date %q: %w", startStr, err)
			}

			ctx := context.Background()
			order, err := env.service.GenerateStagedWorkOrder(ctx, resourceTypeID, start, "cli")
			if err != nil {
				return err
			}
			cmd.Printf("order %q due %s\n", order.Description, order.DueDate.Format("2006-01-02"))

			sequence, err := env.service.StagedSequence(ctx, resourceTypeID)
			if err != nil {
				return err
			}
			for _, line := range sequence {
				template, err := env.recipeRepo.GetProcessTemplate(line.TemplateID)
				if err != nil {
					return err
				}
				end, ok, err := env.planRepo.LatestEndForTemplate(template.ID)
				if err != nil {
					return err
				}
				if !ok {
					continue
				}
				startDay := entities.AddDays(end, -template.DurationDays())
				cmd.Printf("  stage %q %s .. %s\n", template.Name,
					startDay.Format("2006-01-02"), end.Format("2006-01-02"))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&scenarioPath, "scenario", "", "path to scenario YAML file")
	cmd.Flags().StringVar(&typeName, "type", "", "staged resource type")
	cmd.Flags().StringVar(&startStr, "start", "", "start date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("scenario")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("start")
	return cmd
}
