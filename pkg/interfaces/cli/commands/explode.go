package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vsinha/recipeplan/pkg/application/services"
	"github.com/vsinha/recipeplan/pkg/domain/entities"
	"github.com/vsinha/recipeplan/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/recipeplan/pkg/infrastructure/scenario"
)

func newExplodeCommand() *cobra.Command {
	var (
		scenarioPath string
		typeName     string
		quantityStr  string
		dueStr       string
	)

	cmd := &cobra.Command{
		Use:   "explode",
		Short: "Explode demands into scheduled production steps",
		Long: `Explode runs the dependent-demand explosion for the demands in the
scenario file, or for a single demand given with --type/--qty/--due.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment(scenarioPath)
			if err != nil {
				return err
			}

			demands := env.demands
			if typeName != "" {
				demand, err := parseDemand(env.index, typeName, quantityStr, dueStr)
				if err != nil {
					return err
				}
				demands = []scenario.Demand{demand}
			}
			if len(demands) == 0 {
				return fmt.Errorf("no demands: scenario has none and --type was not given")
			}

			ctx := context.Background()
			for _, demand := range demands {
				order, err := entities.NewOrder("demand", demand.DueDate, "cli")
				if err != nil {
					return err
				}
				if err := env.planRepo.CreateOrder(order); err != nil {
					return err
				}
				item, _, err := env.service.Engine.ExplodeDemand(ctx, order, demand.ResourceTypeID, demand.Quantity, demand.DueDate)
				if err != nil {
					return err
				}
				if err := printTree(cmd, env, item, 0); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&scenarioPath, "scenario", "", "path to scenario YAML file")
	cmd.Flags().StringVar(&typeName, "type", "", "resource type to demand")
	cmd.Flags().StringVar(&quantityStr, "qty", "1", "demand quantity")
	cmd.Flags().StringVar(&dueStr, "due", "", "demand due date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("scenario")
	return cmd
}

type environment struct {
	recipeRepo    *memory.RecipeRepository
	inventoryRepo *memory.InventoryRepository
	planRepo      *memory.PlanRepository
	service       *services.PlanningService
	index         *scenario.Index
	demands       []scenario.Demand
}

func loadEnvironment(path string) (*environment, error) {
	s, err := scenario.Load(path)
	if err != nil {
		return nil, err
	}

	recipeRepo := memory.NewRecipeRepository()
	inventoryRepo := memory.NewInventoryRepository()
	planRepo := memory.NewPlanRepository()
	index, demands, err := s.Populate(recipeRepo, inventoryRepo)
	if err != nil {
		return nil, err
	}

	return &environment{
		recipeRepo:    recipeRepo,
		inventoryRepo: inventoryRepo,
		planRepo:      planRepo,
		service:       services.NewPlanningService(recipeRepo, inventoryRepo, planRepo, inventoryRepo, logrus.StandardLogger()),
		index:         index,
		demands:       demands,
	}, nil
}

func parseDemand(index *scenario.Index, typeName, quantityStr, dueStr string) (scenario.Demand, error) {
	resourceTypeID, exists := index.ResourceTypes[typeName]
	if !exists {
		return scenario.Demand{}, fmt.Errorf("unknown resource type %q", typeName)
	}
	quantity, err := decimal.NewFromString(quantityStr)
	if err != nil {
		return scenario.Demand{}, fmt.Errorf("invalid quantity %q: %w", quantityStr, err)
	}
	if dueStr == "" {
		return scenario.Demand{}, fmt.Errorf("--due is required with --type")
	}
	due, err := time.Parse("2006-01-02", dueStr)
	if err != nil {
		return scenario.Demand{}, fmt.Errorf("invalid due date %q: %w", dueStr, err)
	}
	return scenario.Demand{ResourceTypeID: resourceTypeID, Quantity: quantity, DueDate: entities.Day(due)}, nil
}
