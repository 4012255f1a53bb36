package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/vsinha/recipeplan/pkg/domain/entities"
)

// printTree renders a commitment and the production chain supplying it.
func printTree(cmd *cobra.Command, env *environment, commitment *entities.Commitment, depth int) error {
	indent := strings.Repeat("  ", depth)
	name, err := typeName(env, commitment.ResourceTypeID)
	if err != nil {
		return err
	}
	cmd.Printf("%s%s %s due %s\n", indent, name, commitment.Quantity, commitment.DueDate.Format("2006-01-02"))

	producer, err := env.planRepo.ProducerOf(commitment.ID)
	if err != nil {
		return err
	}
	if producer == nil {
		return nil
	}
	return printProcess(cmd, env, producer, depth+1)
}

func printProcess(cmd *cobra.Command, env *environment, process *entities.Process, depth int) error {
	indent := strings.Repeat("  ", depth)
	cmd.Printf("%sprocess %q %s .. %s\n", indent, process.Name,
		process.StartDate.Format("2006-01-02"), process.EndDate.Format("2006-01-02"))

	inputs, err := env.planRepo.InputsOf(process.ID)
	if err != nil {
		return err
	}
	for _, input := range inputs {
		if err := printTree(cmd, env, input, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func typeName(env *environment, id entities.ResourceTypeID) (string, error) {
	rt, err := env.recipeRepo.GetResourceType(id)
	if err != nil {
		return "", err
	}
	return rt.Name, nil
}
