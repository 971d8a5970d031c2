package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nxtg-ai/forge/internal/config"
	"github.com/nxtg-ai/forge/internal/router"
	"github.com/nxtg-ai/forge/pkg/models"
)

var routeTaskType string

var routeCmd = &cobra.Command{
	Use:   "route <description>",
	Short: "Show which capability pool a task would be routed to",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configWarn)
		if err != nil {
			return err
		}

		r := router.New(cfg.AgentTable(configWarn))
		agent := r.Assign(&models.Task{
			Description: strings.Join(args, " "),
			Type:        routeTaskType,
			Priority:    "medium",
		})
		info := r.Agents()[agent]

		fmt.Printf("%s %s (%s)\n", color.GreenString("→"), color.New(color.Bold).Sprint(info.Name), agent)
		if len(info.Expertise) > 0 {
			fmt.Printf("  expertise: %s\n", strings.Join(info.Expertise, ", "))
		}
		if info.SkillFile != "" {
			fmt.Printf("  context:   %s\n", info.SkillFile)
		}
		return nil
	},
}

func init() {
	routeCmd.Flags().StringVar(&routeTaskType, "type", "feature", "Task type used for fallback routing")
}
