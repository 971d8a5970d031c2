package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nxtg-ai/forge/internal/config"
	"github.com/nxtg-ai/forge/internal/dispatch"
	"github.com/nxtg-ai/forge/internal/orchestrator"
	"github.com/nxtg-ai/forge/pkg/models"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Run a demo batch through the coordinator and print dispatch stats",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configWarn)
		if err != nil {
			return err
		}

		orch := orchestrator.New(cfg)
		for _, agent := range models.AllAgentTypes() {
			agent := agent
			orch.RegisterHandler(agent, dispatch.HandlerFunc(func(ctx context.Context, task *dispatch.DispatchedTask) (map[string]any, error) {
				time.Sleep(10 * time.Millisecond)
				return map[string]any{"agent": string(agent)}, nil
			}))
		}

		descriptions := []string{
			"design the service architecture",
			"implement the api endpoints",
			"build the cli entrypoint",
			"deploy the docker image",
			"test the release candidate",
		}
		tasks := make([]*models.Task, 0, len(descriptions))
		for _, desc := range descriptions {
			tasks = append(tasks, orch.CreateTask(desc, "feature", "medium", nil))
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()
		results := orch.RunBatch(ctx, tasks)
		for _, res := range results {
			if res.Err != nil {
				color.Red("task %s (%s): %v", res.TaskID, res.Agent, res.Err)
			}
		}

		stats := orch.Stats()
		bold := color.New(color.Bold)
		bold.Println("dispatch stats")
		fmt.Printf("  total:        %d\n", stats.Total)
		fmt.Printf("  completed:    %d\n", stats.Completed)
		fmt.Printf("  failed:       %d\n", stats.Failed)
		fmt.Printf("  cancelled:    %d\n", stats.Cancelled)
		fmt.Printf("  success rate: %.1f%%\n", stats.SuccessRate)
		fmt.Printf("  avg duration: %.3fs\n", stats.AvgDurationSeconds)
		return nil
	},
}
