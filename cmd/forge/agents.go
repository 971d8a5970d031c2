package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nxtg-ai/forge/internal/config"
	"github.com/nxtg-ai/forge/pkg/models"
)

var agentsAsYAML bool

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List the configured capability pools",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configWarn)
		if err != nil {
			return err
		}
		table := cfg.AgentTable(configWarn)

		if agentsAsYAML {
			out := make(map[string]models.AgentInfo, len(table))
			for agent, info := range table {
				out[string(agent)] = info
			}
			return yaml.NewEncoder(os.Stdout).Encode(out)
		}

		agents := make([]string, 0, len(table))
		for agent := range table {
			agents = append(agents, string(agent))
		}
		sort.Strings(agents)

		for _, agent := range agents {
			info := table[models.AgentType(agent)]
			fmt.Printf("%s %s\n", color.New(color.Bold).Sprint(info.Name), color.HiBlackString("("+agent+")"))
			fmt.Printf("  %s\n", strings.Join(info.Expertise, ", "))
		}
		return nil
	},
}

func init() {
	agentsCmd.Flags().BoolVar(&agentsAsYAML, "yaml", false, "Emit the pool table as YAML")
}
