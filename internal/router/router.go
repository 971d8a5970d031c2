// Package router provides deterministic routing of tasks to capability pools.
package router

import (
	"strings"

	"github.com/nxtg-ai/forge/pkg/models"
)

// rule is one keyword-match routing rule. Rules are evaluated in order;
// the first rule with any keyword present in the description wins.
type rule struct {
	keywords []string
	agent    models.AgentType
}

// rules is the ordered routing policy. Order matters: earlier rules
// shadow later ones when descriptions match several.
var rules = []rule{
	{[]string{"architect", "design", "pattern", "structure"}, models.AgentLeadArchitect},
	{[]string{"api", "endpoint", "database", "backend", "repository"}, models.AgentBackendMaster},
	{[]string{"cli", "command", "terminal"}, models.AgentCLIArtisan},
	{[]string{"deploy", "docker", "kubernetes", "cicd", "infrastructure"}, models.AgentPlatformBuilder},
	{[]string{"integration", "webhook", "mcp", "external"}, models.AgentIntegrationSpecialist},
	{[]string{"test", "qa", "quality", "review"}, models.AgentQASentinel},
}

// Router maps task content to a capability pool. Routing is pure and
// deterministic: the same input always yields the same pool.
type Router struct {
	// agents is the capability pool table.
	agents map[models.AgentType]models.AgentInfo
	// warnLog is an optional diagnostic logging function.
	warnLog func(format string, args ...interface{})
}

// New creates a Router over the given capability pool table.
// A nil or empty table falls back to the built-in pools.
func New(agents map[models.AgentType]models.AgentInfo) *Router {
	if len(agents) == 0 {
		agents = models.DefaultAgents()
	}
	return &Router{
		agents:  agents,
		warnLog: func(format string, args ...interface{}) {}, // no-op by default
	}
}

// SetWarnLog sets the diagnostic logging function.
func (r *Router) SetWarnLog(fn func(format string, args ...interface{})) {
	if fn != nil {
		r.warnLog = fn
	}
}

// Assign picks the capability pool for a task. Keyword rules over the
// lowercased description are tried first, then the task type, then the
// lead-architect default with a diagnostic.
func (r *Router) Assign(task *models.Task) models.AgentType {
	description := strings.ToLower(task.Description)

	for _, rl := range rules {
		for _, keyword := range rl.keywords {
			if strings.Contains(description, keyword) {
				return rl.agent
			}
		}
	}

	switch strings.ToLower(task.Type) {
	case "feature":
		return models.AgentBackendMaster
	case "bugfix", "refactor":
		return models.AgentQASentinel
	}

	r.warnLog("[router] could not determine agent for task %q, using %s",
		task.Description, models.AgentLeadArchitect)
	return models.AgentLeadArchitect
}

// Recommend suggests a pool for free-form context by routing a throwaway
// query task through the normal policy.
func (r *Router) Recommend(context string) models.AgentType {
	return r.Assign(&models.Task{
		ID:          "temp",
		Description: context,
		Type:        "query",
		Priority:    "medium",
	})
}

// SkillContext returns the context-resource locator for a pool, or empty
// if the pool is not in the table.
func (r *Router) SkillContext(agent models.AgentType) string {
	info, ok := r.agents[agent]
	if !ok {
		return ""
	}
	return info.SkillFile
}

// Agents returns the capability pool table the router was built with.
func (r *Router) Agents() map[models.AgentType]models.AgentInfo {
	return r.agents
}
