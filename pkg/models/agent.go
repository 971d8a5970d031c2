package models

// AgentType identifies a capability pool tasks can be routed to.
// The set is closed: routing is exhaustive over these six pools.
type AgentType string

const (
	// AgentLeadArchitect handles architecture and design work.
	AgentLeadArchitect AgentType = "lead-architect"
	// AgentBackendMaster handles API, database, and business-logic work.
	AgentBackendMaster AgentType = "backend-master"
	// AgentCLIArtisan handles command-line and terminal UX work.
	AgentCLIArtisan AgentType = "cli-artisan"
	// AgentPlatformBuilder handles infrastructure and deployment work.
	AgentPlatformBuilder AgentType = "platform-builder"
	// AgentIntegrationSpecialist handles external API and webhook work.
	AgentIntegrationSpecialist AgentType = "integration-specialist"
	// AgentQASentinel handles testing, quality, and review work.
	AgentQASentinel AgentType = "qa-sentinel"
)

// Valid returns true if the agent type is a known pool.
func (a AgentType) Valid() bool {
	switch a {
	case AgentLeadArchitect, AgentBackendMaster, AgentCLIArtisan,
		AgentPlatformBuilder, AgentIntegrationSpecialist, AgentQASentinel:
		return true
	default:
		return false
	}
}

// AllAgentTypes returns every known capability pool in a stable order.
func AllAgentTypes() []AgentType {
	return []AgentType{
		AgentLeadArchitect,
		AgentBackendMaster,
		AgentCLIArtisan,
		AgentPlatformBuilder,
		AgentIntegrationSpecialist,
		AgentQASentinel,
	}
}

// AgentInfo describes a capability pool.
type AgentInfo struct {
	// Name is the human-readable pool name.
	Name string `json:"name" yaml:"name"`
	// Expertise lists the declared capability tags.
	Expertise []string `json:"expertise" yaml:"expertise"`
	// SkillFile is the locator of the pool's context resource.
	SkillFile string `json:"skill_file" yaml:"skill_file"`
}

// DefaultAgents returns the built-in capability pool table. It is used
// when no external agent configuration is available.
func DefaultAgents() map[AgentType]AgentInfo {
	return map[AgentType]AgentInfo{
		AgentLeadArchitect: {
			Name:      "Lead Architect",
			Expertise: []string{"architecture", "design", "patterns"},
			SkillFile: ".forge/skills/agents/lead-architect.md",
		},
		AgentBackendMaster: {
			Name:      "Backend Master",
			Expertise: []string{"api", "database", "business-logic"},
			SkillFile: ".forge/skills/agents/backend-master.md",
		},
		AgentCLIArtisan: {
			Name:      "CLI Artisan",
			Expertise: []string{"cli", "commands", "ux"},
			SkillFile: ".forge/skills/agents/cli-artisan.md",
		},
		AgentPlatformBuilder: {
			Name:      "Platform Builder",
			Expertise: []string{"infrastructure", "deployment", "cicd"},
			SkillFile: ".forge/skills/agents/platform-builder.md",
		},
		AgentIntegrationSpecialist: {
			Name:      "Integration Specialist",
			Expertise: []string{"apis", "mcp", "webhooks"},
			SkillFile: ".forge/skills/agents/integration-specialist.md",
		},
		AgentQASentinel: {
			Name:      "QA Sentinel",
			Expertise: []string{"testing", "quality", "review"},
			SkillFile: ".forge/skills/agents/qa-sentinel.md",
		},
	}
}
