package config

// Config represents the complete assessment run configuration. It is loaded
// once at startup and passed explicitly to the components that need it.
type Config struct {
	Output OutputConfig `json:"output"`
	Agent  AgentConfig  `json:"agent"`
	Azure  AzureConfig  `json:"azure"`
}

// OutputConfig controls where and how the report is written.
type OutputConfig struct {
	Dir       string `json:"dir"`       // Base directory for timestamped run directories
	Delimiter string `json:"delimiter"` // CSV field delimiter, a single character
}

// AgentConfig holds operational settings of the tool itself.
type AgentConfig struct {
	LogLevel string `json:"logLevel"` // Logging level: debug, info, warning, error
}

// AzureConfig holds Azure-specific settings. All fields are optional: with
// nothing set the tool audits every subscription the ambient credential sees.
type AzureConfig struct {
	TenantID         string                  `json:"tenantId,omitempty"`         // Azure AD tenant, needed only for service principal auth
	Subscriptions    []string                `json:"subscriptions,omitempty"`    // Restrict the run to these subscription IDs
	ServicePrincipal *ServicePrincipalConfig `json:"servicePrincipal,omitempty"` // Optional service principal authentication
}

// ServicePrincipalConfig holds Azure service principal authentication
// configuration. When provided, service principal authentication is used
// instead of Azure CLI.
type ServicePrincipalConfig struct {
	TenantID     string `json:"tenantId"`     // Azure AD tenant ID
	ClientID     string `json:"clientId"`     // Azure AD application (client) ID
	ClientSecret string `json:"clientSecret"` // Azure AD application client secret
}

// IsSPConfigured returns true when a complete service principal is present.
func (c *Config) IsSPConfigured() bool {
	sp := c.Azure.ServicePrincipal
	return sp != nil && sp.TenantID != "" && sp.ClientID != "" && sp.ClientSecret != ""
}

// DelimiterRune returns the configured delimiter as a rune. Validate
// guarantees the string holds exactly one character.
func (c *Config) DelimiterRune() rune {
	for _, r := range c.Output.Delimiter {
		return r
	}
	return ';'
}
