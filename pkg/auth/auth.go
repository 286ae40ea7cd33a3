package auth

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"

	"github.com/flucianomsft/aks-assessment/pkg/config"
)

// AuthProvider is a simple factory for Azure credentials
type AuthProvider struct{}

// NewAuthProvider creates a new authentication provider
func NewAuthProvider() *AuthProvider {
	return &AuthProvider{}
}

// UserCredential returns credential based on config (service principal or CLI fallback)
func (a *AuthProvider) UserCredential(cfg *config.Config) (azcore.TokenCredential, error) {
	if cfg.IsSPConfigured() {
		return a.serviceCredential(cfg)
	}
	return a.cliCredential()
}

// serviceCredential creates service principal credential from config
func (a *AuthProvider) serviceCredential(cfg *config.Config) (azcore.TokenCredential, error) {
	cred, err := azidentity.NewClientSecretCredential(
		cfg.Azure.ServicePrincipal.TenantID,
		cfg.Azure.ServicePrincipal.ClientID,
		cfg.Azure.ServicePrincipal.ClientSecret,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create service principal credential: %w", err)
	}
	return cred, nil
}

// cliCredential creates Azure CLI credential
func (a *AuthProvider) cliCredential() (azcore.TokenCredential, error) {
	cred, err := azidentity.NewAzureCLICredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create CLI credential: %w", err)
	}
	return cred, nil
}

// CheckCLIAuthStatus checks if user is logged in to Azure CLI and if the token is valid
func (a *AuthProvider) CheckCLIAuthStatus(ctx context.Context) error {
	// Try to get account information - this will fail if not logged in or token expired
	cmd := exec.CommandContext(ctx, "az", "account", "show", "--output", "json")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("azure CLI authentication check failed: %w", err)
	}

	// Try to get an access token to verify it's not expired
	cmd = exec.CommandContext(ctx, "az", "account", "get-access-token", "--output", "json")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("azure CLI token validation failed: %w", err)
	}

	return nil
}
