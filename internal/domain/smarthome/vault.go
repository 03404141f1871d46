// Package smarthome reaches third-party lighting and thermostat bridges on
// behalf of an account, using tokens kept in an external vault.
package smarthome

import (
	"context"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/hashicorp/vault/api"

	platformerrors "sleepvoice-server-go/internal/platform/errors"
	"sleepvoice-server-go/internal/util/optional"
)

// Service names a paired integration.
type Service string

const (
	ServiceLights     Service = "lights"
	ServiceThermostat Service = "thermostat"
)

// Token is the credential for one paired bridge.
type Token struct {
	AccessToken string `json:"access_token"`
	BridgeID    string `json:"bridge_id"`
}

// TokenVault looks up an account's pairing for a service. An absent token
// means the account never paired that service.
type TokenVault interface {
	GetExternalToken(ctx context.Context, accountID string, service Service) (optional.Value[Token], error)
}

const (
	VaultMemory = "memory"
	VaultHashi  = "vault"
)

// VaultConfig selects and configures a TokenVault driver.
type VaultConfig struct {
	Type    string
	Address string
	Token   string
	Mount   string
	Prefix  string
}

// NewTokenVault builds the configured driver.
func NewTokenVault(cfg VaultConfig) (TokenVault, error) {
	switch strings.ToLower(cfg.Type) {
	case "", VaultMemory:
		return NewMemoryVault(), nil
	case VaultHashi:
		return NewHashiVault(cfg)
	default:
		return nil, platformerrors.New(platformerrors.KindConfig, "smarthome.NewTokenVault", fmt.Sprintf("unsupported vault type %q", cfg.Type))
	}
}

// MemoryVault keeps tokens in process. Used for development and tests.
type MemoryVault struct {
	mu     sync.RWMutex
	tokens map[string]Token
}

func NewMemoryVault() *MemoryVault {
	return &MemoryVault{tokens: make(map[string]Token)}
}

func memoryKey(accountID string, service Service) string {
	return accountID + "/" + string(service)
}

// Put pairs a service for an account.
func (v *MemoryVault) Put(accountID string, service Service, token Token) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.tokens[memoryKey(accountID, service)] = token
}

func (v *MemoryVault) GetExternalToken(ctx context.Context, accountID string, service Service) (optional.Value[Token], error) {
	if err := ctx.Err(); err != nil {
		return optional.None[Token](), err
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	t, ok := v.tokens[memoryKey(accountID, service)]
	if !ok {
		return optional.None[Token](), nil
	}
	return optional.Some(t), nil
}

// HashiVault reads tokens from a KV v2 secrets engine at
// <mount>/data/<prefix>/<account>/<service>.
type HashiVault struct {
	client *api.Client
	mount  string
	prefix string
}

func NewHashiVault(cfg VaultConfig) (*HashiVault, error) {
	conf := api.DefaultConfig()
	if cfg.Address != "" {
		conf.Address = cfg.Address
	}
	client, err := api.NewClient(conf)
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindConfig, "smarthome.NewHashiVault", "create vault client", err)
	}
	if cfg.Token != "" {
		client.SetToken(cfg.Token)
	}
	mount := cfg.Mount
	if mount == "" {
		mount = "secret"
	}
	return &HashiVault{client: client, mount: mount, prefix: cfg.Prefix}, nil
}

func (v *HashiVault) secretPath(accountID string, service Service) string {
	return path.Join(v.mount, "data", v.prefix, accountID, string(service))
}

func (v *HashiVault) GetExternalToken(ctx context.Context, accountID string, service Service) (optional.Value[Token], error) {
	secret, err := v.client.Logical().ReadWithContext(ctx, v.secretPath(accountID, service))
	if err != nil {
		return optional.None[Token](), platformerrors.Wrap(platformerrors.KindUpstream, "smarthome.GetExternalToken", "read vault secret", err)
	}
	if secret == nil || secret.Data == nil {
		return optional.None[Token](), nil
	}
	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		// soft-deleted versions come back with a null data block
		return optional.None[Token](), nil
	}
	access, _ := data["access_token"].(string)
	if access == "" {
		return optional.None[Token](), nil
	}
	bridge, _ := data["bridge_id"].(string)
	return optional.Some(Token{AccessToken: access, BridgeID: bridge}), nil
}
