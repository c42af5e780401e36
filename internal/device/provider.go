// Package device defines the boundary to the OS-specific collaborator that
// supplies machine-identifying secrets. Reading the registry or other
// configuration stores is out of scope; consumers only see this interface.
package device

import (
	"github.com/spf13/viper"

	"github.com/seanshin0214/kakaotalk-mcp/internal/types"
)

// InfoProvider supplies the device secret and the ordered list of network
// adapter identifiers harvested from the OS configuration store.
type InfoProvider interface {
	DeviceInfo() (types.DeviceSecret, error)
	NetworkKeyCandidates() ([]string, error)
}

// StaticProvider returns fixed values. It backs tests and direct CLI flags.
type StaticProvider struct {
	Secret types.DeviceSecret
	Keys   []string
}

func (p *StaticProvider) DeviceInfo() (types.DeviceSecret, error) {
	return p.Secret, nil
}

func (p *StaticProvider) NetworkKeyCandidates() ([]string, error) {
	return p.Keys, nil
}

// ConfigProvider sources device info from a viper configuration, letting
// deployments supply secrets through a config file or environment without
// code changes.
//
// Expected keys:
//
//	device.uuid
//	device.model
//	device.serial
//	device.network_keys (list of adapter identifiers)
type ConfigProvider struct {
	v *viper.Viper
}

// NewConfigProvider creates a provider over the given viper instance.
func NewConfigProvider(v *viper.Viper) *ConfigProvider {
	return &ConfigProvider{v: v}
}

func (p *ConfigProvider) DeviceInfo() (types.DeviceSecret, error) {
	return types.DeviceSecret{
		UUID:   p.v.GetString("device.uuid"),
		Model:  p.v.GetString("device.model"),
		Serial: p.v.GetString("device.serial"),
	}, nil
}

func (p *ConfigProvider) NetworkKeyCandidates() ([]string, error) {
	return p.v.GetStringSlice("device.network_keys"), nil
}
