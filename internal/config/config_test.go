package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opennetty/opennetty/internal/catalog"
	"github.com/opennetty/opennetty/internal/config"
	"github.com/opennetty/opennetty/internal/protocol"
)

const fixture = `
defaults:
  request_timeout: 2s
  max_attempts: 3
  session_open_timeout: 5s

gateways:
  - name: living-room-scs
    dialect: scs
    address: 192.0.2.10:20000
    open_password: aJhYiBHk8
    overrides:
      max_attempts: 5

endpoints:
  - name: kitchen-light
    dialect: scs
    scs_area: 1
    scs_point: 3
    device_brand: BTicino
    device_model: F429
    unit: 1
  - name: hallway-switch
    dialect: scs
    scs_area: 1
    scs_point: 4
    capabilities: [lighting_switch]
`

func writeFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "opennetty.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0o600))
	return path
}

func TestLoadDecodesGatewaysAndEndpoints(t *testing.T) {
	f, err := config.Load(writeFixture(t))
	require.NoError(t, err)

	require.Len(t, f.Gateways, 1)
	assert.Equal(t, "living-room-scs", f.Gateways[0].Name)
	assert.Equal(t, "192.0.2.10:20000", f.Gateways[0].Address)

	require.Len(t, f.Endpoints, 2)
	assert.Equal(t, "BTicino", f.Endpoints[0].DeviceBrand)
	assert.Equal(t, []catalog.Capability{catalog.CapabilityLightingSwitch}, f.Endpoints[1].ExplicitCapabilities)
}

func TestEffectiveDefaultsOverridesMaxAttemptsOnly(t *testing.T) {
	f, err := config.Load(writeFixture(t))
	require.NoError(t, err)

	merged, err := f.EffectiveDefaults(f.Gateways[0])
	require.NoError(t, err)

	assert.Equal(t, 5, merged.MaxAttempts)
	assert.Equal(t, 2*time.Second, merged.RequestTimeout)
	assert.Equal(t, 5*time.Second, merged.SessionOpenTimeout)
}

func TestEndpointConfigAddressBuildsSCSAddress(t *testing.T) {
	ec := config.EndpointConfig{Dialect: "scs", SCSArea: 1, SCSPoint: 3}
	addr, err := ec.Address()
	require.NoError(t, err)
	assert.Equal(t, protocol.Scs, addr.Dialect())
}

func TestParseDialectRejectsUnknownValue(t *testing.T) {
	_, err := config.ParseDialect("modbus")
	assert.ErrorIs(t, err, config.ErrUnknownDialect)
}
