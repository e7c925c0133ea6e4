package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const minimalConfig = `
service_name = "portfoliorisk"

[portfolio]
stocks = ["AAPL", "MSFT"]
weights = [0.5, 0.5]

[dates]
start = "2021-01-01"
end = "2023-12-31"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	require.Equal(t, "monte_carlo", cfg.Simulation.Type)
	require.Equal(t, 1000, cfg.Simulation.NSimulations)
	require.Equal(t, 252, cfg.Simulation.DaysAhead)
	require.Equal(t, uint64(42), cfg.Simulation.Seed)
	require.Equal(t, 0.95, cfg.Simulation.ConfidenceLevel)
	require.Equal(t, 0.1, cfg.Simulation.JumpLambda)
	require.Equal(t, -0.05, cfg.Simulation.JumpMu)
	require.Equal(t, 0.1, cfg.Simulation.JumpSigma)
	require.Equal(t, "2006-01-02", cfg.Dates.Format)
	require.Equal(t, 8087, cfg.HTTP.Port)
	require.False(t, cfg.Kafka.Enabled)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig+`
[simulation]
type = "jump_diffusion"
n_simulations = 500
seed = 7

[[stress]]
name = "COVID-19 Crash"
start = "2020-02-14"
end = "2020-04-15"
`))
	require.NoError(t, err)

	require.Equal(t, "jump_diffusion", cfg.Simulation.Type)
	require.Equal(t, 500, cfg.Simulation.NSimulations)
	require.Equal(t, uint64(7), cfg.Simulation.Seed)
	require.Len(t, cfg.Stress, 1)
	require.Equal(t, "COVID-19 Crash", cfg.Stress[0].Name)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing service name", `
[portfolio]
stocks = ["AAPL"]
weights = [1.0]
[dates]
start = "2021-01-01"
end = "2023-12-31"
`},
		{"empty stocks", `
service_name = "x"
[portfolio]
stocks = []
weights = []
[dates]
start = "2021-01-01"
end = "2023-12-31"
`},
		{"weight cardinality", `
service_name = "x"
[portfolio]
stocks = ["AAPL", "MSFT"]
weights = [1.0]
[dates]
start = "2021-01-01"
end = "2023-12-31"
`},
		{"bad date", `
service_name = "x"
[portfolio]
stocks = ["AAPL"]
weights = [1.0]
[dates]
start = "01/01/2021"
end = "2023-12-31"
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
		})
	}
}
