package sequence

import (
	"strings"
	"testing"

	"github.com/LiangrunDa/seqfield/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Config
	}{
		{"empty document", "", DefaultConfig()},
		{"tombstone", "cellOrdering: tombstone\n", Config{CellOrdering: Tombstone}},
		{"lineage", "cellOrdering: lineage\n", Config{CellOrdering: Lineage}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfig(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, cfg)
		})
	}
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(strings.NewReader("cellOrdering: sideways\n"))
	assert.ErrorContains(t, err, "unknown cell ordering")

	_, err = LoadConfig(strings.NewReader("ordering: lineage\n"))
	assert.Error(t, err)
}

func TestConfigMarshal(t *testing.T) {
	out, err := yaml.Marshal(Config{CellOrdering: Lineage})
	require.NoError(t, err)
	assert.Equal(t, "cellOrdering: lineage\n", string(out))

	cfg, err := LoadConfig(strings.NewReader(string(out)))
	require.NoError(t, err)
	assert.Equal(t, Lineage, cfg.CellOrdering)

	_, err = CellOrderingMethod(9).MarshalText()
	var target errors.InvalidConfigError
	assert.ErrorAs(t, err, &target)
	assert.Equal(t, "CellOrderingMethod(9)", CellOrderingMethod(9).String())
}
