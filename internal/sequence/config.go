package sequence

import (
	"fmt"
	"io"

	"github.com/LiangrunDa/seqfield/errors"
	"gopkg.in/yaml.v3"
)

// CellOrderingMethod selects how the compose queue orders two runs of empty
// cells that both changesets refer to.
type CellOrderingMethod uint8

const (
	// Tombstone assumes each changeset carries a mark for every cell of the
	// revisions it knows about.
	Tombstone CellOrderingMethod = iota
	// Lineage orders cells using their lineage events and revision order.
	Lineage
)

func (m CellOrderingMethod) String() string {
	switch m {
	case Tombstone:
		return "tombstone"
	case Lineage:
		return "lineage"
	}
	return fmt.Sprintf("CellOrderingMethod(%d)", uint8(m))
}

func (m CellOrderingMethod) MarshalText() ([]byte, error) {
	switch m {
	case Tombstone, Lineage:
		return []byte(m.String()), nil
	}
	return nil, errors.InvalidConfigError{Reason: "unknown cell ordering " + m.String()}
}

func (m *CellOrderingMethod) UnmarshalText(text []byte) error {
	switch string(text) {
	case "tombstone":
		*m = Tombstone
	case "lineage":
		*m = Lineage
	default:
		return errors.InvalidConfigError{Reason: fmt.Sprintf("unknown cell ordering %q", text)}
	}
	return nil
}

type Config struct {
	CellOrdering CellOrderingMethod `yaml:"cellOrdering"`
}

func DefaultConfig() Config {
	return Config{CellOrdering: Tombstone}
}

// LoadConfig reads a YAML document. Fields it does not set keep their
// default values.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, fmt.Errorf("load sequence config: %w", err)
	}
	return cfg, nil
}
