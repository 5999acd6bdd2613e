package config

import (
	"encoding/json"
	"os"

	"github.com/matzehuels/mftypes/pkg/errors"
)

// FederationConfig is the module federation setup of the host build, as
// written by the bundler integration:
//
//	{"name": "shop", "exposes": {"./Button": "./src/Button"}, "remotes": {...}}
type FederationConfig struct {
	Name    string            `json:"name"`
	Exposes map[string]string `json:"exposes"`
	Remotes map[string]string `json:"remotes"`
}

// ReadFederation loads a FederationConfig from a JSON file.
func ReadFederation(path string) (*FederationConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeConfigMissing, err, "federation config %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeFileSystem, err, "read %s", path)
	}
	var fc FederationConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeSerialization, err, "parse %s", path)
	}
	return &fc, nil
}

// ApplyFederation fills app_name, exposes and remotes from fc where the
// configuration leaves them unset. Explicit settings always win.
func (c *Config) ApplyFederation(fc *FederationConfig) {
	if fc == nil {
		return
	}
	if c.AppName == "" {
		c.AppName = fc.Name
	}
	if len(c.Exposes) == 0 && len(fc.Exposes) > 0 {
		c.Exposes = fc.Exposes
	}
	if len(c.Remotes) == 0 && len(fc.Remotes) > 0 {
		c.Remotes = fc.Remotes
	}
}
