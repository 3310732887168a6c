package tool

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// LoadCommandDefs reads custom tool definitions from *.yaml, *.yml and
// *.toml files in dir. A missing directory yields no definitions; files
// that fail to parse are logged and skipped.
func LoadCommandDefs(dir string, logger *slog.Logger) ([]CommandDef, error) {
	if dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Debug("custom tools directory does not exist, skipping", "dir", dir)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read custom tools dir: %w", err)
	}

	var defs []CommandDef
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".yaml" && ext != ".yml" && ext != ".toml" {
			continue
		}

		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("cannot read tool file", "path", path, "err", err)
			continue
		}

		var def CommandDef
		if ext == ".toml" {
			err = toml.Unmarshal(data, &def)
		} else {
			err = yaml.Unmarshal(data, &def)
		}
		if err != nil {
			logger.Warn("cannot parse tool file", "path", path, "err", err)
			continue
		}
		if def.Name == "" {
			def.Name = strings.TrimSuffix(name, filepath.Ext(name))
		}
		if err := def.validate(); err != nil {
			logger.Warn("invalid tool definition", "path", path, "err", err)
			continue
		}

		logger.Info("loaded custom tool", "name", def.Name, "path", path)
		defs = append(defs, def)
	}
	return defs, nil
}
