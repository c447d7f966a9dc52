// Package config locates, parses, and scaffolds the fileguard YAML
// configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the configuration file consulted when no usable path is
// given on the command line.
const DefaultPath = "fileguard.yaml"

var (
	// ErrMissing reports that no configuration file could be read.
	ErrMissing = errors.New("config: no usable configuration")
	// ErrParse reports a configuration file that does not parse or is
	// missing a required key.
	ErrParse = errors.New("config: malformed configuration")
)

// Config is the raw parsed configuration record. Validation beyond shape
// (vocabulary membership, inode access, action grammar) belongs to the rule
// package.
type Config struct {
	Inode  string `yaml:"inode"`
	Event  string `yaml:"event"`
	Action string `yaml:"action"`
}

// Resolve picks the configuration path from positional arguments. An
// argument is honored only when its extension looks like YAML; otherwise the
// default path is used.
func Resolve(args []string) string {
	for _, arg := range args {
		switch strings.ToLower(filepath.Ext(arg)) {
		case ".yaml", ".yml":
			return arg
		}
	}
	return DefaultPath
}

// Load reads and parses the configuration at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, fmt.Errorf("%w: %q", ErrMissing, path)
		}
		return Config{}, fmt.Errorf("%w: %q: %v", ErrMissing, path, err)
	}

	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %q: %v", ErrParse, path, err)
	}

	for key, value := range map[string]string{
		"inode":  cfg.Inode,
		"event":  cfg.Event,
		"action": cfg.Action,
	} {
		if strings.TrimSpace(value) == "" {
			return Config{}, fmt.Errorf("%w: %q: missing key %q", ErrParse, path, key)
		}
	}
	return cfg, nil
}

const scaffoldTemplate = `# fileguard configuration
#
# inode:  file or directory to watch
# event:  one of the canonical inotify event names, e.g. IN_MODIFY
# action: "execute <command>" or "log <file>"
inode: /tmp/watched
event: IN_MODIFY
action: log /tmp/fileguard.log
`

// Scaffold writes a commented default configuration at path. It refuses to
// overwrite an existing file.
func Scaffold(path string) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("config: scaffold %q: %w", path, err)
	}
	defer file.Close()

	if _, err := file.WriteString(scaffoldTemplate); err != nil {
		return fmt.Errorf("config: scaffold %q: %w", path, err)
	}
	return nil
}
