package am

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/teranos/pantry/errors"
	"github.com/teranos/pantry/logger"
)

// createBackup creates rotating backups (.back1, .back2, .back3) before modifying config
func createBackup(configPath string) error {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil // No file to backup
	}

	back3 := configPath + ".back3"
	back2 := configPath + ".back2"
	back1 := configPath + ".back1"

	if err := os.Remove(back3); err != nil && !os.IsNotExist(err) {
		logger.Warnw("Failed to delete old config backup", logger.FieldPath, back3, logger.FieldError, err)
	}

	if _, err := os.Stat(back2); err == nil {
		if err := os.Rename(back2, back3); err != nil {
			return errors.Wrap(err, "failed to rotate .back2 to .back3")
		}
	}

	if _, err := os.Stat(back1); err == nil {
		if err := os.Rename(back1, back2); err != nil {
			return errors.Wrap(err, "failed to rotate .back1 to .back2")
		}
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		return errors.Wrap(err, "failed to read config for backup")
	}
	if err := os.WriteFile(back1, content, DefaultFilePermissions); err != nil {
		return errors.Wrap(err, "failed to create .back1")
	}

	return nil
}

// coerceValue converts raw to the type of key's default. Unknown keys are rejected.
func coerceValue(key, raw string) (interface{}, error) {
	defaults := viper.New()
	SetDefaults(defaults)
	if !defaults.IsSet(key) {
		return nil, errors.WithHint(
			errors.NewInvalidRequestError("unknown config key %q", key),
			"run 'pantry am show' to list keys")
	}

	switch defaults.Get(key).(type) {
	case int:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, errors.NewInvalidRequestError("%s expects an integer, got %q", key, raw)
		}
		return n, nil
	case float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, errors.NewInvalidRequestError("%s expects a number, got %q", key, raw)
		}
		return f, nil
	case bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, errors.NewInvalidRequestError("%s expects true or false, got %q", key, raw)
		}
		return b, nil
	case []string:
		parts := strings.Split(raw, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts, nil
	default:
		return raw, nil
	}
}

// SetUserValue writes key = raw into the user config file, creating it if
// needed and keeping rotating backups. The resulting config must validate.
func SetUserValue(key, raw string) (string, error) {
	configPath := UserConfigPath()
	if configPath == "" {
		return "", errors.New("could not determine home directory")
	}

	value, err := coerceValue(key, raw)
	if err != nil {
		return "", err
	}

	config := map[string]interface{}{}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := toml.Unmarshal(data, &config); err != nil {
			return "", errors.Wrapf(err, "failed to parse %s", configPath)
		}
	} else if !os.IsNotExist(err) {
		return "", errors.Wrapf(err, "failed to read %s", configPath)
	}

	setNested(config, strings.Split(key, "."), value)

	data, err := toml.Marshal(config)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal config")
	}

	// Validate the merged result before touching the file
	check := viper.New()
	SetDefaults(check)
	check.SetConfigType("toml")
	if err := check.ReadConfig(strings.NewReader(string(data))); err != nil {
		return "", errors.Wrap(err, "failed to re-read config")
	}
	cfg, err := LoadWithViper(check)
	if err != nil {
		return "", err
	}
	if err := cfg.Validate(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), DefaultDirPermissions); err != nil {
		return "", errors.Wrap(err, "failed to create config directory")
	}
	if err := createBackup(configPath); err != nil {
		return "", errors.Wrap(err, "failed to create backup")
	}
	if err := os.WriteFile(configPath, data, DefaultFilePermissions); err != nil {
		return "", errors.Wrap(err, "failed to write user config")
	}

	return configPath, nil
}

func setNested(m map[string]interface{}, path []string, value interface{}) {
	if len(path) == 1 {
		m[path[0]] = value
		return
	}
	child, ok := m[path[0]].(map[string]interface{})
	if !ok {
		child = map[string]interface{}{}
		m[path[0]] = child
	}
	setNested(child, path[1:], value)
}
