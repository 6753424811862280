package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix = "LISTS_"

	// ConfigFileEnv names the variable holding an optional YAML config path.
	ConfigFileEnv = envPrefix + "CONFIG_FILE"
)

// AppConfig holds the settings of one rr-listsync process.
type AppConfig struct {
	// Env is the runtime environment, either "dev" or "prod".
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	Log       LogConfig       `koanf:"log"`
	Lists     ListsConfig     `koanf:"lists"`
	Retention RetentionConfig `koanf:"retention"`
	Store     StoreConfig     `koanf:"store"`
	Inbox     InboxConfig     `koanf:"inbox"`
	Policy    PolicyConfig    `koanf:"policy"`
	Metrics   MetricsConfig   `koanf:"metrics"`
	Index     IndexConfig     `koanf:"index"`
}

type LogConfig struct {
	// Level controls log verbosity: "debug", "info", "warn", or "error".
	Level string `koanf:"level" validate:"required,oneof=debug info warn error"`
}

// ListsConfig names the two list files. The names are the stable identifiers
// used for every read and write.
type ListsConfig struct {
	Block string `koanf:"block" validate:"required,list_name"`
	Allow string `koanf:"allow" validate:"required,list_name,nefield=Block"`
}

type RetentionConfig struct {
	MaxAgeDays int `koanf:"max_age_days" validate:"gte=1"`
}

// StoreConfig selects the versioned list store backend.
type StoreConfig struct {
	Backend  string `koanf:"backend" validate:"required,oneof=file bolt"`
	Root     string `koanf:"root" validate:"required_if=Backend file"`
	BoltPath string `koanf:"bolt_path" validate:"required_if=Backend bolt"`
}

type InboxConfig struct {
	Dir string `koanf:"dir" validate:"required"`
}

// PolicyConfig carries the authorization sets. Entries are user names.
type PolicyConfig struct {
	Banned   []string `koanf:"banned"`
	Recovery []string `koanf:"recovery"`
	Wildcard []string `koanf:"wildcard"`
}

type MetricsConfig struct {
	// Textfile, when set, receives the prometheus text exposition after each run.
	Textfile string `koanf:"textfile"`
}

// IndexConfig tunes the lookup index used by the check command.
type IndexConfig struct {
	CacheSize int     `koanf:"cache_size" validate:"gte=0"`
	FPRate    float64 `koanf:"fp_rate" validate:"gt=0,lt=1"`
}

// DEFAULT_APP_CONFIG holds the values used when neither the config file nor
// the environment set a key.
var DEFAULT_APP_CONFIG = AppConfig{
	Env: "prod",
	Log: LogConfig{Level: "info"},
	Lists: ListsConfig{
		Block: "nyan.rpz",
		Allow: "whitelist.txt",
	},
	Retention: RetentionConfig{MaxAgeDays: 30},
	Store: StoreConfig{
		Backend:  "file",
		Root:     "/var/lib/rr-listsync/lists/",
		BoltPath: "/var/lib/rr-listsync/lists.db",
	},
	Inbox: InboxConfig{Dir: "/var/lib/rr-listsync/inbox/"},
	Index: IndexConfig{CacheSize: 1000, FPRate: 0.01},
}

// sections are the top-level keys whose env names carry a nested field,
// e.g. LISTS_RETENTION_MAX_AGE_DAYS -> retention.max_age_days.
var sections = []string{"log", "lists", "retention", "store", "inbox", "policy", "metrics", "index"}

// envKey maps an environment variable name to a koanf key.
func envKey(name string) string {
	key := strings.ToLower(strings.TrimPrefix(name, envPrefix))
	for _, s := range sections {
		if strings.HasPrefix(key, s+"_") {
			return s + "." + strings.TrimPrefix(key, s+"_")
		}
	}
	return key
}

// envValue trims the value and splits space or comma separated values into a list.
func envValue(value string) any {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	if strings.ContainsAny(value, " ,") {
		return strings.FieldsFunc(value, func(r rune) bool {
			return r == ' ' || r == ','
		})
	}
	return value
}

// validListName accepts a bare file name: no path separators and not a
// relative directory reference.
func validListName(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}

// defaultLoader loads DEFAULT_APP_CONFIG through the structs provider.
var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DEFAULT_APP_CONFIG, "koanf"), nil)
}

// fileLoader merges a YAML config file over the defaults. An empty path is a no-op.
var fileLoader = func(k *koanf.Koanf, path string) error {
	if path == "" {
		return nil
	}
	return k.Load(file.Provider(path), yaml.Parser())
}

// envLoader loads variables with the LISTS_ prefix and can be mocked in tests.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			if key == ConfigFileEnv {
				return "", nil
			}
			return envKey(key), envValue(value)
		},
	}), nil)
}

// registerValidation registers the "list_name" tag.
var registerValidation = func(v *validator.Validate) error {
	return v.RegisterValidation("list_name", validListName)
}

// Load builds the configuration from defaults, the optional config file and
// the environment, then validates it. configFile overrides LISTS_CONFIG_FILE.
func Load(configFile string) (*AppConfig, error) {
	k := koanf.New(".")

	if err := defaultLoader(k); err != nil {
		return nil, fmt.Errorf("error loading default config: %w", err)
	}

	if configFile == "" {
		configFile = os.Getenv(ConfigFileEnv)
	}
	if err := fileLoader(k, configFile); err != nil {
		return nil, fmt.Errorf("error loading config file %s: %w", configFile, err)
	}

	if err := envLoader(k); err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := registerValidation(validate); err != nil {
		return nil, fmt.Errorf("error registering validation: %w", err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}
