package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ardanlabs/conf"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v2"
)

const namespace = "SOCIALDB"

// Configuration is read, in increasing order of precedence, from defaults, `SOCIALDB_*` environment variables,
// the YAML file at Config.Path and finally the command line flags.
type Configuration struct {
	Config struct {
		Path string `conf:"default:/conf/config.yml" yaml:"-"`
	} `yaml:"-"`
	Debug bool            `yaml:"debug"`
	DB    DBConfiguration `yaml:"db"`
}

type DBConfiguration struct {
	Filename string `conf:"default:social_media_app.db" yaml:"filename"`
}

// flagOverrides holds the command line values that were explicitly set.
type flagOverrides struct {
	configPath *string
	filename   *string
	debug      *bool
}

func (cfg Configuration) Validate() error {
	return validation.ValidateStruct(&cfg.DB,
		validation.Field(&cfg.DB.Filename, validation.Required, validation.By(notDirectory)),
	)
}

func notDirectory(value interface{}) error {
	path, ok := value.(string)
	if !ok {
		return errors.New("must be a file path")
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return errors.New("must be a file, not a directory")
	}
	return nil
}

func loadConfiguration(overrides flagOverrides) (cfg Configuration, err error) {
	// flags are handled by the command line parser, conf only reads defaults and the environment
	if err = conf.Parse([]string{}, namespace, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing configuration: %w", err)
	}
	if overrides.configPath != nil {
		cfg.Config.Path = *overrides.configPath
	}

	// override values from YAML if specified and if the file exists
	fp, err := os.Open(cfg.Config.Path)
	if err != nil && !os.IsNotExist(err) {
		return cfg, fmt.Errorf("can't read the config file, while it exists: %w", err)
	} else if err == nil {
		yamlFile, err := io.ReadAll(fp)
		_ = fp.Close()
		if err != nil {
			return cfg, fmt.Errorf("can't read config file: %w", err)
		}
		if err = yaml.Unmarshal(yamlFile, &cfg); err != nil {
			return cfg, fmt.Errorf("can't unmarshal config file: %w", err)
		}
	}

	if overrides.filename != nil {
		cfg.DB.Filename = *overrides.filename
	}
	if overrides.debug != nil {
		cfg.Debug = *overrides.debug
	}

	if err = cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
