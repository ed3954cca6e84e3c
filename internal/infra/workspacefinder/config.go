package workspacefinder

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/llamicron/lab-grader/internal/domain"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "labgrader"

// LoadOptions controls where configuration comes from besides defaults.
type LoadOptions struct {
	// ConfigFile overrides root/labgrader.yaml.
	ConfigFile string
	// Cmd and FlagKeys bind command flags (by name) to config keys.
	// Only flags set on the command line override file and env values.
	Cmd      *cobra.Command
	FlagKeys map[string]string
}

// LoadConfig layers defaults, labgrader.yaml in root, LABGRADER_* environment
// variables and bound flags, in that order. A missing file is not an error.
func LoadConfig(root string, opts LoadOptions) (domain.Config, error) {
	v := viper.New()
	for key, value := range defaults(domain.DefaultConfig()) {
		v.SetDefault(key, value)
	}

	path := opts.ConfigFile
	if path == "" {
		v.SetConfigName(strings.TrimSuffix(ConfigFileName, filepath.Ext(ConfigFileName)))
		v.SetConfigType("yaml")
		if root != "" {
			v.AddConfigPath(root)
		}
		path = filepath.Join(root, ConfigFileName)
	} else {
		v.SetConfigFile(path)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		missing := errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
		if !missing || opts.ConfigFile != "" {
			kind := domain.KindInvalidConfig
			if missing {
				kind = domain.KindNotFound
			}
			return domain.DefaultConfig(), &domain.OpError{
				Op:   "workspacefinder.loadconfig",
				Kind: kind,
				Path: path,
				Err:  err,
			}
		}
	}

	v.AutomaticEnv()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if opts.Cmd != nil {
		for key, name := range opts.FlagKeys {
			if f := opts.Cmd.Flags().Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return domain.DefaultConfig(), &domain.OpError{
						Op:   "workspacefinder.loadconfig",
						Kind: domain.KindInvalidConfig,
						Err:  err,
					}
				}
			}
		}
	}

	var cfg domain.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return domain.DefaultConfig(), &domain.OpError{
			Op:   "workspacefinder.loadconfig",
			Kind: domain.KindInvalidConfig,
			Path: path,
			Err:  err,
		}
	}
	return cfg, nil
}

// defaults flattens cfg into viper keys so every key is known to AutomaticEnv.
func defaults(cfg domain.Config) map[string]any {
	return map[string]any{
		"server.addr":           cfg.Server.Addr,
		"server.results_file":   cfg.Server.ResultsFile,
		"server.db_path":        cfg.Server.DBPath,
		"server.max_body_bytes": cfg.Server.MaxBodyBytes,
		"paths.rubrics_dir":     cfg.Paths.RubricsDir,
		"paths.receipts_dir":    cfg.Paths.ReceiptsDir,
		"grade.submit_url":      cfg.Grade.SubmitURL,
		"grade.color":           cfg.Grade.Color,
		"grade.masking":         cfg.Grade.Masking,
		"log.debug":             cfg.Log.Debug,
	}
}
