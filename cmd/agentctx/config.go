package main

import (
	"context"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/agentctx/agentctx/pkg/loader"
	"github.com/agentctx/agentctx/pkg/presenter"
	"github.com/agentctx/agentctx/pkg/sources"
)

// Config is the CLI configuration resolved from flags, environment, and
// the config file.
type Config struct {
	AgentID      string                   `mapstructure:"agent_id"`
	Budget       int                      `mapstructure:"budget"`
	Root         string                   `mapstructure:"root"`
	PersonalDirs []string                 `mapstructure:"personal_dirs"`
	OrgDirs      []string                 `mapstructure:"org_dirs"`
	Profile      string                   `mapstructure:"profile"`
	Profiles     map[string]ProfileConfig `mapstructure:"profiles"`
}

// ProfileConfig is a named override set applied on top of the base
// configuration, so one config file can serve several agents.
type ProfileConfig struct {
	AgentID      string   `mapstructure:"agent_id"`
	Budget       int      `mapstructure:"budget"`
	PersonalDirs []string `mapstructure:"personal_dirs"`
	OrgDirs      []string `mapstructure:"org_dirs"`
}

const defaultBudget = 32768

func loadConfig() (*Config, error) {
	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal configuration")
	}

	if config.Profile != "" && config.Profile != "default" {
		profile, ok := config.Profiles[config.Profile]
		if !ok {
			return nil, errors.Errorf("profile %q not found in configuration", config.Profile)
		}
		if err := applyProfile(config, profile); err != nil {
			return nil, err
		}
	}

	if config.Root == "" {
		config.Root = "."
	}
	if config.Budget <= 0 {
		config.Budget = defaultBudget
	}
	return config, nil
}

// applyProfile merges non-zero profile values into the base config.
func applyProfile(config *Config, profile ProfileConfig) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           config,
		WeaklyTypedInput: true,
		ZeroFields:       false,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create profile decoder")
	}
	if err := decoder.Decode(profile); err != nil {
		return errors.Wrap(err, "failed to apply profile configuration")
	}
	return nil
}

// buildRegistry loads sources from the configured trees and snapshots
// them into a registry. Per-file load failures are surfaced as warnings;
// only registry invariant violations are fatal.
func buildRegistry(ctx context.Context, config *Config) (*sources.Registry, error) {
	ld, err := loader.New(
		loader.WithRoot(config.Root),
		loader.WithPersonalDirs(config.PersonalDirs...),
		loader.WithOrgDirs(config.OrgDirs...),
	)
	if err != nil {
		return nil, err
	}

	srcs, loadErr := ld.Load(ctx)
	if loadErr != nil {
		presenter.Warning("some sources could not be loaded:")
		presenter.Info(loadErr.Error())
	}

	reg, err := sources.NewRegistry(srcs)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build source registry")
	}
	return reg, nil
}
