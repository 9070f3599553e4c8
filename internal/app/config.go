package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// WorkspaceRoot anchors the default source/build/output/install spaces.
	WorkspaceRoot string
	// Explicit space overrides; empty values derive from WorkspaceRoot.
	SourceSpace  string
	BuildSpace   string
	OutputSpace  string
	InstallSpace string

	// Jobs is the worker count; 0 means one worker per available CPU.
	Jobs int

	ForceConfigure bool
	MergedOutput   bool
	Install        bool
	Verbose        bool
	ForceColor     bool

	LogFormat string
	LogLevel  string
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.WorkspaceRoot == "" {
		return nil, errors.New("WorkspaceRoot is a required configuration field and cannot be empty")
	}
	if cfg.Jobs < 0 {
		return nil, errors.New("Jobs cannot be negative")
	}

	return &cfg, nil
}
