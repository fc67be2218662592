// Package config loads journeysync configuration from CUE files.
// The embedded schema supplies defaults and constraints; a user file only
// needs to state what it overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

// schema constrains every config field and carries the defaults. Durations
// are plain millisecond integers so config files stay unit-unambiguous.
const schema = `
#Config: {
	// databasePath locates the SQLite journey store.
	databasePath: string | *"journeysync.db"

	remote: {
		// baseURL is the workflow engine API root.
		baseURL: string | *"http://localhost:8080"

		// token authenticates API calls. Empty disables the auth header.
		token: string | *""
	}

	retry: {
		baseDelayMs: int & >0 | *1000
		maxDelayMs:  int & >0 | *30000
		maxRetries:  int & >=1 | *5
	}
}
`

// Config is the resolved runtime configuration.
type Config struct {
	DatabasePath string
	Remote       Remote
	Retry        Retry
}

// Remote configures the workflow engine client.
type Remote struct {
	BaseURL string
	Token   string
}

// Retry configures the rate-limit backoff policy.
type Retry struct {
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	MaxRetries int
}

// wire mirrors the CUE schema for decoding.
type wire struct {
	DatabasePath string `json:"databasePath"`
	Remote       struct {
		BaseURL string `json:"baseURL"`
		Token   string `json:"token"`
	} `json:"remote"`
	Retry struct {
		BaseDelayMs int `json:"baseDelayMs"`
		MaxDelayMs  int `json:"maxDelayMs"`
		MaxRetries  int `json:"maxRetries"`
	} `json:"retry"`
}

// Default returns the configuration with every field at its schema default.
func Default() (*Config, error) {
	return decode(schemaValue(cuecontext.New()))
}

// Load reads a CUE config file and resolves it against the schema. An empty
// path yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	ctx := cuecontext.New()
	user := ctx.CompileString(string(data), cue.Filename(path))
	if err := user.Err(); err != nil {
		return nil, fmt.Errorf("parse config: %s", cueerrors.Details(err, nil))
	}

	return decode(schemaValue(ctx).Unify(user))
}

func schemaValue(ctx *cue.Context) cue.Value {
	return ctx.CompileString(schema).LookupPath(cue.ParsePath("#Config"))
}

func decode(v cue.Value) (*Config, error) {
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("invalid config: %s", cueerrors.Details(err, nil))
	}

	var w wire
	if err := v.Decode(&w); err != nil {
		return nil, fmt.Errorf("decode config: %s", cueerrors.Details(err, nil))
	}

	cfg := &Config{
		DatabasePath: w.DatabasePath,
		Remote: Remote{
			BaseURL: w.Remote.BaseURL,
			Token:   w.Remote.Token,
		},
		Retry: Retry{
			BaseDelay:  time.Duration(w.Retry.BaseDelayMs) * time.Millisecond,
			MaxDelay:   time.Duration(w.Retry.MaxDelayMs) * time.Millisecond,
			MaxRetries: w.Retry.MaxRetries,
		},
	}
	return cfg, nil
}
