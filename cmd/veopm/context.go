package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"veopm/internal/config"
	"veopm/internal/generate"
	"veopm/internal/lifecycle"
	"veopm/internal/logging"
	"veopm/internal/project"
	"veopm/internal/services/gemini"
	"veopm/internal/vault"
	"veopm/internal/vault/auth"
)

type commandContext struct {
	configFlag  *string
	projectFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce  sync.Once
	logger      *slog.Logger
	loggerClose func() error

	storeOnce sync.Once
	store     *project.Store
	storeErr  error
}

func newCommandContext(configFlag, projectFlag *string) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		projectFlag: projectFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// ensureLogger builds the session logger, appending to the project log file.
// Console format falls back to JSON when stderr is not a terminal.
func (c *commandContext) ensureLogger() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.logger = logging.NewNop()
			c.loggerClose = func() error { return nil }
			return
		}

		format := cfg.Logging.Format
		if format == "console" && !isatty.IsTerminal(os.Stderr.Fd()) && !isatty.IsCygwinTerminal(os.Stderr.Fd()) {
			format = "json"
		}

		logger, closeFn, err := logging.NewFileLogger(logging.Options{
			Level:  cfg.Logging.Level,
			Format: format,
		}, cfg.Paths.LogDir)
		if err != nil {
			c.logger = logging.NewNop()
			c.loggerClose = func() error { return nil }
			return
		}
		c.logger = logger
		c.loggerClose = closeFn
	})
	return c.logger
}

func (c *commandContext) ensureStore() (*project.Store, error) {
	c.storeOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.storeErr = err
			return
		}
		store, err := project.Open(cfg)
		if err != nil {
			c.storeErr = err
			return
		}
		c.store = store
	})
	return c.store, c.storeErr
}

// projectSlug resolves the target project from the persistent flag.
func (c *commandContext) projectSlug() (string, error) {
	if c.projectFlag == nil || strings.TrimSpace(*c.projectFlag) == "" {
		return "", fmt.Errorf("no project selected; pass --project")
	}
	return strings.TrimSpace(*c.projectFlag), nil
}

// session builds a lifecycle session bound to the selected project.
func (c *commandContext) session() (*lifecycle.Session, *project.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.ValidateGeneration(); err != nil {
		return nil, nil, err
	}
	slug, err := c.projectSlug()
	if err != nil {
		return nil, nil, err
	}
	store, err := c.ensureStore()
	if err != nil {
		return nil, nil, err
	}

	var gen generate.Generator = gemini.NewClient(cfg.Generation)
	return lifecycle.NewSession(store, slug, gen, c.ensureLogger()), store, nil
}

// vaultOps builds the vault operations layer, minting tokens from the
// configured service-account key.
func (c *commandContext) vaultOps() (*vault.Ops, *vault.Synchronizer, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.ValidateVault(); err != nil {
		return nil, nil, err
	}

	key, err := auth.LoadKey(cfg.Vault.CredentialsFile)
	if err != nil {
		return nil, nil, err
	}
	client := vault.NewClient(cfg.Vault, vault.MinterSource{Minter: auth.NewMinter(key)})

	logger := c.ensureLogger()
	return vault.NewOps(client, logger), vault.NewSynchronizer(client, cfg.Vault.RegistryObject, logger), nil
}

func (c *commandContext) close() {
	if c.store != nil {
		_ = c.store.Close()
	}
	if c.loggerClose != nil {
		_ = c.loggerClose()
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for current := cmd; current != nil; current = current.Parent() {
		if current.Annotations != nil && current.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
