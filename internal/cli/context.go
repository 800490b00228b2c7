package cli

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/zoobzio/faultline"
	"github.com/zoobzio/faultline/bson"
	"github.com/zoobzio/faultline/internal/config"
	"github.com/zoobzio/faultline/internal/logger"
	"github.com/zoobzio/faultline/json"
	"github.com/zoobzio/faultline/msgpack"
	"github.com/zoobzio/faultline/store"
	"github.com/zoobzio/faultline/yaml"
)

// CLIContext carries the loaded configuration and lazily opened resources
// through a command run.
type CLIContext struct {
	Config     *config.Config
	ConfigPath string
	Logger     *zerolog.Logger

	journalOnce sync.Once
	journal     *store.DB
	journalErr  error
	JournalPath string
}

// NewCLIContext creates a CLIContext.
func NewCLIContext(cfg *config.Config, configPath string, log *zerolog.Logger, journalPath string) *CLIContext {
	return &CLIContext{
		Config:      cfg,
		ConfigPath:  configPath,
		Logger:      log,
		JournalPath: journalPath,
	}
}

// Log returns the command logger.
func (c *CLIContext) Log() *zerolog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return logger.Get()
}

// Processor builds a processor for the named codec with the configured
// depths, masks and redactions.
func (c *CLIContext) Processor(codecName string) (*faultline.Processor, error) {
	codec, err := codecFor(codecName)
	if err != nil {
		return nil, err
	}

	opts := []faultline.ProcessorOption{
		faultline.WithStoreMaxDepth(c.Config.MaxDepth),
		faultline.WithReceiveMaxDepth(c.Config.ReceiveMaxDepth),
	}
	for _, rule := range c.Config.Send.Mask {
		opts = append(opts, faultline.WithMask(rule.Key, faultline.MaskType(rule.Type)))
	}
	for _, rule := range c.Config.Send.Redact {
		opts = append(opts, faultline.WithRedact(rule.Key, rule.Replacement))
	}
	return faultline.NewProcessor(codec, opts...)
}

// Hasher returns the configured fingerprint digest.
func (c *CLIContext) Hasher() (faultline.Hasher, error) {
	return faultline.HasherFor(faultline.HashAlgo(c.Config.Fingerprint.Algorithm))
}

// Journal opens the error journal on first use.
func (c *CLIContext) Journal() (*store.DB, error) {
	c.journalOnce.Do(func() {
		proc, err := c.Processor(c.Config.Codec)
		if err != nil {
			c.journalErr = err
			return
		}
		hasher, err := c.Hasher()
		if err != nil {
			c.journalErr = err
			return
		}
		c.journal, c.journalErr = store.Open(c.JournalPath, store.WithProcessor(proc), store.WithHasher(hasher))
		if c.journalErr == nil {
			c.Log().Debug().Str("path", c.JournalPath).Msg("journal opened")
		}
	})
	return c.journal, c.journalErr
}

// Close releases the journal if it was opened.
func (c *CLIContext) Close() error {
	if c.journal != nil {
		return c.journal.Close()
	}
	return nil
}

func codecFor(name string) (faultline.Codec, error) {
	switch name {
	case "json":
		return json.New(), nil
	case "yaml":
		return yaml.New(), nil
	case "msgpack":
		return msgpack.New(), nil
	case "bson":
		return bson.New(), nil
	}
	return nil, fmt.Errorf("unknown codec %q", name)
}

// readInput reads the named file, or stdin when name is empty or "-".
func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", args[0], err)
	}
	return data, nil
}

// mustContext returns the CLI context or an error when the command ran
// without PersistentPreRunE.
func mustContext(cmd *cobra.Command) (*CLIContext, error) {
	cliCtx := GetCLIContext(cmd)
	if cliCtx == nil {
		return nil, fmt.Errorf("%s: configuration not loaded", cmd.CommandPath())
	}
	return cliCtx, nil
}
