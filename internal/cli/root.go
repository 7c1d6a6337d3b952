// Package cli holds the researchpaper command tree.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/varsilias/researchpaper/internal/config"
)

type rootOptions struct {
	configPath string
	envFile    string

	addr     string
	logLevel string
	logJSON  bool
	upstream string
	model    string
	store    string
}

func NewRootCommand() *cobra.Command {
	return newRootCommand(&rootOptions{})
}

func newRootCommand(opts *rootOptions) *cobra.Command {
	root := &cobra.Command{
		Use:          "researchpaper",
		Short:        "AI research paper assistant",
		Long:         "Serves the research chat UI, relays conversations to the hosted completion API and manages saved chat history.",
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	pf.StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded into the environment when present")
	pf.StringVar(&opts.addr, "addr", "", "HTTP listen address (default 8080)")
	pf.StringVar(&opts.logLevel, "log-level", "", "log level: debug|info|warn|error")
	pf.BoolVar(&opts.logJSON, "log-json", false, "log as JSON")
	pf.StringVar(&opts.upstream, "upstream", "", "completion API base URL")
	pf.StringVar(&opts.model, "model", "", "model id sent upstream")
	pf.StringVar(&opts.store, "store", "", "history store: memory|file|sqlite|redis")

	root.AddCommand(newServeCommand(opts))
	root.AddCommand(newHistoryCommand(opts))
	root.AddCommand(newCheckCommand(opts))
	root.AddCommand(newVersionCommand())
	return root
}

// load builds the config and applies flags the user set explicitly.
func (o *rootOptions) load(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(o.configPath, o.envFile)
	if err != nil {
		return nil, err
	}

	changed := func(name string) bool {
		f := cmd.Flag(name)
		return f != nil && f.Changed
	}
	if changed("addr") {
		cfg.Addr = o.addr
	}
	if changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if changed("log-json") {
		cfg.LogJSON = o.logJSON
	}
	if changed("upstream") {
		cfg.Upstream.BaseURL = o.upstream
	}
	if changed("model") {
		cfg.Upstream.Model = o.model
	}
	if changed("store") && o.store != cfg.Store.Driver {
		// the configured path belongs to the other driver
		cfg.Store.Driver = o.store
		cfg.Store.Path = ""
	}

	cfg.Normalize()
	return cfg, cfg.Validate()
}
