// File: cmd/olympus/config.go
// Brief: CLI command wiring and implementation for 'config'.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/olympus-cli/olympus/internal/appconfig"
	"github.com/olympus-cli/olympus/internal/prompt"
)

type configOptions struct {
	defaults bool
	onlyNew  bool
}

func newConfigCommand(g *globalOptions, d deps) *cobra.Command {
	opts := &configOptions{}
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configure the olympus CLI",
		Long:  "Prompt for the CLI-global options (auto update, package manager, git protocol) and write them to the olympus config file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfig(g, d, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.defaults, "defaults", false, "Accept the default for every option without prompting")
	cmd.Flags().BoolVar(&opts.onlyNew, "only-new", false, "Only ask for options that are not set yet")
	cmd.AddCommand(newConfigCloudCommand(g, d))
	decorateCommandHelp(cmd, "Config Flags")
	return cmd
}

// loadGlobalConfig returns the saved config, falling back to defaults with a
// notice when the file cannot be read.
func loadGlobalConfig(g *globalOptions, d deps) appconfig.Config {
	cfg, err := appconfig.Load(d.fs, g.configPath)
	if err != nil {
		g.console.Notice("Ignoring %s: %v", g.configPath, err)
		g.logger.V(1).Info("global config unreadable", "path", g.configPath, "error", err.Error())
		return appconfig.Config{}
	}
	return cfg
}

func runConfig(g *globalOptions, d deps, opts *configOptions) error {
	current := loadGlobalConfig(g, d)
	questions := appconfig.Questions(current, opts.onlyNew)
	if len(questions) == 0 {
		g.console.Info("All options are already set in %s.", g.configPath)
		return nil
	}
	eval := &prompt.Evaluator{
		Prompter:    d.prompter(d.in, d.out),
		Out:         d.out,
		UseDefaults: opts.defaults,
	}
	answers, err := eval.Evaluate(questions)
	if err != nil {
		return err
	}
	next := appconfig.FromAnswers(current, answers)
	if err := appconfig.Save(d.fs, g.configPath, next); err != nil {
		return fmt.Errorf("save global config: %w", err)
	}
	g.console.Verbose("Wrote %s", g.configPath)
	g.console.Success("Successfully updated the CLI configuration.")
	return nil
}
