// File: cmd/olympus/init.go
// Brief: CLI command wiring and implementation for 'init'.

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/olympus-cli/olympus/internal/scaffold"
	"github.com/olympus-cli/olympus/internal/ui"
)

type initOptions struct {
	path     string
	template string
	force    bool
	diff     bool
}

func newInitCommand(g *globalOptions, d deps) *cobra.Command {
	opts := &initOptions{path: "."}
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new olympus project",
		Long: `Write an olympusfile.yaml into the project directory and, with --template,
merge a project template into it. Files that already exist and differ from the
template are left alone unless --force is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd.Context(), g, d, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.path, "path", "p", opts.path, "Project directory")
	cmd.Flags().StringVarP(&opts.template, "template", "t", "", "Project template ("+strings.Join(scaffold.TemplateNames(), ", ")+")")
	cmd.Flags().BoolVar(&opts.force, "force", false, "Overwrite project files that differ from the template")
	cmd.Flags().BoolVar(&opts.diff, "diff", false, "Print a unified diff for project files that differ from the template")
	_ = cmd.RegisterFlagCompletionFunc("template", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return scaffold.TemplateNames(), cobra.ShellCompDirectiveNoFileComp
	})
	decorateCommandHelp(cmd, "Init Flags")
	return cmd
}

func runInit(ctx context.Context, g *globalOptions, d deps, opts *initOptions) error {
	cfg := loadGlobalConfig(g, d)
	cloner := spinningCloner{console: g.console, inner: d.cloner}
	initializer := scaffold.NewInitializer(d.fs, cloner, cfg, g.tmpDir(), d.out, g.logger.WithName("scaffold"))

	res, err := initializer.Init(ctx, scaffold.Options{
		Path:     opts.path,
		Template: opts.template,
		Force:    opts.force,
		ShowDiff: opts.diff,
	})
	if err != nil {
		return err
	}
	for _, rel := range res.Created {
		g.console.Verbose("  created %s", rel)
	}
	for _, rel := range res.Overwritten {
		g.console.Verbose("  overwrote %s", rel)
	}
	if len(res.Skipped) > 0 {
		g.console.Notice("Kept %d file(s) that differ from the template: %s", len(res.Skipped), strings.Join(res.Skipped, ", "))
		g.console.Notice("Re-run with --diff to review or --force to overwrite them.")
	}
	g.console.Success("Successfully initialized new project in %s.", res.Root)
	return nil
}

// spinningCloner shows a spinner for the duration of a clone.
type spinningCloner struct {
	console *ui.Console
	inner   scaffold.Cloner
}

func (s spinningCloner) Clone(ctx context.Context, url, dir string) error {
	stop := s.console.Spin(fmt.Sprintf("Fetching template from %s", url))
	err := s.inner.Clone(ctx, url, dir)
	stop(err == nil)
	return err
}
