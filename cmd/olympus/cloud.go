// File: cmd/olympus/cloud.go
// Brief: CLI command wiring and implementation for 'config cloud'.

package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/olympus-cli/olympus/internal/kube"
	"github.com/olympus-cli/olympus/internal/profile"
	"github.com/olympus-cli/olympus/internal/prompt"
	"github.com/olympus-cli/olympus/internal/wizard"
)

type cloudOptions struct {
	update       bool
	probeTimeout time.Duration
}

func newConfigCloudCommand(g *globalOptions, d deps) *cobra.Command {
	opts := &cloudOptions{probeTimeout: kube.DefaultProbeTimeout}
	cmd := &cobra.Command{
		Use:   "cloud",
		Short: "Add or update a Kubernetes cluster profile",
		Long: `Ask for the provider, endpoint, TLS mode and credentials of a Kubernetes cluster,
check that the cluster answers with those settings, and save the profile.
Nothing is written when the check fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := wizard.ModeCreate
			if opts.update {
				mode = wizard.ModeUpdate
			}
			return runConfigCloud(cmd.Context(), g, d, mode, opts.probeTimeout)
		},
	}
	cmd.Flags().BoolVar(&opts.update, "update", false, "Re-enter an existing profile instead of creating one")
	cmd.Flags().DurationVar(&opts.probeTimeout, "probe-timeout", opts.probeTimeout, "How long to wait for the cluster to answer")
	cmd.AddCommand(newConfigCloudListCommand(g, d))
	decorateCommandHelp(cmd, "Cloud Flags")
	return cmd
}

// runConfigCloud prompts, probes, then persists. The store is only written
// after a successful probe.
func runConfigCloud(ctx context.Context, g *globalOptions, d deps, mode wizard.Mode, timeout time.Duration) error {
	store := profile.NewFileStore(d.fs, g.profilesPath, g.logger.WithName("profiles"))
	current, err := store.Load()
	if err != nil {
		return err
	}

	eval := &prompt.Evaluator{Prompter: d.prompter(d.in, d.out), Out: d.out}
	candidate, err := wizard.New(eval, d.fs).Run(mode, current)
	if err != nil {
		return err
	}
	g.logger.V(1).Info("profile assembled", "mode", mode.String(), "profile", candidate.Name,
		"tlsMode", candidate.TLS.Mode(), "authMethod", candidate.Auth.Method())

	prober := d.prober(d.fs, g.logger.WithName("probe"), timeout)
	stop := g.console.Spin(fmt.Sprintf("Checking connection to %s", candidate.URL))
	err = prober.Probe(ctx, candidate)
	stop(err == nil)
	if err != nil {
		return err
	}

	if err := store.Save(profile.Upsert(current, candidate)); err != nil {
		return err
	}
	g.console.Success("Saved profile %q to %s", candidate.Name, store.Path())
	return nil
}

func newConfigCloudListCommand(g *globalOptions, d deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved Kubernetes cluster profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := profile.NewFileStore(d.fs, g.profilesPath, g.logger.WithName("profiles")).Load()
			if err != nil {
				return err
			}
			if len(store) == 0 {
				g.console.Notice("No profiles found in %s. Create one with 'olympus config cloud'.", g.profilesPath)
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tPROVIDER\tURL\tTLS\tAUTH")
			for _, name := range store.Names() {
				p := store[name]
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.Name, p.Provider, p.URL, p.TLS.Mode(), p.Auth.Method())
			}
			return tw.Flush()
		},
	}
	return cmd
}
