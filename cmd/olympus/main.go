// main.go bootstraps olympus: it builds the root Cobra command and executes it with a signal-aware context.
package main

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	apierrors "k8s.io/apimachinery/pkg/api/errors"

	"github.com/olympus-cli/olympus/internal/appconfig"
	"github.com/olympus-cli/olympus/internal/kube"
	"github.com/olympus-cli/olympus/internal/logging"
	"github.com/olympus-cli/olympus/internal/profile"
	"github.com/olympus-cli/olympus/internal/prompt"
	"github.com/olympus-cli/olympus/internal/scaffold"
	"github.com/olympus-cli/olympus/internal/ui"
	"github.com/olympus-cli/olympus/internal/version"
	"github.com/olympus-cli/olympus/internal/wizard"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rootCmd := newRootCommand()
	err := rootCmd.ExecuteContext(ctx)
	handleError(os.Stderr, err)
	if err != nil {
		os.Exit(1)
	}
}

// errReported marks failures whose message was already printed.
var errReported = errors.New("reported")

// deps holds the process boundaries so tests can swap them out.
type deps struct {
	fs       afero.Fs
	in       io.Reader
	out      io.Writer
	errOut   io.Writer
	prompter func(in io.Reader, out io.Writer) prompt.Prompter
	prober   func(fs afero.Fs, log logr.Logger, timeout time.Duration) kube.Prober
	cloner   scaffold.Cloner
}

func defaultDeps() deps {
	return deps{
		fs:       afero.NewOsFs(),
		in:       os.Stdin,
		out:      os.Stdout,
		errOut:   os.Stderr,
		prompter: prompt.ForTerminal,
		prober: func(fs afero.Fs, log logr.Logger, timeout time.Duration) kube.Prober {
			return kube.NewClusterProber(fs, log, timeout)
		},
		cloner: scaffold.GitCloner{},
	}
}

// globalOptions carries the persistent flags and what PersistentPreRunE builds from them.
type globalOptions struct {
	logLevel     string
	verbose      bool
	noColor      bool
	configPath   string
	cacheDir     string
	profilesPath string

	logger  logr.Logger
	console *ui.Console
}

func (g *globalOptions) tmpDir() string {
	return filepath.Join(g.cacheDir, appconfig.TmpDirname)
}

func newRootCommand() *cobra.Command {
	return newRootCommandWith(defaultDeps())
}

func newRootCommandWith(d deps) *cobra.Command {
	g := &globalOptions{
		logLevel:   "info",
		configPath: appconfig.DefaultGlobalPath(),
		cacheDir:   appconfig.CacheDir(),
		logger:     logr.Discard(),
	}
	cmd := &cobra.Command{
		Use:           "olympus",
		Short:         "Scaffold projects and manage olympus configuration",
		Long:          "olympus initializes projects from templates and manages the CLI configuration and Kubernetes cluster profiles.",
		Version:       version.Get().Version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := bindViper(cmd); err != nil {
				return err
			}
			return g.init(cmd, d)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "'olympus %s' is not a valid command. Please see the list of commands below:\n\n", args[0])
				_ = cmd.Help()
				return errReported
			}
			return cmd.Help()
		},
	}
	cmd.SetIn(d.in)
	cmd.SetOut(d.out)
	cmd.SetErr(d.errOut)
	cmd.SetVersionTemplate("olympus {{.Version}}\n")

	flags := cmd.PersistentFlags()
	flags.StringVar(&g.logLevel, "log-level", g.logLevel, "Log level for olympus diagnostics (debug, info, warn, error)")
	flags.BoolVar(&g.verbose, "verbose", false, "Print verbose output (implies --log-level=debug unless set)")
	flags.BoolVar(&g.noColor, "no-color", false, "Disable colored output")
	flags.StringVar(&g.configPath, "config", g.configPath, "Path to the olympus CLI configuration file")
	flags.StringVar(&g.cacheDir, "cache-dir", g.cacheDir, "Directory for olympus state (profiles, template cache)")
	flags.StringVar(&g.profilesPath, "profiles-file", "", "Path to the Kubernetes profile store (default <cache-dir>/"+profile.Filename+")")
	_ = flags.MarkHidden("cache-dir")

	cmd.Example = `  # Configure the CLI, asking only for options that are not set yet
  olympus config --only-new

  # Add a Kubernetes cluster profile, then re-enter an existing one
  olympus config cloud
  olympus config cloud --update

  # Initialize a project from the api template
  olympus init -p ./orders -t api`

	cmd.AddCommand(
		newConfigCommand(g, d),
		newInitCommand(g, d),
		newVersionCommand(),
	)
	decorateCommandHelp(cmd, "Global Flags")
	return cmd
}

func (g *globalOptions) init(cmd *cobra.Command, d deps) error {
	level := g.logLevel
	if g.verbose && !cmd.Flags().Changed("log-level") {
		level = "debug"
	}
	logger, err := logging.NewTo(d.errOut, level)
	if err != nil {
		return err
	}
	logging.Install(logger)
	g.logger = logger
	g.console = ui.NewConsole(d.out, g.verbose, g.noColor)

	if strings.TrimSpace(g.cacheDir) == "" {
		return errors.New("cannot determine the olympus cache directory; set --cache-dir or OLYMPUS_CACHE_DIR")
	}
	if strings.TrimSpace(g.profilesPath) == "" {
		g.profilesPath = filepath.Join(g.cacheDir, profile.Filename)
	}
	g.logger.V(1).Info("resolved paths", "config", g.configPath, "profiles", g.profilesPath, "cache", g.cacheDir)
	return nil
}

// bindViper fills flags the user did not pass from OLYMPUS_* environment variables.
func bindViper(cmd *cobra.Command) error {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.SetEnvPrefix("OLYMPUS")
	v.AutomaticEnv()
	flags := cmd.Flags()
	if err := v.BindPFlags(flags); err != nil {
		return err
	}
	var firstErr error
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Changed || f.Name == "help" || f.Name == "version" || !v.IsSet(f.Name) {
			return
		}
		val := fmt.Sprintf("%v", v.Get(f.Name))
		if val == "" {
			return
		}
		if err := f.Value.Set(val); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("invalid value %q for OLYMPUS_%s: %w", val, strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_")), err)
		}
	})
	return firstErr
}

func handleError(w io.Writer, err error) {
	if err == nil || errors.Is(err, pflag.ErrHelp) || errors.Is(err, errReported) {
		return
	}
	message := err.Error()
	var connErr *kube.ConnectionError
	switch {
	case errors.Is(err, prompt.ErrAborted):
		message = "aborted, nothing was saved"
	case errors.As(err, &connErr):
		message = fmt.Sprintf("%s\nHint: %s", err, connectionHint(connErr))
	case errors.Is(err, wizard.ErrNoProfilesExist):
		message = fmt.Sprintf("%s\nHint: create one first with 'olympus config cloud'.", err)
	case errors.Is(err, profile.ErrCorruptStore):
		message = fmt.Sprintf("%s\nHint: fix or remove the file, then run 'olympus config cloud' again.", err)
	case errors.Is(err, prompt.ErrInputUnavailable):
		message = fmt.Sprintf("%s\nHint: run olympus from an interactive terminal.", err)
	case errors.Is(err, scaffold.ErrUnknownTemplate):
		message = fmt.Sprintf("%s\nHint: pass one of: %s.", err, strings.Join(scaffold.TemplateNames(), ", "))
	}
	ui.NewConsole(w, false, false).Error("Error: %s", message)
}

func connectionHint(err *kube.ConnectionError) string {
	var unknownCA x509.UnknownAuthorityError
	var verifyErr *tls.CertificateVerificationError
	switch {
	case apierrors.IsUnauthorized(err.Err):
		return fmt.Sprintf("the cluster rejected the credentials of profile %q. Check them and retry.", err.Profile)
	case apierrors.IsForbidden(err.Err):
		return "the credentials are valid but may not list nodes. Grant 'list nodes' or use another account."
	case errors.As(err.Err, &unknownCA), errors.As(err.Err, &verifyErr):
		return "the server certificate is not trusted. Choose custom-ca with the cluster CA bundle, or skip-verification."
	case errors.Is(err.Err, context.DeadlineExceeded):
		return "increase --probe-timeout or verify network connectivity to the cluster."
	case err.Status == http.StatusNotFound:
		return fmt.Sprintf("%s answered but has no node API. Check that the url points at the Kubernetes API server.", err.URL)
	default:
		return fmt.Sprintf("verify that %s is reachable from this machine.", err.URL)
	}
}
