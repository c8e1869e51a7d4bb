package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/spf13/afero"

	"github.com/olympus-cli/olympus/internal/kube"
	"github.com/olympus-cli/olympus/internal/profile"
	"github.com/olympus-cli/olympus/internal/prompt"
	"github.com/olympus-cli/olympus/internal/scaffold"
	"github.com/olympus-cli/olympus/internal/wizard"
)

const (
	testConfigPath = "/home/me/.olympus_config"
	testCacheDir   = "/home/me/.olympus"
)

var testStorePath = filepath.Join(testCacheDir, profile.Filename)

type fakeProber struct {
	err     error
	probed  []profile.Profile
	timeout time.Duration
}

func (f *fakeProber) Probe(_ context.Context, p profile.Profile) error {
	f.probed = append(f.probed, p)
	return f.err
}

type fakeCloner struct {
	fs    afero.Fs
	files map[string]string
}

func (f *fakeCloner) Clone(_ context.Context, _ string, dir string) error {
	for rel, content := range f.files {
		if err := afero.WriteFile(f.fs, filepath.Join(dir, rel), []byte(content), 0o644); err != nil {
			return err
		}
	}
	return nil
}

type harness struct {
	fs     afero.Fs
	out    bytes.Buffer
	errOut bytes.Buffer
	prober *fakeProber
	cloner *fakeCloner
}

func newHarness() *harness {
	fs := afero.NewMemMapFs()
	return &harness{fs: fs, prober: &fakeProber{}, cloner: &fakeCloner{fs: fs}}
}

func (h *harness) run(stdin string, args ...string) error {
	d := deps{
		fs:       h.fs,
		in:       strings.NewReader(stdin),
		out:      &h.out,
		errOut:   &h.errOut,
		prompter: prompt.ForTerminal,
		prober: func(_ afero.Fs, _ logr.Logger, timeout time.Duration) kube.Prober {
			h.prober.timeout = timeout
			return h.prober
		},
		cloner: h.cloner,
	}
	cmd := newRootCommandWith(d)
	cmd.SetArgs(append(args, "--config", testConfigPath, "--cache-dir", testCacheDir))
	return cmd.ExecuteContext(context.Background())
}

func (h *harness) seedStore(t *testing.T, store profile.Store) []byte {
	t.Helper()
	if err := profile.NewFileStore(h.fs, testStorePath, logr.Discard()).Save(store); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	raw, err := afero.ReadFile(h.fs, testStorePath)
	if err != nil {
		t.Fatalf("read seeded store: %v", err)
	}
	return raw
}

func (h *harness) loadStore(t *testing.T) profile.Store {
	t.Helper()
	store, err := profile.NewFileStore(h.fs, testStorePath, logr.Discard()).Load()
	if err != nil {
		t.Fatalf("load store: %v", err)
	}
	return store
}

func input(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

func prodProfile() profile.Profile {
	return profile.Profile{
		Name:     "prod",
		Provider: profile.ProviderGKE,
		URL:      "https://k8s.example.com",
		TLS:      profile.DefaultTLS{},
		Auth:     profile.TokenAuth{Token: "abc"},
	}
}

func TestConfigCloudCreate(t *testing.T) {
	h := newHarness()
	err := h.run(input("", "prod", "https://k8s.example.com", "", "token", "abc"), "config", "cloud")
	if err != nil {
		t.Fatalf("config cloud: %v\n%s", err, h.out.String())
	}
	store := h.loadStore(t)
	if got := store["prod"]; got != prodProfile() {
		t.Fatalf("stored profile = %#v", got)
	}
	if len(h.prober.probed) != 1 || h.prober.timeout != kube.DefaultProbeTimeout {
		t.Fatalf("expected one probe with the default timeout, got %d probes, timeout %s", len(h.prober.probed), h.prober.timeout)
	}
	want := `Saved profile "prod" to ` + testStorePath
	if !strings.Contains(h.out.String(), want) {
		t.Fatalf("expected %q in output:\n%s", want, h.out.String())
	}
}

func TestConfigCloudUpdateReplacesAuth(t *testing.T) {
	h := newHarness()
	h.seedStore(t, profile.Store{"prod": prodProfile()})

	err := h.run(input("prod", "gke", "https://k8s.example.com", "default", "user-pass", "alice", "secret"),
		"config", "cloud", "--update", "--probe-timeout", "3s")
	if err != nil {
		t.Fatalf("config cloud --update: %v\n%s", err, h.out.String())
	}
	if h.prober.timeout != 3*time.Second {
		t.Fatalf("probe timeout = %s", h.prober.timeout)
	}
	fields := h.loadStore(t)["prod"].Fields()
	if fields[profile.KeyAuthMethod] != "user-pass" || fields[profile.KeyUsername] != "alice" || fields[profile.KeyPassword] != "secret" {
		t.Fatalf("fields = %v", fields)
	}
	raw, _ := afero.ReadFile(h.fs, testStorePath)
	if strings.Contains(string(raw), "token") {
		t.Fatalf("old token survived the update:\n%s", raw)
	}
}

func TestConfigCloudProbeFailureLeavesStoreUntouched(t *testing.T) {
	h := newHarness()
	before := h.seedStore(t, profile.Store{"prod": prodProfile()})
	h.prober.err = &kube.ConnectionError{Profile: "stage", URL: "https://stage.example.com", Err: errors.New("dial tcp: connection refused")}

	err := h.run(input("aws", "stage", "https://stage.example.com", "", "token", "t0k3n"), "config", "cloud")
	var connErr *kube.ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected ConnectionError, got %v", err)
	}
	after, _ := afero.ReadFile(h.fs, testStorePath)
	if !bytes.Equal(before, after) {
		t.Fatalf("store changed after failed probe:\n%s", after)
	}

	var stderr bytes.Buffer
	handleError(&stderr, err)
	if msg := stderr.String(); !strings.HasPrefix(msg, "Error: cannot connect to cluster \"stage\"") || !strings.Contains(msg, "Hint:") {
		t.Fatalf("unexpected error output %q", msg)
	}
}

func TestConfigCloudUpdateWithoutProfiles(t *testing.T) {
	h := newHarness()
	err := h.run("", "config", "cloud", "--update")
	if !errors.Is(err, wizard.ErrNoProfilesExist) {
		t.Fatalf("expected ErrNoProfilesExist, got %v", err)
	}
	if len(h.prober.probed) != 0 {
		t.Fatalf("nothing should be probed")
	}
	if ok, _ := afero.Exists(h.fs, testStorePath); ok {
		t.Fatalf("store must not be created")
	}
}

func TestConfigCloudCorruptStore(t *testing.T) {
	h := newHarness()
	if err := afero.WriteFile(h.fs, testStorePath, []byte("[prod]\nauthMethod = kerberos\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	err := h.run(input("gke"), "config", "cloud")
	if !errors.Is(err, profile.ErrCorruptStore) {
		t.Fatalf("expected ErrCorruptStore, got %v", err)
	}
}

func TestConfigCloudClosedInput(t *testing.T) {
	h := newHarness()
	err := h.run("", "config", "cloud")
	if !errors.Is(err, prompt.ErrInputUnavailable) {
		t.Fatalf("expected ErrInputUnavailable, got %v", err)
	}
}

func TestConfigCloudProfilesFileFromEnv(t *testing.T) {
	h := newHarness()
	t.Setenv("OLYMPUS_PROFILES_FILE", "/srv/olympus/profiles.ini")
	if err := h.run(input("", "prod", "https://k8s.example.com", "", "token", "abc"), "config", "cloud"); err != nil {
		t.Fatalf("config cloud: %v", err)
	}
	if ok, _ := afero.Exists(h.fs, "/srv/olympus/profiles.ini"); !ok {
		t.Fatalf("expected the store at the env-provided path")
	}
}

func TestConfigCloudList(t *testing.T) {
	h := newHarness()
	h.seedStore(t, profile.Store{"prod": prodProfile()})
	if err := h.run("", "config", "cloud", "list"); err != nil {
		t.Fatalf("list: %v", err)
	}
	out := h.out.String()
	for _, want := range []string{"NAME", "prod", "gke", "https://k8s.example.com", "token"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in:\n%s", want, out)
		}
	}
}

func TestConfigDefaults(t *testing.T) {
	h := newHarness()
	if err := h.run("", "config", "--defaults"); err != nil {
		t.Fatalf("config --defaults: %v", err)
	}
	raw, err := afero.ReadFile(h.fs, testConfigPath)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	for _, want := range []string{"autoupdate: true", "packageManager: yarn", "gitProtocol: ssh"} {
		if !strings.Contains(string(raw), want) {
			t.Fatalf("expected %q in:\n%s", want, raw)
		}
	}

	h.out.Reset()
	if err := h.run("", "config", "--only-new"); err != nil {
		t.Fatalf("config --only-new: %v", err)
	}
	if !strings.Contains(h.out.String(), "All options are already set") {
		t.Fatalf("unexpected output %q", h.out.String())
	}
}

func TestConfigPrompts(t *testing.T) {
	h := newHarness()
	if err := h.run(input("no", "npm", "2"), "config"); err != nil {
		t.Fatalf("config: %v", err)
	}
	raw, _ := afero.ReadFile(h.fs, testConfigPath)
	for _, want := range []string{"autoupdate: false", "packageManager: npm", "gitProtocol: https"} {
		if !strings.Contains(string(raw), want) {
			t.Fatalf("expected %q in:\n%s", want, raw)
		}
	}
	if !strings.Contains(h.out.String(), "Successfully updated the CLI configuration.") {
		t.Fatalf("missing success message:\n%s", h.out.String())
	}
}

func TestInitWithTemplate(t *testing.T) {
	h := newHarness()
	h.cloner.files = map[string]string{"README.md": "hello\n", ".git/HEAD": "ref\n"}
	if err := h.run("", "init", "-p", "/work/orders", "-t", "api"); err != nil {
		t.Fatalf("init: %v", err)
	}
	for _, path := range []string{"/work/orders/olympusfile.yaml", "/work/orders/README.md"} {
		if ok, _ := afero.Exists(h.fs, path); !ok {
			t.Fatalf("expected %s", path)
		}
	}
	if ok, _ := afero.Exists(h.fs, filepath.Join(testCacheDir, ".tmp", "api", "README.md")); !ok {
		t.Fatalf("template should be cloned into the cache tmp dir")
	}
	if !strings.Contains(h.out.String(), "Successfully initialized new project in /work/orders.") {
		t.Fatalf("unexpected output:\n%s", h.out.String())
	}
}

func TestInitUnknownTemplate(t *testing.T) {
	h := newHarness()
	err := h.run("", "init", "-p", "/work/orders", "-t", "web")
	if !errors.Is(err, scaffold.ErrUnknownTemplate) {
		t.Fatalf("expected ErrUnknownTemplate, got %v", err)
	}
}

func TestUnknownCommand(t *testing.T) {
	h := newHarness()
	err := h.run("", "deploy")
	if !errors.Is(err, errReported) {
		t.Fatalf("expected a reported error, got %v", err)
	}
	out := h.out.String()
	if !strings.HasPrefix(out, "'olympus deploy' is not a valid command. Please see the list of commands below:") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if !strings.Contains(out, "config") || !strings.Contains(out, "init") {
		t.Fatalf("expected the command list in:\n%s", out)
	}
	var stderr bytes.Buffer
	handleError(&stderr, err)
	if stderr.Len() != 0 {
		t.Fatalf("reported errors must not be printed twice: %q", stderr.String())
	}
}

func TestVersion(t *testing.T) {
	h := newHarness()
	if err := h.run("", "version", "--short"); err != nil {
		t.Fatalf("version: %v", err)
	}
	if strings.TrimSpace(h.out.String()) == "" {
		t.Fatalf("expected a version")
	}
	h.out.Reset()
	if err := h.run("", "--version"); err != nil {
		t.Fatalf("--version: %v", err)
	}
	if !strings.HasPrefix(h.out.String(), "olympus ") {
		t.Fatalf("unexpected --version output %q", h.out.String())
	}
}

func TestHandleErrorHints(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{err: wizard.ErrNoProfilesExist, want: "olympus config cloud"},
		{err: prompt.ErrAborted, want: "nothing was saved"},
		{err: &kube.ConnectionError{Profile: "p", URL: "https://x", Err: context.DeadlineExceeded}, want: "--probe-timeout"},
		{err: &kube.ConnectionError{Profile: "p", URL: "https://x", Status: 404, Err: errors.New("the server could not find the requested resource")}, want: "points at the Kubernetes API server"},
		{err: errors.New("boom"), want: "Error: boom\n"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		handleError(&buf, tt.err)
		if !strings.Contains(buf.String(), tt.want) {
			t.Fatalf("handleError(%v) = %q, want it to mention %q", tt.err, buf.String(), tt.want)
		}
	}
}
