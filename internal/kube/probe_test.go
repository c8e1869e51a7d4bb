package kube

import (
	"context"
	"encoding/pem"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/spf13/afero"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/kubernetes/fake"
	"k8s.io/client-go/rest"

	"github.com/olympus-cli/olympus/internal/profile"
)

const nodeList = `{"kind":"NodeList","apiVersion":"v1","metadata":{},"items":[]}`

func apiServer(t *testing.T, token string) *httptest.Server {
	t.Helper()
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/nodes" {
			http.NotFound(w, r)
			return
		}
		if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"kind":"Status","apiVersion":"v1","status":"Failure","reason":"Unauthorized","code":401}`))
			return
		}
		if r.URL.Query().Get("limit") != "1" {
			t.Errorf("expected limit=1, got %q", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(nodeList))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeCA(t *testing.T, fs afero.Fs, srv *httptest.Server) string {
	t.Helper()
	path := "/certs/ca.pem"
	data := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: srv.Certificate().Raw})
	if err := afero.WriteFile(fs, path, data, 0o600); err != nil {
		t.Fatalf("write ca: %v", err)
	}
	return path
}

func TestProbe(t *testing.T) {
	fs := afero.NewMemMapFs()
	srv := apiServer(t, "abc")
	caPath := writeCA(t, fs, srv)

	tests := []struct {
		name    string
		tls     profile.TLS
		auth    profile.Auth
		wantErr bool
	}{
		{name: "custom ca with token", tls: profile.CustomCATLS{CAPath: caPath}, auth: profile.TokenAuth{Token: "abc"}},
		{name: "skip verification", tls: profile.SkipVerifyTLS{}, auth: profile.TokenAuth{Token: "abc"}},
		{name: "untrusted certificate", tls: profile.DefaultTLS{}, auth: profile.TokenAuth{Token: "abc"}, wantErr: true},
		{name: "wrong token", tls: profile.SkipVerifyTLS{}, auth: profile.TokenAuth{Token: "nope"}, wantErr: true},
		{name: "missing ca file", tls: profile.CustomCATLS{CAPath: "/certs/missing.pem"}, auth: profile.TokenAuth{Token: "abc"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := profile.Profile{Name: "stage", Provider: profile.ProviderOther, URL: srv.URL, TLS: tt.tls, Auth: tt.auth}
			err := NewClusterProber(fs, logr.Discard(), 5*time.Second).Probe(context.Background(), p)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("probe: %v", err)
				}
				return
			}
			var connErr *ConnectionError
			if !errors.As(err, &connErr) {
				t.Fatalf("expected ConnectionError, got %v", err)
			}
			if connErr.Profile != "stage" || connErr.URL != srv.URL {
				t.Fatalf("unexpected error fields %+v", connErr)
			}
		})
	}
}

func TestProbeUnauthorizedKeepsCause(t *testing.T) {
	srv := apiServer(t, "abc")
	p := profile.Profile{Name: "prod", URL: srv.URL, TLS: profile.SkipVerifyTLS{}, Auth: profile.TokenAuth{Token: "bad"}}
	err := NewClusterProber(afero.NewMemMapFs(), logr.Discard(), 0).Probe(context.Background(), p)
	if !apierrors.IsUnauthorized(errors.Unwrap(err)) {
		t.Fatalf("expected unauthorized cause, got %v", err)
	}
}

func TestProbeClosedServer(t *testing.T) {
	srv := httptest.NewTLSServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	p := profile.Profile{Name: "stage", URL: url, TLS: profile.SkipVerifyTLS{}, Auth: profile.UserPassAuth{Username: "alice"}}
	err := NewClusterProber(afero.NewMemMapFs(), logr.Discard(), time.Second).Probe(context.Background(), p)
	var connErr *ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected ConnectionError, got %v", err)
	}
}

func TestProbeTimeout(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	p := profile.Profile{Name: "slow", URL: srv.URL, TLS: profile.SkipVerifyTLS{}, Auth: profile.TokenAuth{Token: "abc"}}
	start := time.Now()
	err := NewClusterProber(afero.NewMemMapFs(), logr.Discard(), 100*time.Millisecond).Probe(context.Background(), p)
	if err == nil {
		t.Fatalf("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("probe ignored timeout, took %s", elapsed)
	}
}

func TestProbeWithInjectedClient(t *testing.T) {
	node := &corev1.Node{ObjectMeta: metav1.ObjectMeta{Name: "node-1"}}
	prober := NewClusterProber(afero.NewMemMapFs(), logr.Discard(), time.Second)
	prober.newClient = func(afero.Fs, profile.Profile, *Trace) (kubernetes.Interface, error) {
		return fake.NewSimpleClientset(node), nil
	}
	p := profile.Profile{Name: "prod", URL: "https://k8s.example.com", TLS: profile.DefaultTLS{}, Auth: profile.TokenAuth{Token: "abc"}}
	if err := prober.Probe(context.Background(), p); err != nil {
		t.Fatalf("probe: %v", err)
	}
}

func TestRESTConfigForProfile(t *testing.T) {
	fs := afero.NewMemMapFs()
	for path, content := range map[string]string{"/certs/client.crt": "cert", "/certs/client.key": "key"} {
		if err := afero.WriteFile(fs, path, []byte(content), 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	cfg, err := RESTConfigForProfile(fs, profile.Profile{
		Name: "lab",
		URL:  "https://10.0.0.1",
		TLS:  profile.SkipVerifyTLS{},
		Auth: profile.PrivateKeyAuth{PrivateKeyPath: "/certs/client.key", CertPath: "/certs/client.crt"},
	})
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if !cfg.Insecure || string(cfg.CertData) != "cert" || string(cfg.KeyData) != "key" {
		t.Fatalf("unexpected tls config %+v", cfg.TLSClientConfig)
	}
	if cfg.BearerToken != "" || cfg.Username != "" {
		t.Fatalf("unexpected credentials set")
	}

	cfg, err = RESTConfigForProfile(fs, profile.Profile{Name: "p", URL: "https://x", TLS: profile.DefaultTLS{}, Auth: profile.UserPassAuth{Username: "alice", Password: "secret"}})
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if cfg.Username != "alice" || cfg.Password != "secret" || cfg.Insecure || cfg.CAData != nil {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if _, ok := cfg.WarningHandler.(rest.NoWarnings); !ok {
		t.Fatalf("server warnings should be dropped per config, got %T", cfg.WarningHandler)
	}
}

func TestTraceRecordsAttempts(t *testing.T) {
	srv := apiServer(t, "abc")
	p := profile.Profile{Name: "stage", URL: srv.URL, TLS: profile.SkipVerifyTLS{}, Auth: profile.TokenAuth{Token: "abc"}}
	trace := &Trace{}
	client, err := NewClientset(afero.NewMemMapFs(), p, trace)
	if err != nil {
		t.Fatalf("clientset: %v", err)
	}
	if _, err := client.CoreV1().Nodes().List(context.Background(), metav1.ListOptions{Limit: 1}); err != nil {
		t.Fatalf("list nodes: %v", err)
	}
	attempts := trace.Attempts()
	if len(attempts) != 1 {
		t.Fatalf("attempts = %+v", attempts)
	}
	if a := attempts[0]; a.Method != http.MethodGet || a.Path != "/api/v1/nodes" || a.Status != http.StatusOK || a.Err != nil {
		t.Fatalf("unexpected attempt %+v", a)
	}
	var nilTrace *Trace
	if _, ok := nilTrace.Last(); ok {
		t.Fatalf("nil trace should have no attempts")
	}
}

func TestConnectionErrorCarriesLastStatus(t *testing.T) {
	srv := apiServer(t, "abc")
	p := profile.Profile{Name: "prod", URL: srv.URL, TLS: profile.SkipVerifyTLS{}, Auth: profile.TokenAuth{Token: "bad"}}
	err := NewClusterProber(afero.NewMemMapFs(), logr.Discard(), time.Second).Probe(context.Background(), p)
	var connErr *ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected ConnectionError, got %v", err)
	}
	if connErr.Status != http.StatusUnauthorized || connErr.Attempts == 0 {
		t.Fatalf("unexpected error fields %+v", connErr)
	}

	closed := httptest.NewTLSServer(http.NotFoundHandler())
	url := closed.URL
	closed.Close()
	p = profile.Profile{Name: "gone", URL: url, TLS: profile.SkipVerifyTLS{}, Auth: profile.TokenAuth{Token: "abc"}}
	err = NewClusterProber(afero.NewMemMapFs(), logr.Discard(), time.Second).Probe(context.Background(), p)
	if !errors.As(err, &connErr) || connErr.Status != 0 {
		t.Fatalf("expected a status-less ConnectionError, got %+v", err)
	}
}
