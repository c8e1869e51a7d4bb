// File: internal/kube/client.go
// Brief: Internal kube package implementation for 'client'.

// client.go builds Kubernetes REST configs and clientsets from olympus cluster profiles.
package kube

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"

	"github.com/olympus-cli/olympus/internal/profile"
)

// RESTConfigForProfile translates p into a client-go config. Only the
// profile's own fields are consulted; no kubeconfig is loaded.
func RESTConfigForProfile(fs afero.Fs, p profile.Profile) (*rest.Config, error) {
	if strings.TrimSpace(p.URL) == "" {
		return nil, fmt.Errorf("profile %q has no url", p.Name)
	}
	cfg := &rest.Config{Host: p.URL}

	switch tls := p.TLS.(type) {
	case nil, profile.DefaultTLS:
	case profile.SkipVerifyTLS:
		cfg.TLSClientConfig.Insecure = true
	case profile.CustomCATLS:
		data, err := readFile(fs, tls.CAPath)
		if err != nil {
			return nil, fmt.Errorf("read ca bundle: %w", err)
		}
		cfg.TLSClientConfig.CAData = data
	default:
		return nil, fmt.Errorf("unsupported tls mode %T", p.TLS)
	}

	switch auth := p.Auth.(type) {
	case profile.UserPassAuth:
		cfg.Username = auth.Username
		cfg.Password = auth.Password
	case profile.TokenAuth:
		cfg.BearerToken = auth.Token
	case profile.PrivateKeyAuth:
		cert, err := readFile(fs, auth.CertPath)
		if err != nil {
			return nil, fmt.Errorf("read client certificate: %w", err)
		}
		key, err := readFile(fs, auth.PrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("read client key: %w", err)
		}
		cfg.TLSClientConfig.CertData = cert
		cfg.TLSClientConfig.KeyData = key
	case nil:
	default:
		return nil, fmt.Errorf("unsupported auth method %T", p.Auth)
	}

	cfg.WarningHandler = rest.NoWarnings{}
	cfg.Timeout = 30 * time.Second
	cfg.QPS = 50
	cfg.Burst = 100
	return cfg, nil
}

// NewClientset builds a typed client for p. Requests are recorded in trace
// when it is non-nil.
func NewClientset(fs afero.Fs, p profile.Profile, trace *Trace) (kubernetes.Interface, error) {
	cfg, err := RESTConfigForProfile(fs, p)
	if err != nil {
		return nil, err
	}
	TraceRequests(cfg, trace)
	clientset, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("create typed client: %w", err)
	}
	return clientset, nil
}

func readFile(fs afero.Fs, path string) ([]byte, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("expand %s: %w", path, err)
	}
	return afero.ReadFile(fs, expanded)
}
