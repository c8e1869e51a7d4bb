package kube

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/spf13/afero"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	"github.com/olympus-cli/olympus/internal/profile"
)

// DefaultProbeTimeout bounds the connectivity check.
const DefaultProbeTimeout = 10 * time.Second

// Prober checks that a profile can reach its cluster.
type Prober interface {
	Probe(ctx context.Context, p profile.Profile) error
}

// ConnectionError reports a failed probe. Status is the HTTP status of the
// last response, 0 when the server never answered.
type ConnectionError struct {
	Profile  string
	URL      string
	Status   int
	Attempts int
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("cannot connect to cluster %q at %s: %v", e.Profile, e.URL, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ClusterProber lists at most one node using the profile's credentials.
type ClusterProber struct {
	Timeout time.Duration

	fs        afero.Fs
	log       logr.Logger
	newClient func(afero.Fs, profile.Profile, *Trace) (kubernetes.Interface, error)
}

// NewClusterProber returns a prober that reads certificate files from fs.
func NewClusterProber(fs afero.Fs, log logr.Logger, timeout time.Duration) *ClusterProber {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	return &ClusterProber{Timeout: timeout, fs: fs, log: log, newClient: NewClientset}
}

// Probe issues one read-only request. Every failure is a *ConnectionError.
func (c *ClusterProber) Probe(ctx context.Context, p profile.Profile) error {
	trace := &Trace{}
	fail := func(err error) error {
		e := &ConnectionError{Profile: p.Name, URL: p.URL, Err: err}
		e.Attempts = len(trace.Attempts())
		if last, ok := trace.Last(); ok {
			e.Status = last.Status
		}
		return e
	}
	client, err := c.newClient(c.fs, p, trace)
	if err != nil {
		return fail(err)
	}
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	nodes, err := client.CoreV1().Nodes().List(ctx, metav1.ListOptions{Limit: 1})
	last, _ := trace.Last()
	if err != nil {
		c.log.V(1).Info("probe failed", "profile", p.Name, "url", p.URL, "path", last.Path,
			"status", last.Status, "elapsed", last.Duration, "error", err.Error())
		return fail(err)
	}
	c.log.V(1).Info("probe succeeded", "profile", p.Name, "url", p.URL, "path", last.Path,
		"status", last.Status, "elapsed", last.Duration, "nodes", len(nodes.Items))
	return nil
}
