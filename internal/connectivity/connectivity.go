package connectivity

import (
	"context"
	"net/http"
	"time"

	"fieldsync/internal/config"
)

// Status describes the device's network state. Online requires both flags:
// a link to a local network whose gateway cannot reach the internet is not
// online.
type Status struct {
	Connected         bool
	InternetReachable bool
}

// Online reports whether sync passes may run.
func (s Status) Online() bool {
	return s.Connected && s.InternetReachable
}

// Source yields the current connectivity status.
type Source interface {
	Status(ctx context.Context) Status
}

// Static is a fixed-status source for tests and CLI overrides.
type Static Status

func (s Static) Status(ctx context.Context) Status { return Status(s) }

// HTTPDoer describes the HTTP client used by the probe.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Probe determines reachability by issuing a HEAD request against a known
// endpoint. Any response at all proves the internet is reachable; transport
// errors mean it is not.
type Probe struct {
	url    string
	client HTTPDoer
}

// NewProbe builds a probe from application config.
func NewProbe(cfg *config.Config) *Probe {
	timeout := time.Duration(cfg.Connectivity.ProbeTimeout) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Probe{
		url:    cfg.Connectivity.ProbeURL,
		client: &http.Client{Timeout: timeout},
	}
}

// NewProbeWithDoer builds a probe with an explicit HTTP doer (used in tests).
func NewProbeWithDoer(url string, doer HTTPDoer) *Probe {
	return &Probe{url: url, client: doer}
}

func (p *Probe) Status(ctx context.Context) Status {
	if p == nil || p.url == "" {
		return Status{}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.url, nil)
	if err != nil {
		return Status{}
	}
	resp, err := p.client.Do(req)
	if err != nil {
		// Could not even open a connection. Without an OS-level link
		// indicator both flags track the probe outcome.
		return Status{}
	}
	resp.Body.Close()
	return Status{Connected: true, InternetReachable: true}
}
