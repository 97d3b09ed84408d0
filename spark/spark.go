package spark

import (
	"fmt"

	"github.com/gwos/sparkmon/clients"
	sparkerr "github.com/gwos/sparkmon/errors"
)

// define backend kinds
const (
	BackendLocal      = "local"
	BackendHistory    = "history"
	BackendYARN       = "yarn"
	BackendDatabricks = "databricks"
)

// Config defines the monitored backend
type Config struct {
	// Backend is one of: local, history, yarn, databricks
	Backend string `env:"BACKEND" yaml:"backend"`
	// URL of driver UI, history server, ResourceManager or Databricks workspace
	URL string `env:"URL" yaml:"url"`

	ClusterID string `env:"CLUSTERID" yaml:"clusterId"`
	OrgID     string `env:"ORGID" yaml:"orgId"`
	UIPort    int    `env:"UIPORT" yaml:"uiPort"`
	Token     string `env:"TOKEN" yaml:"token"`
}

// New creates the client variant selected by cfg.Backend
func New(cfg Config, transport *clients.Transport) (Client, error) {
	if transport == nil {
		transport = clients.NewTransport()
	}
	url := cfg.URL
	switch cfg.Backend {
	case BackendLocal, "":
		if url == "" {
			url = DefaultLocalURL
		}
		return NewLocal(url, transport), nil
	case BackendHistory:
		if url == "" {
			url = DefaultHistoryURL
		}
		return NewLocal(url, transport), nil
	case BackendYARN:
		if url == "" {
			return nil, fmt.Errorf("%w: yarn backend requires ResourceManager url", sparkerr.ErrParams)
		}
		return NewYARN(url, transport), nil
	case BackendDatabricks:
		if url == "" || cfg.ClusterID == "" || cfg.Token == "" {
			return nil, fmt.Errorf("%w: databricks backend requires url, clusterId and token", sparkerr.ErrParams)
		}
		orgID, port := cfg.OrgID, cfg.UIPort
		if orgID == "" {
			orgID = "0"
		}
		if port == 0 {
			port = DefaultDatabricksUIPort
		}
		return NewDatabricks(url, orgID, cfg.ClusterID, port, cfg.Token, transport), nil
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", sparkerr.ErrParams, cfg.Backend)
	}
}
