package spark

import (
	"net/url"
	"strings"

	"github.com/gwos/sparkmon/clients"
)

const (
	DefaultLocalURL   = "http://localhost:4040"
	DefaultHistoryURL = "http://localhost:18080"

	apiV1 = "/api/v1"
)

// Local talks to the REST API served by a running driver UI or by a history server
type Local struct {
	api
}

// NewLocal creates client for the driver UI or history server base url
func NewLocal(baseURL string, transport *clients.Transport) *Local {
	return &Local{api{
		endpoint:  strings.TrimRight(baseURL, "/") + apiV1,
		transport: transport,
		appScope:  applicationPath,
	}}
}

func applicationPath(appID string) string {
	return "/applications/" + url.PathEscape(appID)
}
