package spark

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/gwos/sparkmon/clients"
)

const DefaultDatabricksUIPort = 40001

// Databricks talks to the Spark UI of a cluster driver through the workspace driver proxy
type Databricks struct {
	api
}

// NewDatabricks creates client for the driver proxy of the cluster,
// orgID may be "0" for single-org workspaces
func NewDatabricks(workspaceURL, orgID, clusterID string, port int, token string,
	transport *clients.Transport) *Databricks {
	return &Databricks{api{
		endpoint: fmt.Sprintf("%s/driver-proxy-api/o/%s/%s/%d%s",
			strings.TrimRight(workspaceURL, "/"),
			url.PathEscape(orgID), url.PathEscape(clusterID), port, apiV1),
		headers:   map[string]string{"Authorization": fmt.Sprintf("Bearer %s", token)},
		transport: transport,
		appScope:  applicationPath,
	}}
}
