package spark

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/gwos/sparkmon/clients"
	sparkerr "github.com/gwos/sparkmon/errors"
)

const yarnAppsPath = "/ws/v1/cluster/apps"

// YARN talks to Spark applications through the ResourceManager web proxy,
// applications are listed by the ResourceManager itself
type YARN struct {
	api
}

// NewYARN creates client for the ResourceManager base url
func NewYARN(rmURL string, transport *clients.Transport) *YARN {
	return &YARN{api{
		endpoint:  strings.TrimRight(rmURL, "/"),
		transport: transport,
		appScope: func(appID string) string {
			return "/proxy/" + url.PathEscape(appID) + apiV1 + applicationPath(appID)
		},
	}}
}

type YARNAppsResponse struct {
	Apps struct {
		App []YARNApp `json:"app"`
	} `json:"apps"`
}

type YARNApp struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	User            string `json:"user"`
	Queue           string `json:"queue"`
	State           string `json:"state"`
	FinalStatus     string `json:"finalStatus"`
	ApplicationType string `json:"applicationType"`
	TrackingURL     string `json:"trackingUrl"`
	StartedTime     int64  `json:"startedTime"`
	FinishedTime    int64  `json:"finishedTime"`
	ElapsedTime     int64  `json:"elapsedTime"`
}

// Completed reports a terminal state
func (app YARNApp) Completed() bool {
	switch app.State {
	case "FINISHED", "FAILED", "KILLED":
		return true
	}
	return false
}

func (app YARNApp) asApplication() Application {
	return Application{
		ID:   app.ID,
		Name: app.Name,
		Attempts: []ApplicationAttempt{{
			Duration:         app.ElapsedTime,
			SparkUser:        app.User,
			Completed:        app.Completed(),
			StartTimeEpoch:   app.StartedTime,
			EndTimeEpoch:     app.FinishedTime,
			LastUpdatedEpoch: max(app.StartedTime, app.FinishedTime),
		}},
	}
}

var yarnStates = map[string]string{
	"running":   "NEW,NEW_SAVING,SUBMITTED,ACCEPTED,RUNNING",
	"completed": "FINISHED,FAILED,KILLED",
}

// Applications lists Spark applications known to the ResourceManager.
// Recognized params: status (running, completed), limit, queue, user.
func (y *YARN) Applications(ctx context.Context, params Params) ([]Application, error) {
	query := map[string]string{"applicationTypes": "SPARK"}
	for k, v := range params {
		switch k {
		case "status":
			states, ok := yarnStates[strings.ToLower(v)]
			if !ok {
				return nil, fmt.Errorf("%w: unknown status %q", sparkerr.ErrParams, v)
			}
			query["states"] = states
		case "limit", "queue", "user":
			query[k] = v
		default:
			return nil, fmt.Errorf("%w: %s does not accept %q", sparkerr.ErrParams, opApplications, k)
		}
	}

	u := y.endpoint + yarnAppsPath
	body, err := y.transport.GetBytes(ctx, u, y.headers, query)
	if err != nil {
		return nil, err
	}
	var resp YARNAppsResponse
	if err := decodeObject(body, u, &resp); err != nil {
		return nil, err
	}
	apps := make([]Application, 0, len(resp.Apps.App))
	for _, app := range resp.Apps.App {
		apps = append(apps, app.asApplication())
	}
	return apps, nil
}
