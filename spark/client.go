package spark

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/gwos/sparkmon/clients"
	sparkerr "github.com/gwos/sparkmon/errors"
)

// Client queries the monitoring REST API of a Spark cluster.
// Every record is scoped under an application id.
// Implementations are safe for concurrent use.
type Client interface {
	// Endpoint returns the base URL every resource path is appended to
	Endpoint() string

	Applications(ctx context.Context, params Params) ([]Application, error)
	Jobs(ctx context.Context, appID string, params Params) ([]Job, error)
	Job(ctx context.Context, appID string, jobID int, params Params) (*Job, error)
	Stages(ctx context.Context, appID string, params Params) ([]Stage, error)
	StageAttempts(ctx context.Context, appID string, stageID int, params Params) ([]StageAttempt, error)
	StageAttempt(ctx context.Context, appID string, stageID, attemptID int, params Params) (*StageAttempt, error)
	StageAttemptTaskSummary(ctx context.Context, appID string, stageID, attemptID int, params Params) (*StageAttemptTaskSummary, error)
	StageAttemptTasks(ctx context.Context, appID string, stageID, attemptID int, params Params) ([]Task, error)
	Executors(ctx context.Context, appID string, params Params) ([]Executor, error)
	Threads(ctx context.Context, appID, executorID string, params Params) ([]Thread, error)
	SQLs(ctx context.Context, appID string, params Params) ([]SQL, error)
	SQL(ctx context.Context, appID string, sqlID int, params Params) (*SQL, error)
	Environment(ctx context.Context, appID string, params Params) (*Environment, error)

	// Raw performs GET of Endpoint()+path and returns the decoded JSON as is,
	// params are forwarded unchecked
	Raw(ctx context.Context, path string, params Params) (any, error)
}

// api implements operations shared by all variants,
// variants differ in endpoint, headers and the application scope path
type api struct {
	endpoint  string
	headers   map[string]string
	transport *clients.Transport
	appScope  func(appID string) string
}

func (a *api) Endpoint() string { return a.endpoint }

// Applications lists applications known to the backend
func (a *api) Applications(ctx context.Context, params Params) ([]Application, error) {
	return fetch[[]Application](ctx, a, opApplications, "/applications", params)
}

func (a *api) Jobs(ctx context.Context, appID string, params Params) ([]Job, error) {
	if err := requireID("application id", appID); err != nil {
		return nil, err
	}
	return fetch[[]Job](ctx, a, opJobs, a.appScope(appID)+"/jobs", params)
}

func (a *api) Job(ctx context.Context, appID string, jobID int, params Params) (*Job, error) {
	if err := requireIDs(appID, jobID); err != nil {
		return nil, err
	}
	return fetchOne[Job](ctx, a, opJob, a.appScope(appID)+"/jobs/"+strconv.Itoa(jobID), params)
}

func (a *api) Stages(ctx context.Context, appID string, params Params) ([]Stage, error) {
	if err := requireID("application id", appID); err != nil {
		return nil, err
	}
	return fetch[[]Stage](ctx, a, opStages, a.appScope(appID)+"/stages", params)
}

func (a *api) StageAttempts(ctx context.Context, appID string, stageID int, params Params) ([]StageAttempt, error) {
	if err := requireIDs(appID, stageID); err != nil {
		return nil, err
	}
	return fetch[[]StageAttempt](ctx, a, opStageAttempts, stagePath(a.appScope(appID), stageID), params)
}

func (a *api) StageAttempt(ctx context.Context, appID string, stageID, attemptID int, params Params) (*StageAttempt, error) {
	if err := requireIDs(appID, stageID, attemptID); err != nil {
		return nil, err
	}
	return fetchOne[StageAttempt](ctx, a, opStageAttempt,
		stagePath(a.appScope(appID), stageID, attemptID), params)
}

func (a *api) StageAttemptTaskSummary(ctx context.Context, appID string, stageID, attemptID int, params Params) (*StageAttemptTaskSummary, error) {
	if err := requireIDs(appID, stageID, attemptID); err != nil {
		return nil, err
	}
	return fetchOne[StageAttemptTaskSummary](ctx, a, opStageAttemptTaskSummary,
		stagePath(a.appScope(appID), stageID, attemptID)+"/taskSummary", params)
}

func (a *api) StageAttemptTasks(ctx context.Context, appID string, stageID, attemptID int, params Params) ([]Task, error) {
	if err := requireIDs(appID, stageID, attemptID); err != nil {
		return nil, err
	}
	return fetch[[]Task](ctx, a, opStageAttemptTasks,
		stagePath(a.appScope(appID), stageID, attemptID)+"/taskList", params)
}

func (a *api) Executors(ctx context.Context, appID string, params Params) ([]Executor, error) {
	if err := requireID("application id", appID); err != nil {
		return nil, err
	}
	return fetch[[]Executor](ctx, a, opExecutors, a.appScope(appID)+"/executors", params)
}

// Threads returns the thread dump of a live executor, "driver" is a valid executor id
func (a *api) Threads(ctx context.Context, appID, executorID string, params Params) ([]Thread, error) {
	if err := requireID("application id", appID); err != nil {
		return nil, err
	}
	if err := requireID("executor id", executorID); err != nil {
		return nil, err
	}
	return fetch[[]Thread](ctx, a, opThreads,
		a.appScope(appID)+"/executors/"+url.PathEscape(executorID)+"/threads", params)
}

func (a *api) SQLs(ctx context.Context, appID string, params Params) ([]SQL, error) {
	if err := requireID("application id", appID); err != nil {
		return nil, err
	}
	return fetch[[]SQL](ctx, a, opSQLs, a.appScope(appID)+"/sql", params)
}

func (a *api) SQL(ctx context.Context, appID string, sqlID int, params Params) (*SQL, error) {
	if err := requireIDs(appID, sqlID); err != nil {
		return nil, err
	}
	return fetchOne[SQL](ctx, a, opSQL, a.appScope(appID)+"/sql/"+strconv.Itoa(sqlID), params)
}

func (a *api) Environment(ctx context.Context, appID string, params Params) (*Environment, error) {
	if err := requireID("application id", appID); err != nil {
		return nil, err
	}
	return fetchOne[Environment](ctx, a, opEnvironment, a.appScope(appID)+"/environment", params)
}

func (a *api) Raw(ctx context.Context, path string, params Params) (any, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return a.transport.Get(ctx, a.endpoint+path, a.headers, params)
}

// get validates params and returns the raw body of endpoint+path
func (a *api) get(ctx context.Context, op operation, path string, params Params) ([]byte, string, error) {
	if err := params.validate(op); err != nil {
		return nil, "", err
	}
	u := a.endpoint + path
	body, err := a.transport.GetBytes(ctx, u, a.headers, params)
	return body, u, err
}

func fetch[T any](ctx context.Context, a *api, op operation, path string, params Params) (T, error) {
	var v, zero T
	body, u, err := a.get(ctx, op, path, params)
	if err != nil {
		return zero, err
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return zero, fmt.Errorf("%w: GET %s: %w", sparkerr.ErrDecode, u, err)
	}
	return v, nil
}

func fetchOne[T any](ctx context.Context, a *api, op operation, path string, params Params) (*T, error) {
	body, u, err := a.get(ctx, op, path, params)
	if err != nil {
		return nil, err
	}
	v := new(T)
	if err := decodeObject(body, u, v); err != nil {
		return nil, err
	}
	return v, nil
}

// decodeObject rejects anything but a JSON object, null included
func decodeObject(body []byte, u string, v any) error {
	if b := bytes.TrimSpace(body); len(b) == 0 || b[0] != '{' {
		return fmt.Errorf("%w: GET %s: expected object, got %q", sparkerr.ErrDecode, u, clip(b))
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: GET %s: %w", sparkerr.ErrDecode, u, err)
	}
	return nil
}

func requireIDs(appID string, ids ...int) error {
	if err := requireID("application id", appID); err != nil {
		return err
	}
	for _, id := range ids {
		if id < 0 {
			return fmt.Errorf("%w: negative id %d", sparkerr.ErrParams, id)
		}
	}
	return nil
}

func stagePath(scope string, ids ...int) string {
	var sb strings.Builder
	sb.WriteString(scope)
	sb.WriteString("/stages")
	for _, id := range ids {
		sb.WriteString("/")
		sb.WriteString(strconv.Itoa(id))
	}
	return sb.String()
}

func clip(p []byte) string {
	if len(p) > 32 {
		return string(p[:32]) + "..."
	}
	return string(p)
}
