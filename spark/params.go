package spark

import (
	"fmt"
	"slices"

	sparkerr "github.com/gwos/sparkmon/errors"
)

// Params holds per-call query options, recognized keys depend on operation
type Params map[string]string

type operation string

const (
	opApplications            operation = "applications"
	opJobs                    operation = "jobs"
	opJob                     operation = "job"
	opStages                  operation = "stages"
	opStageAttempts           operation = "stageAttempts"
	opStageAttempt            operation = "stageAttempt"
	opStageAttemptTaskSummary operation = "taskSummary"
	opStageAttemptTasks       operation = "taskList"
	opExecutors               operation = "executors"
	opThreads                 operation = "threads"
	opSQLs                    operation = "sqls"
	opSQL                     operation = "sql"
	opEnvironment             operation = "environment"
)

var recognizedParams = map[operation][]string{
	opApplications:            {"status", "minDate", "maxDate", "minEndDate", "maxEndDate", "limit"},
	opJobs:                    {"status"},
	opStages:                  {"status", "details", "withSummaries", "quantiles", "taskStatus"},
	opStageAttempts:           {"details", "taskStatus", "withSummaries", "quantiles"},
	opStageAttempt:            {"details", "taskStatus", "withSummaries", "quantiles"},
	opStageAttemptTaskSummary: {"quantiles"},
	opStageAttemptTasks:       {"offset", "length", "sortBy", "status"},
	opSQLs:                    {"details", "planDescription", "offset", "length"},
	opSQL:                     {"details", "planDescription"},
}

func (p Params) validate(op operation) error {
	keys := recognizedParams[op]
	for k := range p {
		if !slices.Contains(keys, k) {
			return fmt.Errorf("%w: %s does not accept %q", sparkerr.ErrParams, op, k)
		}
	}
	return nil
}

func requireID(name, v string) error {
	if v == "" {
		return fmt.Errorf("%w: empty %s", sparkerr.ErrParams, name)
	}
	return nil
}
