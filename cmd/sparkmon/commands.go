package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/gwos/sparkmon/spark"
)

type command struct {
	name string
	args []string
	help string
	run  func(ctx context.Context, c spark.Client, args []string, p spark.Params) (any, error)
}

var commands = []command{
	{"applications", nil, "list applications",
		func(ctx context.Context, c spark.Client, _ []string, p spark.Params) (any, error) {
			return c.Applications(ctx, p)
		}},
	{"jobs", []string{"app"}, "list jobs of application",
		func(ctx context.Context, c spark.Client, a []string, p spark.Params) (any, error) {
			return c.Jobs(ctx, a[0], p)
		}},
	{"job", []string{"app", "job"}, "show job",
		func(ctx context.Context, c spark.Client, a []string, p spark.Params) (any, error) {
			ids, err := atoi(a[1:])
			if err != nil {
				return nil, err
			}
			return c.Job(ctx, a[0], ids[0], p)
		}},
	{"stages", []string{"app"}, "list stages of application",
		func(ctx context.Context, c spark.Client, a []string, p spark.Params) (any, error) {
			return c.Stages(ctx, a[0], p)
		}},
	{"stage-attempts", []string{"app", "stage"}, "list attempts of stage",
		func(ctx context.Context, c spark.Client, a []string, p spark.Params) (any, error) {
			ids, err := atoi(a[1:])
			if err != nil {
				return nil, err
			}
			return c.StageAttempts(ctx, a[0], ids[0], p)
		}},
	{"stage-attempt", []string{"app", "stage", "attempt"}, "show stage attempt",
		func(ctx context.Context, c spark.Client, a []string, p spark.Params) (any, error) {
			ids, err := atoi(a[1:])
			if err != nil {
				return nil, err
			}
			return c.StageAttempt(ctx, a[0], ids[0], ids[1], p)
		}},
	{"task-summary", []string{"app", "stage", "attempt"}, "show task metric distributions of stage attempt",
		func(ctx context.Context, c spark.Client, a []string, p spark.Params) (any, error) {
			ids, err := atoi(a[1:])
			if err != nil {
				return nil, err
			}
			return c.StageAttemptTaskSummary(ctx, a[0], ids[0], ids[1], p)
		}},
	{"tasks", []string{"app", "stage", "attempt"}, "list tasks of stage attempt",
		func(ctx context.Context, c spark.Client, a []string, p spark.Params) (any, error) {
			ids, err := atoi(a[1:])
			if err != nil {
				return nil, err
			}
			return c.StageAttemptTasks(ctx, a[0], ids[0], ids[1], p)
		}},
	{"executors", []string{"app"}, "list executors of application",
		func(ctx context.Context, c spark.Client, a []string, p spark.Params) (any, error) {
			return c.Executors(ctx, a[0], p)
		}},
	{"threads", []string{"app", "executor"}, "dump threads of executor",
		func(ctx context.Context, c spark.Client, a []string, p spark.Params) (any, error) {
			return c.Threads(ctx, a[0], a[1], p)
		}},
	{"sqls", []string{"app"}, "list SQL executions of application",
		func(ctx context.Context, c spark.Client, a []string, p spark.Params) (any, error) {
			return c.SQLs(ctx, a[0], p)
		}},
	{"sql", []string{"app", "sql"}, "show SQL execution",
		func(ctx context.Context, c spark.Client, a []string, p spark.Params) (any, error) {
			ids, err := atoi(a[1:])
			if err != nil {
				return nil, err
			}
			return c.SQL(ctx, a[0], ids[0], p)
		}},
	{"environment", []string{"app"}, "show environment of application",
		func(ctx context.Context, c spark.Client, a []string, p spark.Params) (any, error) {
			return c.Environment(ctx, a[0], p)
		}},
	{"get", []string{"path"}, "get any path under the endpoint",
		func(ctx context.Context, c spark.Client, a []string, p spark.Params) (any, error) {
			return c.Raw(ctx, a[0], p)
		}},
}

func lookup(name string) (command, bool) {
	for _, cmd := range commands {
		if cmd.name == name {
			return cmd, true
		}
	}
	return command{}, false
}

func (cmd command) synopsis() string {
	var sb strings.Builder
	sb.WriteString(cmd.name)
	for _, a := range cmd.args {
		sb.WriteString(" <" + a + ">")
	}
	return sb.String()
}

func atoi(ss []string) ([]int, error) {
	ids := make([]int, 0, len(ss))
	for _, s := range ss {
		id, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", s, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// parseParams splits key=value pairs, a later key wins
func parseParams(pairs []string) (spark.Params, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	p := make(spark.Params, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid param %q, expected key=value", pair)
		}
		p[k] = v
	}
	return p, nil
}
