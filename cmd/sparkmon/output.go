package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/PaesslerAG/gval"
	"github.com/PaesslerAG/jsonpath"
)

// render writes v as indented JSON,
// optionally keeps list items matching where and selects jsonPath
func render(w io.Writer, v any, where, jsonPath string) error {
	if where != "" || jsonPath != "" {
		generic, err := toGeneric(v)
		if err != nil {
			return err
		}
		if where != "" {
			if generic, err = filter(generic, where); err != nil {
				return err
			}
		}
		if jsonPath != "" {
			if generic, err = jsonpath.Get(jsonPath, generic); err != nil {
				return fmt.Errorf("jsonpath %q: %w", jsonPath, err)
			}
		}
		v = generic
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func toGeneric(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(b, &generic); err != nil {
		return nil, err
	}
	return generic, nil
}

// filter keeps list items for which expr evaluates to true,
// item fields are variables of expr: status == "RUNNING" && numTasks > 10
func filter(v any, expr string) (any, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("where %q: result is not a list", expr)
	}
	eval, err := gval.Full().NewEvaluable(expr)
	if err != nil {
		return nil, fmt.Errorf("where %q: %w", expr, err)
	}
	kept := make([]any, 0, len(items))
	for _, item := range items {
		ok, err := eval.EvalBool(context.Background(), item)
		if err != nil {
			return nil, fmt.Errorf("where %q: %w", expr, err)
		}
		if ok {
			kept = append(kept, item)
		}
	}
	return kept, nil
}
