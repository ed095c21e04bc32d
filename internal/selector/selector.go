// Package selector resolves user-supplied path and name expressions into
// the set of goal tasks for one invocation.
//
// Grammar: `:` selects the root project's default tasks; `:a:b:c` is an
// absolute path; `a:b` resolves relative to the root; a bare `name` matches
// every task of that name anywhere in the tree; a `^` prefix excludes the
// expression's matches from the selection.
package selector

import (
	"strings"

	"github.com/vk/krakengo/internal/core"
)

// Select resolves the given selectors against the context. With no
// selectors, every task marked default is selected. An empty final set is
// reported as core.ErrNothingSelected.
func Select(build *core.Context, selectors []string) ([]*core.Task, error) {
	var includes, excludes []string
	for _, raw := range selectors {
		sel := strings.TrimSpace(raw)
		if sel == "" {
			continue
		}
		if strings.HasPrefix(sel, "^") {
			excludes = append(excludes, sel[1:])
			continue
		}
		includes = append(includes, sel)
	}

	var selected []*core.Task
	if len(includes) == 0 {
		selected = build.DefaultTasks()
	} else {
		var err error
		selected, err = build.ResolveTasks(includes, nil)
		if err != nil {
			return nil, err
		}
	}

	if len(excludes) > 0 {
		drop := make(map[*core.Task]bool)
		for _, sel := range excludes {
			// An exclusion that matches nothing simply drops nothing.
			tasks, err := build.ResolveTasks([]string{sel}, nil)
			if err != nil {
				continue
			}
			for _, t := range tasks {
				drop[t] = true
			}
		}
		kept := selected[:0]
		for _, t := range selected {
			if !drop[t] {
				kept = append(kept, t)
			}
		}
		selected = kept
	}

	if len(selected) == 0 {
		return nil, core.ErrNothingSelected
	}
	return selected, nil
}
