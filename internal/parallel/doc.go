// Package parallel provides the worker pool resbind uses for work that
// fans out across independent items: descriptor checks in the validation
// layer and bulk offset-table builds in the table cache.
//
// Work is index-based. Run(n, fn) calls fn(i) for every i in [0, n) and
// returns once all calls have finished. Each worker owns a queue and
// steals from its neighbours when its own queue runs dry.
package parallel
