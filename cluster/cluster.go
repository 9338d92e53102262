// Package cluster partitions image records into duplicate groups.
//
// The default strategy pops the first record of a working pool as leader,
// pulls every remaining record within threshold of that leader into its
// group and repeats until the pool is empty. Grouping is by direct distance
// to the leader only, so borderline chains (A~B, B~C, A!~C) can split
// differently depending on input order.
package cluster

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"photodedupe/similarity"
	"photodedupe/types"
)

// Strategy selects how records are grouped
type Strategy string

const (
	// StrategyLeader compares each leader only against the remaining pool
	StrategyLeader Strategy = "leader"

	// StrategyTransitive groups connected components of the match graph
	StrategyTransitive Strategy = "transitive"
)

// ParseStrategy validates a strategy name
func ParseStrategy(name string) (Strategy, error) {
	switch s := Strategy(strings.ToLower(name)); s {
	case StrategyLeader, StrategyTransitive:
		return s, nil
	default:
		return "", fmt.Errorf("unknown grouping strategy %q (known: %s, %s)", name, StrategyLeader, StrategyTransitive)
	}
}

// Sink receives groups and progress while a clustering run is in flight
type Sink interface {
	OnGroup(group types.DuplicateGroup)
	OnProgress(progress types.Progress)
}

// Clusterer runs a grouping strategy with a fixed comparator
type Clusterer struct {
	Comparator similarity.Comparator
	Strategy   Strategy
}

// New creates a leader-strategy Clusterer for the given threshold
func New(threshold int) (*Clusterer, error) {
	cmp, err := similarity.NewComparator(threshold)
	if err != nil {
		return nil, err
	}
	return &Clusterer{Comparator: cmp, Strategy: StrategyLeader}, nil
}

// Cluster groups records with the leader strategy and no cancellation
func Cluster(records []types.ImageRecord, threshold int) types.RunResult {
	c := &Clusterer{Comparator: similarity.Comparator{Threshold: threshold}, Strategy: StrategyLeader}
	result, _ := c.Run(context.Background(), records, nil)
	return result
}

// Run groups records, reporting each group to sink as soon as it is formed.
// The context is checked between leaders; on cancellation the groups found
// so far are returned together with the context error.
func (c *Clusterer) Run(ctx context.Context, records []types.ImageRecord, sink Sink) (types.RunResult, error) {
	if sink == nil {
		sink = nopSink{}
	}

	if c.Strategy == StrategyTransitive {
		return c.runTransitive(ctx, records, sink)
	}
	return c.runLeader(ctx, records, sink)
}

func (c *Clusterer) runLeader(ctx context.Context, records []types.ImageRecord, sink Sink) (types.RunResult, error) {
	var result types.RunResult
	total := len(records)

	// The pool holds indices into records; matches are filtered out in place.
	pool := make([]int, total)
	for i := range pool {
		pool[i] = i
	}

	for len(pool) > 0 {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		leader := pool[0]
		members := []int{leader}
		rest := pool[:0]
		for _, idx := range pool[1:] {
			if c.Comparator.Match(records[leader].Fingerprint, records[idx].Fingerprint) {
				members = append(members, idx)
			} else {
				rest = append(rest, idx)
			}
		}
		pool = rest

		if len(members) > 1 {
			group := newGroup(records, members)
			result.Groups = append(result.Groups, group)
			sink.OnGroup(group)
		} else {
			result.Singletons++
		}

		sink.OnProgress(types.Progress{
			Stage:     types.StageCluster,
			Remaining: len(pool),
			Total:     total,
		})
	}

	return result, nil
}

// newGroup orders members by size with pool order as the tie-break
func newGroup(records []types.ImageRecord, indices []int) types.DuplicateGroup {
	members := make([]types.ImageRecord, len(indices))
	for i, idx := range indices {
		members[i] = records[idx]
	}
	slices.SortStableFunc(members, func(a, b types.ImageRecord) int {
		switch {
		case a.Size < b.Size:
			return -1
		case a.Size > b.Size:
			return 1
		default:
			return 0
		}
	})
	return types.NewDuplicateGroup(members)
}

type nopSink struct{}

func (nopSink) OnGroup(types.DuplicateGroup) {}

func (nopSink) OnProgress(types.Progress) {}
