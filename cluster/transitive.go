package cluster

import (
	"context"

	"photodedupe/types"
)

// runTransitive groups records into connected components of the "within
// threshold" graph. Groups are ordered by the input position of their first
// member and members keep the same size-then-order policy as the leader
// strategy.
func (c *Clusterer) runTransitive(ctx context.Context, records []types.ImageRecord, sink Sink) (types.RunResult, error) {
	var result types.RunResult
	total := len(records)

	parent := make([]int, total)
	for i := range parent {
		parent[i] = i
	}
	find := func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}

	for i := range records {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		for j := i + 1; j < total; j++ {
			if !c.Comparator.Match(records[i].Fingerprint, records[j].Fingerprint) {
				continue
			}
			ri, rj := find(i), find(j)
			if ri == rj {
				continue
			}
			// The smaller index stays root so components are keyed by first member.
			if rj < ri {
				ri, rj = rj, ri
			}
			parent[rj] = ri
		}
	}

	components := make(map[int][]int)
	for i := range records {
		root := find(i)
		components[root] = append(components[root], i)
	}

	remaining := total
	for i := range records {
		members, ok := components[i]
		if !ok {
			continue
		}
		remaining -= len(members)

		if len(members) > 1 {
			group := newGroup(records, members)
			result.Groups = append(result.Groups, group)
			sink.OnGroup(group)
		} else {
			result.Singletons++
		}

		sink.OnProgress(types.Progress{
			Stage:     types.StageCluster,
			Remaining: remaining,
			Total:     total,
		})
	}

	return result, nil
}
