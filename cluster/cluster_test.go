package cluster_test

import (
	"context"
	"fmt"
	"math/rand/v2"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"photodedupe/cluster"
	"photodedupe/similarity"
	"photodedupe/types"
)

const reference = uint64(0xa5a5_5a5a_0f0f_f0f0)

// flipped returns the reference fingerprint with the lowest n bits inverted.
func flipped(n int) types.Fingerprint {
	var mask uint64
	if n >= 64 {
		mask = ^uint64(0)
	} else {
		mask = (uint64(1) << n) - 1
	}
	return types.Fingerprint{Rows: reference ^ mask, Cols: 0x1234, Bits: types.FullBits}
}

func record(i int, fp types.Fingerprint, size int64) types.ImageRecord {
	return types.ImageRecord{
		Path:        fmt.Sprintf("/photos/img_%02d.jpg", i),
		Fingerprint: fp,
		Size:        size,
		Width:       640,
		Height:      480,
		Index:       i,
	}
}

type recordingSink struct {
	groups   []types.DuplicateGroup
	progress []types.Progress
}

func (s *recordingSink) OnGroup(g types.DuplicateGroup) { s.groups = append(s.groups, g) }

func (s *recordingSink) OnProgress(p types.Progress) { s.progress = append(s.progress, p) }

func expectInvariants(result types.RunResult, total int) {
	seen := map[string]bool{}
	for _, g := range result.Groups {
		Expect(len(g.Members)).To(BeNumerically(">=", 2))

		keeper, ok := g.Keeper()
		Expect(ok).To(BeTrue())
		for _, m := range g.Members {
			Expect(keeper.Size).To(BeNumerically("<=", m.Size))
			if m.Size == keeper.Size {
				Expect(keeper.Index).To(BeNumerically("<=", m.Index))
			}
			Expect(seen[m.Path]).To(BeFalse(), "record %s in more than one group", m.Path)
			seen[m.Path] = true
		}

		Expect(g.Discards()).To(HaveLen(len(g.Members) - 1))
		Expect(g.Discards()).NotTo(ContainElement(keeper))
	}
	Expect(result.Duplicates() + result.Singletons).To(Equal(total))
}

var _ = Describe("Cluster", func() {
	It("groups near copies of a reference and counts the outlier as a singleton", func() {
		records := []types.ImageRecord{
			record(0, flipped(0), 300),
			record(1, flipped(0), 200),
			record(2, flipped(1), 100),
			record(3, flipped(50), 50),
		}

		result := cluster.Cluster(records, similarity.DefaultThreshold)
		Expect(result.Groups).To(HaveLen(1))
		Expect(result.Groups[0].Members).To(HaveLen(3))
		Expect(result.Singletons).To(Equal(1))

		paths := []string{}
		for _, m := range result.Groups[0].Members {
			paths = append(paths, m.Path)
		}
		Expect(paths).To(Equal([]string{records[2].Path, records[1].Path, records[0].Path}))
		expectInvariants(result, len(records))
	})

	It("keeps the first discovered file when sizes tie", func() {
		size := int64(2 * 1024 * 1024)
		records := []types.ImageRecord{
			record(0, flipped(0), size),
			record(1, flipped(0), size),
		}

		result := cluster.Cluster(records, similarity.DefaultThreshold)
		Expect(result.Groups).To(HaveLen(1))

		keeper, ok := result.Groups[0].Keeper()
		Expect(ok).To(BeTrue())
		Expect(keeper.Path).To(Equal(records[0].Path))
		Expect(result.Groups[0].Discards()).To(Equal([]types.ImageRecord{records[1]}))
	})

	It("reports no groups for mutually dissimilar images", func() {
		var records []types.ImageRecord
		for i := range 5 {
			fp := types.Fingerprint{Rows: uint64(0xff) << (i * 12), Bits: types.FullBits}
			records = append(records, record(i, fp, int64(100+i)))
		}

		result := cluster.Cluster(records, similarity.DefaultThreshold)
		Expect(result.Groups).To(BeEmpty())
		Expect(result.Singletons).To(Equal(5))
	})

	It("returns an empty result for no records", func() {
		result := cluster.Cluster(nil, similarity.DefaultThreshold)
		Expect(result.Groups).To(BeEmpty())
		Expect(result.Singletons).To(BeZero())
	})

	It("orders groups by the input order of their leaders", func() {
		a := types.Fingerprint{Rows: 0, Bits: types.FullBits}
		b := types.Fingerprint{Rows: ^uint64(0), Bits: types.FullBits}
		records := []types.ImageRecord{
			record(0, b, 10),
			record(1, a, 10),
			record(2, a, 10),
			record(3, b, 10),
		}

		result := cluster.Cluster(records, 0)
		Expect(result.Groups).To(HaveLen(2))
		Expect(result.Groups[0].Members[0].Path).To(Equal(records[0].Path))
		Expect(result.Groups[1].Members[0].Path).To(Equal(records[1].Path))
	})

	It("keeps the order-dependent grouping of borderline chains", func() {
		// A and C are each within 2 bits of B but 4 bits from each other.
		fa := types.Fingerprint{Rows: 0b0000, Bits: types.FullBits}
		fb := types.Fingerprint{Rows: 0b0011, Bits: types.FullBits}
		fc := types.Fingerprint{Rows: 0b1111, Bits: types.FullBits}

		bFirst := cluster.Cluster([]types.ImageRecord{
			record(0, fb, 1), record(1, fa, 1), record(2, fc, 1),
		}, 2)
		Expect(bFirst.Groups).To(HaveLen(1))
		Expect(bFirst.Groups[0].Members).To(HaveLen(3))

		aFirst := cluster.Cluster([]types.ImageRecord{
			record(0, fa, 1), record(1, fb, 1), record(2, fc, 1),
		}, 2)
		Expect(aFirst.Groups).To(HaveLen(1))
		Expect(aFirst.Groups[0].Members).To(HaveLen(2))
		Expect(aFirst.Singletons).To(Equal(1))
	})

	It("holds the group and partition invariants on random input", func() {
		r := rand.New(rand.NewPCG(7, 11))
		bases := []uint64{r.Uint64(), r.Uint64(), r.Uint64(), r.Uint64()}
		var records []types.ImageRecord
		for i := range 200 {
			rows := bases[r.IntN(len(bases))]
			for range r.IntN(4) {
				rows ^= 1 << r.IntN(64)
			}
			fp := types.Fingerprint{Rows: rows, Bits: types.FullBits}
			records = append(records, record(i, fp, int64(r.IntN(5))))
		}

		result := cluster.Cluster(records, 3)
		expectInvariants(result, len(records))
	})
})

var _ = Describe("Clusterer", func() {
	It("rejects a negative threshold", func() {
		_, err := cluster.New(-3)
		Expect(err).To(MatchError(similarity.ErrNegativeThreshold))
	})

	It("streams groups and remaining pool counts", func() {
		records := []types.ImageRecord{
			record(0, flipped(0), 5),
			record(1, flipped(60), 5),
			record(2, flipped(1), 5),
		}
		c, err := cluster.New(similarity.DefaultThreshold)
		Expect(err).NotTo(HaveOccurred())

		sink := &recordingSink{}
		result, err := c.Run(context.Background(), records, sink)
		Expect(err).NotTo(HaveOccurred())
		Expect(sink.groups).To(Equal(result.Groups))
		Expect(sink.progress).To(Equal([]types.Progress{
			{Stage: types.StageCluster, Remaining: 1, Total: 3},
			{Stage: types.StageCluster, Remaining: 0, Total: 3},
		}))
	})

	It("stops between leaders when the context is cancelled", func() {
		records := []types.ImageRecord{record(0, flipped(0), 1), record(1, flipped(0), 1)}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		c, err := cluster.New(similarity.DefaultThreshold)
		Expect(err).NotTo(HaveOccurred())
		result, err := c.Run(ctx, records, nil)
		Expect(err).To(MatchError(context.Canceled))
		Expect(result.Groups).To(BeEmpty())
	})

	Describe("transitive strategy", func() {
		It("joins borderline chains regardless of order", func() {
			fa := types.Fingerprint{Rows: 0b0000, Bits: types.FullBits}
			fb := types.Fingerprint{Rows: 0b0011, Bits: types.FullBits}
			fc := types.Fingerprint{Rows: 0b1111, Bits: types.FullBits}
			far := types.Fingerprint{Rows: ^uint64(0), Bits: types.FullBits}

			c := &cluster.Clusterer{
				Comparator: similarity.Comparator{Threshold: 2},
				Strategy:   cluster.StrategyTransitive,
			}
			records := []types.ImageRecord{
				record(0, fa, 3), record(1, far, 1), record(2, fc, 2), record(3, fb, 1),
			}
			result, err := c.Run(context.Background(), records, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Groups).To(HaveLen(1))
			Expect(result.Groups[0].Members).To(HaveLen(3))
			Expect(result.Groups[0].Members[0].Path).To(Equal(records[3].Path))
			Expect(result.Singletons).To(Equal(1))
			expectInvariants(result, len(records))
		})
	})
})
