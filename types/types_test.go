package types_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"photodedupe/types"
)

var _ = Describe("ImageRecord", func() {
	r := types.ImageRecord{Path: "/photos/trip/IMG_0001.JPG", Size: 2_621_440, Width: 4032, Height: 3024}

	It("exposes display helpers", func() {
		Expect(r.Name()).To(Equal("IMG_0001.JPG"))
		Expect(r.SizeMB()).To(BeNumerically("~", 2.5, 1e-9))
		Expect(r.Dimensions()).To(Equal("4032x3024"))
	})
})

var _ = Describe("DuplicateGroup", func() {
	members := []types.ImageRecord{
		{Path: "/p/a.jpg", Size: 10, Index: 3},
		{Path: "/p/b.jpg", Size: 20, Index: 0},
		{Path: "/p/c.jpg", Size: 30, Index: 1},
	}

	It("keeps the first member by default", func() {
		g := types.NewDuplicateGroup(members)
		Expect(g.Keep).To(Equal([]int{0}))
		Expect(g.IsKept(0)).To(BeTrue())
		Expect(g.IsKept(1)).To(BeFalse())

		keeper, ok := g.Keeper()
		Expect(ok).To(BeTrue())
		Expect(keeper.Path).To(Equal("/p/a.jpg"))
	})

	It("partitions members into kept and discarded", func() {
		g := types.DuplicateGroup{Members: members, Keep: []int{0, 2}}
		Expect(g.Kept()).To(Equal([]types.ImageRecord{members[0], members[2]}))
		Expect(g.Discards()).To(Equal([]types.ImageRecord{members[1]}))
	})

	It("has no keeper when every member is discarded", func() {
		g := types.DuplicateGroup{Members: members, Keep: []int{}}
		_, ok := g.Keeper()
		Expect(ok).To(BeFalse())
		Expect(g.Kept()).To(BeEmpty())
		Expect(g.Discards()).To(HaveLen(3))
	})

	It("compares members and keep sets", func() {
		a := types.NewDuplicateGroup(members)
		b := types.NewDuplicateGroup(members)
		Expect(a.Equal(b)).To(BeTrue())

		b.Keep = []int{1}
		Expect(a.Equal(b)).To(BeFalse())
	})
})

var _ = Describe("RunResult", func() {
	It("counts duplicates and collects discards in group order", func() {
		result := types.RunResult{
			Groups: []types.DuplicateGroup{
				types.NewDuplicateGroup([]types.ImageRecord{{Path: "a"}, {Path: "b"}}),
				types.NewDuplicateGroup([]types.ImageRecord{{Path: "c"}, {Path: "d"}, {Path: "e"}}),
			},
			Singletons: 4,
		}
		Expect(result.Duplicates()).To(Equal(5))

		var paths []string
		for _, r := range result.Discards() {
			paths = append(paths, r.Path)
		}
		Expect(paths).To(Equal([]string{"b", "d", "e"}))
	})

	It("has no discards without groups", func() {
		Expect(types.RunResult{}.Discards()).To(BeEmpty())
	})
})

var _ = Describe("Fingerprint", func() {
	full := types.Fingerprint{Rows: 0xa5a55a5a0f0ff0f0, Cols: 0x1, Bits: types.FullBits}
	row := types.Fingerprint{Rows: 0xff, Bits: types.RowBits}

	It("formats as fixed width hex", func() {
		Expect(full.String()).To(Equal("a5a55a5a0f0ff0f00000000000000001"))
		Expect(row.String()).To(Equal("00000000000000ff"))
	})

	DescribeTable("parses its own hex form",
		func(fp types.Fingerprint) {
			parsed, err := types.ParseFingerprint(fp.String())
			Expect(err).NotTo(HaveOccurred())
			Expect(parsed).To(Equal(fp))
		},
		Entry("full width", full),
		Entry("row only", row),
	)

	DescribeTable("rejects malformed input",
		func(s string) {
			_, err := types.ParseFingerprint(s)
			Expect(err).To(HaveOccurred())
		},
		Entry("empty", ""),
		Entry("odd length", "abc"),
		Entry("not hex", "zzzzzzzzzzzzzzzz"),
		Entry("bad column half", "0000000000000000zzzzzzzzzzzzzzzz"),
	)

	It("travels through JSON as a hex string", func() {
		data, err := json.Marshal(types.ImageRecord{Path: "a.jpg", Fingerprint: full})
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring(`"fingerprint":"a5a55a5a0f0ff0f00000000000000001"`))

		var back types.ImageRecord
		Expect(json.Unmarshal(data, &back)).To(Succeed())
		Expect(back.Fingerprint).To(Equal(full))
	})

	It("rejects a non-string JSON value", func() {
		var fp types.Fingerprint
		Expect(json.Unmarshal([]byte("42"), &fp)).NotTo(Succeed())
	})
})

var _ = Describe("Progress", func() {
	DescribeTable("Percent",
		func(p types.Progress, expected float64) {
			Expect(p.Percent()).To(BeNumerically("~", expected, 1e-9))
		},
		Entry("extract halfway", types.Progress{Stage: types.StageExtract, Processed: 5, Total: 10}, 50.0),
		Entry("cluster with pool left", types.Progress{Stage: types.StageCluster, Remaining: 1, Total: 4}, 75.0),
		Entry("nothing to do", types.Progress{Stage: types.StageExtract}, 100.0),
	)
})
