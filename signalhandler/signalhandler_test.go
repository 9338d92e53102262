package signalhandler_test

import (
	"context"
	"os"
	"syscall"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"photodedupe/signalhandler"
)

var _ = Describe("Signal handling", func() {
	Describe("Context", func() {
		It("is cancelled when the parent is cancelled", func() {
			parent, cancel := context.WithCancel(context.Background())
			ctx, stop := signalhandler.Context(parent)
			defer stop()

			cancel()
			Eventually(ctx.Done()).Should(BeClosed())
		})

		It("watches interrupt and terminate", func() {
			Expect(signalhandler.Signals).To(ConsistOf(os.Interrupt, syscall.SIGTERM))
		})
	})

	DescribeTable("optimal procs",
		func(cpus, expected int) {
			Expect(signalhandler.OptimalProcs(cpus)).To(Equal(expected))
		},
		Entry("single core", 1, 1),
		Entry("two cores", 2, 1),
		Entry("four cores", 4, 3),
		Entry("sixteen cores", 16, 12),
	)

	Describe("ResolveWorkers", func() {
		It("keeps an explicit count", func() {
			Expect(signalhandler.ResolveWorkers(5)).To(Equal(5))
		})

		It("picks from the CPU count when unset", func() {
			Expect(signalhandler.ResolveWorkers(0)).To(Equal(signalhandler.GetOptimalProcs()))
		})
	})
})
