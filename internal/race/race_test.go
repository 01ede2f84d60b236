package race_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/morphrace/internal/dynamo"
	"github.com/san-kum/morphrace/internal/race"
)

const turn = 2 * math.Pi

var _ = Describe("Race", func() {
	var r *race.Race

	BeforeEach(func() {
		r = race.New(3)
	})

	It("starts idle", func() {
		Expect(r.Status()).To(Equal(race.NotStarted))
		Expect(r.Lap()).To(Equal(0))
		Expect(r.TotalLaps()).To(Equal(3))
		Expect(r.Started()).To(BeFalse())
		Expect(r.Completed()).To(BeFalse())
	})

	It("raises a non-positive lap count to one", func() {
		Expect(race.New(0).TotalLaps()).To(Equal(1))
		Expect(race.New(-4).TotalLaps()).To(Equal(1))
	})

	It("ignores Advance before Start", func() {
		Expect(r.Advance(500, turn*2)).To(BeFalse())
		Expect(r.Lap()).To(Equal(0))
		Expect(r.Elapsed()).To(BeZero())
	})

	Describe("Start", func() {
		It("records the start time", func() {
			Expect(r.Start(1000)).To(Succeed())
			Expect(r.Started()).To(BeTrue())
			Expect(r.StartTime()).To(Equal(1000.0))
		})

		It("rejects a second start without resetting", func() {
			Expect(r.Start(1000)).To(Succeed())
			r.Advance(3000, 0)

			err := r.Start(5000)
			Expect(err).To(MatchError(dynamo.ErrInvalidTransition))
			Expect(r.StartTime()).To(Equal(1000.0))
			Expect(r.Elapsed()).To(BeNumerically("~", 2.0, 1e-12))
		})
	})

	Describe("lap counting", func() {
		BeforeEach(func() {
			Expect(r.Start(0)).To(Succeed())
		})

		It("credits one lap per full turn and completes", func() {
			for i := 1; i <= 3; i++ {
				Expect(r.Advance(float64(i)*100, float64(i)*turn)).To(BeTrue())
				Expect(r.Lap()).To(Equal(i))
			}
			Expect(r.Completed()).To(BeTrue())

			Expect(r.Advance(400, 4*turn)).To(BeFalse())
			Expect(r.Lap()).To(Equal(3))
			Expect(r.Completed()).To(BeTrue())
		})

		It("skips the extra turns of an oversized step", func() {
			Expect(r.Advance(100, 2.5*turn)).To(BeTrue())
			Expect(r.Lap()).To(Equal(1))
			Expect(r.Advance(200, 2.5*turn)).To(BeFalse())
			Expect(r.Advance(300, 2.5*turn)).To(BeFalse())
			Expect(r.Lap()).To(Equal(1))
			Expect(r.Completed()).To(BeFalse())

			Expect(r.Advance(400, 2.9*turn)).To(BeFalse())
			Expect(r.Advance(500, 3*turn)).To(BeTrue())
			Expect(r.Lap()).To(Equal(2))
		})

		It("counts turns in either direction", func() {
			Expect(r.Advance(100, -1.05*turn)).To(BeTrue())
			Expect(r.Lap()).To(Equal(1))
		})

		It("does not count a partial turn", func() {
			Expect(r.Advance(100, 0.99*turn)).To(BeFalse())
			Expect(r.Lap()).To(Equal(0))
			Expect(r.Progress(0.99 * turn)).To(BeNumerically("~", 0.33, 0.01))
		})

		It("reports elapsed seconds and splits", func() {
			r.Advance(1500, 1.1*turn)
			r.Advance(4000, 2.1*turn)
			Expect(r.Elapsed()).To(BeNumerically("~", 4.0, 1e-12))
			Expect(r.Splits()).To(Equal([]float64{1.5, 4.0}))
		})

		It("freezes elapsed time once completed", func() {
			for i := 1; i <= 3; i++ {
				r.Advance(float64(i)*1000, float64(i)*turn)
			}
			r.Advance(9000, 3*turn)
			Expect(r.Elapsed()).To(BeNumerically("~", 3.0, 1e-12))
			Expect(r.Progress(0)).To(Equal(1.0))
		})
	})
})
