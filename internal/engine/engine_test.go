package engine_test

import (
	"encoding/json"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/morphrace/internal/contest"
	"github.com/san-kum/morphrace/internal/dynamo"
	"github.com/san-kum/morphrace/internal/engine"
	"github.com/san-kum/morphrace/internal/morphology"
)

const (
	policyArgs = `{"layers":[6,2],"activation":"tanh"}`
	squareMesh = `{"pos":[[0,0],[1,0],[1,1],[0,1]],"triangles":[[0,1,2],[0,2,3]]}`
	triMesh    = `{"pos":[[0,0],[1,0],[0,1]],"triangles":[[0,1,2]]}`
)

// biasOnlyWeights builds a 6→2 policy whose outputs are tanh(throttle) and
// tanh(turn) regardless of the observation.
func biasOnlyWeights(throttle, turn float64) string {
	w := make([]float64, 6*2+2)
	w[12] = throttle
	w[13] = turn
	data, _ := json.Marshal(w)
	return string(data)
}

var _ = Describe("registry", func() {
	It("builds backends by mode", func() {
		eng, err := engine.New(engine.Config{Mode: engine.ModeRace, Laps: 2})
		Expect(err).NotTo(HaveOccurred())
		Expect(eng).To(BeAssignableToTypeOf(&engine.RaceEngine{}))
		Expect(eng.Mode()).To(Equal("race"))

		eng, err = engine.New(engine.Config{Mode: engine.ModeContest})
		Expect(err).NotTo(HaveOccurred())
		Expect(eng.Mode()).To(Equal("contest"))
	})

	It("defaults to race", func() {
		eng, err := engine.New(engine.Config{})
		Expect(err).NotTo(HaveOccurred())
		Expect(eng.Mode()).To(Equal(engine.ModeRace))
	})

	It("rejects unknown modes", func() {
		_, err := engine.New(engine.Config{Mode: "derby"})
		Expect(err).To(MatchError(engine.ErrUnknownMode))
	})

	It("accepts new backends", func() {
		engine.Register("sprint", func(cfg engine.Config) (engine.Engine, error) {
			cfg.Laps = 1
			return engine.NewRace(cfg), nil
		})
		Expect(engine.Modes()).To(ContainElements("contest", "race", "sprint"))
		eng, err := engine.New(engine.Config{Mode: "sprint", Laps: 9})
		Expect(err).NotTo(HaveOccurred())
		Expect(eng.Snapshot().TotalLaps).To(Equal(1))
	})
})

var _ = Describe("RaceEngine", func() {
	var e *engine.RaceEngine

	BeforeEach(func() {
		e = engine.NewRace(engine.Config{Laps: 3, Morphology: morphology.Biped})
	})

	It("ignores updates before start", func() {
		e.Update(0.1, 100, []string{"ArrowUp"})
		Expect(e.Started()).To(BeFalse())
		Expect(e.Speed()).To(BeZero())
		Expect(e.Position()).To(Equal(dynamo.Vec3{X: 10, Y: 1, Z: 0}))
	})

	It("moves forward along +z", func() {
		e.Start(0)
		e.Update(0.1, 100, []string{"ArrowUp"})
		Expect(e.Speed()).To(BeNumerically(">", 0))
		Expect(e.Position().Z).To(BeNumerically(">", 0))
		Expect(e.Position().X).To(Equal(10.0))
		Expect(e.CurrentTime()).To(BeNumerically("~", 0.1, 1e-12))
	})

	It("counts three laps from three full turns", func() {
		e.Start(0)
		perLap := 2 * math.Pi / 3 // seconds of full left turn per lap
		for i := 1; i <= 3; i++ {
			e.Update(perLap, float64(i)*1000, []string{"ArrowLeft"})
			Expect(e.Lap()).To(Equal(i))
		}
		Expect(e.Completed()).To(BeTrue())

		e.Update(perLap, 4000, []string{"ArrowLeft"})
		Expect(e.Lap()).To(Equal(3))
		Expect(e.Completed()).To(BeTrue())
		Expect(e.CurrentTime()).To(BeNumerically("~", 3.0, 1e-12))
		Expect(e.Splits()).To(HaveLen(3))
	})

	It("does not reset on a second start", func() {
		e.Start(0)
		e.Update(0.016, 500, nil)
		e.Start(1000)
		Expect(e.CurrentTime()).To(BeNumerically("~", 0.5, 1e-12))
		Expect(e.Started()).To(BeTrue())
	})

	It("keeps speed within the morphology limit", func() {
		e.Start(0)
		max := morphology.Lookup(morphology.Biped).MaxSpeed
		keys := [][]string{{"ArrowUp"}, {"Space"}, {}, {"KeyW", "KeyD"}, {"bogus"}}
		for i := 0; i < 500; i++ {
			e.Update(float64(i%7)*0.03, float64(i)*16, keys[i%len(keys)])
			Expect(math.Abs(e.Speed())).To(BeNumerically("<=", max))
		}
	})

	It("survives a non-finite delta", func() {
		e.Start(0)
		e.Update(math.NaN(), 16, []string{"ArrowUp"})
		e.Update(math.Inf(1), 32, []string{"ArrowUp"})
		Expect(e.Position()).To(Equal(dynamo.Vec3{X: 10, Y: 1, Z: 0}))
	})

	Describe("policies", func() {
		It("drives the creature instead of keys", func() {
			Expect(e.LoadPolicy(policyArgs, biasOnlyWeights(5, 0))).To(Succeed())
			Expect(e.HasPolicy()).To(BeTrue())
			e.Start(0)
			e.Update(0.1, 100, []string{"Space"})
			Expect(e.Speed()).To(BeNumerically(">", 0))
			Expect(e.Snapshot().Creatures[0].Driver).To(Equal("policy"))
		})

		It("keeps the previous policy when a load fails", func() {
			Expect(e.LoadPolicy(policyArgs, biasOnlyWeights(5, 0))).To(Succeed())

			err := e.LoadPolicy(policyArgs, `[1, 2, 3]`)
			Expect(err).To(MatchError(dynamo.ErrPolicyFormat))
			err = e.LoadPolicy(`{"layers":`, `[]`)
			Expect(err).To(MatchError(dynamo.ErrPolicyParse))

			Expect(e.HasPolicy()).To(BeTrue())
			e.Start(0)
			e.Update(0.1, 100, nil)
			Expect(e.Speed()).To(BeNumerically(">", 0))
		})

		It("rejects a policy that does not fit the observation", func() {
			err := e.LoadPolicy(`{"layers":[3,2]}`, `[0,0,0,0,0,0,0,0]`)
			Expect(err).To(MatchError(dynamo.ErrPolicyFormat))
			err = e.LoadPolicy(`{"layers":[6,1]}`, `[0,0,0,0,0,0,0]`)
			Expect(err).To(MatchError(dynamo.ErrPolicyFormat))
			Expect(e.HasPolicy()).To(BeFalse())
		})
	})

	Describe("meshes", func() {
		It("exposes nodes and edges once attached", func() {
			Expect(e.NodePositions()).To(BeNil())
			Expect(e.InitSimulation(squareMesh)).To(Succeed())
			Expect(e.NodePositions()).To(HaveLen(4))
			Expect(e.Edges()).To(HaveLen(5))
			Expect(e.Snapshot().Nodes).To(HaveLen(1))
		})

		It("keeps the previous mesh when a load fails", func() {
			Expect(e.InitSimulation(squareMesh)).To(Succeed())
			err := e.InitSimulation(`{"pos":[[0,0]],"triangles":[[0,1,2]]}`)
			Expect(err).To(MatchError(dynamo.ErrInvalidMeshData))
			Expect(e.NodePositions()).To(HaveLen(4))
		})

		It("wobbles the mesh while running", func() {
			Expect(e.InitSimulation(squareMesh)).To(Succeed())
			before := e.NodePositions()
			e.Start(0)
			for i := 1; i <= 20; i++ {
				e.Update(1.0/60, float64(i)*16, []string{"ArrowUp"})
			}
			Expect(e.NodePositions()).NotTo(Equal(before))
		})
	})
})

var _ = Describe("ContestEngine", func() {
	var e *engine.ContestEngine

	BeforeEach(func() {
		e = engine.NewContest(engine.Config{Morphology: morphology.Biped, Opponent: morphology.Biped})
	})

	It("spawns both creatures in their lanes", func() {
		s1, ok := e.Creature(1)
		Expect(ok).To(BeTrue())
		Expect(s1.Position).To(Equal(dynamo.Vec3{X: -10, Y: 1, Z: 2}))
		s2, _ := e.Creature(2)
		Expect(s2.Position).To(Equal(dynamo.Vec3{X: -10, Y: 1, Z: -2}))
		_, ok = e.Creature(3)
		Expect(ok).To(BeFalse())
	})

	It("drives each creature from its own keys", func() {
		e.Start(0)
		e.Update(0.1, 100, []string{"KeyW"})
		s1, _ := e.Creature(1)
		s2, _ := e.Creature(2)
		Expect(s1.Speed).To(BeNumerically(">", 0))
		Expect(s2.Speed).To(BeZero())
	})

	It("latches the first creature across the line", func() {
		e.Start(0)
		now := 0.0
		// creature 2 starts one tick late, so it crosses one tick after
		// creature 1 does
		e.Update(0.016, 16, []string{"KeyW"})
		for i := 0; i < 1000 && !e.Completed(); i++ {
			now += 16
			e.Update(0.016, now+16, []string{"KeyW", "ArrowUp"})
		}
		Expect(e.Completed()).To(BeTrue())
		Expect(e.Winner()).To(Equal(contest.Creature1))

		for i := 0; i < 10; i++ {
			e.Update(0.016, now+float64(i)*16, []string{"ArrowUp"})
		}
		Expect(e.Winner()).To(Equal(contest.Creature1))
		Expect(e.Snapshot().Winner).To(Equal(1))
	})

	It("gives a same-tick finish to creature 1", func() {
		e.Start(0)
		for i := 1; i <= 1000 && !e.Completed(); i++ {
			e.Update(0.016, float64(i)*16, []string{"KeyW", "ArrowUp"})
		}
		Expect(e.Winner()).To(Equal(contest.Creature1))
	})

	It("assigns LoadPolicy to creature 2 by default", func() {
		Expect(e.LoadPolicy(policyArgs, biasOnlyWeights(5, 0))).To(Succeed())
		Expect(e.HasPolicy(1)).To(BeFalse())
		Expect(e.HasPolicy(2)).To(BeTrue())

		e.Start(0)
		for i := 1; i <= 1000 && !e.Completed(); i++ {
			e.Update(0.016, float64(i)*16, nil)
		}
		Expect(e.Winner()).To(Equal(contest.Creature2))
	})

	It("honors configured policy slots", func() {
		e = engine.NewContest(engine.Config{PolicySlots: []int{1, 2}})
		Expect(e.LoadPolicy(policyArgs, biasOnlyWeights(5, 0))).To(Succeed())
		Expect(e.HasPolicy(1)).To(BeTrue())
		Expect(e.HasPolicy(2)).To(BeTrue())
	})

	It("loads a policy for a single slot", func() {
		Expect(e.LoadPolicyFor(1, policyArgs, biasOnlyWeights(5, 0))).To(Succeed())
		Expect(e.HasPolicy(1)).To(BeTrue())
		Expect(e.HasPolicy(2)).To(BeFalse())
		Expect(e.LoadPolicyFor(3, policyArgs, biasOnlyWeights(5, 0))).NotTo(Succeed())
	})

	It("lets the autopilot race a bot slot", func() {
		e = engine.NewContest(engine.Config{Bots: []int{1}})
		e.Start(0)
		for i := 1; i <= 2000 && !e.Completed(); i++ {
			e.Update(0.016, float64(i)*16, nil)
		}
		Expect(e.Winner()).To(Equal(contest.Creature1))
		Expect(e.Snapshot().Creatures[0].Driver).To(Equal("autopilot"))
	})

	It("drives a bot and a keyboard player side by side", func() {
		e = engine.NewContest(engine.Config{Bots: []int{2}})
		e.Start(0)
		e.Update(0.016, 16, []string{"KeyW", "ArrowDown"})
		snap := e.Snapshot()
		Expect(snap.Creatures[0].Driver).To(Equal("keys"))
		Expect(snap.Creatures[0].Control.Throttle).To(Equal(1.0))
		Expect(snap.Creatures[1].Driver).To(Equal("autopilot"))
		Expect(snap.Creatures[1].Control.Throttle).To(Equal(1.0))

		e.Update(0.016, 32, nil)
		snap = e.Snapshot()
		Expect(snap.Creatures[0].Control.Throttle).To(BeZero())
		Expect(snap.Creatures[1].Control.Throttle).To(Equal(1.0))
	})

	It("gives each creature an independent mesh", func() {
		Expect(e.InitSimulation(triMesh)).To(Succeed())
		e.Start(0)
		for i := 1; i <= 30; i++ {
			e.Update(1.0/60, float64(i)*16, []string{"KeyW"})
		}
		Expect(e.NodePositions(1)).To(HaveLen(3))
		Expect(e.NodePositions(2)).To(HaveLen(3))
		Expect(e.NodePositions(1)).NotTo(Equal(e.NodePositions(2)))
		Expect(e.Snapshot().Nodes).To(HaveLen(2))
	})

	It("rejects bad meshes without attaching anything", func() {
		err := e.InitSimulation(`{"pos":[],"triangles":[]}`)
		Expect(err).To(MatchError(dynamo.ErrInvalidMeshData))
		Expect(e.NodePositions(1)).To(BeNil())
		Expect(e.NodePositions(2)).To(BeNil())
	})

	It("serializes snapshots for hosts", func() {
		e.Start(0)
		e.Update(0.016, 16, []string{"KeyW"})
		data, err := json.Marshal(e.Snapshot())
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring(`"mode":"contest"`))
		Expect(string(data)).To(ContainSubstring(`"kind":"biped"`))
	})
})
