package qatp

import (
	"bytes"
	"errors"
	"math"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/rs/zerolog"
)

type recordingObserver struct {
	results []CycleResult
}

func (r *recordingObserver) OnCycle(c CycleResult) { r.results = append(r.results, c) }

var _ = Describe("System", func() {
	var cfg Config

	BeforeEach(func() {
		cfg = DefaultConfig()
	})

	Describe("construction", func() {
		It("rejects battery_efficiency above one before any cycle", func() {
			cfg.BatteryEfficiency = 1.5
			sys, err := NewSystem(cfg)
			Expect(sys).To(BeNil())
			Expect(errors.Is(err, ErrConfiguration)).To(BeTrue())

			var ce *ConfigError
			Expect(errors.As(err, &ce)).To(BeTrue())
			Expect(ce.Field).To(Equal("battery_efficiency"))
		})

		DescribeTable("out-of-bound parameters",
			func(mutate func(*Config), field string) {
				mutate(&cfg)
				_, err := NewSystem(cfg)
				var ce *ConfigError
				Expect(errors.As(err, &ce)).To(BeTrue())
				Expect(ce.Field).To(Equal(field))
			},
			Entry("capacity", func(c *Config) { c.BatteryCapacity = 0 }, "battery_capacity"),
			Entry("decay rate", func(c *Config) { c.CondensateDecayRate = 1 }, "condensate_decay_rate"),
			Entry("empty chain", func(c *Config) { c.ChainNodeDecays = nil }, "chain_node_decays"),
			Entry("threshold", func(c *Config) { c.ActivationThreshold = -1 }, "activation_threshold"),
			Entry("tunneling", func(c *Config) { c.TunnelingProbability = 2 }, "tunneling_probability"),
			Entry("release ratio", func(c *Config) { c.ReleaseRatio = 0 }, "release_ratio"),
			Entry("initial charge", func(c *Config) { c.BatteryInitialCharge = 20 }, "battery_initial_charge"),
		)

		It("does not share the chain slice with the caller", func() {
			sys, err := NewSystem(cfg)
			Expect(err).NotTo(HaveOccurred())
			cfg.ChainNodeDecays[0] = 0.1
			Expect(sys.Config().ChainNodeDecays[0]).To(Equal(0.95))
		})
	})

	Describe("HybridProcess", func() {
		It("activates on the default scenario", func() {
			sys, err := NewSystem(cfg)
			Expect(err).NotTo(HaveOccurred())
			initial := sys.Snapshot()

			activated, snap, err := sys.HybridProcess(3.0)
			Expect(err).NotTo(HaveOccurred())
			Expect(activated).To(BeTrue())
			Expect(snap.NQPUState).To(BeTrue())

			Expect(snap.BatteryEnergy).To(BeNumerically("<", initial.BatteryEnergy))
			Expect(snap.BatteryEnergy).To(BeNumerically("~", 7.0, 1e-9))
			// the condensate starts empty and releases all it absorbed
			Expect(snap.CondensateEnergy).To(BeNumerically("<=", initial.CondensateEnergy))

			Expect(snap.ExcitonChainState).To(HaveLen(2))
			Expect(snap.ExcitonChainState[0]).To(BeNumerically("~", 2.052, 1e-9))
			Expect(snap.ExcitonChainState[1]).To(BeNumerically("~", 1.8468, 1e-9))
			Expect(snap.ExcitonChainState[1]).To(BeNumerically("<", snap.ExcitonChainState[0]))
		})

		It("reports every stage of the cycle", func() {
			sys, _ := NewSystem(cfg)
			r, err := sys.Process(3.0)
			Expect(err).NotTo(HaveOccurred())
			Expect(r.Cycle).To(Equal(1))
			Expect(r.Delivered).To(BeNumerically("~", 2.7, 1e-9))
			Expect(r.Released).To(BeNumerically("~", 2.16, 1e-9))
			Expect(r.Propagated).To(BeNumerically("~", 1.8468, 1e-9))
			Expect(r.Tunneled).To(BeFalse())
		})

		It("keeps the condensate balance when only part is released", func() {
			cfg.ReleaseRatio = 0.5
			sys, _ := NewSystem(cfg)
			r, err := sys.Process(3.0)
			Expect(err).NotTo(HaveOccurred())
			Expect(r.Snapshot.CondensateEnergy).To(BeNumerically("~", 1.35, 1e-9))
			Expect(r.Released).To(BeNumerically("~", 1.35*0.8, 1e-9))
		})

		DescribeTable("rejects invalid input without mutation",
			func(input float64) {
				sys, _ := NewSystem(cfg)
				before := sys.Snapshot()
				_, _, err := sys.HybridProcess(input)
				Expect(errors.Is(err, ErrInvalidInput)).To(BeTrue())
				Expect(sys.Snapshot()).To(Equal(before))
				Expect(sys.Cycles()).To(BeZero())
			},
			Entry("negative", -1.0),
			Entry("NaN", math.NaN()),
			Entry("infinite", math.Inf(1)),
		)

		It("never reports negative energy while depleting", func() {
			cfg.TunnelingProbability = 0
			sys, _ := NewSystem(cfg)

			var last Snapshot
			for i := 0; i < 8; i++ {
				activated, snap, err := sys.HybridProcess(3.0)
				Expect(err).NotTo(HaveOccurred())
				Expect(snap.BatteryEnergy).To(BeNumerically(">=", 0))
				Expect(snap.CondensateEnergy).To(BeNumerically(">=", 0))
				for _, v := range snap.ExcitonChainState {
					Expect(v).To(BeNumerically(">=", 0))
				}
				if i >= 4 {
					Expect(activated).To(BeFalse())
				}
				last = snap
			}
			Expect(last.BatteryEnergy).To(BeZero())
			Expect(last.NQPUState).To(BeFalse())
		})

		It("never increases stored energy within a cycle", func() {
			cfg.TunnelingProbability = 0.5
			sys, _ := NewSystem(cfg)
			prev := sys.Snapshot().StoredEnergy()
			for _, in := range []float64{0.5, 3, 0, 7, 1.25, 10} {
				_, snap, err := sys.HybridProcess(in)
				Expect(err).NotTo(HaveOccurred())
				Expect(snap.StoredEnergy()).To(BeNumerically("<=", prev+1e-12))
				prev = snap.StoredEnergy()
			}
		})

		It("is reproducible for a fixed seed", func() {
			cfg.TunnelingProbability = 0.5
			cfg.BatteryCapacity = 100
			cfg.BatteryInitialCharge = 100
			a, _ := NewSystem(cfg)
			b, _ := NewSystem(cfg)
			for i := 0; i < 50; i++ {
				ra, errA := a.Process(0.8)
				rb, errB := b.Process(0.8)
				Expect(errA).NotTo(HaveOccurred())
				Expect(errB).NotTo(HaveOccurred())
				Expect(ra).To(Equal(rb))
			}
		})

		It("notifies observers in cycle order", func() {
			sys, _ := NewSystem(cfg)
			obs := &recordingObserver{}
			sys.AddObserver(obs)
			for i := 0; i < 3; i++ {
				_, err := sys.Process(1.0)
				Expect(err).NotTo(HaveOccurred())
			}
			Expect(obs.results).To(HaveLen(3))
			for i, r := range obs.results {
				Expect(r.Cycle).To(Equal(i + 1))
			}
		})

		It("logs each cycle at debug level", func() {
			var buf bytes.Buffer
			sys, _ := NewSystem(cfg)
			sys.SetLogger(zerolog.New(&buf).Level(zerolog.DebugLevel))
			_, err := sys.Process(3.0)
			Expect(err).NotTo(HaveOccurred())
			Expect(buf.String()).To(ContainSubstring(`"message":"cycle complete"`))
			Expect(buf.String()).To(ContainSubstring(`"activated":true`))
		})
	})

	Describe("reject underflow policy", func() {
		BeforeEach(func() {
			cfg.UnderflowPolicy = UnderflowReject
			cfg.BatteryInitialCharge = 4
		})

		It("fails the cycle and leaves every component untouched", func() {
			sys, _ := NewSystem(cfg)
			_, _, err := sys.HybridProcess(3.0)
			Expect(err).NotTo(HaveOccurred())
			before := sys.Snapshot()

			_, _, err = sys.HybridProcess(3.0)
			Expect(errors.Is(err, ErrInsufficientEnergy)).To(BeTrue())
			Expect(sys.Snapshot()).To(Equal(before))
			Expect(sys.Cycles()).To(Equal(1))
		})

		It("succeeds on the exact boundary", func() {
			sys, _ := NewSystem(cfg)
			_, snap, err := sys.HybridProcess(4.0)
			Expect(err).NotTo(HaveOccurred())
			Expect(snap.BatteryEnergy).To(BeZero())
		})
	})

	Describe("adaptive coherence", func() {
		It("scales every hop by the load-derived coherence", func() {
			cfg.AdaptiveCoherence = true
			sys, _ := NewSystem(cfg)
			r, err := sys.Process(3.0)
			Expect(err).NotTo(HaveOccurred())
			Expect(r.Propagated).To(BeNumerically("~", 2.16*0.95*0.95*0.9*0.95, 1e-9))
		})
	})

	Describe("Recharge", func() {
		It("clamps to capacity", func() {
			cfg.BatteryInitialCharge = 8
			sys, _ := NewSystem(cfg)
			accepted, err := sys.Recharge(5)
			Expect(err).NotTo(HaveOccurred())
			Expect(accepted).To(Equal(2.0))
			Expect(sys.Snapshot().BatteryEnergy).To(Equal(10.0))

			_, err = sys.Recharge(-1)
			Expect(errors.Is(err, ErrInvalidInput)).To(BeTrue())
		})
	})

	Describe("concurrent callers", func() {
		It("serializes whole cycles", func() {
			cfg.BatteryCapacity = 1000
			cfg.BatteryInitialCharge = 1000
			sys, _ := NewSystem(cfg)

			var wg sync.WaitGroup
			for g := 0; g < 8; g++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					defer GinkgoRecover()
					for i := 0; i < 50; i++ {
						_, snap, err := sys.HybridProcess(1.0)
						Expect(err).NotTo(HaveOccurred())
						Expect(snap.BatteryEnergy).To(BeNumerically(">=", 0))
						_, err = sys.Recharge(0.5)
						Expect(err).NotTo(HaveOccurred())
					}
				}()
			}
			wg.Wait()

			Expect(sys.Cycles()).To(Equal(400))
			Expect(sys.Snapshot().BatteryEnergy).To(BeNumerically("~", 1000-400+200, 1e-6))
		})
	})
})
