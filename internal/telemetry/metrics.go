package telemetry

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roach88/forgery/internal/engine"
)

// Collector bundles Prometheus metrics for a running simulation and
// exposes them over HTTP.
type Collector struct {
	gatherer prometheus.Gatherer

	Ticks         prometheus.Counter
	Produced      *prometheus.CounterVec
	Delivered     *prometheus.CounterVec
	BeltOccupancy *prometheus.GaugeVec
	BuildingBusy  *prometheus.GaugeVec

	mu            sync.Mutex
	lastTick      int64
	lastProduced  map[string]int64
	lastDelivered map[string]int
}

// NewCollector registers simulation metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	ticks, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "forgery_ticks_total",
		Help: "Total number of clock ticks delivered.",
	}), "forgery_ticks_total")
	if err != nil {
		return nil, err
	}

	produced, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "forgery_produced_total",
		Help: "Units produced, labeled by source.",
	}, []string{"source"}), "forgery_produced_total")
	if err != nil {
		return nil, err
	}

	delivered, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "forgery_delivered_total",
		Help: "Units taken by sinks, labeled by sink.",
	}, []string{"sink"}), "forgery_delivered_total")
	if err != nil {
		return nil, err
	}

	occupancy, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "forgery_belt_occupancy",
		Help: "Units currently on a belt, labeled by belt.",
	}, []string{"belt"}), "forgery_belt_occupancy")
	if err != nil {
		return nil, err
	}

	busy, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "forgery_building_busy",
		Help: "1 when any internal belt of a building holds material, labeled by building.",
	}, []string{"building"}), "forgery_building_busy")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:      gatherer,
		Ticks:         ticks,
		Produced:      produced,
		Delivered:     delivered,
		BeltOccupancy: occupancy,
		BuildingBusy:  busy,
		lastProduced:  make(map[string]int64),
		lastDelivered: make(map[string]int),
	}, nil
}

// Attach observes every tick of sim. Call it after the graph is wired.
func (c *Collector) Attach(sim *engine.Simulation) {
	c.mu.Lock()
	c.lastTick = sim.Clock().Time()
	c.mu.Unlock()

	sim.OnTick(func(...any) {
		c.Observe(sim.SnapshotInTick())
	})
}

// Observe updates metrics from a snapshot. Counters advance by the
// difference from the previous snapshot.
func (c *Collector) Observe(snap engine.Snapshot) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if d := snap.Tick - c.lastTick; d > 0 {
		c.Ticks.Add(float64(d))
	}
	c.lastTick = snap.Tick

	for _, s := range snap.Sources {
		if d := s.TotalProduced - c.lastProduced[s.ID]; d > 0 {
			c.Produced.WithLabelValues(s.ID).Add(float64(d))
		}
		c.lastProduced[s.ID] = s.TotalProduced
	}
	for _, s := range snap.Sinks {
		if d := s.Delivered - c.lastDelivered[s.ID]; d > 0 {
			c.Delivered.WithLabelValues(s.ID).Add(float64(d))
		}
		c.lastDelivered[s.ID] = s.Delivered
	}
	for _, b := range snap.Belts {
		c.BeltOccupancy.WithLabelValues(b.ID).Set(float64(b.Occupancy))
	}
	for _, b := range snap.Buildings {
		busy := 0.0
		if b.Busy {
			busy = 1
		}
		c.BuildingBusy.WithLabelValues(b.ID).Set(busy)
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}
