// Package metrics tracks runtime statistics of a telemon session on a
// private Prometheus registry.
//
// All methods are safe for concurrent use.  A nil *Collector is a
// valid no-op receiver, so callers never need to nil-check.
package metrics

import (
	"encoding/json"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

const namespace = "telemon"

// Collector tracks runtime metrics for one session.
// A nil Collector is safe to use; all methods become no-ops.
type Collector struct {
	registry *prometheus.Registry

	ticks      prometheus.Counter
	keystrokes *prometheus.CounterVec
	frames     *prometheus.CounterVec
	failures   *prometheus.CounterVec
	lastSample prometheus.Gauge

	startTime time.Time
}

// New creates a collector with all metrics registered and the start
// time set to now.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "clock",
			Name:      "ticks_total",
			Help:      "Clock renders performed",
		}),
		keystrokes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "input",
			Name:      "keystrokes_total",
			Help:      "Keystrokes echoed, by class",
		}, []string{"class"}),
		frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "serial",
			Name:      "frames_total",
			Help:      "Delimited frames received, by decode result",
		}, []string{"result"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "channel_failures_total",
			Help:      "Asynchronous chains that ended unexpectedly",
		}, []string{"channel"}),
		lastSample: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "serial",
			Name:      "last_sample",
			Help:      "Most recently decoded sample value",
		}),
		startTime: time.Now(),
	}
	c.registry.MustRegister(c.ticks, c.keystrokes, c.frames, c.failures, c.lastSample)
	return c
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// ── Recording ────────────────────────────────────────────────────────

// Tick records one clock render.
func (c *Collector) Tick() {
	if c == nil {
		return
	}
	c.ticks.Inc()
}

// Keystroke records one echoed key of the given class.
func (c *Collector) Keystroke(class string) {
	if c == nil {
		return
	}
	c.keystrokes.WithLabelValues(class).Inc()
}

// FrameDecoded records a frame that rendered a bar.
func (c *Collector) FrameDecoded(sample uint16) {
	if c == nil {
		return
	}
	c.frames.WithLabelValues("ok").Inc()
	c.lastSample.Set(float64(sample))
}

// FrameMalformed records a frame that was skipped.
func (c *Collector) FrameMalformed() {
	if c == nil {
		return
	}
	c.frames.WithLabelValues("malformed").Inc()
}

// ChannelFailed records the unexpected end of an asynchronous chain.
func (c *Collector) ChannelFailed(channel string) {
	if c == nil {
		return
	}
	c.failures.WithLabelValues(channel).Inc()
}

// ── Snapshot ─────────────────────────────────────────────────────────

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	Uptime          string           `json:"uptime"`
	Ticks           int64            `json:"ticks"`
	Keystrokes      map[string]int64 `json:"keystrokes,omitempty"`
	FramesDecoded   int64            `json:"frames_decoded"`
	FramesMalformed int64            `json:"frames_malformed"`
	ChannelFailures map[string]int64 `json:"channel_failures,omitempty"`
	LastSample      int64            `json:"last_sample"`
}

// Snapshot gathers the registry into a Snapshot.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	s := Snapshot{
		Uptime: time.Since(c.startTime).Truncate(time.Second).String(),
	}

	families, err := c.registry.Gather()
	if err != nil {
		return s
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			v := int64(metricValue(m))
			switch mf.GetName() {
			case namespace + "_clock_ticks_total":
				s.Ticks = v
			case namespace + "_input_keystrokes_total":
				if s.Keystrokes == nil {
					s.Keystrokes = map[string]int64{}
				}
				s.Keystrokes[label(m, "class")] = v
			case namespace + "_serial_frames_total":
				if label(m, "result") == "ok" {
					s.FramesDecoded = v
				} else {
					s.FramesMalformed = v
				}
			case namespace + "_channel_failures_total":
				if s.ChannelFailures == nil {
					s.ChannelFailures = map[string]int64{}
				}
				s.ChannelFailures[label(m, "channel")] = v
			case namespace + "_serial_last_sample":
				s.LastSample = v
			}
		}
	}
	return s
}

// TotalKeystrokes sums keystrokes across classes.
func (s Snapshot) TotalKeystrokes() int64 {
	var n int64
	for _, v := range s.Keystrokes {
		n += v
	}
	return n
}

// JSON returns the snapshot as an indented JSON string.
func (c *Collector) JSON() string {
	s := c.Snapshot()
	data, _ := json.MarshalIndent(s, "", "  ")
	return string(data)
}

func metricValue(m *dto.Metric) float64 {
	if ctr := m.GetCounter(); ctr != nil {
		return ctr.GetValue()
	}
	if g := m.GetGauge(); g != nil {
		return g.GetValue()
	}
	return 0
}

func label(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}
