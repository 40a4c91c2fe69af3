package track

import (
	"sync"

	"github.com/google/uuid"

	"github.com/waymark-data/tracklog/internal/geo"
	"github.com/waymark-data/tracklog/internal/monitoring"
)

// DefaultQueueDepth bounds the persistence queue. A burst deeper than this
// drops points rather than blocking the sensor delivery path.
const DefaultQueueDepth = 256

// CoordinatorConfig wires a Coordinator's collaborators.
type CoordinatorConfig struct {
	// Sessions is the lifecycle state machine.
	Sessions *Manager
	// Points is the durable store for accepted fixes.
	Points LocationStore
	// Extender is requested around each point write; nil means NoopExtender.
	Extender ExecutionExtender
	// QueueDepth overrides DefaultQueueDepth when positive.
	QueueDepth int
}

// Coordinator is the top-level ingestion orchestrator. It receives raw fixes
// from the sensor source at any rate, runs the validation pipeline
// synchronously on the delivery path, and hands surviving fixes to a single
// writer goroutine that serializes persistence for the active session, so
// point order within a session is the submission order.
//
// The last-accepted and last-persisted memory lives here, reset when a
// session starts and discarded when it stops, so anomaly baselines never
// leak across sessions.
type Coordinator struct {
	sessions  *Manager
	points    LocationStore
	extender  ExecutionExtender
	queueSize int

	observers observerSet

	mu            sync.Mutex
	cfg           ValidationConfig
	session       *TrackingSession
	smoother      *FixSmoother
	lastAccepted  *RawFix
	lastPersisted *LocationPoint
	lastRaw       *RawFix
	count         int
	queue         chan *LocationPoint
	writerDone    chan struct{}
}

// NewCoordinator creates a Coordinator with no active session.
func NewCoordinator(cfg CoordinatorConfig) *Coordinator {
	extender := cfg.Extender
	if extender == nil {
		extender = NoopExtender{}
	}
	depth := cfg.QueueDepth
	if depth <= 0 {
		depth = DefaultQueueDepth
	}
	return &Coordinator{
		sessions:  cfg.Sessions,
		points:    cfg.Points,
		extender:  extender,
		queueSize: depth,
	}
}

// AddObserver registers an outbound state observer.
func (c *Coordinator) AddObserver(o Observer) { c.observers.add(o) }

// StartSession starts a new tracking session with the given validation
// policy, resets the pipeline memory, and spawns the persistence writer.
// Lifecycle errors from the Manager pass through unchanged.
func (c *Coordinator) StartSession(narrative string, cfg ValidationConfig) (*TrackingSession, error) {
	session, err := c.sessions.Start(narrative)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cfg = cfg
	c.session = session
	c.smoother = NewFixSmoother(cfg.ProcessNoise)
	c.lastAccepted = nil
	c.lastPersisted = nil
	c.lastRaw = nil
	c.count = 0
	c.queue = make(chan *LocationPoint, c.queueSize)
	c.writerDone = make(chan struct{})
	go c.runWriter(c.queue, c.writerDone)
	c.mu.Unlock()

	c.observers.each(func(o Observer) { o.SessionStarted(session) })
	return session, nil
}

// StopSession terminates the active session and flushes the writer. Points
// still queued when the session ends target a stale session id and are
// dropped, not retried.
func (c *Coordinator) StopSession() (*TrackingSession, error) {
	session, err := c.sessions.Stop()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	queue, done := c.queue, c.writerDone
	c.session = nil
	c.smoother = nil
	c.lastAccepted = nil
	c.lastPersisted = nil
	c.queue = nil
	c.writerDone = nil
	c.mu.Unlock()

	if queue != nil {
		close(queue)
		<-done
	}

	c.observers.each(func(o Observer) { o.SessionStopped(session) })
	return session, nil
}

// OnFix ingests one raw fix. A fix arriving with no active session is
// discarded silently: sensors keep reporting briefly after a stop. The call
// never blocks on persistence.
func (c *Coordinator) OnFix(fix RawFix) {
	c.mu.Lock()

	if c.session == nil {
		c.mu.Unlock()
		return
	}

	decision := ValidateFix(fix, c.lastAccepted, c.cfg)
	if !decision.Accepted {
		c.mu.Unlock()
		monitoring.Debugf("fix rejected (%s): lat=%.6f lon=%.6f acc=%.1fm", decision.Reason, fix.Lat, fix.Lon, fix.AccuracyM)
		return
	}

	accepted := fix
	c.lastAccepted = &accepted
	c.lastRaw = &accepted

	if c.shouldPersist(fix, decision) {
		point := c.buildPoint(fix)
		c.lastPersisted = point
		select {
		case c.queue <- point:
		default:
			monitoring.Logf("persistence queue full, dropping point for session %s", point.SessionID)
		}
	}

	c.mu.Unlock()

	c.observers.each(func(o Observer) { o.LocationChanged(fix) })
}

// shouldPersist applies the minimum-distance persistence gate, relaxed under
// adaptive sampling when motion is slow. Validity and persistence-worthiness
// are separate questions: this gate controls density, not correctness.
// Caller holds c.mu.
func (c *Coordinator) shouldPersist(fix RawFix, decision Decision) bool {
	if c.cfg.MinDistanceBetweenFixesM == nil || c.lastPersisted == nil {
		return true
	}

	d := geo.Distance(c.lastPersisted.Lat, c.lastPersisted.Lon, fix.Lat, fix.Lon)
	if d >= *c.cfg.MinDistanceBetweenFixesM {
		return true
	}

	if c.cfg.AdaptiveSampling && instantaneousSpeed(fix, decision) < c.cfg.SlowSpeedCutoffMps {
		return true
	}

	monitoring.Debugf("fix accepted but not persisted: %.1fm from last point", d)
	return false
}

// instantaneousSpeed prefers the sensor's speed solution and falls back to
// the speed implied by displacement when the sensor reports none.
func instantaneousSpeed(fix RawFix, decision Decision) float64 {
	if fix.SpeedMps >= 0 {
		return fix.SpeedMps
	}
	return decision.ImpliedSpeedMps
}

// buildPoint promotes an accepted fix to an immutable LocationPoint,
// smoothing the coordinate channels when the policy asks for it and clamping
// the sensor's "unknown" sentinels. Caller holds c.mu.
func (c *Coordinator) buildPoint(fix RawFix) *LocationPoint {
	lat, lon := fix.Lat, fix.Lon
	if c.cfg.Smoothing {
		lat, lon = c.smoother.Smooth(fix)
	}

	speed := fix.SpeedMps
	if speed < 0 {
		speed = 0
	}
	course := fix.CourseDeg
	if course < 0 {
		course = CourseUnknown
	}

	return &LocationPoint{
		ID:        uuid.NewString(),
		SessionID: c.session.ID,
		Lat:       lat,
		Lon:       lon,
		Timestamp: fix.Timestamp,
		AccuracyM: fix.AccuracyM,
		AltitudeM: fix.AltitudeM,
		SpeedMps:  speed,
		CourseDeg: course,
	}
}

// runWriter is the single persistence writer for one session. Writes happen
// in queue order, one at a time, so persisted points keep submission order.
// A failed write is logged and skipped; it never aborts the session.
func (c *Coordinator) runWriter(queue chan *LocationPoint, done chan struct{}) {
	defer close(done)

	for point := range queue {
		active := c.sessions.Active()
		if active == nil || active.ID != point.SessionID {
			monitoring.Debugf("dropping point for ended session %s", point.SessionID)
			continue
		}

		end := c.extender.Begin("persist location point")
		err := c.points.Append(point)
		end()
		if err != nil {
			monitoring.Logf("%v: session %s: %v", ErrPointPersistence, point.SessionID, err)
			continue
		}

		c.mu.Lock()
		c.count++
		count := c.count
		c.mu.Unlock()

		c.observers.each(func(o Observer) { o.PointCountChanged(point.SessionID, count) })
	}
}

// CurrentSession returns the active session snapshot, or nil.
func (c *Coordinator) CurrentSession() *TrackingSession {
	return c.sessions.Active()
}

// PointCount returns the in-memory count of points persisted for the active
// session. Eventually consistent with the durable row count.
func (c *Coordinator) PointCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// LastLocation returns the most recent accepted raw fix, for live display.
func (c *Coordinator) LastLocation() (RawFix, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastRaw == nil {
		return RawFix{}, false
	}
	return *c.lastRaw, true
}

// Config returns the validation policy of the active session, if any.
func (c *Coordinator) Config() ValidationConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg
}
