// Command enginedemo wires the Registry Façade, the Kinematic Physics
// Bridge, and the Entity-State & Thread Scheduler into a running World and
// drives it on a fixed tick: a plain ticker-based main loop, with no
// terminal UI to poll input from or render to.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/lixenwraith/enginecore/engine"
	"github.com/lixenwraith/enginecore/event"
	"github.com/lixenwraith/enginecore/fiber"
	"github.com/lixenwraith/enginecore/log"
	"github.com/lixenwraith/enginecore/physics"
	"github.com/lixenwraith/enginecore/scheduler"
	"github.com/lixenwraith/enginecore/vmath"
)

var demoLog = log.New("enginedemo")

// nullCollisionWorld is a headless stand-in for a real collision SDK
// binding (Bullet/Jolt/ODE): it reports no manifolds and never finds a
// cast hit, so the bridge still runs its full per-tick algorithm without an
// actual physics backend wired in.
type nullCollisionWorld struct {
	poses map[physics.ObjectHandle]vmath.Mat4
}

func newNullCollisionWorld() *nullCollisionWorld {
	return &nullCollisionWorld{poses: make(map[physics.ObjectHandle]vmath.Mat4)}
}

func (w *nullCollisionWorld) Step(time.Duration)             {}
func (w *nullCollisionWorld) Manifolds() []physics.Manifold { return nil }

func (w *nullCollisionWorld) SetWorldMatrix(obj physics.ObjectHandle, m vmath.Mat4) {
	w.poses[obj] = m
}

func (w *nullCollisionWorld) WorldMatrix(obj physics.ObjectHandle) vmath.Mat4 {
	return w.poses[obj]
}

func (w *nullCollisionWorld) ConvexCast(physics.ObjectHandle, vmath.Mat4, vmath.Mat4, physics.Mask) (physics.CastHit, bool) {
	return physics.CastHit{}, false
}

func (w *nullCollisionWorld) RayCast(vmath.Vec3F, vmath.Vec3F, physics.Mask, physics.ObjectHandle) (physics.CastHit, bool) {
	return physics.CastHit{}, false
}

func main() {
	tickInterval := flag.Duration("interval", 50*time.Millisecond, "fixed tick interval")
	ticks := flag.Uint("ticks", 100, "number of ticks to run before exiting")
	debug := flag.Bool("debug", false, "log every thread completion")
	flag.Parse()

	w := engine.NewWorld()
	engine.AddResource(w.ResourceStore, engine.TimeResource{GameTime: time.Now(), RealTime: time.Now()})

	bridge := physics.NewBridge(w, newNullCollisionWorld())
	sch := scheduler.New(w)
	w.AddSystem(bridge)
	w.AddSystem(sch)
	bridge.Init()
	sch.Init()

	registerDemoThreads(sch)

	event.Subscribe(w.Bus, nil, func(c scheduler.OnThreadComplete) {
		if *debug {
			demoLog.With("entity", c.Entity).With("thread", c.ThreadID).Infof("thread complete")
		}
	})

	sentinel := w.CreateEntity()
	sch.ChangeState(scheduler.StateChangeCommand{Entity: sentinel, NewState: "patrolling"})

	start := time.Now()
	frame := int64(0)
	for i := uint(0); i < *ticks; i++ {
		frame++
		now := time.Now()
		engine.AddResource(w.ResourceStore, engine.TimeResource{
			GameTime:    now,
			RealTime:    now,
			DeltaTime:   *tickInterval,
			FrameNumber: frame,
		})
		w.Update()
		time.Sleep(*tickInterval)
	}

	fmt.Fprintf(os.Stdout, "enginedemo: ran %d ticks over %s\n", *ticks, time.Since(start))
}

// sighting is a demo event a sentinel's patrol thread raises when it
// completes a waypoint; the alarm thread shares the same entity but only
// reacts once a sighting targets it specifically.
type sighting struct {
	Entity engine.Entity
}

// registerDemoThreads names two script templates and the state that spawns
// them, exercising the sleep-wake and event-predicate-filtering operations
// end to end: patrol sleeps between waypoints and raises a sighting; alarm
// stays suspended until a sighting naming its own entity arrives.
func registerDemoThreads(sch *scheduler.Scheduler) {
	sch.RegisterThread("patrol", func(s *fiber.Script) error {
		for {
			fiber.WaitFor(s, 2*time.Second)
			demoLog.With("entity", s.Self()).Infof("patrol thread reached its waypoint")
			fiber.Event(s, sighting{Entity: s.Self()})
		}
	})

	sch.RegisterThread("alarm", func(s *fiber.Script) error {
		for {
			_, ok := fiber.UntilPredicate[sighting](s, func(ev sighting) bool {
				return ev.Entity == s.Self()
			})
			if ok {
				demoLog.With("entity", s.Self()).Infof("alarm thread reacting to sighting")
			}
		}
	})

	sch.RegisterState("patrolling", []fiber.ThreadID{"patrol", "alarm"})
}
