// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package audiocore

import "sync"

// SourceId, DestId, and RouteId are opaque, monotonically increasing
// identifiers, never reused within a Router's lifetime.
type (
	SourceId uint64
	DestId   uint64
	RouteId  uint64
)

// Route maps one source to one destination with a scalar gain. Its
// effective gain is zero whenever the route is disabled or muted.
type Route struct {
	ID       RouteId
	SourceID SourceId
	DestID   DestId
	Gain     float64
	Enabled  bool
	Muted    bool
}

// EffectiveGain returns Gain if the route is enabled and not muted, 0
// otherwise.
func (r Route) EffectiveGain() float64 {
	if r.Enabled && !r.Muted {
		return r.Gain
	}
	return 0
}

// Router owns the source/destination registries and the route table,
// and performs one mixing pass per process() call: collect each
// distinct enabled source exactly once per tick, mix into destination
// accumulation buffers by gain, then soft-clip and deliver.
//
// Route CRUD happens from the control thread only; process() runs on
// the producer thread. The two sides are coordinated by a read-write
// lock (control writes, producer reads at block boundaries), per the
// concurrency model's "short lock on the producer thread" allowance.
type Router struct {
	mu sync.RWMutex

	nextSourceID SourceId
	nextDestID   DestId
	nextRouteID  RouteId

	sources map[SourceId]AudioSource
	dests   map[DestId]AudioDestination
	routes  map[RouteId]Route

	bufferSize int
}

// NewRouter constructs an empty router that mixes bufferSize frames per
// process() call.
func NewRouter(bufferSize int) *Router {
	if bufferSize <= 0 {
		panic("audiocore: NewRouter requires bufferSize > 0")
	}
	return &Router{
		sources:    make(map[SourceId]AudioSource),
		dests:      make(map[DestId]AudioDestination),
		routes:     make(map[RouteId]Route),
		bufferSize: bufferSize,
	}
}

// AddSource registers src and returns its new, never-reused SourceId.
func (r *Router) AddSource(src AudioSource) SourceId {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextSourceID++
	id := r.nextSourceID
	r.sources[id] = src
	return id
}

// AddDestination registers dst and returns its new, never-reused DestId.
func (r *Router) AddDestination(dst AudioDestination) DestId {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextDestID++
	id := r.nextDestID
	r.dests[id] = dst
	return id
}

// AddRoute creates an enabled, unmuted route from source to dest with
// the given gain (clamped to >= 0). Returns ErrSourceNotFound /
// ErrDestinationNotFound if either id is unregistered.
func (r *Router) AddRoute(source SourceId, dest DestId, gain float64) (RouteId, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sources[source]; !ok {
		return 0, ErrSourceNotFound
	}
	if _, ok := r.dests[dest]; !ok {
		return 0, ErrDestinationNotFound
	}
	if gain < 0 {
		gain = 0
	}

	r.nextRouteID++
	id := r.nextRouteID
	r.routes[id] = Route{
		ID:       id,
		SourceID: source,
		DestID:   dest,
		Gain:     gain,
		Enabled:  true,
	}
	return id, nil
}

// RemoveRoute deletes a single route.
func (r *Router) RemoveRoute(id RouteId) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.routes[id]; !ok {
		return ErrRouteNotFound
	}
	delete(r.routes, id)
	return nil
}

// RemoveSource unregisters src and removes every route that references
// it — route removal on source/destination deletion must be complete.
func (r *Router) RemoveSource(id SourceId) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sources[id]; !ok {
		return ErrSourceNotFound
	}
	delete(r.sources, id)
	for rid, route := range r.routes {
		if route.SourceID == id {
			delete(r.routes, rid)
		}
	}
	return nil
}

// RemoveDestination unregisters dst and removes every route that
// references it.
func (r *Router) RemoveDestination(id DestId) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.dests[id]; !ok {
		return ErrDestinationNotFound
	}
	delete(r.dests, id)
	for rid, route := range r.routes {
		if route.DestID == id {
			delete(r.routes, rid)
		}
	}
	return nil
}

// SetRouteGain clamps and sets a route's gain.
func (r *Router) SetRouteGain(id RouteId, gain float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	route, ok := r.routes[id]
	if !ok {
		return ErrRouteNotFound
	}
	if gain < 0 {
		gain = 0
	}
	route.Gain = gain
	r.routes[id] = route
	return nil
}

// SetRouteEnabled toggles a route's enabled flag.
func (r *Router) SetRouteEnabled(id RouteId, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	route, ok := r.routes[id]
	if !ok {
		return ErrRouteNotFound
	}
	route.Enabled = enabled
	r.routes[id] = route
	return nil
}

// SetRouteMuted toggles a route's muted flag.
func (r *Router) SetRouteMuted(id RouteId, muted bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	route, ok := r.routes[id]
	if !ok {
		return ErrRouteNotFound
	}
	route.Muted = muted
	r.routes[id] = route
	return nil
}

// RoutesForSource returns every route currently referencing source,
// used by tests and callers to confirm removal completeness.
func (r *Router) RoutesForSource(source SourceId) []Route {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Route
	for _, route := range r.routes {
		if route.SourceID == source {
			out = append(out, route)
		}
	}
	return out
}

// sourceCache holds one tick's single read of a source, shared across
// every destination that routes from it.
type sourceCache struct {
	samples []float32
	read    int
	err     error
}

// Process performs one mixing pass: each distinct enabled source is
// read at most once, accumulated into per-destination buffers by
// gain, soft-clipped, then delivered. Source read failures degrade
// that source's contribution for the tick without aborting it;
// destination write failures are returned to the caller.
func (r *Router) Process() error {
	r.mu.RLock()
	routes := make([]Route, 0, len(r.routes))
	for _, route := range r.routes {
		routes = append(routes, route)
	}
	sources := make(map[SourceId]AudioSource, len(r.sources))
	for id, s := range r.sources {
		sources[id] = s
	}
	dests := make(map[DestId]AudioDestination, len(r.dests))
	for id, d := range r.dests {
		dests[id] = d
	}
	r.mu.RUnlock()

	cache := make(map[SourceId]*sourceCache)
	for _, route := range routes {
		if route.EffectiveGain() <= 0 {
			continue
		}
		if _, ok := cache[route.SourceID]; ok {
			continue
		}
		src, ok := sources[route.SourceID]
		if !ok {
			continue
		}
		buf := make([]float32, r.bufferSize)
		n := src.ReadSamples(buf)
		cache[route.SourceID] = &sourceCache{samples: buf, read: n}
	}

	accum := make(map[DestId][]float32)
	for _, route := range routes {
		gain := route.EffectiveGain()
		if gain <= 0 {
			continue
		}
		sc, ok := cache[route.SourceID]
		if !ok {
			continue
		}
		if _, ok := dests[route.DestID]; !ok {
			continue
		}
		dst := accum[route.DestID]
		if dst == nil {
			dst = make([]float32, r.bufferSize)
			accum[route.DestID] = dst
		}
		for i := 0; i < sc.read && i < r.bufferSize; i++ {
			dst[i] += float32(float64(sc.samples[i]) * gain)
		}
	}

	var writeErr error
	for id, dst := range accum {
		for i, v := range dst {
			dst[i] = SoftClip(v)
		}
		if err := dests[id].WriteSamples(dst); err != nil {
			writeErr = err
		}
	}
	return writeErr
}

// SoftClip applies the asymptotic saturating nonlinearity
// sign(x)*(1 - 1/(1+|x|)) for |x| > 1, passing values through unchanged
// otherwise. It is nondecreasing everywhere and |SoftClip(x)| < 1 for
// all finite x.
func SoftClip(x float32) float32 {
	ax := absF32(x)
	if ax <= 1 {
		return x
	}
	mag := 1 - 1/(1+ax)
	if x < 0 {
		return -mag
	}
	return mag
}
