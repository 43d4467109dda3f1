// Package resolve turns record addresses into coordinates using a two-stage
// query policy: a region-qualified query first, then a country-only fallback.
// Lookups are paced by an owned Limiter and never run concurrently.
package resolve

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/geomap-cli/internal/model"
	"github.com/sells-group/geomap-cli/pkg/geocode"
)

// Defaults match the Nominatim usage policy and the Hubli/Dharwad dataset.
const (
	DefaultRegionSuffix   = "Karnataka, India"
	DefaultFallbackSuffix = "India"
	DefaultTimeout        = 10 * time.Second
	DefaultMinDelay       = time.Second

	// DefaultProgressInterval throttles the batch progress line.
	DefaultProgressInterval = 10 * time.Second
)

// Status is the terminal state of one record's resolution.
type Status int

const (
	StatusUnresolved Status = iota
	StatusResolved
	StatusResolvedViaFallback
)

func (s Status) String() string {
	switch s {
	case StatusResolved:
		return "resolved"
	case StatusResolvedViaFallback:
		return "resolved_via_fallback"
	default:
		return "unresolved"
	}
}

// Outcome is the result of resolving one address.
type Outcome struct {
	Status      Status
	Coordinates *model.Coordinates
	Query       string  // query that produced the match, empty when unresolved
	Errors      []error // lookup failures encountered along the way
}

// Summary counts outcomes for a batch.
type Summary struct {
	Total       int
	Resolved    int // includes ViaFallback
	ViaFallback int
	Unresolved  int
}

// Limiter paces lookups. Wait returns immediately before the lookup starts.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Config holds the query policy.
type Config struct {
	RegionSuffix   string
	FallbackSuffix string
	Timeout        time.Duration
}

// Resolver applies the query policy against a geocoding client.
type Resolver struct {
	client  geocode.Client
	limiter Limiter
	cfg     Config
	log     *zap.Logger

	progressInterval time.Duration
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for per-record diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) {
		r.log = l
	}
}

// WithProgressInterval sets how often ResolveAll reports progress at info
// level. The first record is always reported.
func WithProgressInterval(d time.Duration) Option {
	return func(r *Resolver) {
		r.progressInterval = d
	}
}

// New creates a Resolver. Zero Config fields take the package defaults.
func New(client geocode.Client, limiter Limiter, cfg Config, opts ...Option) *Resolver {
	if cfg.RegionSuffix == "" {
		cfg.RegionSuffix = DefaultRegionSuffix
	}
	if cfg.FallbackSuffix == "" {
		cfg.FallbackSuffix = DefaultFallbackSuffix
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if limiter == nil {
		limiter = NewLimiter(0)
	}
	r := &Resolver{
		client:  client,
		limiter: limiter,
		cfg:     cfg,
		log:     zap.L(),

		progressInterval: DefaultProgressInterval,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Queries returns the primary and fallback query strings for an address.
func (r *Resolver) Queries(address string) (primary, fallback string) {
	return qualify(address, r.cfg.RegionSuffix), qualify(address, r.cfg.FallbackSuffix)
}

func qualify(address, suffix string) string {
	address = strings.TrimSpace(address)
	if suffix == "" {
		return address
	}
	return address + ", " + suffix
}

// Resolve runs the two-stage policy for one address. Lookup errors are
// logged and treated like a miss; they never escape.
func (r *Resolver) Resolve(ctx context.Context, address string) Outcome {
	primary, fallback := r.Queries(address)
	var out Outcome

	coords, err := r.lookup(ctx, primary)
	if err != nil {
		out.Errors = append(out.Errors, err)
	}
	if coords != nil {
		out.Status = StatusResolved
		out.Coordinates = coords
		out.Query = primary
		return out
	}
	if ctx.Err() != nil {
		return out
	}

	coords, err = r.lookup(ctx, fallback)
	if err != nil {
		out.Errors = append(out.Errors, err)
	}
	if coords != nil {
		out.Status = StatusResolvedViaFallback
		out.Coordinates = coords
		out.Query = fallback
		return out
	}

	r.log.Warn("could not geocode", zap.String("address", address))
	return out
}

// lookup performs one paced, time-bounded call. A miss returns (nil, nil).
func (r *Resolver) lookup(ctx context.Context, query string) (*model.Coordinates, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	res, err := r.client.Geocode(callCtx, query)
	if err != nil {
		r.log.Warn("error geocoding",
			zap.String("query", query),
			zap.String("provider", r.client.Name()),
			zap.Error(err),
		)
		return nil, err
	}
	if res == nil || !res.Matched {
		r.log.Debug("no match", zap.String("query", query))
		return nil, nil
	}
	return &model.Coordinates{Latitude: res.Latitude, Longitude: res.Longitude}, nil
}

// ResolveAll resolves records in order, one at a time, setting Coordinates in
// place. Records left when ctx is cancelled stay unresolved.
func (r *Resolver) ResolveAll(ctx context.Context, records []model.LocationRecord) Summary {
	s := Summary{Total: len(records)}
	progress := rate.Sometimes{First: 1, Interval: r.progressInterval}

	for i := range records {
		rec := &records[i]
		if ctx.Err() != nil {
			r.log.Warn("geocoding interrupted",
				zap.Int("processed", i),
				zap.Int("total", len(records)),
				zap.Error(ctx.Err()),
			)
			s.Unresolved += len(records) - i
			for j := i; j < len(records); j++ {
				records[j].Coordinates = nil
			}
			break
		}

		out := r.Resolve(ctx, rec.Address)
		rec.Coordinates = out.Coordinates

		switch out.Status {
		case StatusResolved:
			s.Resolved++
		case StatusResolvedViaFallback:
			s.Resolved++
			s.ViaFallback++
		default:
			s.Unresolved++
		}

		r.log.Debug("geocoded record",
			zap.Int("index", i+1),
			zap.Int("total", len(records)),
			zap.String("name", rec.Name),
			zap.Stringer("status", out.Status),
			zap.String("query", out.Query),
		)
		progress.Do(func() {
			r.log.Info("geocoding progress",
				zap.Int("processed", i+1),
				zap.Int("total", len(records)),
				zap.Int("resolved", s.Resolved),
			)
		})
	}

	r.log.Info("geocoding complete",
		zap.Int("resolved", s.Resolved),
		zap.Int("total", s.Total),
		zap.Int("via_fallback", s.ViaFallback),
	)
	return s
}
