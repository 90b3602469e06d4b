// Package cache keeps recent asset and project listings so repeated reads in one
// session do not hit the backend. Any mutation purges it.
package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/iota-uz/itam/modules/inventory/domain/aggregates/asset"
	"github.com/iota-uz/itam/modules/inventory/domain/aggregates/project"
	"github.com/iota-uz/itam/modules/inventory/domain/events"
	"github.com/iota-uz/itam/pkg/eventbus"
	"github.com/iota-uz/itam/pkg/metrics"
)

const projectsKey = "projects"

type Listings struct {
	assets   *expirable.LRU[string, []asset.Asset]
	projects *expirable.LRU[string, []project.Project]
}

func NewListings(size int, ttl time.Duration) *Listings {
	if size <= 0 {
		size = 64
	}
	return &Listings{
		assets:   expirable.NewLRU[string, []asset.Asset](size, nil, ttl),
		projects: expirable.NewLRU[string, []project.Project](1, nil, ttl),
	}
}

func (l *Listings) Assets(key string) ([]asset.Asset, bool) {
	v, ok := l.assets.Get(key)
	record(ok)
	return v, ok
}

func (l *Listings) PutAssets(key string, v []asset.Asset) {
	l.assets.Add(key, v)
}

func (l *Listings) Projects() ([]project.Project, bool) {
	v, ok := l.projects.Get(projectsKey)
	record(ok)
	return v, ok
}

func (l *Listings) PutProjects(v []project.Project) {
	l.projects.Add(projectsKey, v)
}

func (l *Listings) InvalidateAssets() {
	l.assets.Purge()
	metrics.ListingCache.WithLabelValues("purge").Inc()
}

func (l *Listings) InvalidateProjects() {
	l.projects.Purge()
	metrics.ListingCache.WithLabelValues("purge").Inc()
}

// Invalidate drops everything.
func (l *Listings) Invalidate() {
	l.InvalidateAssets()
	l.InvalidateProjects()
}

// Subscribe purges on the events that signal a change somewhere else in the process.
// The returned func removes the subscriptions.
func (l *Listings) Subscribe(bus eventbus.EventBus) func() {
	unsubs := []func(){
		bus.Subscribe(func(*events.AssetsChanged) { l.InvalidateAssets() }),
		bus.Subscribe(func(*events.ProjectUpdated) { l.Invalidate() }),
		bus.Subscribe(func(*events.ProjectManagerUpdated) { l.Invalidate() }),
		bus.Subscribe(func(*events.ForceProjectRefresh) { l.Invalidate() }),
		bus.Subscribe(func(*events.SessionExpired) { l.Invalidate() }),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

func record(hit bool) {
	if hit {
		metrics.ListingCache.WithLabelValues("hit").Inc()
		return
	}
	metrics.ListingCache.WithLabelValues("miss").Inc()
}
