// Package catalog maintains an in-memory snapshot of the governance
// backend's groups, roles, and tags. The console serves reads from the
// snapshot and refreshes it on a schedule, after successful bulk
// submissions, and on demand.
package catalog

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/accessops/access-console/internal/domain"
	"github.com/accessops/access-console/internal/governance"
	"github.com/robfig/cron/v3"
	"github.com/sethvargo/go-retry"
)

// fetchPageSize is the page size used when walking the backend listings.
const fetchPageSize = 200

// Service holds the catalog snapshot.
type Service struct {
	client governance.Client
	cron   *cron.Cron

	mu          sync.RWMutex
	groups      map[string]*domain.Group
	order       []string
	tags        map[string]*domain.Tag
	tagOrder    []string
	lastRefresh time.Time
}

// New creates a new catalog service.
func New(client governance.Client) *Service {
	return &Service{
		client: client,
		cron:   cron.New(),
		groups: make(map[string]*domain.Group),
		tags:   make(map[string]*domain.Tag),
	}
}

// Start performs the initial refresh and schedules periodic refreshes. An
// empty schedule disables the timer.
func (s *Service) Start(ctx context.Context, schedule string) error {
	if err := s.Refresh(ctx); err != nil {
		return fmt.Errorf("initial catalog refresh: %w", err)
	}
	if schedule == "" {
		return nil
	}
	_, err := s.cron.AddFunc(schedule, func() {
		if err := s.Refresh(context.Background()); err != nil {
			log.Printf("Scheduled catalog refresh failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("scheduling catalog refresh: %w", err)
	}
	s.cron.Start()
	return nil
}

// Stop stops the refresh schedule.
func (s *Service) Stop() {
	s.cron.Stop()
}

// Refresh fetches a fresh snapshot from the backend and swaps it in. Fetches
// are idempotent reads, so transient backend errors are retried with backoff;
// a refresh that still fails leaves the previous snapshot in place.
func (s *Service) Refresh(ctx context.Context) error {
	var (
		groups []*domain.Group
		roles  []*domain.Group
		tags   []*domain.Tag
	)

	b := retry.WithMaxRetries(3, retry.NewExponential(500*time.Millisecond))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		var ferr error
		groups, ferr = s.fetchGroups(ctx)
		if ferr != nil {
			return retry.RetryableError(ferr)
		}
		roles, ferr = s.fetchRoles(ctx)
		if ferr != nil {
			return retry.RetryableError(ferr)
		}
		tags, ferr = s.fetchTags(ctx)
		if ferr != nil {
			return retry.RetryableError(ferr)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("fetching catalog: %w", err)
	}

	groupMap := make(map[string]*domain.Group, len(groups)+len(roles))
	order := make([]string, 0, len(groups)+len(roles))
	for _, g := range append(groups, roles...) {
		if _, ok := groupMap[g.ID]; ok {
			continue
		}
		groupMap[g.ID] = g
		order = append(order, g.ID)
	}

	tagMap := make(map[string]*domain.Tag, len(tags))
	tagOrder := make([]string, 0, len(tags))
	for _, t := range tags {
		if _, ok := tagMap[t.ID]; ok {
			continue
		}
		tagMap[t.ID] = t
		tagOrder = append(tagOrder, t.ID)
	}

	s.mu.Lock()
	s.groups = groupMap
	s.order = order
	s.tags = tagMap
	s.tagOrder = tagOrder
	s.lastRefresh = time.Now()
	s.mu.Unlock()

	log.Printf("Catalog refreshed: %d groups, %d tags", len(groupMap), len(tagMap))
	return nil
}

func (s *Service) fetchGroups(ctx context.Context) ([]*domain.Group, error) {
	var out []*domain.Group
	for page := 1; ; page++ {
		batch, err := s.client.SearchGroups(ctx, "", page, fetchPageSize)
		if err != nil {
			return nil, err
		}
		out = append(out, batch...)
		if len(batch) < fetchPageSize {
			return out, nil
		}
	}
}

func (s *Service) fetchRoles(ctx context.Context) ([]*domain.Group, error) {
	var out []*domain.Group
	for page := 1; ; page++ {
		batch, err := s.client.SearchRoles(ctx, "", page, fetchPageSize)
		if err != nil {
			return nil, err
		}
		out = append(out, batch...)
		if len(batch) < fetchPageSize {
			return out, nil
		}
	}
}

func (s *Service) fetchTags(ctx context.Context) ([]*domain.Tag, error) {
	var out []*domain.Tag
	for page := 1; ; page++ {
		batch, err := s.client.SearchTags(ctx, "", page, fetchPageSize)
		if err != nil {
			return nil, err
		}
		out = append(out, batch...)
		if len(batch) < fetchPageSize {
			return out, nil
		}
	}
}

// Ready reports whether the catalog has been loaded at least once.
func (s *Service) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.lastRefresh.IsZero()
}

// LastRefresh returns the time of the last successful refresh.
func (s *Service) LastRefresh() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRefresh
}

// Group returns a group or role by id.
func (s *Service) Group(id string) (*domain.Group, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.groups[id]
	return g, ok
}

// Tag returns a tag by id.
func (s *Service) Tag(id string) (*domain.Tag, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tags[id]
	return t, ok
}

// Groups returns a page of non-role groups matching q, plus the total match
// count.
func (s *Service) Groups(q string, page, perPage int) ([]*domain.Group, int) {
	return s.filterGroups(q, page, perPage, false)
}

// Roles returns a page of role groups matching q, plus the total match count.
func (s *Service) Roles(q string, page, perPage int) ([]*domain.Group, int) {
	return s.filterGroups(q, page, perPage, true)
}

// Tags returns a page of tags matching q, plus the total match count.
func (s *Service) Tags(q string, page, perPage int) ([]*domain.Tag, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*domain.Tag
	for _, id := range s.tagOrder {
		t := s.tags[id]
		if matchName(t.Name, q) {
			matched = append(matched, t)
		}
	}
	total := len(matched)
	return pageOf(matched, page, perPage), total
}

// MemberRoles returns the names of the role groups the given user is an
// active member of. Used by the self-add guard.
func (s *Service) MemberRoles(email string) map[string]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]bool)
	for _, id := range s.order {
		g := s.groups[id]
		if g.IsRole() && g.HasMember(email) {
			out[g.Name] = true
		}
	}
	return out
}

func (s *Service) filterGroups(q string, page, perPage int, wantRoles bool) ([]*domain.Group, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*domain.Group
	for _, id := range s.order {
		g := s.groups[id]
		if g.IsRole() != wantRoles {
			continue
		}
		if matchName(g.Name, q) {
			matched = append(matched, g)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Name < matched[j].Name
	})
	total := len(matched)
	return pageOf(matched, page, perPage), total
}

func matchName(name, q string) bool {
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(name), strings.ToLower(q))
}

func pageOf[T any](items []T, page, perPage int) []T {
	if perPage <= 0 {
		return items
	}
	if page <= 0 {
		page = 1
	}
	start := (page - 1) * perPage
	if start >= len(items) {
		return nil
	}
	end := start + perPage
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
