package application

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"glance/internal/domain"
	"glance/internal/ports"

	"github.com/rs/zerolog"
)

// TabGroupService keeps the open tabs grouped by hostname for tab-groups widgets
type TabGroupService struct {
	browser ports.TabBrowser
	events  ports.EventPublisher
	logger  zerolog.Logger

	mu     sync.RWMutex
	groups []domain.TabGroup
}

// NewTabGroupService creates a new tab group service
func NewTabGroupService(browser ports.TabBrowser, events ports.EventPublisher, logger zerolog.Logger) *TabGroupService {
	return &TabGroupService{
		browser: browser,
		events:  events,
		logger:  logger,
		groups:  []domain.TabGroup{},
	}
}

// Groups returns the last derived grouping
func (s *TabGroupService) Groups() []domain.TabGroup {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.TabGroup, len(s.groups))
	for i, g := range s.groups {
		out[i] = domain.TabGroup{Domain: g.Domain, Tabs: append([]domain.Tab(nil), g.Tabs...)}
	}
	return out
}

// Reload queries the browser and re-derives the groups
func (s *TabGroupService) Reload(ctx context.Context) error {
	tabs, err := s.browser.Query(ctx)
	if err != nil {
		return fmt.Errorf("failed to query tabs: %w", err)
	}
	groups := domain.GroupTabsByHostname(tabs)

	s.mu.Lock()
	s.groups = groups
	s.mu.Unlock()

	if s.events != nil {
		s.events.Publish(domain.StateEvent{Kind: domain.EventTabGroupsChanged})
	}
	return nil
}

// Watch reloads once, then again after every tab event, until ctx ends
func (s *TabGroupService) Watch(ctx context.Context) error {
	events := s.browser.Events(ctx)
	if err := s.Reload(ctx); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := s.Reload(ctx); err != nil {
				s.logger.Warn().Err(err).Str("kind", string(ev.Kind)).Msg("Failed to regroup tabs")
			}
		}
	}
}

// Activate focuses a tab
func (s *TabGroupService) Activate(ctx context.Context, tabID int) error {
	return s.browser.Activate(ctx, tabID)
}

// Close closes a tab
func (s *TabGroupService) Close(ctx context.Context, tabID int) error {
	return s.browser.Close(ctx, tabID)
}

// Open opens url in a new tab
func (s *TabGroupService) Open(ctx context.Context, url string) (domain.Tab, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return domain.Tab{}, domain.NewInputError("URL is required")
	}
	return s.browser.Open(ctx, url)
}
