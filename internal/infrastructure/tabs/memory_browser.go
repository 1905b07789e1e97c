package tabs

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"glance/internal/domain"
	"glance/internal/ports"

	"github.com/rs/zerolog"
)

// CommandKind is an action the extension must carry out in the real browser
type CommandKind string

const (
	CommandOpen     CommandKind = "open"
	CommandActivate CommandKind = "activate"
	CommandClose    CommandKind = "close"
)

// Command is queued for the extension, which drains the queue and applies it
type Command struct {
	Kind  CommandKind `json:"kind"`
	TabID int         `json:"tabId,omitempty"`
	URL   string      `json:"url,omitempty"`
}

// MemoryBrowser mirrors the browser tab list reported by the extension.
// Tab events posted by the extension update the mirror and are fanned out to Events subscribers.
type MemoryBrowser struct {
	mu       sync.RWMutex
	tabs     map[int]domain.Tab
	commands []Command
	subs     map[int]chan domain.TabEvent
	nextSub  int
	nextTab  int
	logger   zerolog.Logger
}

// NewMemoryBrowser creates an empty tab mirror
func NewMemoryBrowser(logger zerolog.Logger) *MemoryBrowser {
	return &MemoryBrowser{
		tabs:    make(map[int]domain.Tab),
		subs:    make(map[int]chan domain.TabEvent),
		nextTab: -1,
		logger:  logger,
	}
}

var _ ports.TabBrowser = (*MemoryBrowser)(nil)

// Query returns the mirrored tabs ordered by id
func (b *MemoryBrowser) Query(context.Context) ([]domain.Tab, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]domain.Tab, 0, len(b.tabs))
	for _, t := range b.tabs {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Open queues an open command and mirrors a provisional tab with a negative id
// until the extension reports the real one.
func (b *MemoryBrowser) Open(_ context.Context, url string) (domain.Tab, error) {
	b.mu.Lock()
	tab := domain.Tab{ID: b.nextTab, URL: url}
	b.nextTab--
	b.tabs[tab.ID] = tab
	b.commands = append(b.commands, Command{Kind: CommandOpen, URL: url})
	b.mu.Unlock()

	b.broadcast(domain.TabEvent{Kind: domain.TabCreated, Tab: tab})
	return tab, nil
}

// Activate queues an activate command for a known tab
func (b *MemoryBrowser) Activate(_ context.Context, tabID int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.tabs[tabID]; !ok {
		return fmt.Errorf("tab %d: %w", tabID, domain.ErrNotFound)
	}
	b.commands = append(b.commands, Command{Kind: CommandActivate, TabID: tabID})
	return nil
}

// Close queues a close command and drops the tab from the mirror
func (b *MemoryBrowser) Close(_ context.Context, tabID int) error {
	b.mu.Lock()
	tab, ok := b.tabs[tabID]
	if !ok {
		b.mu.Unlock()
		return fmt.Errorf("tab %d: %w", tabID, domain.ErrNotFound)
	}
	delete(b.tabs, tabID)
	b.commands = append(b.commands, Command{Kind: CommandClose, TabID: tabID})
	b.mu.Unlock()

	b.broadcast(domain.TabEvent{Kind: domain.TabRemoved, Tab: tab})
	return nil
}

// Apply records a tab event reported by the extension
func (b *MemoryBrowser) Apply(event domain.TabEvent) error {
	b.mu.Lock()
	switch event.Kind {
	case domain.TabCreated, domain.TabUpdated:
		b.tabs[event.Tab.ID] = event.Tab
		if event.Kind == domain.TabCreated {
			b.dropProvisional(event.Tab.URL)
		}
	case domain.TabRemoved:
		delete(b.tabs, event.Tab.ID)
	default:
		b.mu.Unlock()
		return fmt.Errorf("unknown tab event %q", event.Kind)
	}
	b.mu.Unlock()

	b.broadcast(event)
	return nil
}

// Replace swaps the whole mirror, used when the extension sends a full snapshot
func (b *MemoryBrowser) Replace(tabs []domain.Tab) {
	b.mu.Lock()
	b.tabs = make(map[int]domain.Tab, len(tabs))
	for _, t := range tabs {
		b.tabs[t.ID] = t
	}
	b.mu.Unlock()

	b.broadcast(domain.TabEvent{Kind: domain.TabUpdated})
}

// DrainCommands returns and clears the queued commands
func (b *MemoryBrowser) DrainCommands() []Command {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.commands
	b.commands = nil
	if out == nil {
		out = []Command{}
	}
	return out
}

// Events delivers tab events until ctx ends
func (b *MemoryBrowser) Events(ctx context.Context) <-chan domain.TabEvent {
	ch := make(chan domain.TabEvent, 16)

	b.mu.Lock()
	id := b.nextSub
	b.nextSub++
	b.subs[id] = ch
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, id)
		close(ch)
		b.mu.Unlock()
	}()
	return ch
}

func (b *MemoryBrowser) broadcast(event domain.TabEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
			b.logger.Warn().Str("kind", string(event.Kind)).Msg("Tab event subscriber is slow, dropping event")
		}
	}
}

// dropProvisional removes the placeholder created by Open once the real tab arrives
func (b *MemoryBrowser) dropProvisional(url string) {
	for id, t := range b.tabs {
		if id < 0 && t.URL == url {
			delete(b.tabs, id)
			return
		}
	}
}
