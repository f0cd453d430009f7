package governance

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/accessops/access-console/internal/domain"
)

// FileShim is a testing implementation backed by a JSON directory file. It
// lets the console run without a real governance backend: reads serve the
// fixture contents, mutations are applied in place and written back.
type FileShim struct {
	filePath string
	mu       sync.RWMutex
}

// shimDirectory is the on-disk fixture layout.
type shimDirectory struct {
	Groups []*domain.Group `json:"groups"`
	Tags   []*domain.Tag   `json:"tags"`
}

// Ensure FileShim implements Client.
var _ Client = (*FileShim)(nil)

// NewFileShim creates a new file-based shim.
func NewFileShim(filePath string) *FileShim {
	return &FileShim{filePath: filePath}
}

func (f *FileShim) load() (*shimDirectory, error) {
	data, err := os.ReadFile(f.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &shimDirectory{}, nil
		}
		return nil, fmt.Errorf("reading directory file: %w", err)
	}
	var dir shimDirectory
	if err := json.Unmarshal(data, &dir); err != nil {
		return nil, fmt.Errorf("parsing directory file: %w", err)
	}
	return &dir, nil
}

func (f *FileShim) save(dir *shimDirectory) error {
	data, err := json.MarshalIndent(dir, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling directory: %w", err)
	}
	if err := os.WriteFile(f.filePath, data, 0644); err != nil {
		return fmt.Errorf("writing directory file: %w", err)
	}
	return nil
}

// SearchGroups returns fixture groups matching q.
func (f *FileShim) SearchGroups(ctx context.Context, q string, page, perPage int) ([]*domain.Group, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	dir, err := f.load()
	if err != nil {
		return nil, err
	}
	var out []*domain.Group
	for _, g := range dir.Groups {
		if g.IsRole() {
			continue
		}
		if matches(g.Name, q) {
			out = append(out, g)
		}
	}
	return pageSlice(out, page, perPage), nil
}

// GetGroup returns a fixture group by id.
func (f *FileShim) GetGroup(ctx context.Context, id string) (*domain.Group, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	dir, err := f.load()
	if err != nil {
		return nil, err
	}
	for _, g := range dir.Groups {
		if g.ID == id {
			return g, nil
		}
	}
	return nil, domain.ErrNotFound
}

// SearchRoles returns fixture role groups matching q.
func (f *FileShim) SearchRoles(ctx context.Context, q string, page, perPage int) ([]*domain.Group, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	dir, err := f.load()
	if err != nil {
		return nil, err
	}
	var out []*domain.Group
	for _, g := range dir.Groups {
		if g.IsRole() && matches(g.Name, q) {
			out = append(out, g)
		}
	}
	return pageSlice(out, page, perPage), nil
}

// SearchTags returns fixture tags matching q.
func (f *FileShim) SearchTags(ctx context.Context, q string, page, perPage int) ([]*domain.Tag, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	dir, err := f.load()
	if err != nil {
		return nil, err
	}
	var out []*domain.Tag
	for _, t := range dir.Tags {
		if matches(t.Name, q) {
			out = append(out, t)
		}
	}
	return pageSlice(out, page, perPage), nil
}

// UpdateGroupMembers applies a membership mutation to the fixture file.
func (f *FileShim) UpdateGroupMembers(ctx context.Context, groupID string, update *MemberUpdate) (*domain.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	dir, err := f.load()
	if err != nil {
		return nil, err
	}
	for _, g := range dir.Groups {
		if g.ID != groupID {
			continue
		}
		g.Members = addAll(g.Members, update.MembersToAdd)
		g.Owners = addAll(g.Owners, update.OwnersToAdd)
		g.Members = removeAll(g.Members, update.MembersToRemove)
		g.Owners = removeAll(g.Owners, update.OwnersToRemove)
		if err := f.save(dir); err != nil {
			return nil, err
		}
		log.Printf("[FileShim] Updated group %s (%d members, %d owners)", g.Name, len(g.Members), len(g.Owners))
		return g, nil
	}
	return nil, domain.ErrNotFound
}

// UpdateRoleMembers applies a mapping mutation to the fixture file.
func (f *FileShim) UpdateRoleMembers(ctx context.Context, roleID string, update *RoleMemberUpdate) (*domain.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	dir, err := f.load()
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*domain.Group, len(dir.Groups))
	for _, g := range dir.Groups {
		byID[g.ID] = g
	}

	role, ok := byID[roleID]
	if !ok || !role.IsRole() {
		return nil, domain.ErrNotFound
	}

	for _, id := range update.GroupsToAdd {
		if mapped, ok := byID[id]; ok {
			role.MemberMappings = append(role.MemberMappings, mapped)
		}
	}
	for _, id := range update.OwnerGroupsToAdd {
		if mapped, ok := byID[id]; ok {
			role.OwnerMappings = append(role.OwnerMappings, mapped)
		}
	}
	if err := f.save(dir); err != nil {
		return nil, err
	}
	log.Printf("[FileShim] Updated role %s (%d member mappings, %d owner mappings)",
		role.Name, len(role.MemberMappings), len(role.OwnerMappings))
	return role, nil
}

func matches(name, q string) bool {
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(name), strings.ToLower(q))
}

func pageSlice[T any](items []T, page, perPage int) []T {
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

func addAll(list, add []string) []string {
	for _, v := range add {
		exists := false
		for _, have := range list {
			if have == v {
				exists = true
				break
			}
		}
		if !exists {
			list = append(list, v)
		}
	}
	return list
}

func removeAll(list, remove []string) []string {
	if len(remove) == 0 {
		return list
	}
	drop := make(map[string]bool, len(remove))
	for _, v := range remove {
		drop[v] = true
	}
	out := list[:0]
	for _, v := range list {
		if !drop[v] {
			out = append(out, v)
		}
	}
	return out
}
