// Package memstore is an in-memory implementation of the category,
// metrics, note, user, and backup stores. It backs handler and service
// tests and the single-process demo mode, and supports transactions by
// snapshotting its state.
package memstore

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"notemap/internal/models"
	"notemap/internal/tree"
)

type memoryState struct {
	users      map[uuid.UUID]models.User
	categories map[uuid.UUID]models.Category
	metrics    map[uuid.UUID]models.Metrics
	notes      map[uuid.UUID]models.Note
	backups    map[uuid.UUID]models.Backup
}

func newMemoryState() memoryState {
	return memoryState{
		users:      make(map[uuid.UUID]models.User),
		categories: make(map[uuid.UUID]models.Category),
		metrics:    make(map[uuid.UUID]models.Metrics),
		notes:      make(map[uuid.UUID]models.Note),
		backups:    make(map[uuid.UUID]models.Backup),
	}
}

func (s memoryState) clone() memoryState {
	return memoryState{
		users:      maps.Clone(s.users),
		categories: maps.Clone(s.categories),
		metrics:    maps.Clone(s.metrics),
		notes:      maps.Clone(s.notes),
		backups:    maps.Clone(s.backups),
	}
}

// Store is safe for concurrent use. Transactions are serialized with
// each other but not isolated from plain writes made while one runs.
type Store struct {
	mu    sync.RWMutex
	txMu  sync.Mutex
	state memoryState
	calls map[string]int

	// Now returns the timestamp applied to created and edited rows.
	Now func() time.Time
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		state: newMemoryState(),
		calls: make(map[string]int),
		Now:   time.Now,
	}
}

// Calls returns how many times the named method has been invoked.
func (s *Store) Calls(method string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls[method]
}

func (s *Store) count(method string) {
	s.calls[method]++
}

// Put stores c as-is, bypassing validation. Tests use it to build
// malformed parent chains.
func (s *Store) Put(c models.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.categories[c.ID] = c
}

// PutMetrics stores m as-is.
func (s *Store) PutMetrics(m models.Metrics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.metrics[m.CategoryID] = m
}

// PutNote stores n as-is without touching metrics.
func (s *Store) PutNote(n models.Note) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.notes[n.ID] = n
}

// WithinTx runs fn against the store and restores the prior state if fn
// returns an error.
func (s *Store) WithinTx(ctx context.Context, fn func(tree.Writer) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	saved := s.state.clone()
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.state = saved
		s.mu.Unlock()
		return err
	}
	return ctx.Err()
}

// --- categories ---

// Category returns the category owned by userID, or nil.
func (s *Store) Category(_ context.Context, userID, id uuid.UUID) (*models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("Category")

	c, ok := s.state.categories[id]
	if !ok || c.UserID != userID {
		return nil, nil
	}
	return &c, nil
}

// Children returns one page of parentID's children ordered by name.
func (s *Store) Children(_ context.Context, userID, parentID uuid.UUID, limit, offset int) ([]models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("Children")

	var out []models.Category
	for _, c := range s.state.categories {
		if c.UserID == userID && c.ParentID != nil && *c.ParentID == parentID {
			out = append(out, c)
		}
	}
	sortByName(out)
	return page(out, limit, offset), nil
}

// ChildIDs returns the ids of all direct children of parentID.
func (s *Store) ChildIDs(ctx context.Context, userID, parentID uuid.UUID) ([]uuid.UUID, error) {
	cats, err := s.Children(ctx, userID, parentID, models.MaxCategoriesPerUser, 0)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(cats))
	for i, c := range cats {
		ids[i] = c.ID
	}
	return ids, nil
}

// TopLevel returns one page of the user's root categories.
func (s *Store) TopLevel(_ context.Context, userID uuid.UUID, by tree.Sort, limit, offset int) ([]models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("TopLevel")

	var out []models.Category
	for _, c := range s.state.categories {
		if c.UserID == userID && c.ParentID == nil {
			out = append(out, c)
		}
	}
	sortByName(out)
	if by == tree.SortCreatedAt {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		})
	}
	return page(out, limit, offset), nil
}

// ListCategories returns every category the user owns, ordered by name.
func (s *Store) ListCategories(_ context.Context, userID uuid.UUID) ([]models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Category
	for _, c := range s.state.categories {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sortByName(out)
	return out, nil
}

// CountCategories returns the number of categories the user owns.
func (s *Store) CountCategories(ctx context.Context, userID uuid.UUID) (int, error) {
	cats, err := s.ListCategories(ctx, userID)
	return len(cats), err
}

// SearchCategories returns up to limit categories whose name contains q,
// case-insensitively.
func (s *Store) SearchCategories(ctx context.Context, userID uuid.UUID, q string, limit int) ([]models.Category, error) {
	cats, err := s.ListCategories(ctx, userID)
	if err != nil {
		return nil, err
	}
	q = strings.ToLower(q)
	var out []models.Category
	for _, c := range cats {
		if strings.Contains(strings.ToLower(c.Name), q) {
			out = append(out, c)
		}
	}
	return page(out, limit, 0), nil
}

// CreateCategory inserts c with a fresh id and zeroed metrics. It fails
// with models.ErrCategoryLimit once the owner has MaxCategoriesPerUser
// categories.
func (s *Store) CreateCategory(_ context.Context, c *models.Category) (*models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	owned := 0
	for _, existing := range s.state.categories {
		if existing.UserID == c.UserID {
			owned++
		}
	}
	if owned >= models.MaxCategoriesPerUser {
		return nil, models.ErrCategoryLimit
	}

	out := *c
	out.ID = uuid.New()
	out.CreatedAt = s.Now()
	out.UpdatedAt = out.CreatedAt
	s.state.categories[out.ID] = out
	s.state.metrics[out.ID] = models.Metrics{CategoryID: out.ID}
	return &out, nil
}

// LockOwner is a no-op: WithinTx already serializes transactions.
func (s *Store) LockOwner(context.Context, uuid.UUID) error {
	return nil
}

// UpdateCategory overwrites the mutable fields of an existing category.
func (s *Store) UpdateCategory(_ context.Context, c *models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.state.categories[c.ID]
	if !ok || cur.UserID != c.UserID {
		return fmt.Errorf("update category %s: %w", c.ID, models.ErrCategoryNotFound)
	}
	cur.Name = c.Name
	cur.ParentID = c.ParentID
	cur.Description = c.Description
	cur.Color = c.Color
	cur.ManualSizeFactor = c.ManualSizeFactor
	cur.UpdatedAt = s.Now()
	s.state.categories[c.ID] = cur
	*c = cur
	return nil
}

// DeleteCategory removes one category row.
func (s *Store) DeleteCategory(_ context.Context, userID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("DeleteCategory")

	if c, ok := s.state.categories[id]; ok && c.UserID == userID {
		delete(s.state.categories, id)
	}
	return nil
}

// --- metrics ---

// MetricsByCategoryIDs returns the metrics rows that exist for ids.
func (s *Store) MetricsByCategoryIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Metrics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("MetricsByCategoryIDs")

	out := make(map[uuid.UUID]models.Metrics, len(ids))
	for _, id := range ids {
		if m, ok := s.state.metrics[id]; ok {
			out[id] = m
		}
	}
	return out, nil
}

// Metrics returns the metrics of one category, or nil.
func (s *Store) Metrics(_ context.Context, categoryID uuid.UUID) (*models.Metrics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.state.metrics[categoryID]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

// DeleteMetrics removes the metrics row of a category.
func (s *Store) DeleteMetrics(_ context.Context, categoryID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("DeleteMetrics")

	delete(s.state.metrics, categoryID)
	return nil
}

// recordEdit must be called with mu held.
func (s *Store) recordEdit(categoryID uuid.UUID, noteDelta int, now time.Time) {
	m, ok := s.state.metrics[categoryID]
	if !ok {
		m = models.Metrics{CategoryID: categoryID}
	}
	s.state.metrics[categoryID] = m.RecordEdit(now, noteDelta)
}

// --- notes ---

// Note returns a note by id, or nil.
func (s *Store) Note(_ context.Context, id uuid.UUID) (*models.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.state.notes[id]
	if !ok {
		return nil, nil
	}
	return &n, nil
}

// NotesByCategory returns a category's notes, newest first.
func (s *Store) NotesByCategory(_ context.Context, categoryID uuid.UUID) ([]models.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Note
	for _, n := range s.state.notes {
		if n.CategoryID == categoryID {
			out = append(out, n)
		}
	}
	sortNotes(out)
	return out, nil
}

// NotesByUser returns every note filed under one of the user's categories.
func (s *Store) NotesByUser(_ context.Context, userID uuid.UUID) ([]models.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Note
	for _, n := range s.state.notes {
		if c, ok := s.state.categories[n.CategoryID]; ok && c.UserID == userID {
			out = append(out, n)
		}
	}
	sortNotes(out)
	return out, nil
}

// CreateNote inserts n and records the edit on its category's metrics.
func (s *Store) CreateNote(_ context.Context, n *models.Note) (*models.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.Now()
	out := *n
	out.ID = uuid.New()
	out.CreatedAt = now
	out.UpdatedAt = now
	s.state.notes[out.ID] = out
	s.recordEdit(out.CategoryID, 1, now)
	return &out, nil
}

// UpdateNote saves a note's title, content, and category. Moving a note
// shifts one count from the old category to the new one.
func (s *Store) UpdateNote(_ context.Context, n *models.Note) (*models.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.state.notes[n.ID]
	if !ok {
		return nil, fmt.Errorf("update note: %s not found", n.ID)
	}
	now := s.Now()
	if cur.CategoryID != n.CategoryID {
		s.recordEdit(cur.CategoryID, -1, now)
		s.recordEdit(n.CategoryID, 1, now)
	} else {
		s.recordEdit(n.CategoryID, 0, now)
	}
	cur.Title = n.Title
	cur.Content = n.Content
	cur.CategoryID = n.CategoryID
	cur.UpdatedAt = now
	s.state.notes[n.ID] = cur
	return &cur, nil
}

// DeleteNote removes a note and records the edit on its category.
func (s *Store) DeleteNote(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.state.notes[id]
	if !ok {
		return nil
	}
	delete(s.state.notes, id)
	s.recordEdit(n.CategoryID, -1, s.Now())
	return nil
}

// DeleteNotesByCategory removes every note of a category.
func (s *Store) DeleteNotesByCategory(_ context.Context, categoryID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("DeleteNotesByCategory")

	for id, n := range s.state.notes {
		if n.CategoryID == categoryID {
			delete(s.state.notes, id)
		}
	}
	return nil
}

// --- users ---

// CreateUser inserts u with a fresh id.
func (s *Store) CreateUser(_ context.Context, u *models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.state.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return nil, fmt.Errorf("create user: email %s already registered", u.Email)
		}
	}
	out := *u
	out.ID = uuid.New()
	out.CreatedAt = s.Now()
	out.UpdatedAt = out.CreatedAt
	s.state.users[out.ID] = out
	return &out, nil
}

// FindUserByEmail returns the user with the given email, or nil.
func (s *Store) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.state.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, nil
}

// FindUserByID returns the user with the given id, or nil.
func (s *Store) FindUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.state.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

// --- backups ---

// CreateBackup inserts a backup metadata row.
func (s *Store) CreateBackup(_ context.Context, b *models.Backup) (*models.Backup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := *b
	out.ID = uuid.New()
	if out.BackupDate.IsZero() {
		out.BackupDate = s.Now()
	}
	s.state.backups[out.ID] = out
	return &out, nil
}

// UpdateBackup saves the status, size, and object key of a backup.
func (s *Store) UpdateBackup(_ context.Context, b *models.Backup) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.backups[b.ID]; !ok {
		return fmt.Errorf("update backup: %s not found", b.ID)
	}
	s.state.backups[b.ID] = *b
	return nil
}

// ListBackups returns the user's backups, newest first.
func (s *Store) ListBackups(_ context.Context, userID uuid.UUID) ([]models.Backup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Backup
	for _, b := range s.state.backups {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].BackupDate.After(out[j].BackupDate)
	})
	return out, nil
}

// --- helpers ---

func sortByName(cats []models.Category) {
	sort.Slice(cats, func(i, j int) bool {
		if cats[i].Name != cats[j].Name {
			return cats[i].Name < cats[j].Name
		}
		return cats[i].ID.String() < cats[j].ID.String()
	})
}

func sortNotes(notes []models.Note) {
	sort.Slice(notes, func(i, j int) bool {
		if !notes[i].UpdatedAt.Equal(notes[j].UpdatedAt) {
			return notes[i].UpdatedAt.After(notes[j].UpdatedAt)
		}
		return notes[i].ID.String() < notes[j].ID.String()
	})
}

func page[T any](items []T, limit, offset int) []T {
	if offset < 0 || limit <= 0 || offset >= len(items) {
		return []T{}
	}
	return items[offset:min(offset+limit, len(items))]
}
