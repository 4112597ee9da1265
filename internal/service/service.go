// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package service is the use-case layer behind the HTTP API and the CLI.
// Catalog owns a user's categories, notes, and layouts: it validates input,
// enforces ownership, delegates tree work to the tree package, and keeps
// the layout cache coherent with every mutation.
package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"notemap/internal/layout"
	"notemap/internal/models"
	"notemap/internal/sizing"
	"notemap/internal/tree"
)

// Repository is the storage the catalog runs on. Both the PostgreSQL
// repository and the in-memory store implement it.
type Repository interface {
	tree.Reader
	tree.Writer
	tree.Transactor

	ListCategories(ctx context.Context, userID uuid.UUID) ([]models.Category, error)
	CountCategories(ctx context.Context, userID uuid.UUID) (int, error)
	SearchCategories(ctx context.Context, userID uuid.UUID, q string, limit int) ([]models.Category, error)
	CreateCategory(ctx context.Context, c *models.Category) (*models.Category, error)
	UpdateCategory(ctx context.Context, c *models.Category) error

	Metrics(ctx context.Context, categoryID uuid.UUID) (*models.Metrics, error)

	Note(ctx context.Context, id uuid.UUID) (*models.Note, error)
	NotesByCategory(ctx context.Context, categoryID uuid.UUID) ([]models.Note, error)
	NotesByUser(ctx context.Context, userID uuid.UUID) ([]models.Note, error)
	CreateNote(ctx context.Context, n *models.Note) (*models.Note, error)
	UpdateNote(ctx context.Context, n *models.Note) (*models.Note, error)
	DeleteNote(ctx context.Context, id uuid.UUID) error
}

// LayoutCache stores computed layouts per user. Implementations are
// best-effort: failures degrade to cache misses.
type LayoutCache interface {
	Get(ctx context.Context, userID uuid.UUID, key string) ([]byte, bool)
	Set(ctx context.Context, userID uuid.UUID, key string, data []byte)
	InvalidateUser(ctx context.Context, userID uuid.UUID)
	InvalidateAll(ctx context.Context)
}

// Catalog implements the category, note, layout, and export use cases.
type Catalog struct {
	repo    Repository
	calc    *sizing.Calculator
	loader  *tree.Loader
	deleter *tree.Deleter
	cache   LayoutCache
	seed    uint64
	logger  *slog.Logger
}

// Option configures a Catalog.
type Option func(*catalogConfig)

type catalogConfig struct {
	cache      LayoutCache
	seed       uint64
	logger     *slog.Logger
	loaderOpts []tree.LoaderOption
}

// WithCache enables layout caching.
func WithCache(c LayoutCache) Option {
	return func(cfg *catalogConfig) { cfg.cache = c }
}

// WithLayoutSeed sets the seed used when a layout request carries none.
func WithLayoutSeed(seed uint64) Option {
	return func(cfg *catalogConfig) { cfg.seed = seed }
}

// WithLogger sets the logger for the catalog and its tree helpers.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *catalogConfig) { cfg.logger = logger }
}

// WithLoaderOptions passes options through to the tree loader.
func WithLoaderOptions(opts ...tree.LoaderOption) Option {
	return func(cfg *catalogConfig) { cfg.loaderOpts = append(cfg.loaderOpts, opts...) }
}

// New builds a Catalog over repo, sizing with calc.
func New(repo Repository, calc *sizing.Calculator, opts ...Option) *Catalog {
	cfg := catalogConfig{seed: 1, logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	loaderOpts := append([]tree.LoaderOption{tree.WithLogger(cfg.logger)}, cfg.loaderOpts...)
	return &Catalog{
		repo:    repo,
		calc:    calc,
		loader:  tree.NewLoader(repo, calc, loaderOpts...),
		deleter: tree.NewDeleter(repo, tree.WithDeleteLogger(cfg.logger)),
		cache:   cfg.cache,
		seed:    cfg.seed,
		logger:  cfg.logger,
	}
}

// Weights returns the active sizing weights.
func (c *Catalog) Weights() sizing.Weights {
	return c.calc.Weights()
}

// SetWeights replaces the sizing weights and drops every cached layout,
// since any size may have changed. Returns the normalized weights.
func (c *Catalog) SetWeights(ctx context.Context, w sizing.Weights) sizing.Weights {
	applied := c.calc.SetWeights(w)
	if c.cache != nil {
		c.cache.InvalidateAll(ctx)
	}
	c.logger.Info("sizing weights updated",
		"note_count", applied.NoteCount,
		"edit_frequency", applied.EditFrequency,
		"manual", applied.Manual,
	)
	return applied
}

// ComputeSize scores raw inputs with the active weights.
func (c *Catalog) ComputeSize(noteCount int, editFrequency, manualFactor float64) float64 {
	return c.calc.Compute(noteCount, editFrequency, manualFactor)
}

// DefaultLayoutOptions returns the layout options used for a canvas.
func (c *Catalog) DefaultLayoutOptions(width, height float64) layout.Options {
	opts := layout.DefaultOptions(width, height)
	opts.Seed = c.seed
	return opts
}

func (c *Catalog) invalidate(ctx context.Context, userID uuid.UUID) {
	if c.cache != nil {
		c.cache.InvalidateUser(ctx, userID)
	}
}
