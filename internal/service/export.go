package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"

	"notemap/internal/apperr"
	"notemap/internal/models"
	"notemap/internal/tree"
)

// csvHeader lists the export columns in order.
var csvHeader = []string{"depth", "id", "name", "parent_id", "description", "created_at", "modified_at"}

// ExportCSV writes the user's whole forest as CSV, one row per category in
// depth-first order with its depth below the root.
func (c *Catalog) ExportCSV(ctx context.Context, userID uuid.UUID, w io.Writer) error {
	const op = "export csv"

	cats, err := c.repo.ListCategories(ctx, userID)
	if err != nil {
		return apperr.Wrap(apperr.Internal, err, op, "list categories of user %s", userID)
	}
	forest, err := tree.NewIndex(cats).Forest(nil, c.calc)
	if err != nil {
		return err
	}
	rows := models.Flatten(forest)

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range rows {
		parent := ""
		if r.ParentID != nil {
			parent = r.ParentID.String()
		}
		record := []string{
			strconv.Itoa(r.Depth),
			r.ID.String(),
			r.Name,
			parent,
			r.Description,
			r.CreatedAt.UTC().Format(time.RFC3339),
			r.UpdatedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row %s: %w", r.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
