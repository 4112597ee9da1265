package tree

import (
	"context"

	"github.com/google/uuid"

	"notemap/internal/apperr"
	"notemap/internal/models"
)

// ValidateParent checks that parentID is an existing category owned by
// userID and that placing id beneath it keeps the forest acyclic. Pass
// uuid.Nil as id for a category that does not exist yet.
//
// The walk up the parent chain is bounded by the per-user category cap,
// so an already corrupted chain still terminates with CYCLE_DETECTED.
func ValidateParent(ctx context.Context, g CategoryGetter, userID, id, parentID uuid.UUID) error {
	const op = "validate parent"

	if id != uuid.Nil && id == parentID {
		return apperr.New(apperr.CycleDetected, op, "category %s cannot be its own parent", id)
	}

	current := parentID
	for step := 0; ; step++ {
		if step > models.MaxCategoriesPerUser {
			return apperr.New(apperr.CycleDetected, op, "parent chain of %s does not terminate", parentID)
		}

		c, err := g.Category(ctx, userID, current)
		if err != nil {
			return storageErr(err, op, "fetch category %s", current)
		}
		if c == nil {
			if step == 0 {
				return apperr.New(apperr.NotFound, op, "parent category %s not found", parentID)
			}
			// A dangling link higher up ends the chain like a root.
			return nil
		}
		if step > 0 && c.ID == id {
			return apperr.New(apperr.CycleDetected, op, "category %s cannot move beneath its own descendant %s", id, parentID)
		}
		if c.ParentID == nil {
			return nil
		}
		current = *c.ParentID
	}
}
