package layout

import (
	"hash/fnv"

	"github.com/google/uuid"
)

// Palette is the fixed set of fallback colors.
var Palette = []string{
	"#3498db",
	"#e74c3c",
	"#2ecc71",
	"#f39c12",
	"#9b59b6",
	"#1abc9c",
	"#34495e",
	"#e67e22",
}

// ColorFor picks a palette color from the category id, so the same
// category keeps its color across layouts.
func ColorFor(id uuid.UUID) string {
	h := fnv.New32a()
	h.Write(id[:])
	return Palette[h.Sum32()%uint32(len(Palette))]
}
