package serialize

import (
	"github.com/toon-format/toon-go"

	"github.com/standardbeagle/miller/internal/errs"
)

// RenderToon encodes v as TOON's compact columnar table format. Grounded
// directly on example repo madeindigio-remembrances-mcp's MarshalTOON
// helper: toon.MarshalString with length markers enabled, so array fields
// carry their `[N]` count the way spec.md §6 describes.
func RenderToon(v any) (string, error) {
	out, err := toon.MarshalString(v, toon.WithLengthMarkers(true))
	if err != nil {
		return "", errs.Wrap(errs.ErrCodeInternal, err)
	}
	return out, nil
}
