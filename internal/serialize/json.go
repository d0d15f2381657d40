package serialize

import (
	"encoding/json"

	"github.com/standardbeagle/miller/internal/errs"
)

// RenderJSON pretty-prints v the same way the registry file does: indented,
// stable key order for maps.
func RenderJSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", errs.Wrap(errs.ErrCodeInternal, err)
	}
	return string(data), nil
}
