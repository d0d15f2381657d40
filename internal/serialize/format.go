// Package serialize renders tool results into the output formats spec.md §6
// names: text, json, toon, auto, tree, code. It is the one place that decides
// how a result becomes a string; tool handlers hand it data, never format it
// themselves.
package serialize

// Format selects how a tool result is rendered.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatTOON Format = "toon"
	FormatAuto Format = "auto"
	FormatTree Format = "tree"
	FormatCode Format = "code"
)

// DefaultAutoThreshold is the minimum result count at which FormatAuto
// switches from json to toon, matching the teacher-adjacent Python original's
// "auto_threshold" default.
const DefaultAutoThreshold = 20

// Payload is everything Render needs to produce any of the six formats for
// one tool call. A tool handler fills in whichever fields its result shape
// supports; Render falls back to JSON-marshaling Data for any format that has
// no dedicated renderer for this payload.
type Payload struct {
	// Data is marshaled for FormatJSON and FormatTOON (and as the fallback
	// for every other format when no dedicated field is set).
	Data any

	// Count is the result count driving FormatAuto's toon/json choice.
	Count int

	// Text, when set, is used verbatim for FormatText instead of falling
	// back to JSON.
	Text string

	// Tree, when set, is used for FormatTree.
	Tree []TreeNode

	// Code, when set, is used for FormatCode.
	Code string
}

// Render dispatches to the renderer matching format, with TOON failures and
// FormatAuto below threshold degrading to JSON rather than erroring — a tool
// result is always renderable in some form.
func Render(format Format, threshold int, p Payload) (string, error) {
	if threshold <= 0 {
		threshold = DefaultAutoThreshold
	}
	switch format {
	case FormatText:
		if p.Text != "" {
			return p.Text, nil
		}
		return RenderJSON(p.Data)
	case FormatTree:
		if p.Tree != nil {
			return RenderTree(p.Tree), nil
		}
		return RenderJSON(p.Data)
	case FormatCode:
		if p.Code != "" {
			return RenderCode(p.Code), nil
		}
		return RenderJSON(p.Data)
	case FormatTOON:
		out, err := RenderToon(p.Data)
		if err != nil {
			return RenderJSON(p.Data)
		}
		return out, nil
	case FormatAuto:
		if p.Count >= threshold {
			if out, err := RenderToon(p.Data); err == nil {
				return out, nil
			}
		}
		return RenderJSON(p.Data)
	default:
		return RenderJSON(p.Data)
	}
}
