package tools

import (
	"context"

	"github.com/standardbeagle/miller/internal/errs"
	"github.com/standardbeagle/miller/internal/query"
	"github.com/standardbeagle/miller/internal/serialize"
)

// ExploreMode selects fast_explore's behavior.
type ExploreMode string

const (
	ExploreTypes    ExploreMode = "types"
	ExploreSimilar  ExploreMode = "similar"
	ExploreDeadCode ExploreMode = "dead_code"
	ExploreHotSpots ExploreMode = "hot_spots"
)

// FastExploreParams is fast_explore's parameter set.
type FastExploreParams struct {
	Mode         ExploreMode
	TypeName     string
	Symbol       string
	Snippet      string
	MinScore     float64
	Limit        int
	Workspace    string
	OutputFormat serialize.Format
}

// FastExploreResult is fast_explore's return value; exactly one of the data
// fields is populated, matching the selected mode.
type FastExploreResult struct {
	Data     any
	Rendered string
}

func fastExplore(ctx context.Context, c *Context, p FastExploreParams) (*FastExploreResult, error) {
	ws, err := c.Resolve(p.Workspace)
	if err != nil {
		return nil, err
	}
	limit := p.Limit
	if limit <= 0 {
		limit = 10
	}

	var data any
	var count int
	switch p.Mode {
	case "", ExploreTypes:
		if p.TypeName == "" {
			return nil, errs.New(errs.ErrCodeInvalidInput, "type_name is required for types mode", nil)
		}
		result, err := ws.Engine.ExploreTypes(ctx, p.TypeName, limit)
		if err != nil {
			return nil, err
		}
		data = result
		count = len(result.Implementations) + len(result.Parents) + len(result.Children) + len(result.Returns) + len(result.Parameters)
	case ExploreSimilar:
		sourceID := ""
		if p.Symbol != "" {
			matches, err := ws.Engine.Lookup(ctx, p.Symbol, query.LookupOptions{})
			if err != nil {
				return nil, err
			}
			if len(matches) > 0 {
				sourceID = matches[0].ID
			}
		}
		results, err := ws.Engine.Similarity(ctx, sourceID, p.Snippet, p.MinScore, limit)
		if err != nil {
			return nil, err
		}
		data = results
		count = len(results)
	case ExploreDeadCode:
		results, err := ws.Engine.DeadCode(ctx, limit)
		if err != nil {
			return nil, err
		}
		data = results
		count = len(results)
	case ExploreHotSpots:
		results, err := ws.Engine.HotSpots(ctx, limit)
		if err != nil {
			return nil, err
		}
		data = results
		count = len(results)
	default:
		return nil, errs.New(errs.ErrCodeInvalidInput, "unknown explore mode \""+string(p.Mode)+"\"", nil)
	}

	rendered, err := serialize.Render(p.OutputFormat, serialize.DefaultAutoThreshold, serialize.Payload{Data: data, Count: count})
	if err != nil {
		return nil, err
	}
	return &FastExploreResult{Data: data, Rendered: rendered}, nil
}
