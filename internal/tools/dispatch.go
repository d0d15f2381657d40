package tools

import "context"

// Tool names exactly as named in the tool surface. Dispatch is the single
// place that maps one of these strings to its handler and Params type.
const (
	ToolFastSearch                = "fast_search"
	ToolFastSearchMulti           = "fast_search_multi"
	ToolGetSymbols                = "get_symbols"
	ToolFastLookup                = "fast_lookup"
	ToolFastRefs                  = "fast_refs"
	ToolTraceCallPath             = "trace_call_path"
	ToolFastExplore               = "fast_explore"
	ToolRenameSymbol              = "rename_symbol"
	ToolGetArchitectureMap        = "get_architecture_map"
	ToolValidateImports           = "validate_imports"
	ToolFindSimilarImplementation = "find_similar_implementation"
	ToolGPUMemory                 = "gpu_memory"
	ToolManageWorkspace           = "manage_workspace"
)

// Dispatch routes a tool name and its already-typed parameter struct to the
// matching handler. Callers on the transport side are responsible for
// decoding their wire format into the right Params type before calling in —
// this package only owns the tool contracts, not JSON-RPC or MCP framing.
func Dispatch(ctx context.Context, c *Context, toolName string, params any) (any, error) {
	switch toolName {
	case ToolFastSearch:
		p, ok := params.(FastSearchParams)
		if !ok {
			return nil, unknownToolError(toolName)
		}
		return fastSearch(ctx, c, p)
	case ToolFastSearchMulti:
		p, ok := params.(FastSearchMultiParams)
		if !ok {
			return nil, unknownToolError(toolName)
		}
		return fastSearchMulti(ctx, c, p)
	case ToolGetSymbols:
		p, ok := params.(GetSymbolsParams)
		if !ok {
			return nil, unknownToolError(toolName)
		}
		return getSymbols(ctx, c, p)
	case ToolFastLookup:
		p, ok := params.(FastLookupParams)
		if !ok {
			return nil, unknownToolError(toolName)
		}
		return fastLookup(ctx, c, p)
	case ToolFastRefs:
		p, ok := params.(FastRefsParams)
		if !ok {
			return nil, unknownToolError(toolName)
		}
		return fastRefs(ctx, c, p)
	case ToolTraceCallPath:
		p, ok := params.(TraceCallPathParams)
		if !ok {
			return nil, unknownToolError(toolName)
		}
		return traceCallPath(ctx, c, p)
	case ToolFastExplore:
		p, ok := params.(FastExploreParams)
		if !ok {
			return nil, unknownToolError(toolName)
		}
		return fastExplore(ctx, c, p)
	case ToolRenameSymbol:
		p, ok := params.(RenameSymbolParams)
		if !ok {
			return nil, unknownToolError(toolName)
		}
		return renameSymbol(ctx, c, p)
	case ToolGetArchitectureMap:
		p, ok := params.(GetArchitectureMapParams)
		if !ok {
			return nil, unknownToolError(toolName)
		}
		return getArchitectureMap(ctx, c, p)
	case ToolValidateImports:
		p, ok := params.(ValidateImportsParams)
		if !ok {
			return nil, unknownToolError(toolName)
		}
		return validateImports(ctx, c, p)
	case ToolFindSimilarImplementation:
		p, ok := params.(FindSimilarImplementationParams)
		if !ok {
			return nil, unknownToolError(toolName)
		}
		return findSimilarImplementation(ctx, c, p)
	case ToolGPUMemory:
		p, ok := params.(GPUMemoryParams)
		if !ok {
			return nil, unknownToolError(toolName)
		}
		return gpuMemory(ctx, c, p)
	case ToolManageWorkspace:
		p, ok := params.(ManageWorkspaceParams)
		if !ok {
			return nil, unknownToolError(toolName)
		}
		return manageWorkspace(ctx, c, p)
	default:
		return nil, unknownToolError(toolName)
	}
}
