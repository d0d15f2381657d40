package tools

import "github.com/standardbeagle/miller/internal/errs"

func notReadyError(workspaceID string) error {
	return errs.New(errs.ErrCodeNotReady, "workspace \""+workspaceID+"\" is registered but not yet loaded", nil)
}

func unknownToolError(name string) error {
	return errs.New(errs.ErrCodeInvalidInput, "unknown tool \""+name+"\"", nil)
}
