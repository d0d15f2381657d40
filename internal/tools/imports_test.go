package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateImports_ReturnsOneCheckPerImport(t *testing.T) {
	c, wsID := newTestContext(t)
	result, err := validateImports(context.Background(), c, ValidateImportsParams{
		Workspace:   wsID,
		CodeSnippet: "import \"fmt\"\nimport \"os\"\n",
	})
	require.NoError(t, err)
	require.Len(t, result.Checks, 2)
}
