package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseImportNames_Go(t *testing.T) {
	names := parseImportNames(`import "fmt"
import "github.com/standardbeagle/miller/internal/storage"`)
	assert.Equal(t, []string{"fmt", "storage"}, names)
}

func TestParseImportNames_ESModuleNamed(t *testing.T) {
	names := parseImportNames(`import { User, Session } from "./models"`)
	assert.Equal(t, []string{"User", "Session"}, names)
}

func TestParseImportNames_Python(t *testing.T) {
	names := parseImportNames(`from app.models import User`)
	assert.Equal(t, []string{"User"}, names)
}

func TestLevenshtein_IdenticalIsZero(t *testing.T) {
	assert.Equal(t, 0, levenshtein("User", "User"))
}

func TestLevenshtein_SingleEditDistances(t *testing.T) {
	assert.Equal(t, 1, levenshtein("User", "Users"))
	assert.Equal(t, 1, levenshtein("Usor", "User"))
}
