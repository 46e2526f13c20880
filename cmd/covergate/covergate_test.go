package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/cover"
)

const sampleProfile = `mode: set
github.com/joshmarlow/data-schema/pkg/schema/schema.go:10.2,12.3 2 1
github.com/joshmarlow/data-schema/pkg/schema/schema.go:14.2,15.3 1 0
github.com/joshmarlow/data-schema/pkg/loader/loader.go:20.2,25.3 3 1
github.com/joshmarlow/data-schema/db/migrations.go:1.1,2.2 4 0
`

func parseSample(t *testing.T) []*cover.Profile {
	t.Helper()
	path := filepath.Join(t.TempDir(), "coverage.out")
	require.NoError(t, os.WriteFile(path, []byte(sampleProfile), 0o600))

	profiles, err := cover.ParseProfiles(path)
	require.NoError(t, err)
	return profiles
}

func TestEvaluate(t *testing.T) {
	report := Evaluate(parseSample(t), []string{"db/migrations"})

	require.Len(t, report.Files, 2)
	assert.Equal(t, "github.com/joshmarlow/data-schema/pkg/loader/loader.go", report.Files[0].File)
	assert.Equal(t, 100.0, report.Files[0].Percent())
	assert.Equal(t, int64(3), report.Files[1].Statements)
	assert.Equal(t, int64(2), report.Files[1].Covered)

	assert.Equal(t, int64(6), report.Statements)
	assert.Equal(t, int64(5), report.Covered)
	assert.InDelta(t, 83.33, report.Percent(), 0.01)
	assert.True(t, report.Passes(80))
	assert.False(t, report.Passes(100))
}

func TestEvaluateWithoutExcludes(t *testing.T) {
	report := Evaluate(parseSample(t), nil)

	assert.Len(t, report.Files, 3)
	assert.Equal(t, int64(10), report.Statements)
	assert.Equal(t, int64(5), report.Covered)
	assert.Equal(t, 50.0, report.Percent())
}

func TestEvaluateEmpty(t *testing.T) {
	report := Evaluate(nil, nil)

	assert.Equal(t, 100.0, report.Percent())
	assert.True(t, report.Passes(100))
}

func TestPrint(t *testing.T) {
	report := Evaluate(parseSample(t), []string{"db/migrations"})

	var buf bytes.Buffer
	require.NoError(t, report.Print(&buf))

	out := buf.String()
	assert.Contains(t, out, "pkg/schema/schema.go")
	assert.Contains(t, out, "2/3")
	assert.Contains(t, out, "66.7%")
	assert.Contains(t, out, "total")
	assert.Contains(t, out, "5/6")
	assert.NotContains(t, out, "migrations.go")
}
