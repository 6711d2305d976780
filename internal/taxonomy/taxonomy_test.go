package taxonomy

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"resumescore/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
version: "test-1"
categories:
  - name: General
    terms: [Communication, "Project   Management", communication]
  - name: technology
    indicators: [software]
    terms: [python, sql]
synonyms:
  SQL: [PostgreSQL]
sections:
  experience: [experience]
  education: [education]
  skills: [skills]
`

func TestDefaultTaxonomyIsValid(t *testing.T) {
	tax, err := Default()
	require.NoError(t, err)

	assert.NotEmpty(t, tax.Version)
	assert.Equal(t, 15, tax.IndustryTermLimit)
	assert.NotEmpty(t, tax.General().Terms)

	names := make([]string, 0, len(tax.Industries()))
	for _, c := range tax.Industries() {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"technology", "business", "healthcare", "finance"}, names)

	assert.True(t, tax.IsHighDemand("python"))
	assert.Contains(t, tax.SynonymsOf("kubernetes"), "k8s")
	assert.Equal(t, []string{"business", "finance"}, tax.CategoriesOf("budgeting"))
	assert.Len(t, tax.Exclusions.Domains, 2)
}

func TestDefaultIndustriesFitTermLimit(t *testing.T) {
	tax, err := Default()
	require.NoError(t, err)

	for _, c := range tax.Industries() {
		t.Run(c.Name, func(t *testing.T) {
			assert.LessOrEqual(t, len(c.Terms), tax.IndustryTermLimit, "terms past the limit are never candidates")
		})
	}
}

func TestParseNormalizesTerms(t *testing.T) {
	tax, err := Parse([]byte(minimalYAML))
	require.NoError(t, err)

	general := tax.General()
	assert.Equal(t, "general", general.Name)
	assert.Equal(t, []string{"communication", "project management"}, general.Terms)
	assert.Equal(t, []string{"postgresql"}, tax.SynonymsOf("sql"))
	assert.Equal(t, defaultIndustryTermLimit, tax.IndustryTermLimit)
}

func TestParseRejectsInvalidTaxonomies(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "malformed yaml",
			yaml: "categories: [",
		},
		{
			name: "no categories",
			yaml: "version: x\n",
		},
		{
			name: "missing general",
			yaml: `
categories:
  - name: technology
    indicators: [software]
    terms: [python]
sections: {experience: [a], education: [b], skills: [c]}
`,
		},
		{
			name: "empty category",
			yaml: `
categories:
  - name: general
    terms: []
sections: {experience: [a], education: [b], skills: [c]}
`,
		},
		{
			name: "industry without indicators",
			yaml: `
categories:
  - name: general
    terms: [communication]
  - name: finance
    terms: [audit]
sections: {experience: [a], education: [b], skills: [c]}
`,
		},
		{
			name: "duplicate category",
			yaml: `
categories:
  - name: general
    terms: [communication]
  - name: general
    terms: [leadership]
sections: {experience: [a], education: [b], skills: [c]}
`,
		},
		{
			name: "missing section vocabulary",
			yaml: `
categories:
  - name: general
    terms: [communication]
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeConfig), "got %v", err)
		})
	}
}

func TestLoad(t *testing.T) {
	t.Run("empty path uses default", func(t *testing.T) {
		tax, err := Load("")
		require.NoError(t, err)
		assert.NotEmpty(t, tax.Categories)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
		appErr, ok := errors.As(err)
		require.True(t, ok)
		assert.Equal(t, errors.ErrCodeFileNotFound, appErr.Code)
	})

	t.Run("file on disk", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "taxonomy.yaml")
		require.NoError(t, os.WriteFile(path, []byte(minimalYAML), 0o600))

		tax, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "test-1", tax.Version)
	})
}

func TestMarshalRoundTripKeepsVersion(t *testing.T) {
	tax, err := Default()
	require.NoError(t, err)

	data, err := tax.Marshal()
	require.NoError(t, err)

	again, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, tax.Stats(), again.Stats())
}

func TestWatcherReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "taxonomy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalYAML), 0o600))

	reloaded := make(chan *Taxonomy, 1)
	w, err := NewWatcher(path, 20*time.Millisecond, func(tax *Taxonomy) {
		select {
		case reloaded <- tax:
		default:
		}
	}, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer func() { _ = w.Stop() }()
	assert.True(t, w.IsRunning())

	// Replace the file the way config management does: write aside, rename over.
	staged := filepath.Join(dir, "taxonomy.yaml.tmp")
	updated := []byte(strings.Replace(minimalYAML, "test-1", "test-2", 1))
	require.NoError(t, os.WriteFile(staged, updated, 0o600))
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(staged, future, future))
	require.NoError(t, os.Rename(staged, path))

	select {
	case tax := <-reloaded:
		assert.Equal(t, "test-2", tax.Version)
	case <-time.After(5 * time.Second):
		t.Fatal("taxonomy was not reloaded")
	}
}

func TestNewWatcherValidation(t *testing.T) {
	_, err := NewWatcher("", 0, func(*Taxonomy) {}, nil)
	assert.Error(t, err)

	_, err = NewWatcher("x.yaml", 0, nil, nil)
	assert.Error(t, err)
}
