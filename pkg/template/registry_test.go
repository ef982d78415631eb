package template

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fileTemplate = `name: File Template
format_id: file-format
version: 1.0.0
detection:
  required_indicators:
    - pattern: 'Tenant\s*Data'
      weight: 10
sections:
  - key: tenant
    pattern: 'Tenant\s*Data'
fields:
  contract_no:
    - 'Contract\s+No\.?\s*([0-9]+)'
`

func writeTemplate(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRegistryEmptyAndEmbedded(t *testing.T) {
	assert.Zero(t, NewRegistry().Count())

	reg, err := NewDefaultRegistry()
	require.NoError(t, err)
	_, ok := reg.Get(DefaultFormatID)
	assert.True(t, ok, "embedded Ejar template is registered")
}

func TestRegistryRegister(t *testing.T) {
	reg := NewRegistry()

	require.NoError(t, reg.Register(minimalTemplate("test-format", "1.0.0")))
	assert.Equal(t, 1, reg.Count())

	assert.Error(t, reg.Register(nil))
	assert.Error(t, reg.Register(minimalTemplate("test-format", "1.0.0")), "same version twice")

	require.NoError(t, reg.Register(minimalTemplate("test-format", "2.0.0")))
	got, _ := reg.Get("test-format")
	assert.Equal(t, "2.0.0", got.Version)
	assert.Equal(t, 1, reg.Count())
}

func TestRegistryRejectsBrokenTemplates(t *testing.T) {
	reg := NewRegistry()

	assert.Error(t, reg.Register(&Template{Name: "Invalid"}))

	badRegex := minimalTemplate("invalid-regex", "1.0.0")
	badRegex.Detection.RequiredIndicators[0].Pattern = `[invalid`
	assert.Error(t, reg.Register(badRegex))

	assert.Zero(t, reg.Count())
}

func TestRegistryUnregister(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(minimalTemplate("test-format", "1.0.0")))

	require.NoError(t, reg.Unregister("test-format"))
	assert.Zero(t, reg.Count())
	assert.Error(t, reg.Unregister("non-existent"))
}

func TestRegistryListSorted(t *testing.T) {
	reg := NewRegistry()
	for _, id := range []string{"format-b", "format-a"} {
		require.NoError(t, reg.Register(minimalTemplate(id, "1.0.0")))
	}

	list := reg.List()
	require.Len(t, list, 2)
	assert.Equal(t, "format-a", list[0].FormatID)
	assert.Equal(t, "format-b", list[1].FormatID)
}

func TestRegistryLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "file.yaml", fileTemplate)
	writeTemplate(t, dir, "notes.txt", "not a template")

	reg, err := NewRegistryWithDirectory(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, reg.Count(), "embedded plus file.yaml")

	tmpl, ok := reg.Get("file-format")
	require.True(t, ok)
	assert.Equal(t, "55", tmpl.Field("contract_no").Value("Contract No 55"))
}

func TestRegistryLoadDirectoryEdgeCases(t *testing.T) {
	t.Run("missing directory is not an error", func(t *testing.T) {
		assert.NoError(t, NewRegistry().LoadDirectory(filepath.Join(t.TempDir(), "absent")))
	})

	t.Run("invalid file is reported", func(t *testing.T) {
		dir := t.TempDir()
		writeTemplate(t, dir, "bad.yml", "name: [unclosed")
		assert.Error(t, NewRegistry().LoadDirectory(dir))
	})

	t.Run("directory overrides embedded", func(t *testing.T) {
		dir := t.TempDir()
		writeTemplate(t, dir, "ejar.yaml", minimalTemplateYAML(DefaultFormatID, "1.0.0", "Overridden"))

		reg, err := NewRegistryWithDirectory(dir)
		require.NoError(t, err)
		tmpl, _ := reg.Get(DefaultFormatID)
		assert.Equal(t, "Overridden", tmpl.Name)
	})
}

func TestRegistryReload(t *testing.T) {
	reg := NewRegistry()
	assert.Error(t, reg.Reload(), "no directory configured yet")

	dir := t.TempDir()
	path := writeTemplate(t, dir, "file.yaml", fileTemplate)
	require.NoError(t, reg.LoadDirectory(dir))

	require.NoError(t, os.Remove(path))
	require.NoError(t, reg.Reload())

	_, ok := reg.Get("file-format")
	assert.False(t, ok, "templates whose file is gone are dropped")
	_, ok = reg.Get(DefaultFormatID)
	assert.True(t, ok, "embedded templates come back")
}

func TestRegistryWatch(t *testing.T) {
	assert.Error(t, NewRegistry().Watch(), "no directory configured")

	dir := t.TempDir()
	reg := NewRegistry()
	require.NoError(t, reg.LoadDirectory(dir))

	events := make(chan string, 8)
	reg.SetOnChange(func(event string, tmpl *Template) {
		select {
		case events <- event:
		default:
		}
	})

	require.NoError(t, reg.Watch())
	defer reg.StopWatch()

	writeTemplate(t, dir, "file.yaml", fileTemplate)

	select {
	case <-events:
	case <-time.After(2 * time.Second):
		t.Fatal("no change event after writing a template file")
	}
	_, ok := reg.Get("file-format")
	assert.True(t, ok)
}

func minimalTemplateYAML(id, version, name string) string {
	return `name: ` + name + `
format_id: ` + id + `
version: ` + version + `
detection:
  required_indicators:
    - pattern: 'Lessor\s*Data'
      weight: 10
sections:
  - key: lessor
    pattern: 'Lessor\s*Data'
`
}
