package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/teranos/semls/lang"
)

const valid = `@prefix ex: <http://example.org/> .
ex:bob a ex:Person .
`

const unknownPrefix = `@prefix foaf: <http://xmlns.com/foaf/0.1/> .
<#me> foa:name "Bob" .
`

func writeFile(t *testing.T, dir, name, text string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(text), 0644))
	return path
}

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	b := writeFile(t, dir, "b.ttl", valid)
	a := writeFile(t, dir, "a.rq", "SELECT * WHERE { ?s ?p ?o }")
	writeFile(t, dir, "notes.txt", "not rdf")
	writeFile(t, dir, ".git/x.ttl", valid)
	nested := writeFile(t, dir, "sub/c.jsonld", `{"@id": "http://example.org/c"}`)

	files, err := collectFiles([]string{dir})
	require.NoError(t, err)
	assert.Equal(t, []string{a, b, nested}, files)

	// explicit files are kept whatever their extension
	txt := filepath.Join(dir, "notes.txt")
	files, err = collectFiles([]string{txt})
	require.NoError(t, err)
	assert.Equal(t, []string{txt}, files)

	_, err = collectFiles([]string{filepath.Join(dir, "missing.ttl")})
	assert.Error(t, err)
}

func TestCheckFiles(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.ttl", valid)
	bad := writeFile(t, dir, "bad.ttl", unknownPrefix)

	reports, err := checkFiles(context.Background(), []string{good, bad}, "", 2, nil)
	require.NoError(t, err)
	require.Len(t, reports, 2)

	assert.Equal(t, good, reports[0].Path)
	assert.Equal(t, "turtle", reports[0].Language)
	assert.Equal(t, 1, reports[0].Triples)
	assert.Zero(t, reports[0].Errors)
	assert.Empty(t, reports[0].Diagnostics)

	assert.Equal(t, bad, reports[1].Path)
	assert.Equal(t, 1, reports[1].Errors)
	require.Len(t, reports[1].Diagnostics, 1)
	d := reports[1].Diagnostics[0]
	assert.Equal(t, 2, d.Line)
	assert.Equal(t, 7, d.Column)
	assert.Equal(t, lang.SeverityError, d.Severity)
	assert.Equal(t, "unknown prefix 'foa:'", d.Message)
}

func TestCheckFiles_LanguageHint(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "data.txt", valid)

	_, err := checkFiles(context.Background(), []string{path}, "", 1, nil)
	assert.Error(t, err, "no grammar for .txt")

	reports, err := checkFiles(context.Background(), []string{path}, "turtle", 1, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, reports[0].Triples)
}

func TestWriteReports(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "bad.ttl", unknownPrefix)
	reports, err := checkFiles(context.Background(), []string{bad}, "", 1, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeReports(&buf, "json", reports))
	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, float64(1), decoded[0]["errors"])

	buf.Reset()
	require.NoError(t, writeReports(&buf, "yaml", reports))
	var fromYAML []FileReport
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &fromYAML))
	require.Len(t, fromYAML, 1)
	assert.Equal(t, 2, fromYAML[0].Diagnostics[0].Line)

	buf.Reset()
	require.NoError(t, writeReports(&buf, "text", reports))
	assert.Contains(t, buf.String(), bad+":2:7")
	assert.Contains(t, buf.String(), "1 files checked, 1 errors")

	assert.Error(t, writeReports(&buf, "xml", reports))
}

func TestFormatFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "f.ttl", "@prefix foaf: <>.")

	before, after, err := formatFile(path, "", lang.FormatOptions{TabSize: 2, InsertSpaces: true})
	require.NoError(t, err)
	assert.Equal(t, "@prefix foaf: <>.", before)
	assert.Equal(t, "@prefix foaf: <>.\n\n", after)

	diff, err := unifiedDiff(path, before, after)
	require.NoError(t, err)
	assert.Contains(t, diff, "--- "+path)

	same, err := unifiedDiff(path, after, after)
	require.NoError(t, err)
	assert.Empty(t, same)

	broken := writeFile(t, dir, "broken.ttl", "@prefix foaf <x> .\nex:a ex:b")
	_, _, err = formatFile(broken, "", lang.FormatOptions{TabSize: 2, InsertSpaces: true})
	assert.Error(t, err, "syntax errors block formatting")
}

func TestParseSettingValue(t *testing.T) {
	assert.Equal(t, true, parseSettingValue("true"))
	assert.Equal(t, int64(4), parseSettingValue("4"))
	assert.Equal(t, 0.5, parseSettingValue("0.5"))
	assert.Equal(t, "sqlite", parseSettingValue("sqlite"))
	assert.Equal(t, []any{"http://localhost"}, parseSettingValue(`["http://localhost"]`))
}

func TestFileURI(t *testing.T) {
	uri := fileURI("/tmp/a b.ttl")
	assert.Equal(t, "file:///tmp/a%20b.ttl", uri)
}
