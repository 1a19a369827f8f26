package datasets_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/meikuraledutech/datasets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func manifestJSON(t *testing.T, contents string) []byte {
	t.Helper()
	return []byte(fmt.Sprintf(`{
		"name": "X",
		"description": "Y",
		"@spec": "s",
		"@spec_version": "1",
		"contents": %s
	}`, contents))
}

func TestIngest_MinimalManifest(t *testing.T) {
	d, err := datasets.Ingest(manifestJSON(t, `[]`), datasets.IngestOptions{})
	require.NoError(t, err)

	assert.Equal(t, "X", d.Title)
	assert.Equal(t, "Y", d.Description)
	assert.Equal(t, "Unknown", d.Format)
	assert.Equal(t, int64(0), d.Size)
	assert.Empty(t, d.FileStructure)
	assert.NotNil(t, d.FileStructure)
	assert.Equal(t, datasets.StatusPending, d.Status)
	assert.Equal(t, []string{}, d.Tags)
	assert.Equal(t, []json.RawMessage{}, d.Pieces)
}

func TestIngest_SingleFile(t *testing.T) {
	d, err := datasets.Ingest(manifestJSON(t, `[{"@type":"file","name":"a.csv","byte_length":100}]`), datasets.IngestOptions{})
	require.NoError(t, err)

	require.Len(t, d.FileStructure, 1)
	n := d.FileStructure[0]
	assert.Equal(t, datasets.NodeFile, n.Type)
	assert.Equal(t, "a.csv", n.Path)
	assert.Equal(t, int64(100), n.Size)
	assert.Equal(t, int64(100), d.Size)
	assert.Equal(t, "CSV", d.Format)
}

func TestIngest_NestedDirectory(t *testing.T) {
	d, err := datasets.Ingest(manifestJSON(t, `[
		{"@type":"directory","name":"d","contents":[{"@type":"file","name":"b.txt","byte_length":50}]}
	]`), datasets.IngestOptions{})
	require.NoError(t, err)

	require.Len(t, d.FileStructure, 1)
	dir := d.FileStructure[0]
	assert.Equal(t, datasets.NodeDirectory, dir.Type)
	assert.Equal(t, int64(0), dir.Size)
	require.Len(t, dir.Children, 1)
	assert.Equal(t, "d/b.txt", dir.Children[0].Path)
	assert.Equal(t, int64(50), d.Size)
	assert.Equal(t, "TXT", d.Format)
}

func TestIngest_MissingFields(t *testing.T) {
	_, err := datasets.Ingest([]byte(`{"name":"X","@spec":"s","contents":[]}`), datasets.IngestOptions{})
	require.Error(t, err)

	var ve *datasets.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, []string{
		"Missing required field: description",
		"Missing required field: @spec_version",
	}, ve.Problems)
	assert.True(t, datasets.IsClientError(err))
}

func TestIngest_ParseError(t *testing.T) {
	for _, in := range []string{``, `not json`, `[1,2]`, `null`, `{"name":`} {
		_, err := datasets.Ingest([]byte(in), datasets.IngestOptions{})
		var pe *datasets.ParseError
		assert.True(t, errors.As(err, &pe), "input %q", in)
		assert.True(t, datasets.IsClientError(err))
	}
}

func TestIngest_PassThroughFields(t *testing.T) {
	data := []byte(`{
		"name": "Cats",
		"description": "Pictures of cats",
		"@spec": "https://example.com/spec",
		"@spec_version": 2,
		"@type": "manifest",
		"version": "1.0.0",
		"open_with": "jupyter",
		"license": "MIT",
		"project_url": "https://example.com",
		"uuid": "0b5e8f2e-3a4c-4d0b-9c7e-1f2a3b4c5d6e",
		"tags": ["cats", "images"],
		"n_pieces": 2,
		"pieces": [{"piece_cid": "baga1"}, {"piece_cid": "baga2"}],
		"contents": []
	}`)
	d, err := datasets.Ingest(data, datasets.IngestOptions{})
	require.NoError(t, err)

	assert.Equal(t, "0b5e8f2e-3a4c-4d0b-9c7e-1f2a3b4c5d6e", d.ID)
	assert.Equal(t, d.ID, d.UUID)
	assert.Equal(t, "https://example.com/spec", d.Spec)
	assert.Equal(t, "2", d.SpecVersion)
	assert.Equal(t, "manifest", d.ManifestType)
	assert.Equal(t, "1.0.0", d.Version)
	assert.Equal(t, "jupyter", d.OpenWith)
	assert.Equal(t, "MIT", d.License)
	assert.Equal(t, "https://example.com", d.ProjectURL)
	assert.Equal(t, []string{"cats", "images"}, d.Tags)
	require.NotNil(t, d.NPieces)
	assert.Equal(t, int64(2), *d.NPieces)
	require.Len(t, d.Pieces, 2)
	assert.JSONEq(t, `{"piece_cid":"baga1"}`, string(d.Pieces[0]))
	assert.Contains(t, string(d.ManifestData), `"open_with":"jupyter"`)
	assert.Empty(t, d.Network)
	assert.Empty(t, d.ManifestFile)
}

func TestIngest_UnknownTypes(t *testing.T) {
	contents := `[
		{"@type":"file","name":"a.csv","byte_length":1},
		{"@type":"symlink","name":"link"},
		{"@type":"directory","name":"d","contents":[{"@type":"socket","name":"s"}]}
	]`

	d, err := datasets.Ingest(manifestJSON(t, contents), datasets.IngestOptions{})
	require.NoError(t, err)
	require.Len(t, d.FileStructure, 2)
	assert.Equal(t, "a.csv", d.FileStructure[0].Path)
	assert.Equal(t, "d", d.FileStructure[1].Path)
	assert.Empty(t, d.FileStructure[1].Children)
	require.Len(t, d.Warnings, 2)
	assert.Contains(t, d.Warnings[0], `"link"`)
	assert.Contains(t, d.Warnings[1], `"d/s"`)

	_, err = datasets.Ingest(manifestJSON(t, contents), datasets.IngestOptions{Strict: true})
	var ne *datasets.NormalizationError
	require.True(t, errors.As(err, &ne))
	assert.Equal(t, "link", ne.Path)
	assert.Equal(t, `unknown @type at "link", "d/s"`, ne.Reason)
}

func TestIngest_MalformedDirectory(t *testing.T) {
	_, err := datasets.Ingest(manifestJSON(t, `[{"@type":"directory","name":"d","contents":{"oops":1}}]`), datasets.IngestOptions{})
	var ne *datasets.NormalizationError
	require.True(t, errors.As(err, &ne))
	assert.Equal(t, "d", ne.Path)
	assert.True(t, strings.Contains(err.Error(), "not an array"))
}

func TestIngest_Idempotent(t *testing.T) {
	data := manifestJSON(t, `[
		{"@type":"file","name":"a.csv","byte_length":3},
		{"@type":"file","name":"b.json","byte_length":4},
		{"@type":"directory","name":"d","contents":[
			{"@type":"split-file","name":"big.json","byte_length":10,"parts":[{"cid":"p1"}]}
		]}
	]`)
	first, err := datasets.Ingest(data, datasets.IngestOptions{})
	require.NoError(t, err)
	second, err := datasets.Ingest(data, datasets.IngestOptions{})
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, "JSON", first.Format)
}
