package datasets_test

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/meikuraledutech/datasets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func size(n int64) *int64 { return &n }

func TestNormalize_Empty(t *testing.T) {
	nodes, skipped := datasets.Normalize(nil, "")
	assert.NotNil(t, nodes)
	assert.Empty(t, nodes)
	assert.Empty(t, skipped)
}

func TestNormalize_PreservesOrder(t *testing.T) {
	names := []string{"z.csv", "a.csv", "m", "b.txt"}
	entries := []datasets.Entry{
		&datasets.FileEntry{Name: names[0]},
		&datasets.FileEntry{Name: names[1]},
		&datasets.DirectoryEntry{Name: names[2]},
		&datasets.SplitFileEntry{FileEntry: datasets.FileEntry{Name: names[3]}},
	}

	nodes, _ := datasets.Normalize(entries, "")
	require.Len(t, nodes, len(names))
	for i, n := range nodes {
		assert.Equal(t, names[i], n.Name)
	}
}

func TestNormalize_BasePath(t *testing.T) {
	nodes, _ := datasets.Normalize([]datasets.Entry{&datasets.FileEntry{Name: "f"}}, "root/sub")
	require.Len(t, nodes, 1)
	assert.Equal(t, "root/sub/f", nodes[0].Path)
}

func TestNormalize_SizeFallback(t *testing.T) {
	nodes, _ := datasets.Normalize([]datasets.Entry{
		&datasets.FileEntry{Name: "a", ByteLength: size(5)},
		&datasets.FileEntry{Name: "b", Size: size(7)},
		&datasets.FileEntry{Name: "c"},
		&datasets.FileEntry{Name: "d", ByteLength: size(0), Size: size(10)},
	}, "")
	require.Len(t, nodes, 4)
	assert.Equal(t, int64(5), nodes[0].Size)
	assert.Equal(t, int64(7), nodes[1].Size)
	assert.Nil(t, nodes[1].ByteLength)
	assert.Equal(t, int64(0), nodes[2].Size)
	assert.Equal(t, int64(10), nodes[3].Size)
	assert.Equal(t, int64(22), datasets.TotalSize(nodes))
}

func TestNormalize_SplitFileDefaultsParts(t *testing.T) {
	nodes, _ := datasets.Normalize([]datasets.Entry{
		&datasets.SplitFileEntry{FileEntry: datasets.FileEntry{Name: "s.bin", ByteLength: size(3)}},
	}, "")
	require.Len(t, nodes, 1)
	assert.Equal(t, datasets.NodeSplitFile, nodes[0].Type)
	assert.NotNil(t, nodes[0].Parts)
	assert.Empty(t, nodes[0].Parts)
}

// deepTree builds depth nested directories, each holding one file of size 1..depth.
func deepTree(depth int) []datasets.Entry {
	var build func(level int) []datasets.Entry
	build = func(level int) []datasets.Entry {
		file := &datasets.FileEntry{Name: fmt.Sprintf("f%d.dat", level), ByteLength: size(int64(level))}
		if level == depth {
			return []datasets.Entry{file}
		}
		return []datasets.Entry{
			file,
			&datasets.DirectoryEntry{Name: fmt.Sprintf("d%d", level), Contents: build(level + 1)},
		}
	}
	return build(1)
}

func checkPaths(t *testing.T, nodes []datasets.Node, parent string) {
	t.Helper()
	for _, n := range nodes {
		if parent == "" {
			assert.Equal(t, n.Name, n.Path)
			assert.False(t, strings.HasPrefix(n.Path, "/"))
		} else {
			assert.True(t, strings.HasPrefix(n.Path, parent+"/"), "path %q under %q", n.Path, parent)
			assert.Equal(t, parent+"/"+n.Name, n.Path)
		}
		checkPaths(t, n.Children, n.Path)
	}
}

func flatten(nodes []datasets.Node) []datasets.Node {
	var out []datasets.Node
	for _, n := range nodes {
		out = append(out, n)
		out = append(out, flatten(n.Children)...)
	}
	return out
}

func TestNormalize_PathInvariant(t *testing.T) {
	nodes, _ := datasets.Normalize(deepTree(6), "")
	checkPaths(t, nodes, "")
	assert.Equal(t, "d1/d2/d3/d4/d5/f6.dat", flatten(nodes)[len(flatten(nodes))-1].Path)
}

func TestTotalSize_MatchesFlattenedSum(t *testing.T) {
	for depth := 1; depth <= 8; depth++ {
		nodes, _ := datasets.Normalize(deepTree(depth), "")

		var want int64
		for _, n := range flatten(nodes) {
			if n.IsFile() {
				want += *n.ByteLength
			}
		}
		assert.Equal(t, want, datasets.TotalSize(nodes), "depth %d", depth)
		assert.Equal(t, int64(depth*(depth+1)/2), datasets.TotalSize(nodes))
	}
}

func TestTotalSize_IgnoresDirectorySize(t *testing.T) {
	tree := []datasets.Node{
		{Name: "d", Type: datasets.NodeDirectory, Size: 999, Children: []datasets.Node{
			{Name: "a", Type: datasets.NodeFile, Size: 4},
			{Name: "b", Type: datasets.NodeSplitFile, ByteLength: size(6), Size: 6},
		}},
	}
	assert.Equal(t, int64(10), datasets.TotalSize(tree))
	assert.Equal(t, 2, datasets.CountFiles(tree))
}

func TestInferFormat(t *testing.T) {
	file := func(name string) datasets.Node { return datasets.Node{Name: name, Type: datasets.NodeFile} }

	tests := []struct {
		name string
		tree []datasets.Node
		want string
	}{
		{"empty", nil, "Unknown"},
		{"no extensions", []datasets.Node{file("README"), file("trailing.")}, "Unknown"},
		{"single", []datasets.Node{file("a.CSV"), file("b.csv")}, "CSV"},
		{"majority", []datasets.Node{file("a.csv"), file("b.json"), file("c.csv")}, "CSV"},
		{"tie goes to first seen", []datasets.Node{file("a.json"), file("b.csv")}, "JSON"},
		{"last dot wins", []datasets.Node{file("archive.tar.gz")}, "GZ"},
		{"directory names ignored", []datasets.Node{
			{Name: "dir.csv", Type: datasets.NodeDirectory, Children: []datasets.Node{file("x.parquet")}},
		}, "PARQUET"},
		{"split files count", []datasets.Node{
			file("a.csv"),
			{Name: "b.bin", Type: datasets.NodeSplitFile},
			{Name: "c.bin", Type: datasets.NodeSplitFile},
		}, "BIN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, datasets.InferFormat(tt.tree))
		})
	}
}

func TestDatasetFindNode(t *testing.T) {
	d := datasets.Dataset{FileStructure: []datasets.Node{
		{Name: "d", Type: datasets.NodeDirectory, Path: "d", Children: []datasets.Node{
			{Name: "b.txt", Type: datasets.NodeFile, Path: "d/b.txt"},
		}},
	}}
	n, ok := d.FindNode("d/b.txt")
	require.True(t, ok)
	assert.Equal(t, "b.txt", n.Name)

	_, ok = d.FindNode("d/missing")
	assert.False(t, ok)
}

func TestDataset_Clone(t *testing.T) {
	n := int64(2)
	d := &datasets.Dataset{
		Tags:    []string{"a"},
		NPieces: &n,
		Pieces:  []json.RawMessage{json.RawMessage(`{"cid":"p"}`)},
		FileStructure: []datasets.Node{
			{Name: "d", Type: datasets.NodeDirectory, Children: []datasets.Node{
				{Name: "f", Type: datasets.NodeFile, ByteLength: size(3)},
			}},
		},
	}

	c := d.Clone()
	c.Tags[0] = "b"
	*c.NPieces = 9
	c.Pieces[0][2] = 'x'
	*c.FileStructure[0].Children[0].ByteLength = 7
	c.FileStructure[0].Children[0].Name = "g"

	assert.Equal(t, "a", d.Tags[0])
	assert.Equal(t, int64(2), *d.NPieces)
	assert.JSONEq(t, `{"cid":"p"}`, string(d.Pieces[0]))
	assert.Equal(t, int64(3), *d.FileStructure[0].Children[0].ByteLength)
	assert.Equal(t, "f", d.FileStructure[0].Children[0].Name)
}
