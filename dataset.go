package datasets

import (
	"encoding/json"
	"slices"
	"time"
)

// Status is the review state of a dataset.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Valid reports whether s is one of the known review states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// NodeType tags a Node as a file, a directory or a split file.
type NodeType string

const (
	NodeFile      NodeType = "file"
	NodeDirectory NodeType = "directory"
	NodeSplitFile NodeType = "split-file"
)

// Node is one entry of a dataset's file tree.
// Path is the slash-joined ancestry of the node including its own name.
// Children is only set for directories, Parts only for split files.
type Node struct {
	Name       string            `json:"name"`
	Type       NodeType          `json:"type"`
	Size       int64             `json:"size"`
	Path       string            `json:"path"`
	Hash       string            `json:"hash,omitempty"`
	CID        string            `json:"cid,omitempty"`
	ByteLength *int64            `json:"byte_length,omitempty"`
	MediaType  string            `json:"media_type,omitempty"`
	PieceCID   string            `json:"piece_cid,omitempty"`
	Parts      []json.RawMessage `json:"parts,omitempty"`
	Children   []Node            `json:"children,omitempty"`
}

// IsFile reports whether the node carries file content (file or split file).
func (n Node) IsFile() bool {
	return n.Type == NodeFile || n.Type == NodeSplitFile
}

// Dataset is the persisted record built from a manifest.
type Dataset struct {
	ID            string            `json:"id"`
	Title         string            `json:"title"`
	Description   string            `json:"description"`
	Format        string            `json:"format"`
	Size          int64             `json:"size"`
	Tags          []string          `json:"tags"`
	FileStructure []Node            `json:"fileStructure"`
	Status        Status            `json:"status"`
	IsPublic      bool              `json:"isPublic"`
	CreatedBy     string            `json:"createdBy,omitempty"`
	Network       string            `json:"network,omitempty"`
	ManifestFile  string            `json:"manifestFile,omitempty"`
	ManifestData  json.RawMessage   `json:"manifestData,omitempty"`
	Spec          string            `json:"spec,omitempty"`
	SpecVersion   string            `json:"specVersion,omitempty"`
	ManifestType  string            `json:"manifestType,omitempty"`
	Version       string            `json:"version,omitempty"`
	OpenWith      string            `json:"openWith,omitempty"`
	License       string            `json:"license,omitempty"`
	ProjectURL    string            `json:"projectUrl,omitempty"`
	UUID          string            `json:"uuid,omitempty"`
	NPieces       *int64            `json:"nPieces,omitempty"`
	Pieces        []json.RawMessage `json:"pieces"`
	Warnings      []string          `json:"warnings,omitempty"`
	DateCreated   time.Time         `json:"dateCreated"`
	DateUpdated   time.Time         `json:"dateUpdated"`
}

// Clone returns a deep copy of d.
func (d *Dataset) Clone() *Dataset {
	out := *d
	out.Tags = slices.Clone(d.Tags)
	out.Warnings = slices.Clone(d.Warnings)
	out.ManifestData = slices.Clone(d.ManifestData)
	out.Pieces = cloneRaw(d.Pieces)
	out.FileStructure = cloneNodes(d.FileStructure)
	if d.NPieces != nil {
		n := *d.NPieces
		out.NPieces = &n
	}
	return &out
}

func cloneNodes(nodes []Node) []Node {
	if nodes == nil {
		return nil
	}
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = n
		if n.ByteLength != nil {
			b := *n.ByteLength
			out[i].ByteLength = &b
		}
		out[i].Parts = cloneRaw(n.Parts)
		out[i].Children = cloneNodes(n.Children)
	}
	return out
}

func cloneRaw(raws []json.RawMessage) []json.RawMessage {
	if raws == nil {
		return nil
	}
	out := make([]json.RawMessage, len(raws))
	for i, r := range raws {
		out[i] = slices.Clone(r)
	}
	return out
}

// FindNode returns the node whose path equals path, searching the whole tree.
func (d *Dataset) FindNode(path string) (Node, bool) {
	return findNode(d.FileStructure, path)
}

func findNode(nodes []Node, path string) (Node, bool) {
	for _, n := range nodes {
		if n.Path == path {
			return n, true
		}
		if n.Type == NodeDirectory {
			if found, ok := findNode(n.Children, path); ok {
				return found, true
			}
		}
	}
	return Node{}, false
}

// Networks lists the chain networks a dataset can be published on.
var Networks = []string{"mainnet", "calibration"}

// ValidNetwork reports whether n is one of Networks.
func ValidNetwork(n string) bool {
	for _, v := range Networks {
		if v == n {
			return true
		}
	}
	return false
}
