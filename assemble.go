package datasets

import "encoding/json"

// Assemble merges a decoded manifest and its derived metadata into a pending dataset.
// Network, ManifestFile and CreatedBy are left for the caller to fill in.
func Assemble(m *Manifest, tree []Node, size int64, format string) Dataset {
	tags := m.Tags
	if tags == nil {
		tags = []string{}
	}
	pieces := m.Pieces
	if pieces == nil {
		pieces = []json.RawMessage{}
	}
	if tree == nil {
		tree = []Node{}
	}

	return Dataset{
		ID:            m.UUID,
		Title:         m.Name,
		Description:   m.Description,
		Format:        format,
		Size:          size,
		Tags:          tags,
		FileStructure: tree,
		Status:        StatusPending,
		IsPublic:      true,
		ManifestData:  m.Raw,
		Spec:          m.Spec,
		SpecVersion:   m.SpecVersion,
		ManifestType:  m.Type,
		Version:       m.Version,
		OpenWith:      m.OpenWith,
		License:       m.License,
		ProjectURL:    m.ProjectURL,
		UUID:          m.UUID,
		NPieces:       m.NPieces,
		Pieces:        pieces,
	}
}
