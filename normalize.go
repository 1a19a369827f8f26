package datasets

import "encoding/json"

// Normalize converts manifest entries into tree nodes rooted at basePath.
// Entries of unknown type are left out of the tree; their paths are returned
// as the second result in manifest order.
func Normalize(entries []Entry, basePath string) ([]Node, []string) {
	nodes := make([]Node, 0, len(entries))
	var skipped []string

	for _, e := range entries {
		itemPath := joinPath(basePath, e.EntryName())

		switch e := e.(type) {
		case *DirectoryEntry:
			children, sk := Normalize(e.Contents, itemPath)
			skipped = append(skipped, sk...)
			nodes = append(nodes, Node{
				Name:     e.Name,
				Type:     NodeDirectory,
				Size:     0,
				Path:     itemPath,
				Children: children,
			})
		case *FileEntry:
			nodes = append(nodes, fileNode(e, NodeFile, itemPath))
		case *SplitFileEntry:
			n := fileNode(&e.FileEntry, NodeSplitFile, itemPath)
			n.Parts = e.Parts
			if n.Parts == nil {
				n.Parts = []json.RawMessage{}
			}
			nodes = append(nodes, n)
		case *UnknownEntry:
			skipped = append(skipped, itemPath)
		}
	}
	return nodes, skipped
}

func fileNode(e *FileEntry, typ NodeType, path string) Node {
	n := Node{
		Name:       e.Name,
		Type:       typ,
		Path:       path,
		Hash:       e.Hash,
		CID:        e.CID,
		ByteLength: e.ByteLength,
		MediaType:  e.MediaType,
		PieceCID:   e.PieceCID,
	}
	// A zero byte_length falls back to size, the same rule TotalSize applies.
	switch {
	case e.ByteLength != nil && *e.ByteLength != 0:
		n.Size = *e.ByteLength
	case e.Size != nil:
		n.Size = *e.Size
	}
	return n
}
