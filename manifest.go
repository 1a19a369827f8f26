package datasets

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// Document is a parsed manifest whose top-level values are still raw JSON.
type Document map[string]json.RawMessage

// Manifest is the typed form of a validated Document.
type Manifest struct {
	Name        string
	Description string
	Spec        string
	SpecVersion string
	Type        string
	Version     string
	OpenWith    string
	License     string
	ProjectURL  string
	UUID        string
	Tags        []string
	NPieces     *int64
	Pieces      []json.RawMessage
	Contents    []Entry
	Raw         json.RawMessage
}

// Entry is one item of a manifest's contents.
// It is one of *FileEntry, *DirectoryEntry, *SplitFileEntry or *UnknownEntry.
type Entry interface {
	EntryName() string
	entry()
}

// FileEntry is a single content-addressed file.
type FileEntry struct {
	Name       string
	Hash       string
	CID        string
	MediaType  string
	PieceCID   string
	ByteLength *int64
	Size       *int64
}

// DirectoryEntry groups nested entries.
type DirectoryEntry struct {
	Name     string
	Contents []Entry
}

// SplitFileEntry is a logical file stored as several parts.
type SplitFileEntry struct {
	FileEntry
	Parts []json.RawMessage
}

// UnknownEntry keeps an entry whose @type is not recognised.
type UnknownEntry struct {
	Name string
	Type string
}

func (e *FileEntry) EntryName() string      { return e.Name }
func (e *DirectoryEntry) EntryName() string { return e.Name }
func (e *SplitFileEntry) EntryName() string { return e.Name }
func (e *UnknownEntry) EntryName() string   { return e.Name }

func (*FileEntry) entry()      {}
func (*DirectoryEntry) entry() {}
func (*SplitFileEntry) entry() {}
func (*UnknownEntry) entry()   {}

// Parse decodes manifest bytes into a Document.
func Parse(data []byte) (Document, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, &ParseError{Err: errors.New("empty document")}
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{Err: err}
	}
	if doc == nil {
		return nil, &ParseError{Err: errors.New("top level must be an object")}
	}
	return doc, nil
}

// Decode converts a validated Document into a Manifest.
// Content entries are decoded recursively; malformed entries yield a *NormalizationError.
func Decode(doc Document) (*Manifest, error) {
	m := &Manifest{}
	var problems []string

	scalars := []struct {
		key string
		dst *string
	}{
		{"name", &m.Name},
		{"description", &m.Description},
		{"@spec", &m.Spec},
		{"@spec_version", &m.SpecVersion},
		{"@type", &m.Type},
		{"version", &m.Version},
		{"open_with", &m.OpenWith},
		{"license", &m.License},
		{"project_url", &m.ProjectURL},
		{"uuid", &m.UUID},
	}
	for _, s := range scalars {
		v, ok := scalarString(doc[s.key])
		if !ok {
			problems = append(problems, "Invalid field: "+s.key)
			continue
		}
		*s.dst = v
	}

	if raw, ok := present(doc, "tags"); ok {
		if err := json.Unmarshal(raw, &m.Tags); err != nil {
			problems = append(problems, "Invalid field: tags")
		}
	}
	if raw, ok := present(doc, "n_pieces"); ok {
		var n int64
		if err := json.Unmarshal(raw, &n); err != nil {
			problems = append(problems, "Invalid field: n_pieces")
		} else {
			m.NPieces = &n
		}
	}
	if raw, ok := present(doc, "pieces"); ok {
		if err := json.Unmarshal(raw, &m.Pieces); err != nil {
			problems = append(problems, "Invalid field: pieces")
		}
	}
	if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}

	var contents []json.RawMessage
	if raw, ok := present(doc, "contents"); ok {
		if err := json.Unmarshal(raw, &contents); err != nil {
			return nil, &NormalizationError{Reason: "contents is not an array"}
		}
	}
	entries, err := decodeEntries(contents, "")
	if err != nil {
		return nil, err
	}
	m.Contents = entries

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("datasets: encode manifest: %w", err)
	}
	m.Raw = raw
	return m, nil
}

type rawEntry struct {
	Type       string          `json:"@type"`
	Name       string          `json:"name"`
	Hash       string          `json:"hash"`
	CID        string          `json:"cid"`
	MediaType  string          `json:"media_type"`
	PieceCID   string          `json:"piece_cid"`
	ByteLength *int64          `json:"byte_length"`
	Size       *int64          `json:"size"`
	Contents   json.RawMessage `json:"contents"`
	Parts      json.RawMessage `json:"parts"`
}

func decodeEntries(raws []json.RawMessage, basePath string) ([]Entry, error) {
	entries := make([]Entry, 0, len(raws))
	for i, raw := range raws {
		at := joinPath(basePath, "#"+strconv.Itoa(i))
		if t := bytes.TrimSpace(raw); len(t) == 0 || t[0] != '{' {
			return nil, &NormalizationError{Path: at, Reason: "entry is not an object"}
		}
		var re rawEntry
		if err := json.Unmarshal(raw, &re); err != nil {
			return nil, &NormalizationError{
				Path:   at,
				Reason: fmt.Sprintf("malformed entry: %v", err),
			}
		}
		itemPath := joinPath(basePath, re.Name)

		switch re.Type {
		case string(NodeDirectory):
			var children []json.RawMessage
			if !isNull(re.Contents) {
				if err := json.Unmarshal(re.Contents, &children); err != nil {
					return nil, &NormalizationError{Path: itemPath, Reason: "directory contents is not an array"}
				}
			}
			nested, err := decodeEntries(children, itemPath)
			if err != nil {
				return nil, err
			}
			entries = append(entries, &DirectoryEntry{Name: re.Name, Contents: nested})
		case string(NodeFile):
			entries = append(entries, re.file())
		case string(NodeSplitFile):
			sf := &SplitFileEntry{FileEntry: *re.file()}
			if !isNull(re.Parts) {
				if err := json.Unmarshal(re.Parts, &sf.Parts); err != nil {
					return nil, &NormalizationError{Path: itemPath, Reason: "split-file parts is not an array"}
				}
			}
			entries = append(entries, sf)
		default:
			entries = append(entries, &UnknownEntry{Name: re.Name, Type: re.Type})
		}
	}
	return entries, nil
}

func (re rawEntry) file() *FileEntry {
	return &FileEntry{
		Name:       re.Name,
		Hash:       re.Hash,
		CID:        re.CID,
		MediaType:  re.MediaType,
		PieceCID:   re.PieceCID,
		ByteLength: re.ByteLength,
		Size:       re.Size,
	}
}

func joinPath(base, name string) string {
	if base == "" {
		return name
	}
	return base + "/" + name
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

// present returns the raw value for key when it exists and is not null.
func present(doc Document, key string) (json.RawMessage, bool) {
	raw, ok := doc[key]
	if !ok || isNull(raw) {
		return nil, false
	}
	return raw, true
}

// scalarString renders a JSON string or number as a Go string.
// Missing and null values give "", true; objects, arrays and booleans are rejected.
func scalarString(raw json.RawMessage) (string, bool) {
	if isNull(raw) {
		return "", true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), true
	}
	return "", false
}
