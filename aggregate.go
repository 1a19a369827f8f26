package datasets

import "strings"

// TotalSize sums the byte length of every file and split file in the tree.
// Directories add nothing themselves but their children are counted.
func TotalSize(tree []Node) int64 {
	var total int64
	for _, n := range tree {
		switch {
		case n.IsFile():
			if n.ByteLength != nil && *n.ByteLength != 0 {
				total += *n.ByteLength
			} else {
				total += n.Size
			}
		case n.Type == NodeDirectory:
			total += TotalSize(n.Children)
		}
	}
	return total
}

// CountFiles returns the number of file and split-file nodes in the tree.
func CountFiles(tree []Node) int {
	count := 0
	for _, n := range tree {
		if n.IsFile() {
			count++
		} else if n.Type == NodeDirectory {
			count += CountFiles(n.Children)
		}
	}
	return count
}

// UnknownFormat is reported when no file in the tree has an extension.
const UnknownFormat = "Unknown"

// InferFormat picks the most frequent file extension in the tree, upper-cased.
// Ties go to the extension encountered first in tree order.
func InferFormat(tree []Node) string {
	var order []string
	counts := make(map[string]int)

	var walk func(nodes []Node)
	walk = func(nodes []Node) {
		for _, n := range nodes {
			if n.Type == NodeDirectory {
				walk(n.Children)
				continue
			}
			if !n.IsFile() {
				continue
			}
			ext := extension(n.Name)
			if ext == "" {
				continue
			}
			if _, seen := counts[ext]; !seen {
				order = append(order, ext)
			}
			counts[ext]++
		}
	}
	walk(tree)

	if len(order) == 0 {
		return UnknownFormat
	}
	best := order[0]
	for _, ext := range order[1:] {
		if counts[ext] > counts[best] {
			best = ext
		}
	}
	return strings.ToUpper(best)
}

func extension(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return ""
	}
	return strings.ToLower(name[i+1:])
}
