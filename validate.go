package datasets

import "encoding/json"

// Validate checks the required top-level manifest fields.
// Every check runs, so the returned *ValidationError lists all problems at once.
func Validate(doc Document) error {
	var problems []string

	for _, key := range []string{"name", "description", "@spec", "@spec_version"} {
		v, ok := scalarString(doc[key])
		if !ok || v == "" {
			problems = append(problems, "Missing required field: "+key)
		}
	}

	var contents []json.RawMessage
	raw, ok := present(doc, "contents")
	if !ok || json.Unmarshal(raw, &contents) != nil {
		problems = append(problems, "Missing or invalid contents array")
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
