package postgres

import (
	"fmt"
	"strings"

	"github.com/meikuraledutech/datasets"
)

// buildFilter renders the WHERE clause for q with positional arguments.
// The clause is empty or starts with " WHERE ".
func buildFilter(q datasets.ListQuery) (string, []any) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q.PublicOnly {
		conds = append(conds, "is_public = TRUE")
	}
	if q.Status != "" {
		conds = append(conds, "status = "+arg(string(q.Status)))
	}
	if q.Network != "" {
		conds = append(conds, "network = "+arg(q.Network))
	}
	if q.Format != "" {
		conds = append(conds, "UPPER(format) = UPPER("+arg(q.Format)+")")
	}
	if len(q.Tags) > 0 {
		conds = append(conds, "tags && "+arg(q.Tags))
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		p := arg("%" + escapeLike(s) + "%")
		conds = append(conds, fmt.Sprintf(
			"(title ILIKE %[1]s OR description ILIKE %[1]s OR EXISTS (SELECT 1 FROM unnest(tags) AS t WHERE t ILIKE %[1]s))", p))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// buildUpdate renders the SET assignments for the non-nil fields of u.
func buildUpdate(u datasets.Update) ([]string, []any) {
	var (
		set  []string
		args []any
	)
	add := func(col string, v any) {
		args = append(args, v)
		set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if u.Title != nil {
		add("title", *u.Title)
	}
	if u.Description != nil {
		add("description", *u.Description)
	}
	if u.Tags != nil {
		tags := *u.Tags
		if tags == nil {
			tags = []string{}
		}
		add("tags", tags)
	}
	if u.IsPublic != nil {
		add("is_public", *u.IsPublic)
	}
	if u.Network != nil {
		add("network", *u.Network)
	}
	return set, args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
