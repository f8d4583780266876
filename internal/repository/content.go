// Package repository provides data access layer implementations for the application.
package repository

import (
	"fmt"
	"strings"

	"snipstream/internal/models"
)

// contentColumn maps a content kind to the FK column used by likes, bookmarks
// and comments.
func contentColumn(kind models.ContentKind) string {
	switch kind {
	case models.KindSnippet:
		return "snippet_id"
	case models.KindDoc:
		return "doc_id"
	case models.KindBug:
		return "bug_id"
	}
	return ""
}

// anyTagCondition builds an OR of LIKE clauses matching any of the given tags
// against the comma-separated tags column. Returns the SQL fragment and args.
func anyTagCondition(table string, tags []string) (string, []interface{}) {
	conds := make([]string, 0, len(tags))
	args := make([]interface{}, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		conds = append(conds, fmt.Sprintf("(',' || %s.tags || ',') LIKE ?", table))
		args = append(args, "%,"+tag+",%")
	}
	if len(conds) == 0 {
		return "", nil
	}
	return "(" + strings.Join(conds, " OR ") + ")", args
}
