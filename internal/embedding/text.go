package embedding

import "strings"

// Role prefixes for the asymmetric ruri-v3 encoder. Documents and queries are
// embedded with different prefixes so a query lands near the documents that
// answer it.
const (
	DocPrefix   = "検索文書: "
	QueryPrefix = "検索クエリ: "
)

// BuildText joins the non-empty fields with a single space.
func BuildText(fields ...string) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if f != "" {
			parts = append(parts, f)
		}
	}
	return strings.Join(parts, " ")
}
