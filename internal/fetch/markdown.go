// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pdiddy/chain-tracker/pkg/types"
)

// Markdown renders a fetched document as a readable report: metadata table,
// body, references grouped by type, and the comment thread with nesting
// shown through blockquote depth.
func Markdown(doc *types.ThreadDocument) string {
	var b strings.Builder

	title := doc.Title
	if title == "" {
		title = doc.URL
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "- **URL:** %s\n", doc.URL)
	fmt.Fprintf(&b, "- **Type:** %s\n", doc.Type)
	if doc.State != "" {
		fmt.Fprintf(&b, "- **State:** %s\n", doc.State)
	}
	if len(doc.Labels) > 0 {
		fmt.Fprintf(&b, "- **Labels:** %s\n", strings.Join(doc.Labels, ", "))
	}
	for _, key := range sortedKeys(doc.Metadata) {
		fmt.Fprintf(&b, "- **%s:** %v\n", key, doc.Metadata[key])
	}
	if doc.Error != "" {
		fmt.Fprintf(&b, "- **Error:** %s\n", doc.Error)
	}

	if doc.Body != "" {
		fmt.Fprintf(&b, "\n%s\n", doc.Body)
	}

	if len(doc.Refs) > 0 {
		b.WriteString("\n## References\n\n")
		for _, r := range doc.Refs {
			fmt.Fprintf(&b, "- `%s` %s\n", r.Type, r.URL)
		}
	}

	if len(doc.Comments) > 0 {
		fmt.Fprintf(&b, "\n## Comments (%d)\n", len(doc.Comments))
		for _, cm := range doc.Comments {
			quote := strings.Repeat("> ", cm.Depth)
			fmt.Fprintf(&b, "\n%s**%s**", quote, cm.Author)
			if cm.Date != "" {
				fmt.Fprintf(&b, " (%s)", cm.Date)
			}
			if cm.Score != 0 {
				fmt.Fprintf(&b, " [%+d]", cm.Score)
			}
			b.WriteString("\n")
			for _, line := range strings.Split(cm.Body, "\n") {
				fmt.Fprintf(&b, "%s%s\n", quote, line)
			}
		}
	}

	return b.String()
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
