package memory

import (
	"fmt"
	"strings"

	"github.com/stormlightlabs/memoria/internal/shared"
)

// Markdown renders a record returned by the service as a markdown document.
// Unknown values render as an empty string.
func Markdown(v any) string {
	var b strings.Builder
	switch r := v.(type) {
	case Project:
		fmt.Fprintf(&b, "# %s\n\n", r.Name)
		field(&b, "Project", fmt.Sprintf("#%d", r.ID))
		field(&b, "Asana", shared.Deref(r.AsanaURL))
		field(&b, "Created", r.CreatedAt)
		body(&b, shared.Deref(r.Description))
	case Topic:
		fmt.Fprintf(&b, "# %s\n\n", r.Title)
		field(&b, "Topic", fmt.Sprintf("#%d", r.ID))
		field(&b, "Project", fmt.Sprintf("#%d", r.ProjectID))
		if r.ParentTopicID != nil {
			field(&b, "Parent", fmt.Sprintf("#%d", *r.ParentTopicID))
		}
		field(&b, "Created", r.CreatedAt)
		body(&b, shared.Deref(r.Description))
	case Decision:
		fmt.Fprintf(&b, "# %s\n\n", shared.FirstLine(r.Decision))
		field(&b, "Decision", fmt.Sprintf("#%d", r.ID))
		field(&b, "Topic", fmt.Sprintf("#%d", r.TopicID))
		field(&b, "Created", r.CreatedAt)
		if rest := strings.TrimSpace(strings.TrimPrefix(r.Decision, shared.FirstLine(r.Decision))); rest != "" {
			body(&b, rest)
		}
		if reason := shared.Deref(r.Reason); reason != "" {
			b.WriteString("\n## Reason\n\n")
			b.WriteString(shared.NormalizeLineEndings(reason))
			b.WriteString("\n")
		}
	case Task:
		fmt.Fprintf(&b, "# %s\n\n", r.Title)
		field(&b, "Task", fmt.Sprintf("#%d", r.ID))
		field(&b, "Project", fmt.Sprintf("#%d", r.ProjectID))
		field(&b, "Status", string(r.Status))
		if r.TopicID != nil {
			field(&b, "Topic", fmt.Sprintf("#%d", *r.TopicID))
		}
		field(&b, "Created", r.CreatedAt)
		field(&b, "Updated", r.UpdatedAt)
		body(&b, shared.Deref(r.Description))
	case Log:
		fmt.Fprintf(&b, "# Log #%d\n\n", r.ID)
		field(&b, "Topic", fmt.Sprintf("#%d", r.TopicID))
		field(&b, "Created", r.CreatedAt)
		body(&b, r.Content)
	}
	return b.String()
}

func field(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "- **%s:** %s\n", label, value)
}

func body(b *strings.Builder, text string) {
	if text == "" {
		return
	}
	b.WriteString("\n")
	b.WriteString(shared.NormalizeLineEndings(text))
	b.WriteString("\n")
}
