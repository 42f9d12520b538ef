package usecase

import (
	"fmt"
	"strings"

	groundingdomain "nexus-backend/internal/grounding/domain"
)

const (
	// summaryDisplayCap limits item lines per category; the header still
	// shows the true count.
	summaryDisplayCap = 5
	// summaryPreviewLen is the display cut for message content, applied
	// independently of any upstream truncation.
	summaryPreviewLen = 100
)

// SummarizeBundle renders a bundle into the compact text block injected as
// the grounding prompt. Pure and deterministic: the same bundle always
// produces a byte-identical string. Empty categories are omitted; an empty
// bundle yields "".
func SummarizeBundle(bundle *groundingdomain.ContextBundle) string {
	if bundle == nil {
		return ""
	}

	var sections []string

	if len(bundle.Messages) > 0 {
		var b strings.Builder
		fmt.Fprintf(&b, "Recent Messages (%d):", len(bundle.Messages))
		for i, msg := range bundle.Messages {
			if i >= summaryDisplayCap {
				break
			}
			fmt.Fprintf(&b, "\n- %s: %s...", msg.Sender, previewRunes(msg.Content, summaryPreviewLen))
		}
		sections = append(sections, b.String())
	}

	if len(bundle.Files) > 0 {
		var b strings.Builder
		fmt.Fprintf(&b, "Recent Files (%d):", len(bundle.Files))
		for i, file := range bundle.Files {
			if i >= summaryDisplayCap {
				break
			}
			fmt.Fprintf(&b, "\n- %s (%s)", file.Name, file.Provider)
		}
		sections = append(sections, b.String())
	}

	if len(bundle.KnowledgePages) > 0 {
		var b strings.Builder
		fmt.Fprintf(&b, "Knowledge Pages (%d):", len(bundle.KnowledgePages))
		for i, page := range bundle.KnowledgePages {
			if i >= summaryDisplayCap {
				break
			}
			fmt.Fprintf(&b, "\n- %s (%s)", page.Title, page.ResourceType)
		}
		sections = append(sections, b.String())
	}

	return strings.Join(sections, "\n\n")
}

func previewRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
