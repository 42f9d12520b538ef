package usecase

import (
	"strings"
	"testing"

	groundingdomain "nexus-backend/internal/grounding/domain"

	"github.com/stretchr/testify/assert"
)

func TestSummarizeBundleEmpty(t *testing.T) {
	assert.Equal(t, "", SummarizeBundle(nil))
	assert.Equal(t, "", SummarizeBundle(&groundingdomain.ContextBundle{}))
}

func TestSummarizeBundleMessageSection(t *testing.T) {
	bundle := &groundingdomain.ContextBundle{
		Messages: []groundingdomain.ContextMessage{
			{Sender: "alice@example.com", Content: "lunch tomorrow?"},
			{Sender: "bob", Content: "deploy is done"},
		},
	}

	summary := SummarizeBundle(bundle)

	assert.Equal(t, "Recent Messages (2):\n- alice@example.com: lunch tomorrow?...\n- bob: deploy is done...", summary)
}

func TestSummarizeBundleCapsDisplayLinesButReportsTrueCount(t *testing.T) {
	bundle := &groundingdomain.ContextBundle{}
	for i := 0; i < 10; i++ {
		bundle.Messages = append(bundle.Messages, groundingdomain.ContextMessage{
			Sender:  "sender",
			Content: "content",
		})
	}

	summary := SummarizeBundle(bundle)

	assert.True(t, strings.HasPrefix(summary, "Recent Messages (10):"))
	assert.Equal(t, 5, strings.Count(summary, "\n- "))
}

func TestSummarizeBundleTruncatesMessagePreviewTo100Runes(t *testing.T) {
	long := strings.Repeat("ü", 150)
	bundle := &groundingdomain.ContextBundle{
		Messages: []groundingdomain.ContextMessage{{Sender: "alice", Content: long}},
	}

	summary := SummarizeBundle(bundle)

	assert.Contains(t, summary, "- alice: "+strings.Repeat("ü", 100)+"...")
	assert.NotContains(t, summary, strings.Repeat("ü", 101))
}

func TestSummarizeBundleFileAndPageSections(t *testing.T) {
	bundle := &groundingdomain.ContextBundle{
		Files: []groundingdomain.ContextFile{
			{Name: "roadmap.pdf", Provider: "drive"},
		},
		KnowledgePages: []groundingdomain.ContextPage{
			{Title: "Team Handbook", ResourceType: "page"},
			{Title: "Projects", ResourceType: "database"},
		},
	}

	summary := SummarizeBundle(bundle)

	assert.Equal(t, "Recent Files (1):\n- roadmap.pdf (drive)\n\nKnowledge Pages (2):\n- Team Handbook (page)\n- Projects (database)", summary)
}

func TestSummarizeBundleSectionOrderIsFixed(t *testing.T) {
	bundle := &groundingdomain.ContextBundle{
		KnowledgePages: []groundingdomain.ContextPage{{Title: "P", ResourceType: "page"}},
		Files:          []groundingdomain.ContextFile{{Name: "f", Provider: "drive"}},
		Messages:       []groundingdomain.ContextMessage{{Sender: "s", Content: "c"}},
	}

	summary := SummarizeBundle(bundle)

	msgIdx := strings.Index(summary, "Recent Messages")
	fileIdx := strings.Index(summary, "Recent Files")
	pageIdx := strings.Index(summary, "Knowledge Pages")
	assert.True(t, msgIdx < fileIdx && fileIdx < pageIdx)
}

func TestSummarizeBundleIsDeterministic(t *testing.T) {
	bundle := &groundingdomain.ContextBundle{
		Messages: []groundingdomain.ContextMessage{
			{Sender: "a", Content: "one"},
			{Sender: "b", Content: "two"},
		},
		Files: []groundingdomain.ContextFile{{Name: "f", Provider: "drive"}},
	}

	first := SummarizeBundle(bundle)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, SummarizeBundle(bundle))
	}
}
