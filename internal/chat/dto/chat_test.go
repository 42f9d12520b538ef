package dto

import (
	"testing"

	groundingdomain "nexus-backend/internal/grounding/domain"

	"github.com/stretchr/testify/assert"
)

func TestTogglesNilReceiverEnablesEverything(t *testing.T) {
	var d *ContextDomains
	assert.Equal(t, groundingdomain.AllDomains(), d.Toggles())
}

func TestTogglesOverridesOnlyTheSetFields(t *testing.T) {
	off := false
	d := &ContextDomains{Files: &off}

	toggles := d.Toggles()

	assert.True(t, toggles.Emails)
	assert.True(t, toggles.Chats)
	assert.False(t, toggles.Files)
	assert.True(t, toggles.Notion)
}
