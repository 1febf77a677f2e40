// pkg/registry/registry_test.go
package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry() *ReplyRegistry {
	return &ReplyRegistry{
		Version: "1.0.0",
		Templates: []ReplyTemplate{
			{ID: "sponsorship-cost", Intent: "sponsorship_cost", Topic: "sponsorship", Text: "Tiers start at $[get:sponsorship.tiers.silver.price].", Version: "1"},
			{ID: "general-dates", Intent: "general_query", Topic: "dates", Text: "The event runs [get:event.dates].", Version: "1"},
			{ID: "general-fallback", Intent: "general_query", Text: "Happy to help with anything about the expo.", Version: "1"},
		},
	}
}

func TestSelect(t *testing.T) {
	reg := testRegistry()

	tests := []struct {
		name       string
		intent     string
		topic      string
		expectedID string
		found      bool
	}{
		{name: "exact intent and topic", intent: "sponsorship_cost", topic: "sponsorship", expectedID: "sponsorship-cost", found: true},
		{name: "topic-specific general template", intent: "general_query", topic: "dates", expectedID: "general-dates", found: true},
		{name: "unknown topic falls back to intent catch-all", intent: "general_query", topic: "venue", expectedID: "general-fallback", found: true},
		{name: "unknown intent", intent: "refund_request", topic: "general", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, ok := reg.Select(tt.intent, tt.topic)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				assert.Equal(t, tt.expectedID, tmpl.ID)
			}
		})
	}
}

func TestByID(t *testing.T) {
	reg := testRegistry()

	tmpl, ok := reg.ByID("general-dates")
	require.True(t, ok)
	assert.Equal(t, "general_query", tmpl.Intent)

	_, ok = reg.ByID("nope")
	assert.False(t, ok)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, testRegistry().Validate())

	dup := testRegistry()
	dup.Templates = append(dup.Templates, ReplyTemplate{ID: "general-dates", Intent: "x", Text: "y"})
	assert.Error(t, dup.Validate())

	blank := testRegistry()
	blank.Templates[0].Text = ""
	assert.Error(t, blank.Validate())
}

func TestLoadRegistry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reply-registry.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"version": "1.0.0",
		"templates": [
			{"id": "contact", "intent": "contact_info", "text": "Email us at [get:contact.email].", "version": "1"}
		]
	}`), 0o644))

	reg, err := LoadRegistry(path)
	require.NoError(t, err)
	require.Len(t, reg.Templates, 1)
	assert.Equal(t, "contact_info", reg.Templates[0].Intent)

	_, err = LoadRegistry(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
