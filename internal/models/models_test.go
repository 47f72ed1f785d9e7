package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want Role
		ok   bool
	}{
		{"doctor", RoleDoctor, true},
		{"Doctor", RoleDoctor, true},
		{" PATIENT ", RolePatient, true},
		{"nurse", "", false},
		{"", "", false},
	}
	for _, tc := range tests {
		got, ok := ParseRole(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestNormalizeRoomID(t *testing.T) {
	id, ok := NormalizeRoomID("  Room-1 ")
	assert.True(t, ok)
	assert.Equal(t, "Room-1", id)

	for _, bad := range []string{"", "   ", "a\nb", strings.Repeat("x", MaxRoomIDLength+1)} {
		_, ok := NormalizeRoomID(bad)
		assert.False(t, ok, "%q", bad)
	}
}

func TestMessage_DisplayText(t *testing.T) {
	m := NewTextMessage("R1", RolePatient, "Tres dias", "Spanish")
	assert.Equal(t, "Tres dias", m.DisplayText())
	assert.Equal(t, "Tres dias", m.TranscriptText())

	translated := "Three days"
	m.TranslatedText = &translated
	assert.Equal(t, "Three days", m.DisplayText())
	assert.Equal(t, "Tres dias", m.TranscriptText())

	audio := NewAudioMessage("R1", RoleDoctor, "ref", "English")
	assert.Equal(t, "", audio.DisplayText())
	assert.Equal(t, AudioPlaceholder, audio.TranscriptText())
}

func TestSessionContext_NeedsTranslation(t *testing.T) {
	assert.True(t, SessionContext{Language: "Spanish", TargetLang: "English"}.NeedsTranslation())
	assert.False(t, SessionContext{Language: "English", TargetLang: "English"}.NeedsTranslation())
	assert.False(t, SessionContext{Language: "English"}.NeedsTranslation())
}
