package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"med_bridge/internal/errs"
	"med_bridge/internal/models"
	"med_bridge/internal/utils"
)

func newSessionService() *SessionService {
	return NewSessionService(utils.NewTokenIssuer([]byte("test-secret"), time.Hour), "English")
}

func TestSessionService_Join(t *testing.T) {
	s := newSessionService()

	sess, err := s.Join("Doctor", " R1 ", "", "Spanish")
	require.NoError(t, err)
	assert.Equal(t, models.RoleDoctor, sess.Role)
	assert.Equal(t, "R1", sess.RoomID)
	assert.Equal(t, "English", sess.Language)
	assert.Equal(t, "Spanish", sess.TargetLang)
}

func TestSessionService_JoinValidation(t *testing.T) {
	s := newSessionService()

	tests := []struct {
		name  string
		role  string
		room  string
		field string
	}{
		{"bad role", "nurse", "R1", "role"},
		{"empty role", "", "R1", "role"},
		{"empty room", "doctor", "  ", "room_id"},
		{"control chars", "patient", "R\x001", "room_id"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Join(tc.role, tc.room, "", "")
			var ve *errs.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tc.field, ve.Field)
		})
	}
}

func TestSessionService_TokenRoundTrip(t *testing.T) {
	s := newSessionService()
	sess, err := s.Join("patient", "R1", "Spanish", "English")
	require.NoError(t, err)

	token, _, err := s.IssueToken(sess)
	require.NoError(t, err)

	got, err := s.Resolve(token)
	require.NoError(t, err)
	assert.Equal(t, sess, got)
}
