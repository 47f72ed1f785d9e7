package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"med_bridge/internal/errs"
	"med_bridge/internal/models"
	"med_bridge/internal/repository"
	"med_bridge/internal/storage"
	"med_bridge/internal/translate"
)

type stubTranslator struct {
	out   string
	err   error
	calls int
}

func (s *stubTranslator) Translate(_ context.Context, text, _, _ string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	if s.out != "" {
		return s.out, nil
	}
	return text, nil
}

func setupRepos(t *testing.T) (*storage.DB, *repository.Repositories) {
	t.Helper()

	db, err := storage.NewSQLiteDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { db.Close() })
	return db, repository.NewRepositories(db)
}

func newMessageService(t *testing.T, tr translate.Translator) (*MessageService, *repository.Repositories) {
	t.Helper()
	_, repos := setupRepos(t)
	return NewMessageService(repos.Message, repos.Audio, tr, 100, 1024, zerolog.Nop()), repos
}

func doctorIn(room string) models.SessionContext {
	return models.SessionContext{Role: models.RoleDoctor, RoomID: room, Language: "English", TargetLang: "English"}
}

func patientIn(room string) models.SessionContext {
	return models.SessionContext{Role: models.RolePatient, RoomID: room, Language: "Spanish", TargetLang: "Spanish"}
}

func TestMessageService_ConcreteScenario(t *testing.T) {
	ctx := context.Background()
	svc, _ := newMessageService(t, translate.NoopTranslator{})

	_, err := svc.SendText(ctx, doctorIn("R1"), "How many days of fever?")
	require.NoError(t, err)
	_, err = svc.SendText(ctx, patientIn("R1"), "Tres dias")
	require.NoError(t, err)

	history, err := svc.History(ctx, doctorIn("R1"))
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "How many days of fever?", *history[0].TextBody)
	assert.Equal(t, models.RoleDoctor, history[0].Role)
	assert.Equal(t, "Tres dias", *history[1].TextBody)
	assert.Equal(t, models.RolePatient, history[1].Role)
	assert.False(t, history[1].Timestamp.Before(history[0].Timestamp))

	other, err := svc.History(ctx, doctorIn("R2"))
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestMessageService_SendTextTranslates(t *testing.T) {
	tr := &stubTranslator{out: "Three days"}
	svc, _ := newMessageService(t, tr)

	sess := models.SessionContext{Role: models.RolePatient, RoomID: "R1", Language: "Spanish", TargetLang: "English"}
	msg, err := svc.SendText(context.Background(), sess, "Tres dias")
	require.NoError(t, err)

	assert.Equal(t, 1, tr.calls)
	assert.Equal(t, "Tres dias", *msg.TextBody)
	require.NotNil(t, msg.TranslatedText)
	assert.Equal(t, "Three days", *msg.TranslatedText)
	assert.Equal(t, models.TranslationDone, msg.TranslationStatus)
	assert.Equal(t, "English", msg.TargetLang)
	assert.Equal(t, "Three days", msg.DisplayText())
}

func TestMessageService_TranslationFailureDoesNotBlockSend(t *testing.T) {
	tr := &stubTranslator{err: errors.New("translator down")}
	svc, _ := newMessageService(t, tr)

	sess := models.SessionContext{Role: models.RolePatient, RoomID: "R1", Language: "Spanish", TargetLang: "English"}
	msg, err := svc.SendText(context.Background(), sess, "Me duele la cabeza")
	require.NoError(t, err)

	assert.Nil(t, msg.TranslatedText)
	assert.Equal(t, models.TranslationUnavailable, msg.TranslationStatus)

	history, err := svc.History(context.Background(), sess)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Me duele la cabeza", *history[0].TextBody)
}

func TestMessageService_TranslationDisabledIsSkipped(t *testing.T) {
	svc, _ := newMessageService(t, translate.NoopTranslator{})

	sess := models.SessionContext{Role: models.RolePatient, RoomID: "R1", Language: "Spanish", TargetLang: "English"}
	msg, err := svc.SendText(context.Background(), sess, "Tres dias")
	require.NoError(t, err)

	assert.Nil(t, msg.TranslatedText)
	assert.Equal(t, models.TranslationSkipped, msg.TranslationStatus)
	assert.Empty(t, msg.TargetLang)
	assert.Equal(t, "Tres dias", msg.DisplayText())

	history, err := svc.History(context.Background(), sess)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Nil(t, history[0].TranslatedText)
	assert.Equal(t, models.TranslationSkipped, history[0].TranslationStatus)
}

func TestMessageService_SameLanguageSkipsTranslation(t *testing.T) {
	tr := &stubTranslator{}
	svc, _ := newMessageService(t, tr)

	msg, err := svc.SendText(context.Background(), doctorIn("R1"), "hello")
	require.NoError(t, err)
	assert.Zero(t, tr.calls)
	assert.Equal(t, models.TranslationSkipped, msg.TranslationStatus)
}

func TestMessageService_SendTextValidation(t *testing.T) {
	svc, _ := newMessageService(t, translate.NoopTranslator{})

	for _, text := range []string{"", "   ", string(make([]byte, 101))} {
		_, err := svc.SendText(context.Background(), doctorIn("R1"), text)
		var ve *errs.ValidationError
		assert.True(t, errors.As(err, &ve), "%q", text)
	}
}

func TestMessageService_SendAudio(t *testing.T) {
	ctx := context.Background()
	svc, _ := newMessageService(t, &stubTranslator{err: errors.New("must not be called")})
	data := []byte("RIFF....WAVEfmt ")

	msg, created, err := svc.SendAudio(ctx, doctorIn("R1"), data, "")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, models.ContentAudio, msg.ContentKind)
	assert.Nil(t, msg.TextBody)
	require.NotNil(t, msg.AudioRef)
	assert.Equal(t, AudioRef(data), *msg.AudioRef)
	assert.Equal(t, models.TranslationSkipped, msg.TranslationStatus)

	blob, err := svc.Audio(ctx, doctorIn("R1"), *msg.AudioRef)
	require.NoError(t, err)
	assert.Equal(t, data, blob.Data)
	assert.Equal(t, "audio/wav", blob.MimeType)

	_, err = svc.Audio(ctx, doctorIn("R2"), *msg.AudioRef)
	assert.ErrorIs(t, err, ErrAudioNotInRoom)
}

func TestMessageService_SendAudioResubmission(t *testing.T) {
	ctx := context.Background()
	svc, _ := newMessageService(t, translate.NoopTranslator{})
	data := []byte("same recording")

	first, created, err := svc.SendAudio(ctx, doctorIn("R1"), data, "audio/wav")
	require.NoError(t, err)
	assert.True(t, created)
	again, created, err := svc.SendAudio(ctx, doctorIn("R1"), data, "audio/wav")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)

	// 另一角色送出相同內容仍是新訊息
	fromPatient, created, err := svc.SendAudio(ctx, patientIn("R1"), data, "audio/wav")
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, first.ID, fromPatient.ID)

	history, err := svc.History(ctx, doctorIn("R1"))
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestMessageService_SendAudioValidation(t *testing.T) {
	svc, _ := newMessageService(t, translate.NoopTranslator{})

	_, _, err := svc.SendAudio(context.Background(), doctorIn("R1"), nil, "audio/wav")
	assert.True(t, errs.IsValidation(err))

	_, _, err = svc.SendAudio(context.Background(), doctorIn("R1"), make([]byte, 2048), "audio/wav")
	assert.True(t, errs.IsValidation(err))
}

func TestMessageService_StorageFailureIsRecoverable(t *testing.T) {
	db, repos := setupRepos(t)
	svc := NewMessageService(repos.Message, repos.Audio, translate.NoopTranslator{}, 100, 1024, zerolog.Nop())
	require.NoError(t, db.Close())

	_, err := svc.SendText(context.Background(), doctorIn("R1"), "hello")
	var se *errs.StorageError
	assert.True(t, errors.As(err, &se))
}
