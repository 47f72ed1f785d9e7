package translate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"med_bridge/internal/llm"
	"med_bridge/internal/models"
)

type fakeChat struct {
	reply string
	err   error
	calls [][]llm.ChatMessage
}

func (f *fakeChat) Chat(_ context.Context, messages []llm.ChatMessage) (string, error) {
	f.calls = append(f.calls, messages)
	return f.reply, f.err
}

func TestLLMTranslator_Translate(t *testing.T) {
	chat := &fakeChat{reply: " Tengo fiebre \n"}
	tr := NewLLMTranslator(chat)

	out, err := tr.Translate(context.Background(), "I have a fever", "English", "Spanish")
	require.NoError(t, err)
	assert.Equal(t, "Tengo fiebre", out)

	require.Len(t, chat.calls, 1)
	assert.Contains(t, chat.calls[0][0].Content, "from English into Spanish")
	assert.Equal(t, "I have a fever", chat.calls[0][1].Content)
}

func TestLLMTranslator_SkipsAudioPlaceholder(t *testing.T) {
	chat := &fakeChat{reply: "should not be used"}
	out, err := NewLLMTranslator(chat).Translate(context.Background(), models.AudioPlaceholder, "English", "Hindi")
	require.NoError(t, err)
	assert.Equal(t, models.AudioPlaceholder, out)
	assert.Empty(t, chat.calls)
}

func TestLLMTranslator_Error(t *testing.T) {
	chat := &fakeChat{err: llm.ErrQuotaExceeded}
	_, err := NewLLMTranslator(chat).Translate(context.Background(), "hi", "English", "French")
	assert.True(t, errors.Is(err, llm.ErrQuotaExceeded))
}

func TestNoopTranslator(t *testing.T) {
	out, err := NoopTranslator{}.Translate(context.Background(), "hi", "English", "French")
	assert.ErrorIs(t, err, ErrDisabled)
	assert.Empty(t, out)
}
