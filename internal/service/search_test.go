package service

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"med_bridge/internal/errs"
	"med_bridge/internal/translate"
)

func seedRoom(t *testing.T, svc *MessageService, room string, texts ...string) {
	t.Helper()
	for i, text := range texts {
		sess := doctorIn(room)
		if i%2 == 1 {
			sess = patientIn(room)
		}
		_, err := svc.SendText(context.Background(), sess, text)
		require.NoError(t, err)
	}
}

func TestSearchService_ConcreteScenario(t *testing.T) {
	msgs, repos := newMessageService(t, translate.NoopTranslator{})
	seedRoom(t, msgs, "R1", "How many days of fever?", "Tres dias")
	search := NewSearchService(repos.Message)

	results, err := search.Search(context.Background(), "R1", "fever", SearchOptions{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "How many days of fever?", *results[0].Message.TextBody)
	assert.Equal(t, []Span{{Start: 17, End: 22}}, results[0].Spans)
}

func TestSearchService_Completeness(t *testing.T) {
	msgs, repos := newMessageService(t, translate.NoopTranslator{})
	texts := []string{
		"Take 500mg twice a day",
		"no numbers here",
		"Temp 38.5 at 10pm and 39 at 2am",
		"Fever? 40",
	}
	seedRoom(t, msgs, "R1", texts...)
	seedRoom(t, msgs, "OTHER", "123 in another room")
	search := NewSearchService(repos.Message)

	pattern := `\d+`
	re := regexp.MustCompile(pattern)

	results, err := search.Search(context.Background(), "R1", pattern, SearchOptions{})
	require.NoError(t, err)

	var matched []string
	for _, r := range results {
		text := r.Message.DisplayText()
		matched = append(matched, text)
		assert.Equal(t, "R1", r.Message.RoomID)
		require.NotEmpty(t, r.Spans)
		for _, sp := range r.Spans {
			assert.True(t, re.MatchString(text[sp.Start:sp.End]))
		}
	}
	assert.Equal(t, []string{texts[0], texts[2], texts[3]}, matched)
	assert.Len(t, results[1].Spans, 5)
}

func TestSearchService_CaseSensitive(t *testing.T) {
	msgs, repos := newMessageService(t, translate.NoopTranslator{})
	seedRoom(t, msgs, "R1", "Fever since Monday", "fever gone")
	search := NewSearchService(repos.Message)

	results, err := search.Search(context.Background(), "R1", "fever", SearchOptions{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "fever gone", results[0].Message.DisplayText())

	results, err = search.Search(context.Background(), "R1", "(?i)fever", SearchOptions{})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearchService_MatchesTranslatedText(t *testing.T) {
	msgs, repos := newMessageService(t, &stubTranslator{out: "Three days"})
	sess := patientIn("R1")
	sess.TargetLang = "English"
	_, err := msgs.SendText(context.Background(), sess, "Tres dias")
	require.NoError(t, err)
	search := NewSearchService(repos.Message)

	results, err := search.Search(context.Background(), "R1", "days", SearchOptions{})
	require.NoError(t, err)
	assert.Len(t, results, 1)

	results, err = search.Search(context.Background(), "R1", "dias", SearchOptions{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchService_InvalidPattern(t *testing.T) {
	msgs, repos := newMessageService(t, translate.NoopTranslator{})
	seedRoom(t, msgs, "R1", "hello")
	search := NewSearchService(repos.Message)

	for _, p := range []string{"(unclosed", "[a-", ""} {
		results, err := search.Search(context.Background(), "R1", p, SearchOptions{})
		assert.Nil(t, results)
		var pe *errs.PatternError
		assert.True(t, errors.As(err, &pe), "%q", p)
		assert.True(t, errs.IsValidation(err))
	}
}

func TestSearchService_WhitespacePattern(t *testing.T) {
	msgs, repos := newMessageService(t, translate.NoopTranslator{})
	seedRoom(t, msgs, "R1", "How many days of fever?", "Tres dias", "fever")
	search := NewSearchService(repos.Message)

	results, err := search.Search(context.Background(), "R1", " ", SearchOptions{})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "How many days of fever?", results[0].Message.DisplayText())
	assert.Equal(t, []Span{{3, 4}, {8, 9}, {13, 14}, {16, 17}}, results[0].Spans)
	assert.Equal(t, []Span{{4, 5}}, results[1].Spans)

	results, err = search.Search(context.Background(), "R1", "  ", SearchOptions{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchService_Literal(t *testing.T) {
	msgs, repos := newMessageService(t, translate.NoopTranslator{})
	seedRoom(t, msgs, "R1", "Dose (2x) daily", "Dose 2x daily")
	search := NewSearchService(repos.Message)

	results, err := search.Search(context.Background(), "R1", "(2x)", SearchOptions{Literal: true})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Dose (2x) daily", results[0].Message.DisplayText())
}

func TestHighlight(t *testing.T) {
	text := "fever and more fever"
	out := Highlight(text, []Span{{0, 5}, {15, 20}}, "[", "]")
	assert.Equal(t, "[fever] and more [fever]", out)

	assert.Equal(t, text, Highlight(text, nil, "[", "]"))
	assert.Equal(t, text, Highlight(text, []Span{{3, 3}}, "[", "]"))
	assert.Equal(t, "[fe]ver and more fever", Highlight(text, []Span{{0, 2}, {1, 4}, {30, 40}}, "[", "]"))
}
