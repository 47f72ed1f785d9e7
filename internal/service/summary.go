package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"med_bridge/internal/errs"
	"med_bridge/internal/llm"
	"med_bridge/internal/metrics"
	"med_bridge/internal/models"
	"med_bridge/internal/repository"
)

const (
	noHistoryPlaceholder = "No conversation recorded in this room yet."
	notMentionedText     = "Not mentioned."
	summaryInstruction   = `Summarize the following Doctor-Patient conversation for the medical record.
Format the output with exactly these headers, each on its own line:
1. Symptoms
2. Diagnoses
3. Medications
4. Follow-up Actions
Write "Not mentioned." under a header when the conversation has nothing for it.`
)

// summaryHeader 匹配「1. Symptoms」「## Diagnoses」「**Medications:**」等標題行
var summaryHeader = regexp.MustCompile(`(?i)^\s*(?:#{1,6}\s*)?(?:\d+[.)]\s*)?(?:\*\*)?\s*(symptoms?|diagnos[ie]s|medications?|follow[- ]?up(?:\s+actions?)?)\b\s*(?:\*\*)?\s*:?\s*(?:\*\*)?\s*(.*)$`)

type SummaryService struct {
	messageRepo repository.MessageRepository
	generator   llm.Generator
	model       string
	timeout     time.Duration
	backoff     time.Duration
	logger      zerolog.Logger
	sleep       func(ctx context.Context, d time.Duration) error
	now         func() time.Time
}

func NewSummaryService(
	messageRepo repository.MessageRepository,
	generator llm.Generator,
	model string,
	timeout, backoff time.Duration,
	logger zerolog.Logger,
) *SummaryService {
	return &SummaryService{
		messageRepo: messageRepo,
		generator:   generator,
		model:       model,
		timeout:     timeout,
		backoff:     backoff,
		logger:      logger.With().Str("component", "summary").Logger(),
		sleep:       sleepContext,
		now:         time.Now,
	}
}

// Summarize 讀取房間完整歷史並請外部模型產生病歷摘要。
// 模型端的任何失敗都以 SummarizationUnavailable 回報，呼叫端可再次呼叫重試；
// 歷史紀錄不受影響
func (s *SummaryService) Summarize(ctx context.Context, roomID string) (*models.SummaryNote, error) {
	history, err := s.messageRepo.FindByRoomID(ctx, roomID)
	if err != nil {
		return nil, err
	}

	note := &models.SummaryNote{
		RoomID:       roomID,
		MessageCount: len(history),
		GeneratedAt:  s.now(),
	}
	if len(history) == 0 {
		note.Empty = true
		note.Symptoms = noHistoryPlaceholder
		note.Diagnoses = noHistoryPlaceholder
		note.Medications = noHistoryPlaceholder
		note.FollowUp = noHistoryPlaceholder
		metrics.Summaries.WithLabelValues("empty").Inc()
		return note, nil
	}

	text, err := s.generate(ctx, BuildSummaryPrompt(history))
	if err != nil {
		metrics.Summaries.WithLabelValues("unavailable").Inc()
		s.logger.Warn().Err(err).Str("room_id", roomID).Msg("summarization unavailable")
		return nil, &errs.SummarizationUnavailable{Reason: unavailableReason(err), Err: err}
	}

	ParseSummary(text, note)
	note.Model = s.model
	metrics.Summaries.WithLabelValues("ok").Inc()
	return note, nil
}

// generate 最多重試一次，且只在限流時重試
func (s *SummaryService) generate(ctx context.Context, prompt string) (string, error) {
	text, err := s.attempt(ctx, prompt)
	if err == nil || !errors.Is(err, llm.ErrRateLimited) {
		return text, err
	}

	wait := s.backoff
	var ie *llm.InferenceError
	if errors.As(err, &ie) && ie.RetryAfter > 0 && ie.RetryAfter < wait {
		wait = ie.RetryAfter
	}
	s.logger.Info().Dur("wait", wait).Msg("rate limited, retrying once")
	if serr := s.sleep(ctx, wait); serr != nil {
		return "", err
	}
	return s.attempt(ctx, prompt)
}

func (s *SummaryService) attempt(ctx context.Context, prompt string) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	text, err := s.generator.Generate(attemptCtx, prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", llm.ErrEmptyResponse
	}
	return text, nil
}

// BuildSummaryPrompt 組合指示與轉錄稿為單一 prompt
func BuildSummaryPrompt(history []models.Message) string {
	var b strings.Builder
	b.WriteString(summaryInstruction)
	b.WriteString("\n\nConversation:\n")
	for _, m := range history {
		fmt.Fprintf(&b, "%s: %s\n", m.Role.Label(), m.TranscriptText())
	}
	return b.String()
}

// ParseSummary 盡力把模型輸出拆成各段；找不到任何標題時整段放進 FreeText
func ParseSummary(text string, note *models.SummaryNote) {
	sections := map[string]*strings.Builder{}
	var current *strings.Builder

	for _, line := range strings.Split(text, "\n") {
		if m := summaryHeader.FindStringSubmatch(line); m != nil {
			key := sectionKey(m[1])
			if sections[key] == nil {
				sections[key] = &strings.Builder{}
			}
			current = sections[key]
			if rest := strings.TrimSpace(m[2]); rest != "" {
				current.WriteString(rest)
				current.WriteString("\n")
			}
			continue
		}
		if current != nil {
			current.WriteString(line)
			current.WriteString("\n")
		}
	}

	if len(sections) == 0 {
		note.FreeText = strings.TrimSpace(text)
		return
	}

	get := func(key string) string {
		if b := sections[key]; b != nil {
			if v := strings.TrimSpace(b.String()); v != "" {
				return v
			}
		}
		return notMentionedText
	}
	note.Symptoms = get("symptoms")
	note.Diagnoses = get("diagnoses")
	note.Medications = get("medications")
	note.FollowUp = get("follow_up")
}

func sectionKey(header string) string {
	h := strings.ToLower(header)
	switch {
	case strings.HasPrefix(h, "symptom"):
		return "symptoms"
	case strings.HasPrefix(h, "diagnos"):
		return "diagnoses"
	case strings.HasPrefix(h, "medication"):
		return "medications"
	default:
		return "follow_up"
	}
}

func unavailableReason(err error) string {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return "the summarization service timed out, please try again"
	case errors.Is(err, llm.ErrRateLimited):
		return "the summarization service is rate limited, please try again shortly"
	case errors.Is(err, llm.ErrQuotaExceeded):
		return "the summarization service quota is exhausted (HTTP 402)"
	case errors.Is(err, llm.ErrEmptyResponse):
		return "the summarization service returned an empty response"
	}
	var ie *llm.InferenceError
	if errors.As(err, &ie) {
		return fmt.Sprintf("the summarization service returned HTTP %d", ie.StatusCode)
	}
	return "the summarization service could not be reached"
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
