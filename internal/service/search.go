package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"med_bridge/internal/errs"
	"med_bridge/internal/metrics"
	"med_bridge/internal/models"
	"med_bridge/internal/repository"
)

// Span 匹配區間，為 DisplayText 中的位元組偏移 [Start, End)
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

type SearchResult struct {
	Message models.Message `json:"message"`
	Spans   []Span         `json:"spans"`
}

// SearchOptions Literal 為 true 時把 pattern 當一般字串比對
type SearchOptions struct {
	Literal bool
}

type SearchService struct {
	messageRepo repository.MessageRepository
}

func NewSearchService(messageRepo repository.MessageRepository) *SearchService {
	return &SearchService{messageRepo: messageRepo}
}

// Search 以正規表示式掃描房間歷史，區分大小寫。
// 沒有匹配的訊息不會出現在結果中，結果順序與儲存層一致
func (s *SearchService) Search(ctx context.Context, roomID, pattern string, opts SearchOptions) ([]SearchResult, error) {
	re, err := compilePattern(pattern, opts)
	if err != nil {
		metrics.SearchQueries.WithLabelValues("invalid_pattern").Inc()
		return nil, err
	}

	history, err := s.messageRepo.FindByRoomID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	metrics.SearchQueries.WithLabelValues("ok").Inc()

	results := []SearchResult{}
	for _, msg := range history {
		text := msg.DisplayText()
		locs := re.FindAllStringIndex(text, -1)
		if locs == nil {
			continue
		}
		spans := make([]Span, len(locs))
		for i, loc := range locs {
			spans[i] = Span{Start: loc[0], End: loc[1]}
		}
		results = append(results, SearchResult{Message: msg, Spans: spans})
	}
	return results, nil
}

var errEmptyPattern = errors.New("pattern must not be empty")

func compilePattern(pattern string, opts SearchOptions) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, &errs.PatternError{Pattern: pattern, Err: errEmptyPattern}
	}
	if opts.Literal {
		pattern = regexp.QuoteMeta(pattern)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, &errs.PatternError{Pattern: pattern, Err: err}
	}
	return re, nil
}

// Highlight 以 open/close 標記包住每個匹配區間；零寬度的匹配會被略過
func Highlight(text string, spans []Span, open, close string) string {
	var b strings.Builder
	prev := 0
	for _, sp := range spans {
		if sp.Start < prev || sp.End > len(text) || sp.Start >= sp.End {
			continue
		}
		b.WriteString(text[prev:sp.Start])
		b.WriteString(open)
		b.WriteString(text[sp.Start:sp.End])
		b.WriteString(close)
		prev = sp.End
	}
	b.WriteString(text[prev:])
	return b.String()
}
