package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

type Kind string

const (
	KindFamiliarWord     Kind = "familiar_word"
	KindWordRecord       Kind = "word_record"
	KindReviewRecord     Kind = "review_record"
	KindChapterRecord    Kind = "chapter_record"
	KindReviewConfig     Kind = "review_config"
	KindWordReviewRecord Kind = "word_review_record"
	KindReviewHistory    Kind = "review_history"
)

var (
	ErrUnknownKind    = errors.New("unknown record kind")
	ErrInvalidPayload = errors.New("invalid payload")
)

// Kinds перечисляет все поддерживаемые типы записей.
func Kinds() []Kind {
	return []Kind{
		KindFamiliarWord,
		KindWordRecord,
		KindReviewRecord,
		KindChapterRecord,
		KindReviewConfig,
		KindWordReviewRecord,
		KindReviewHistory,
	}
}

const kindDescription = "Тип синхронизируемой записи: familiar_word, word_record, review_record, " +
	"chapter_record, review_config, word_review_record, review_history"

// Schema намеренно без enum: неизвестный тип отклоняется по одной записи,
// а не всем пакетом.
func (Kind) Schema(huma.Registry) *huma.Schema {
	return &huma.Schema{
		Type:        "string",
		Description: kindDescription,
		Examples:    []any{string(KindFamiliarWord)},
	}
}

// Validate реализует проверку типа записи.
func (k Kind) Validate() error {
	for _, known := range Kinds() {
		if k == known {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownKind, string(k))
}

func (k Kind) String() string {
	return string(k)
}

// FamiliarWord - отметка "слово знакомо".
type FamiliarWord struct {
	Dict     string `json:"dict"`
	Word     string `json:"word"`
	Familiar bool   `json:"familiar"`
}

// PerformanceEntry - одна попытка набора слова.
type PerformanceEntry struct {
	EntryUUID  string   `json:"entryUuid"`
	TimeStamp  int64    `json:"timeStamp"`
	WrongCount int      `json:"wrongCount"`
	Mistakes   []string `json:"mistakes,omitempty"`
}

// WordRecord - история практики по слову.
type WordRecord struct {
	Dict       string             `json:"dict"`
	Word       string             `json:"word"`
	WrongCount int                `json:"wrongCount"`
	History    []PerformanceEntry `json:"history,omitempty"`
}

// ReviewRecord - сессия повторения словаря.
type ReviewRecord struct {
	Dict       string `json:"dict"`
	CreateTime int64  `json:"createTime"`
	IsFinished bool   `json:"isFinished"`
}

// ChapterRecord - результат прохождения главы словаря. Chapter пуст для
// тренировки вне глав.
type ChapterRecord struct {
	Dict               string `json:"dict"`
	Chapter            *int   `json:"chapter"`
	TimeStamp          int64  `json:"timeStamp"`
	Time               int    `json:"time"`
	CorrectCount       int    `json:"correctCount"`
	WrongCount         int    `json:"wrongCount"`
	WordCount          int    `json:"wordCount"`
	CorrectWordIndexes []int  `json:"correctWordIndexes,omitempty"`
	WordNumber         int    `json:"wordNumber"`
}

// DefaultIntervals - интервалы повторения в днях по умолчанию.
var DefaultIntervals = []int{1, 3, 7, 15, 30, 60}

// ReviewConfig - настройки интервального повторения, одни на пользователя.
type ReviewConfig struct {
	BaseIntervals       []int  `json:"baseIntervals"`
	EnableNotifications bool   `json:"enableNotifications"`
	NotificationTime    string `json:"notificationTime"`
}

// DefaultReviewConfig - настройки, пока пользователь их не менял.
func DefaultReviewConfig() ReviewConfig {
	return ReviewConfig{
		BaseIntervals:       append([]int(nil), DefaultIntervals...),
		EnableNotifications: true,
		NotificationTime:    "09:00",
	}
}

// WordReviewRecord - расписание повторения слова, общее для всех словарей.
type WordReviewRecord struct {
	Word                 string   `json:"word"`
	IntervalSequence     []int    `json:"intervalSequence"`
	CurrentIntervalIndex int      `json:"currentIntervalIndex"`
	NextReviewAt         int64    `json:"nextReviewAt"`
	TotalReviews         int      `json:"totalReviews"`
	IsGraduated          bool     `json:"isGraduated"`
	ConsecutiveCorrect   int      `json:"consecutiveCorrect"`
	LastReviewedAt       int64    `json:"lastReviewedAt,omitempty"`
	SourceDicts          []string `json:"sourceDicts"`
	PreferredDict        string   `json:"preferredDict"`
	FirstSeenAt          int64    `json:"firstSeenAt"`
}

// Значения ReviewHistory.ReviewResult.
const (
	ReviewCorrect   = "correct"
	ReviewIncorrect = "incorrect"
)

// ReviewHistory - одна попытка повторения слова.
type ReviewHistory struct {
	WordReviewRecordID string `json:"wordReviewRecordId"`
	Word               string `json:"word"`
	Dict               string `json:"dict"`
	ReviewedAt         int64  `json:"reviewedAt"`
	ReviewResult       string `json:"reviewResult"`
	ResponseTime       int64  `json:"responseTime,omitempty"`
	ReviewLevelBefore  int    `json:"reviewLevelBefore"`
	ReviewLevelAfter   int    `json:"reviewLevelAfter"`
	ReviewType         string `json:"reviewType"`
	SessionID          string `json:"sessionId,omitempty"`
}

// ReviewConfigKey - естественный ключ единственной записи review_config.
const ReviewConfigKey = "default"

var notificationTime = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):[0-5][0-9]$`)

// NaturalKey разбирает payload записи данного типа и возвращает ее
// естественный ключ. Две живые записи одного владельца и типа с одинаковым
// ключом существовать не должны.
func NaturalKey(kind Kind, payload json.RawMessage) (string, error) {
	if err := kind.Validate(); err != nil {
		return "", err
	}
	if !isJSONObject(payload) {
		return "", fmt.Errorf("%w: payload must be a JSON object", ErrInvalidPayload)
	}

	switch kind {
	case KindFamiliarWord:
		var p FamiliarWord
		if err := decode(payload, &p); err != nil {
			return "", err
		}
		return dictWordKey(p.Dict, p.Word)
	case KindWordRecord:
		var p WordRecord
		if err := decode(payload, &p); err != nil {
			return "", err
		}
		return dictWordKey(p.Dict, p.Word)
	case KindReviewRecord:
		var p ReviewRecord
		if err := decode(payload, &p); err != nil {
			return "", err
		}
		if p.Dict == "" || p.CreateTime <= 0 {
			return "", fmt.Errorf("%w: dict and createTime are required", ErrInvalidPayload)
		}
		return p.Dict + "/" + strconv.FormatInt(p.CreateTime, 10), nil
	case KindChapterRecord:
		var p ChapterRecord
		if err := decode(payload, &p); err != nil {
			return "", err
		}
		dict := strings.TrimSpace(p.Dict)
		if dict == "" || p.TimeStamp <= 0 {
			return "", fmt.Errorf("%w: dict and timeStamp are required", ErrInvalidPayload)
		}
		chapter := "-"
		if p.Chapter != nil {
			chapter = strconv.Itoa(*p.Chapter)
		}
		return dict + "/" + chapter + "/" + strconv.FormatInt(p.TimeStamp, 10), nil
	case KindReviewConfig:
		var p ReviewConfig
		if err := decode(payload, &p); err != nil {
			return "", err
		}
		if len(p.BaseIntervals) == 0 {
			return "", fmt.Errorf("%w: baseIntervals are required", ErrInvalidPayload)
		}
		for _, d := range p.BaseIntervals {
			if d <= 0 {
				return "", fmt.Errorf("%w: baseIntervals must be positive", ErrInvalidPayload)
			}
		}
		if !notificationTime.MatchString(p.NotificationTime) {
			return "", fmt.Errorf("%w: notificationTime must be HH:MM", ErrInvalidPayload)
		}
		return ReviewConfigKey, nil
	case KindWordReviewRecord:
		var p WordReviewRecord
		if err := decode(payload, &p); err != nil {
			return "", err
		}
		return wordKey(p.Word)
	case KindReviewHistory:
		var p ReviewHistory
		if err := decode(payload, &p); err != nil {
			return "", err
		}
		if p.ReviewResult != ReviewCorrect && p.ReviewResult != ReviewIncorrect {
			return "", fmt.Errorf("%w: reviewResult must be correct or incorrect", ErrInvalidPayload)
		}
		if p.ReviewedAt <= 0 {
			return "", fmt.Errorf("%w: reviewedAt is required", ErrInvalidPayload)
		}
		key, err := wordKey(p.Word)
		if err != nil {
			return "", err
		}
		return key + "/" + strconv.FormatInt(p.ReviewedAt, 10), nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownKind, string(kind))
}

func decode(payload json.RawMessage, v any) error {
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}

func wordKey(word string) (string, error) {
	word = strings.TrimSpace(word)
	if word == "" {
		return "", fmt.Errorf("%w: word is required", ErrInvalidPayload)
	}
	return strings.ToLower(word), nil
}

func dictWordKey(dict, word string) (string, error) {
	dict = strings.TrimSpace(dict)
	word = strings.TrimSpace(word)
	if dict == "" || word == "" {
		return "", fmt.Errorf("%w: dict and word are required", ErrInvalidPayload)
	}
	return dict + "/" + strings.ToLower(word), nil
}

func isJSONObject(raw json.RawMessage) bool {
	var obj map[string]json.RawMessage
	return len(raw) > 0 && json.Unmarshal(raw, &obj) == nil && obj != nil
}
