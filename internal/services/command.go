package services

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// SubmitSentinel is the exact message text that carries a schedule command
// in the request's scheduleData field.
const SubmitSentinel = "ADD_SCHEDULE"

// scheduleTriggers open the schedule form when found anywhere in a message.
// Matching is by substring, so questions that merely mention one of these
// phrases also open the form.
var scheduleTriggers = []string{"thêm lịch học", "thêm lịch", "tạo lịch học"}

// MessageKind is the classified intent of an admin chat message.
type MessageKind int

const (
	PlainChat MessageKind = iota
	OpenScheduleForm
	SubmitScheduleCommand
)

func (k MessageKind) String() string {
	switch k {
	case OpenScheduleForm:
		return "open_schedule_form"
	case SubmitScheduleCommand:
		return "submit_schedule"
	default:
		return "plain_chat"
	}
}

// Classification is the result of Classify. Text is the original message
// and is meaningful for PlainChat.
type Classification struct {
	Kind MessageKind
	Text string
}

// Classify maps raw chat text to a MessageKind. The sentinel is matched
// exactly and first; trigger phrases are matched case-insensitively after
// NFC normalization so precomposed and combining diacritics compare equal.
func Classify(raw string) Classification {
	if raw == SubmitSentinel {
		return Classification{Kind: SubmitScheduleCommand, Text: raw}
	}
	folded := strings.ToLower(norm.NFC.String(raw))
	for _, phrase := range scheduleTriggers {
		if strings.Contains(folded, phrase) {
			return Classification{Kind: OpenScheduleForm, Text: raw}
		}
	}
	return Classification{Kind: PlainChat, Text: raw}
}
