package normalizer

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/d1j/facebook-stats/internal/core/model"
)

// RepairText undoes Messenger's export encoding, where every UTF-8 byte is
// written as a separate latin-1 code point ("Ã…" instead of "Å").
// Text that cannot be a latin-1 rendering of valid UTF-8 is returned as is.
func RepairText(s string) string {
	if isASCII(s) {
		return s
	}

	raw, err := charmap.ISO8859_1.NewEncoder().String(s)
	if err != nil {
		return s
	}
	if !utf8.ValidString(raw) {
		return s
	}
	return raw
}

// ExportText renders s the way Messenger writes it, one latin-1 code point
// per UTF-8 byte. Text already in that form is returned as is.
func ExportText(s string) string {
	if isASCII(s) || RepairText(s) != s {
		return s
	}
	exported, err := charmap.ISO8859_1.NewDecoder().String(s)
	if err != nil {
		return s
	}
	return exported
}

// RepairFragment returns a copy of fragment with every name and reaction
// string repaired. The input is left untouched so cached fragments stay raw.
func RepairFragment(fragment *model.RawFragment) *model.RawFragment {
	repaired := *fragment
	repaired.Title = RepairText(fragment.Title)

	repaired.Participants = make([]model.RawParticipant, len(fragment.Participants))
	for i, p := range fragment.Participants {
		repaired.Participants[i] = model.RawParticipant{Name: RepairText(p.Name)}
	}

	repaired.Messages = make([]model.RawMessage, len(fragment.Messages))
	for i, msg := range fragment.Messages {
		if msg.SenderName.Valid {
			msg.SenderName.Value = RepairText(msg.SenderName.Value)
		}
		msg.Content = RepairText(msg.Content)
		if msg.Reactions != nil {
			reactions := make([]model.RawReaction, len(msg.Reactions))
			for j, r := range msg.Reactions {
				reactions[j] = model.RawReaction{Actor: RepairText(r.Actor), Reaction: RepairText(r.Reaction)}
			}
			msg.Reactions = reactions
		}
		repaired.Messages[i] = msg
	}

	return &repaired
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
