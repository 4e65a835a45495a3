package fixtures

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/d1j/facebook-stats/internal/core/model"
)

// Message describes one message to write into a fragment.
type Message struct {
	Sender       string
	At           time.Time
	Reactions    []Reaction
	Type         string
	CallDuration int64
	Photos       int
	Videos       int
	Unsent       bool
}

// Reaction is a reaction left by Actor.
type Reaction struct {
	Actor string
	Kind  string
}

// Msg returns a generic message from sender with one cha per actor.
func Msg(sender string, at time.Time, actors ...string) Message {
	m := Message{Sender: sender, At: at, Type: model.MessageGeneric}
	for _, actor := range actors {
		m.Reactions = append(m.Reactions, Reaction{Actor: actor, Kind: model.ReactionCha})
	}
	return m
}

// ArchiveGenerator writes Messenger-shaped fragments for tests.
type ArchiveGenerator struct {
	baseDir  string
	mojibake bool
}

// NewArchiveGenerator creates a generator writing into baseDir
func NewArchiveGenerator(baseDir string) *ArchiveGenerator {
	return &ArchiveGenerator{baseDir: baseDir}
}

// WithMojibake makes the generator encode strings the way Messenger exports
// do, as one latin-1 code point per UTF-8 byte.
func (g *ArchiveGenerator) WithMojibake() *ArchiveGenerator {
	g.mojibake = true
	return g
}

// Mojibake renders s the way Messenger exports it.
func Mojibake(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		b.WriteRune(rune(s[i]))
	}
	return b.String()
}

func (g *ArchiveGenerator) text(s string) string {
	if g.mojibake {
		return Mojibake(s)
	}
	return s
}

// WriteFragment writes one fragment file and returns its path. Messages are
// stored newest first like real exports.
func (g *ArchiveGenerator) WriteFragment(name string, participants []string, messages []Message) (string, error) {
	fragment := model.RawFragment{Title: g.text(strings.Join(participants, ", "))}
	for _, p := range participants {
		fragment.Participants = append(fragment.Participants, model.RawParticipant{Name: g.text(p)})
	}

	for i := len(messages) - 1; i >= 0; i-- {
		m := messages[i]
		raw := model.RawMessage{
			SenderName:   model.Set(g.text(m.Sender)),
			TimestampMs:  model.Set(m.At.UnixMilli()),
			Type:         m.Type,
			IsUnsent:     m.Unsent,
			CallDuration: m.CallDuration,
		}
		for _, r := range m.Reactions {
			raw.Reactions = append(raw.Reactions, model.RawReaction{Actor: g.text(r.Actor), Reaction: g.text(r.Kind)})
		}
		for j := 0; j < m.Photos; j++ {
			raw.Photos = append(raw.Photos, model.RawMedia{URI: fmt.Sprintf("photos/%d_%d.jpg", i, j)})
		}
		for j := 0; j < m.Videos; j++ {
			raw.Videos = append(raw.Videos, model.RawMedia{URI: fmt.Sprintf("videos/%d_%d.mp4", i, j)})
		}
		fragment.Messages = append(fragment.Messages, raw)
	}

	data, err := sonic.ConfigStd.MarshalIndent(fragment, "", "  ")
	if err != nil {
		return "", err
	}
	return g.WriteRaw(name, string(data))
}

// WriteRaw writes content verbatim as a fragment file.
func (g *ArchiveGenerator) WriteRaw(name, content string) (string, error) {
	if err := os.MkdirAll(g.baseDir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(g.baseDir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", err
	}
	return path, nil
}

// GenerateConversation writes a random but reproducible conversation of
// count messages spread over days starting at start, split into fragments
// of at most perFragment messages.
func (g *ArchiveGenerator) GenerateConversation(participants []string, start time.Time, days, count, perFragment int, seed int64) ([]string, error) {
	rng := rand.New(rand.NewSource(seed))
	kinds := []string{model.ReactionCha, model.ReactionCha, "❤", "👍", "😮"}

	messages := make([]Message, 0, count)
	for i := 0; i < count; i++ {
		at := start.Add(time.Duration(rng.Int63n(int64(days) * int64(24*time.Hour))))
		m := Message{
			Sender: participants[rng.Intn(len(participants))],
			At:     at,
			Type:   model.MessageGeneric,
		}
		for _, p := range participants {
			if p != m.Sender && rng.Intn(4) == 0 {
				m.Reactions = append(m.Reactions, Reaction{Actor: p, Kind: kinds[rng.Intn(len(kinds))]})
			}
		}
		if rng.Intn(20) == 0 {
			m.Type = model.MessageCall
			m.CallDuration = rng.Int63n(3600)
		}
		if rng.Intn(10) == 0 {
			m.Photos = 1 + rng.Intn(3)
		}
		messages = append(messages, m)
	}

	if perFragment <= 0 {
		perFragment = count
	}
	var paths []string
	for part := 0; part*perFragment < len(messages) || part == 0; part++ {
		end := min((part+1)*perFragment, len(messages))
		path, err := g.WriteFragment(fmt.Sprintf("message_%d.json", part+1), participants, messages[part*perFragment:end])
		if err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
