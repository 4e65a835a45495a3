package model

import (
	"github.com/bytedance/sonic"
)

// RawFragment is one archive file as exported by Messenger.
type RawFragment struct {
	Participants []RawParticipant `json:"participants"`
	Messages     []RawMessage     `json:"messages"`
	Title        string           `json:"title,omitempty"`
	ThreadPath   string           `json:"thread_path,omitempty"`
}

type RawParticipant struct {
	Name string `json:"name"`
}

// RawMessage is a single message record. Required fields are wrapped in
// Field so that a wrong-shaped value marks the record instead of failing
// the whole fragment. A wrong-shaped optional field leaves DecodeError set
// and only the required fields filled.
type RawMessage struct {
	SenderName   Field[string] `json:"sender_name"`
	TimestampMs  Field[int64]  `json:"timestamp_ms"`
	Content      string        `json:"content,omitempty"`
	Type         string        `json:"type,omitempty"`
	IsUnsent     bool          `json:"is_unsent,omitempty"`
	CallDuration int64         `json:"call_duration,omitempty"`
	Reactions    []RawReaction `json:"reactions,omitempty"`
	Photos       []RawMedia    `json:"photos,omitempty"`
	Videos       []RawMedia    `json:"videos,omitempty"`
	DecodeError  string        `json:"decode_error,omitempty"`
}

func (m *RawMessage) UnmarshalJSON(data []byte) error {
	type plain RawMessage
	var full plain
	err := sonic.Unmarshal(data, &full)
	if err == nil {
		*m = RawMessage(full)
		return nil
	}

	var head struct {
		SenderName  Field[string] `json:"sender_name"`
		TimestampMs Field[int64]  `json:"timestamp_ms"`
	}
	_ = sonic.Unmarshal(data, &head)
	*m = RawMessage{SenderName: head.SenderName, TimestampMs: head.TimestampMs, DecodeError: err.Error()}
	return nil
}

type RawReaction struct {
	Reaction string `json:"reaction"`
	Actor    string `json:"actor"`
}

type RawMedia struct {
	URI               string `json:"uri"`
	CreationTimestamp int64  `json:"creation_timestamp,omitempty"`
}

// Field records whether a JSON value was present and decodable as T.
type Field[T any] struct {
	Value   T
	Present bool
	Valid   bool
}

// Set returns a present, valid field holding v.
func Set[T any](v T) Field[T] {
	return Field[T]{Value: v, Present: true, Valid: true}
}

func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Present = true
	if string(data) == "null" {
		f.Valid = false
		return nil
	}

	var v T
	if err := sonic.Unmarshal(data, &v); err != nil {
		// Shape errors are reported by the normalizer, not the decoder
		f.Valid = false
		return nil
	}
	f.Value = v
	f.Valid = true
	return nil
}

func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return sonic.Marshal(f.Value)
}
