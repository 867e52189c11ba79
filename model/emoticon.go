package model

import "strconv"

type EmoticonType int

const (
	EmoticonSystem EmoticonType = 1
	EmoticonEmoji  EmoticonType = 2
)

// Emoticon is a system emoticon (kept by id) or an emoji (id is its decimal code point).
type Emoticon struct {
	ID   string       `json:"id"`
	Type EmoticonType `json:"type"`
}

// Emoji returns the emoji rune for emoji-typed emoticons.
func (e Emoticon) Emoji() (rune, bool) {
	if e.Type != EmoticonEmoji {
		return 0, false
	}
	v, err := strconv.ParseInt(e.ID, 10, 32)
	if err != nil {
		return 0, false
	}
	return rune(v), true
}

func (e Emoticon) IsSystem() bool {
	return e.Type == EmoticonSystem
}

func (e Emoticon) String() string {
	if r, ok := e.Emoji(); ok {
		return string(r)
	}
	if e.IsSystem() {
		return "emoticon:" + e.ID
	}
	return ""
}

type ReactionTargetType int

const (
	ReactionTargetMessage ReactionTargetType = 0
	ReactionTargetPost    ReactionTargetType = 1
	ReactionTargetComment ReactionTargetType = 2
	ReactionTargetReply   ReactionTargetType = 3
)

func (t *ReactionTargetType) UnmarshalJSON(data []byte) error {
	v, err := decodeInt(data)
	if err != nil {
		return err
	}
	*t = ReactionTargetType(v)
	return nil
}

type ReactionTarget struct {
	ID   string             `json:"id"`
	Type ReactionTargetType `json:"type"`
}

type Reaction struct {
	UserID    string         `json:"user_id"`
	GuildID   string         `json:"guild_id"`
	ChannelID string         `json:"channel_id"`
	Target    ReactionTarget `json:"target"`
	Emoji     Emoticon       `json:"emoji"`
}
