package model

import "fmt"

type ChannelType int

const (
	ChannelTypeText        ChannelType = 0
	ChannelTypeVoice       ChannelType = 2
	ChannelTypeGroup       ChannelType = 4
	ChannelTypeLive        ChannelType = 10005
	ChannelTypeApplication ChannelType = 10006
	ChannelTypeForum       ChannelType = 10007
)

// Known reports whether t is one of the channel types the SDK models.
func (t ChannelType) Known() bool {
	switch t {
	case ChannelTypeText, ChannelTypeVoice, ChannelTypeGroup, ChannelTypeLive, ChannelTypeApplication, ChannelTypeForum:
		return true
	}
	return false
}

func (t ChannelType) String() string {
	switch t {
	case ChannelTypeText:
		return "text"
	case ChannelTypeVoice:
		return "voice"
	case ChannelTypeGroup:
		return "group"
	case ChannelTypeLive:
		return "live"
	case ChannelTypeApplication:
		return "application"
	case ChannelTypeForum:
		return "forum"
	}
	return fmt.Sprintf("unknown(%d)", int(t))
}

// TextChannelType is the sub type of a text channel.
type TextChannelType int

const (
	TextChannelChat         TextChannelType = 0
	TextChannelAnnouncement TextChannelType = 1
	TextChannelStrategy     TextChannelType = 2
	TextChannelGame         TextChannelType = 3
)

// AppChannelType identifies the application backing an application channel.
type AppChannelType int

const (
	AppChannelHonorOfKings AppChannelType = 1000000
	AppChannelGame         AppChannelType = 1000001
	AppChannelVote         AppChannelType = 1000010
	AppChannelSchedule     AppChannelType = 1000050
	AppChannelQQSpeed      AppChannelType = 1000051
	AppChannelCODM         AppChannelType = 1000070
	AppChannelGameForPeace AppChannelType = 1010000
)

// The platform sends application_id as a string.
func (t *AppChannelType) UnmarshalJSON(data []byte) error {
	v, err := decodeInt(data)
	if err != nil {
		return fmt.Errorf("application_id: %w", err)
	}
	*t = AppChannelType(v)
	return nil
}

// Visibility controls who can see a channel.
type Visibility int

const (
	VisibilityEveryone      Visibility = 0
	VisibilityAdministrator Visibility = 1
	VisibilityAppointee     Visibility = 2
)

// SpeakPermission controls who can post in a channel.
type SpeakPermission int

const (
	SpeakDefault   SpeakPermission = 0
	SpeakEveryone  SpeakPermission = 1
	SpeakAppointee SpeakPermission = 2
)

// Channel is either a channel or a channel group (Type == ChannelTypeGroup).
type Channel struct {
	ID              string          `json:"id"`
	GuildID         string          `json:"guild_id"`
	Name            string          `json:"name"`
	Type            ChannelType     `json:"type"`
	SubType         TextChannelType `json:"sub_type"`
	Position        int             `json:"position"`
	ParentID        string          `json:"parent_id"`
	OwnerID         string          `json:"owner_id"`
	PrivateType     Visibility      `json:"private_type"`
	SpeakPermission SpeakPermission `json:"speak_permission"`
	ApplicationID   AppChannelType  `json:"application_id,omitempty"`
}

func (c Channel) IsGroup() bool {
	return c.Type == ChannelTypeGroup
}

func (c Channel) HasOwner() bool {
	return isSet(c.OwnerID)
}

// InGroup reports whether the channel is a direct child of the given group.
func (c Channel) InGroup(groupID string) bool {
	return c.ParentID == groupID
}

func (c Channel) IsSchedule() bool {
	return c.Type == ChannelTypeApplication && c.ApplicationID == AppChannelSchedule
}
