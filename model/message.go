package model

import "time"

// Source tells whether a message arrived in a guild channel or a direct session.
type Source int

const (
	SourceChannel Source = iota
	SourceDirect
)

type Attachment struct {
	URL         string `json:"url"`
	ContentType string `json:"content_type,omitempty"`
	Filename    string `json:"filename,omitempty"`
}

type Message struct {
	ID              string       `json:"id"`
	ChannelID       string       `json:"channel_id"`
	GuildID         string       `json:"guild_id"`
	Content         string       `json:"content"`
	Timestamp       time.Time    `json:"timestamp"`
	Author          *User        `json:"author,omitempty"`
	Member          *Member      `json:"member,omitempty"`
	Mentions        []User       `json:"mentions,omitempty"`
	MentionEveryone bool         `json:"mention_everyone"`
	Attachments     []Attachment `json:"attachments,omitempty"`
	Seq             int64        `json:"seq"`
	SrcGuildID      string       `json:"src_guild_id,omitempty"`

	Source Source `json:"-"`
}

// MessageAudit describes the review state of a message held for audit.
type MessageAudit struct {
	AuditID    string    `json:"audit_id"`
	MessageID  string    `json:"message_id,omitempty"`
	GuildID    string    `json:"guild_id"`
	ChannelID  string    `json:"channel_id"`
	AuditTime  time.Time `json:"audit_time"`
	CreateTime time.Time `json:"create_time"`
}

// DirectSession is the private guild/channel pair used for direct messages.
type DirectSession struct {
	GuildID    string `json:"guild_id"`
	ChannelID  string `json:"channel_id"`
	CreateTime string `json:"create_time,omitempty"`
}
