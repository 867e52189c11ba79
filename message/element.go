// Package message builds outgoing message bodies from content elements and
// parses incoming message content back into elements.
package message

import (
	"regexp"

	"github.com/pscheid92/cyan/model"
)

// Body is the JSON body of a send-message request.
type Body struct {
	Content string `json:"content,omitempty"`
	Image   string `json:"image,omitempty"`
	MsgID   string `json:"msg_id,omitempty"`
}

// Part is anything that contributes elements to a Content.
type Part interface {
	Elements() []Element
}

// Element is a single piece of message content.
type Element interface {
	Part
	// Apply folds the element into an outgoing body.
	Apply(b *Body)
	String() string
}

var (
	mentionPattern     = regexp.MustCompile(`<@!?(\w+)>`)
	mentionAllPattern  = regexp.MustCompile(`@everyone`)
	channelLinkPattern = regexp.MustCompile(`<#(\w+)>`)

	patterns = []*regexp.Regexp{mentionPattern, mentionAllPattern, channelLinkPattern}
)

type PlainText struct {
	Text string
}

// Text is shorthand for PlainText{Text: s}.
func Text(s string) PlainText {
	return PlainText{Text: s}
}

func (p PlainText) Elements() []Element { return []Element{p} }
func (p PlainText) Apply(b *Body)       { b.Content += escape(p.Text) }
func (p PlainText) String() string      { return p.Text }

type Mention struct {
	User model.User
}

func (m Mention) Elements() []Element { return []Element{m} }
func (m Mention) Apply(b *Body)       { b.Content += "<@" + m.User.ID + ">" }
func (m Mention) String() string      { return "@" + m.User.Username }

// MentionAll notifies every member of the guild.
type MentionAll struct{}

func (m MentionAll) Elements() []Element { return []Element{m} }
func (m MentionAll) Apply(b *Body)       { b.Content += "@everyone" }
func (m MentionAll) String() string      { return "@everyone" }

type ChannelLink struct {
	Channel model.Channel
}

func (l ChannelLink) Elements() []Element { return []Element{l} }
func (l ChannelLink) Apply(b *Body)       { b.Content += "<#" + l.Channel.ID + ">" }

func (l ChannelLink) String() string {
	if l.Channel.Name == "" {
		return "#" + l.Channel.ID
	}
	return "#" + l.Channel.Name
}

// Image attaches a picture by URL. A body carries at most one image; the last one wins.
type Image struct {
	URL string
}

func (i Image) Elements() []Element { return []Element{i} }
func (i Image) Apply(b *Body)       { b.Image = i.URL }
func (i Image) String() string      { return "[image]" }

// escape breaks up text that the platform would otherwise render as a
// mention or channel link by inserting a space after its first character.
func escape(text string) string {
	matches := findAll(text)
	if len(matches) == 0 {
		return text
	}

	out := make([]byte, 0, len(text)+len(matches))
	last := 0
	for _, m := range matches {
		out = append(out, text[last:m.start]...)
		out = append(out, text[m.start])
		out = append(out, ' ')
		out = append(out, text[m.start+1:m.end]...)
		last = m.end
	}
	out = append(out, text[last:]...)
	return string(out)
}
