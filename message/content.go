package message

import (
	"regexp"
	"slices"
	"strings"

	"github.com/pscheid92/cyan/model"
)

// Content is an ordered list of elements.
type Content []Element

func (c Content) Elements() []Element { return c }

// Build concatenates parts into a new Content.
func Build(parts ...Part) Content {
	var c Content
	for _, p := range parts {
		c = append(c, p.Elements()...)
	}
	return c
}

// Body folds every element, in order, into a send-message body.
func (c Content) Body() Body {
	var b Body
	for _, e := range c {
		e.Apply(&b)
	}
	return b
}

// PlainText joins the plain text elements with a single space.
func (c Content) PlainText() string {
	var texts []string
	for _, e := range c {
		if p, ok := e.(PlainText); ok {
			texts = append(texts, p.Text)
		}
	}
	return strings.Join(texts, " ")
}

func (c Content) String() string {
	var sb strings.Builder
	for _, e := range c {
		sb.WriteString(e.String())
	}
	return sb.String()
}

type match struct {
	pattern    *regexp.Regexp
	start, end int
	id         string
}

// findAll returns the non-overlapping element matches in text ordered by position.
func findAll(text string) []match {
	var all []match
	for _, p := range patterns {
		for _, loc := range p.FindAllStringSubmatchIndex(text, -1) {
			m := match{pattern: p, start: loc[0], end: loc[1]}
			if len(loc) >= 4 && loc[2] >= 0 {
				m.id = text[loc[2]:loc[3]]
			}
			all = append(all, m)
		}
	}
	slices.SortStableFunc(all, func(a, b match) int { return a.start - b.start })

	out := all[:0]
	end := 0
	for _, m := range all {
		if m.start < end {
			continue
		}
		out = append(out, m)
		end = m.end
	}
	return out
}

// Parse splits raw message content into elements. Mentions are resolved
// against the users the platform listed as mentioned; unresolved mentions are
// dropped. Channel links carry only the channel id.
func Parse(content string, mentions []model.User) Content {
	if content == "" {
		return Content{}
	}

	var c Content
	last := 0
	for _, m := range findAll(content) {
		if m.start > last {
			c = append(c, PlainText{Text: content[last:m.start]})
		}
		if e := resolve(m, mentions); e != nil {
			c = append(c, e)
		}
		last = m.end
	}
	if last < len(content) {
		c = append(c, PlainText{Text: content[last:]})
	}
	return c
}

func resolve(m match, mentions []model.User) Element {
	switch m.pattern {
	case mentionPattern:
		i := slices.IndexFunc(mentions, func(u model.User) bool { return u.ID == m.id })
		if i < 0 {
			return nil
		}
		return Mention{User: mentions[i]}
	case mentionAllPattern:
		return MentionAll{}
	case channelLinkPattern:
		return ChannelLink{Channel: model.Channel{ID: m.id}}
	}
	return nil
}

// FromMessage parses a received message, appending its image attachments.
func FromMessage(msg *model.Message) Content {
	c := Parse(msg.Content, msg.Mentions)
	for _, a := range msg.Attachments {
		if strings.HasPrefix(a.ContentType, "image/") {
			c = append(c, Image{URL: a.URL})
		}
	}
	return c
}
