package event

import (
	"fmt"
	"strings"
)

// Intent is a bit flag subscribing a gateway connection to an event family.
type Intent uint32

const (
	IntentDefault             Intent = 0
	IntentGuilds              Intent = 1 << 0
	IntentGuildMembers        Intent = 1 << 1
	IntentGuildReactions      Intent = 1 << 10
	IntentDirectMessage       Intent = 1 << 12
	IntentMessageAudit        Intent = 1 << 27
	IntentForum               Intent = 1 << 28
	IntentAudioAction         Intent = 1 << 29
	IntentPublicGuildMessages Intent = 1 << 30
)

var intentNames = []struct {
	intent Intent
	name   string
}{
	{IntentGuilds, "guilds"},
	{IntentGuildMembers, "guild_members"},
	{IntentGuildReactions, "guild_message_reactions"},
	{IntentDirectMessage, "direct_message"},
	{IntentMessageAudit, "message_audit"},
	{IntentForum, "forum"},
	{IntentAudioAction, "audio_action"},
	{IntentPublicGuildMessages, "public_guild_messages"},
}

// Has reports whether every bit of other is set in i.
func (i Intent) Has(other Intent) bool {
	return i&other == other
}

func (i Intent) String() string {
	if i == IntentDefault {
		return "default"
	}
	var names []string
	rest := i
	for _, n := range intentNames {
		if i.Has(n.intent) {
			names = append(names, n.name)
			rest &^= n.intent
		}
	}
	if rest != 0 {
		names = append(names, fmt.Sprintf("0x%x", uint32(rest)))
	}
	return strings.Join(names, "|")
}
