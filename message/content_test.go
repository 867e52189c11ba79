package message

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pscheid92/cyan/model"
	"github.com/stretchr/testify/assert"
)

var (
	alice = model.User{ID: "111", Username: "alice"}
	bob   = model.User{ID: "222", Username: "bob"}
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		mentions []model.User
		want     Content
	}{
		{
			name:    "empty",
			content: "",
			want:    Content{},
		},
		{
			name:    "plain only",
			content: "hello world",
			want:    Content{PlainText{Text: "hello world"}},
		},
		{
			name:     "mention between text",
			content:  "hi <@111> there",
			mentions: []model.User{alice},
			want:     Content{PlainText{Text: "hi "}, Mention{User: alice}, PlainText{Text: " there"}},
		},
		{
			name:     "legacy mention form",
			content:  "<@!222>",
			mentions: []model.User{alice, bob},
			want:     Content{Mention{User: bob}},
		},
		{
			name:     "unresolved mention dropped",
			content:  "a<@999>b",
			mentions: []model.User{alice},
			want:     Content{PlainText{Text: "a"}, PlainText{Text: "b"}},
		},
		{
			name:    "mention all and channel link ordered by position",
			content: "<#42> go @everyone",
			want:    Content{ChannelLink{Channel: model.Channel{ID: "42"}}, PlainText{Text: " go "}, MentionAll{}},
		},
		{
			name:     "adjacent elements",
			content:  "<@111><@222>",
			mentions: []model.User{alice, bob},
			want:     Content{Mention{User: alice}, Mention{User: bob}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.content, tt.mentions)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPlainText_Escapes(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"nothing special", "nothing special"},
		{"ping <@111> now", "ping < @111> now"},
		{"@everyone look", "@ everyone look"},
		{"see <#42>!", "see < #42>!"},
		{"<@1>@everyone", "< @1>@ everyone"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var b Body
			Text(tt.in).Apply(&b)
			assert.Equal(t, tt.want, b.Content)
		})
	}
}

func TestContent_Body(t *testing.T) {
	c := Build(
		Text("hi "),
		Mention{User: alice},
		Text(", see "),
		ChannelLink{Channel: model.Channel{ID: "42", Name: "general"}},
		MentionAll{},
		Image{URL: "https://example.com/a.png"},
	)

	b := c.Body()
	assert.Equal(t, "hi <@111>, see <#42>@everyone", b.Content)
	assert.Equal(t, "https://example.com/a.png", b.Image)
	assert.Empty(t, b.MsgID)
}

func TestContent_PlainTextAndString(t *testing.T) {
	c := Parse("<@111> 我要自闭", []model.User{alice})

	assert.Equal(t, " 我要自闭", c.PlainText())
	assert.Equal(t, "@alice 我要自闭", c.String())

	multi := Build(Text("a"), MentionAll{}, Text("b"))
	assert.Equal(t, "a b", multi.PlainText())
}

func TestChannelLink_String(t *testing.T) {
	assert.Equal(t, "#general", ChannelLink{Channel: model.Channel{ID: "1", Name: "general"}}.String())
	assert.Equal(t, "#1", ChannelLink{Channel: model.Channel{ID: "1"}}.String())
}

func TestBuild_FromMessage(t *testing.T) {
	msg := &model.Message{
		Content:  "<@222> look",
		Mentions: []model.User{bob},
		Attachments: []model.Attachment{
			{URL: "https://example.com/cat.jpg", ContentType: "image/jpeg"},
			{URL: "https://example.com/a.zip", ContentType: "application/zip"},
		},
	}

	got := Build(Text("fwd: "), FromMessage(msg))
	want := Content{
		PlainText{Text: "fwd: "},
		Mention{User: bob},
		PlainText{Text: " look"},
		Image{URL: "https://example.com/cat.jpg"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Build() mismatch (-want +got):\n%s", diff)
	}
}
