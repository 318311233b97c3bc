package knowledge

import (
	"strings"
	"testing"
)

func TestRespondMatchesTopics(t *testing.T) {
	t.Parallel()

	kb := New()

	tests := []struct {
		name     string
		message  string
		language string
		want     string // expected template
	}{
		{
			name:     "zh identity simplified script",
			message:  "介绍一下你自己",
			language: "zh",
			want:     responsesZH[TopicIdentity],
		},
		{
			name:     "zh identity traditional script",
			message:  "請介紹一下你自己",
			language: "zh",
			want:     responsesZH[TopicIdentity],
		},
		{
			name:     "zh research",
			message:  "他的研究方向是什麼？",
			language: "zh",
			want:     responsesZH[TopicResearch],
		},
		{
			name:     "zh named project",
			message:  "NeuroSeg 是什麼？",
			language: "zh",
			want:     responsesZH[TopicProjects],
		},
		{
			name:     "zh publications",
			message:  "最近發表了哪些論文",
			language: "zh",
			want:     responsesZH[TopicPublications],
		},
		{
			name:     "zh default catch-all",
			message:  "今天天氣如何",
			language: "zh",
			want:     responsesZH[TopicDefault],
		},
		{
			name:     "en identity",
			message:  "Could you introduce yourself?",
			language: "en",
			want:     responsesEN[TopicIdentity],
		},
		{
			name:     "en research",
			message:  "What are his research interests?",
			language: "en",
			want:     responsesEN[TopicResearch],
		},
		{
			name:     "en default catch-all",
			message:  "hmm",
			language: "en",
			want:     responsesEN[TopicDefault],
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := kb.Respond(tt.message, tt.language)
			if got != tt.want {
				t.Errorf("Respond(%q, %q) = %q, want %q", tt.message, tt.language, got, tt.want)
			}
		})
	}
}

// Identity outranks research: a message containing keywords of both
// topics must resolve by priority order, not by match count.
func TestRespondPriorityOrder(t *testing.T) {
	t.Parallel()

	kb := New()
	got := kb.Respond("介紹一下你的研究", "zh")
	if got != responsesZH[TopicIdentity] {
		t.Errorf("identity should win over research, got %q", got)
	}
}

// Respond is total: any non-empty input in a supported language yields
// a non-empty answer.
func TestRespondIsTotal(t *testing.T) {
	t.Parallel()

	kb := New()
	inputs := []string{"?", "....", "asdfghjkl", "\t\n x", strings.Repeat("雜", 500)}

	for _, lang := range []string{"zh", "en", "", "fr"} {
		for _, msg := range inputs {
			if got := kb.Respond(msg, lang); got == "" {
				t.Errorf("Respond(%q, %q) returned empty string", msg, lang)
			}
		}
	}
}

func TestIdentityResponse(t *testing.T) {
	t.Parallel()

	kb := New()
	if kb.IdentityResponse("zh") != responsesZH[TopicIdentity] {
		t.Error("zh identity response mismatch")
	}
	if kb.IdentityResponse("en") != responsesEN[TopicIdentity] {
		t.Error("en identity response mismatch")
	}
}

func TestSuggestLinks(t *testing.T) {
	t.Parallel()

	kb := New()

	tests := []struct {
		name      string
		message   string
		language  string
		wantFirst Link
		wantMax   int
	}{
		{
			name:      "no match falls back to home",
			message:   "今天天氣如何",
			language:  "zh",
			wantFirst: homeLink,
			wantMax:   1,
		},
		{
			name:      "research links",
			message:   "research interests?",
			language:  "en",
			wantFirst: Link{Title: "Research", URL: "/research"},
			wantMax:   3,
		},
		{
			name:      "project links",
			message:   "OpenCDSS 的原始碼在哪",
			language:  "zh",
			wantFirst: Link{Title: "Projects", URL: "/projects"},
			wantMax:   3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			links := kb.SuggestLinks(tt.message, tt.language)
			if len(links) == 0 {
				t.Fatal("SuggestLinks returned no links")
			}
			if len(links) > tt.wantMax {
				t.Errorf("got %d links, want at most %d", len(links), tt.wantMax)
			}
			if links[0] != tt.wantFirst {
				t.Errorf("first link = %+v, want %+v", links[0], tt.wantFirst)
			}
		})
	}
}

func TestNormalizeLanguage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"en", LangEN},
		{"EN", LangEN},
		{"english", LangEN},
		{"zh", LangZH},
		{"", LangZH},
		{"ja", LangZH}, // unknown falls back to site default
	}

	for _, tt := range tests {
		if got := NormalizeLanguage(tt.in); got != tt.want {
			t.Errorf("NormalizeLanguage(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSystemPromptMentionsProfile(t *testing.T) {
	t.Parallel()

	kb := New()
	if !strings.Contains(kb.SystemPrompt("en"), "NeuroSeg") {
		t.Error("en system prompt should mention the named projects")
	}
	if !strings.Contains(kb.SystemPrompt("zh"), "NeuroSeg") {
		t.Error("zh system prompt should mention the named projects")
	}
}
