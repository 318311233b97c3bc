// Package knowledge provides the deterministic, provider-independent
// responder for the portfolio assistant.
//
// It answers from a static, language-keyed fact store about the site
// owner. Matching is first-match-wins over an explicitly ordered list of
// keyword groups per language — the ordering is the tie-break, there is
// no scoring. Respond is total: it always returns a non-empty string.
package knowledge

import "strings"

// Supported response languages.
const (
	LangZH = "zh"
	LangEN = "en"
)

// Topic identifiers, in priority order.
const (
	TopicIdentity     = "identity"
	TopicResearch     = "research"
	TopicProjects     = "projects"
	TopicPublications = "publications"
	TopicContact      = "contact"
	TopicDefault      = "default"
)

// Link is a suggested related page on the portfolio site.
type Link struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// topic pairs a response key with the keywords that select it.
// Keywords are matched as lowercase substrings of the normalized message.
type topic struct {
	name     string
	keywords []string
}

// Ordered keyword groups. First match wins, so identity outranks
// research, research outranks the named projects, and so on.
// Both scripts are listed for zh so Simplified input matches
// Traditional keyword sets.
var topicsByLanguage = map[string][]topic{
	LangZH: {
		{TopicIdentity, []string{"介紹", "介绍", "你自己", "你是誰", "你是谁", "自我", "什麼人", "什么人"}},
		{TopicResearch, []string{"研究", "方向", "領域", "领域", "興趣", "兴趣", "醫學影像", "医学影像", "機器學習", "机器学习"}},
		{TopicProjects, []string{"neuroseg", "opencdss", "專案", "专案", "項目", "项目", "系統", "系统", "平台"}},
		{TopicPublications, []string{"論文", "论文", "發表", "发表", "期刊", "著作", "專利", "专利"}},
		{TopicContact, []string{"聯絡", "联络", "聯繫", "联系", "信箱", "郵件", "邮件", "email"}},
	},
	LangEN: {
		{TopicIdentity, []string{"who are you", "introduce", "yourself", "about you", "about the owner"}},
		{TopicResearch, []string{"research", "interest", "field", "area", "medical imaging", "machine learning"}},
		{TopicProjects, []string{"neuroseg", "opencdss", "project", "system", "platform", "tool"}},
		{TopicPublications, []string{"paper", "publication", "journal", "patent", "publish"}},
		{TopicContact, []string{"contact", "email", "reach", "office"}},
	},
}

// linksByTopic maps topics to suggested site pages.
var linksByTopic = map[string][]Link{
	TopicIdentity:     {{Title: "Home", URL: "/"}, {Title: "About", URL: "/about"}, {Title: "CV", URL: "/cv"}},
	TopicResearch:     {{Title: "Research", URL: "/research"}, {Title: "Publications", URL: "/publications"}},
	TopicProjects:     {{Title: "Projects", URL: "/projects"}, {Title: "Blog", URL: "/blog"}},
	TopicPublications: {{Title: "Publications", URL: "/publications"}, {Title: "Patents", URL: "/patents"}},
	TopicContact:      {{Title: "Contact", URL: "/contact"}},
}

// homeLink is the fallback suggestion when nothing matches.
var homeLink = Link{Title: "Home", URL: "/"}

// maxSuggestedLinks caps SuggestLinks output.
const maxSuggestedLinks = 3

// Base is the static knowledge responder. The zero value is not useful;
// use New.
type Base struct{}

// New creates the knowledge base.
func New() *Base {
	return &Base{}
}

// NormalizeLanguage maps a client-supplied language code to a supported
// one. Unknown or empty values fall back to Chinese — the site is
// Chinese-first.
func NormalizeLanguage(lang string) string {
	switch strings.ToLower(strings.TrimSpace(lang)) {
	case LangEN, "en-us", "english":
		return LangEN
	default:
		return LangZH
	}
}

// Respond returns the canned answer for the first topic whose keywords
// match the message, or the default answer when nothing matches.
// Always returns a non-empty string.
func (b *Base) Respond(message, language string) string {
	language = NormalizeLanguage(language)
	return responseFor(language, b.matchTopic(message, language))
}

// IdentityResponse returns the self-introduction template directly.
// The arbiter uses it when a provider answer is too thin to keep.
func (b *Base) IdentityResponse(language string) string {
	return responseFor(NormalizeLanguage(language), TopicIdentity)
}

// SuggestLinks returns up to three related site pages for the message,
// using the same keyword groups as Respond. When nothing matches, it
// suggests the home page.
func (b *Base) SuggestLinks(message, language string) []Link {
	language = NormalizeLanguage(language)

	name := b.matchTopic(message, language)
	links, ok := linksByTopic[name]
	if !ok || len(links) == 0 {
		return []Link{homeLink}
	}

	if len(links) > maxSuggestedLinks {
		links = links[:maxSuggestedLinks]
	}
	out := make([]Link, len(links))
	copy(out, links)
	return out
}

// matchTopic returns the first matching topic name, or TopicDefault.
func (b *Base) matchTopic(message, language string) string {
	normalized := strings.ToLower(strings.TrimSpace(message))

	for _, t := range topicsByLanguage[language] {
		for _, kw := range t.keywords {
			if strings.Contains(normalized, kw) {
				return t.name
			}
		}
	}
	return TopicDefault
}

// responseFor looks up the template, falling back to the default topic
// and then to English so the result is never empty.
func responseFor(language, name string) string {
	if msg, ok := responsesByLanguage[language][name]; ok {
		return msg
	}
	if msg, ok := responsesByLanguage[language][TopicDefault]; ok {
		return msg
	}
	return responsesByLanguage[LangEN][TopicDefault]
}
