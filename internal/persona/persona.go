// Package persona turns stored profile preferences into model instructions
// and generation parameters.
package persona

import (
	"strings"

	"humaine-chatbot/internal/domain/model"
	"humaine-chatbot/internal/domain/ports/adapter"
	"humaine-chatbot/internal/textanalysis"
)

const BasePrompt = "You are a helpful AI assistant."

// Prefs is the subset of a profile that shapes a reply.
type Prefs struct {
	Complexity model.LanguageComplexity
	Style      model.ResponseStyle
	Detail     model.DetailLevel
	// Engagement is "high", "medium", "low" or empty.
	Engagement string
}

func FromProfile(p *model.UserProfile) Prefs {
	if p == nil {
		return Prefs{Complexity: model.ComplexityMedium, Style: model.StyleBalanced, Detail: model.DetailMedium}
	}
	pr := Prefs{
		Complexity: p.PreferredLanguageComplexity,
		Style:      p.PreferredResponseStyle,
		Detail:     p.PreferredDetailLevel,
	}
	if ins := p.CrossSessionInsights; ins != nil && ins.Engagement != nil {
		pr.Engagement = ins.Engagement.EngagementLevel
	}
	return pr
}

var (
	complexityText = map[model.LanguageComplexity]string{
		model.ComplexitySimple:  "Use simple vocabulary and short sentences. Avoid technical jargon.",
		model.ComplexityComplex: "Use advanced vocabulary and detailed explanations. Include technical terms when appropriate.",
	}
	styleText = map[model.ResponseStyle]string{
		model.StyleConversational: "Maintain a friendly and casual tone. Use conversational language.",
		model.StyleProfessional:   "Maintain a formal and professional tone. Use business-appropriate language.",
		model.StyleEnthusiastic:   "Maintain an excited and motivational tone. Show enthusiasm in responses.",
	}
	detailText = map[model.DetailLevel]string{
		model.DetailConcise:  "Provide brief and direct answers. Focus on essential information.",
		model.DetailDetailed: "Provide comprehensive explanations with examples and context.",
	}
	engagementText = map[string]string{
		"high": "This user is highly engaged. Provide detailed and interactive responses.",
		"low":  "This user may have limited engagement. Keep responses concise and clear.",
	}
)

const (
	defaultComplexityText = "Use standard vocabulary and balanced explanations."
	defaultStyleText      = "Maintain a balanced and neutral tone."
	defaultDetailText     = "Provide balanced explanations with appropriate detail."
)

// SystemPrompt is the base instruction followed by one sentence per preference.
func SystemPrompt(p Prefs) string {
	parts := []string{BasePrompt, pick(complexityText, p.Complexity, defaultComplexityText),
		pick(styleText, p.Style, defaultStyleText), pick(detailText, p.Detail, defaultDetailText)}
	if s, ok := engagementText[p.Engagement]; ok {
		parts = append(parts, s)
	}
	return strings.Join(parts, " ")
}

func pick[K comparable](m map[K]string, k K, def string) string {
	if s, ok := m[k]; ok {
		return s
	}
	return def
}

// Options maps preferences to completion parameters.
func Options(p Prefs) adapter.GenerateOptions {
	o := adapter.GenerateOptions{MaxTokens: 1000, Temperature: 0.7}
	switch p.Detail {
	case model.DetailConcise:
		o.MaxTokens = 500
	case model.DetailDetailed:
		o.MaxTokens = 1500
	}
	switch p.Style {
	case model.StyleConversational:
		o.Temperature = 0.8
	case model.StyleProfessional:
		o.Temperature = 0.5
	case model.StyleEnthusiastic:
		o.Temperature = 0.9
	}
	if p.Complexity == model.ComplexityComplex {
		o.MaxTokens = min(o.MaxTokens+200, 2000)
	}
	return o
}

// FromSystemPrompt recovers preferences from a prompt built by SystemPrompt.
// Unknown sentences fall back to the medium/balanced defaults.
func FromSystemPrompt(s string) Prefs {
	p := Prefs{Complexity: model.ComplexityMedium, Style: model.StyleBalanced, Detail: model.DetailMedium}
	for k, v := range complexityText {
		if strings.Contains(s, v) {
			p.Complexity = k
		}
	}
	for k, v := range styleText {
		if strings.Contains(s, v) {
			p.Style = k
		}
	}
	for k, v := range detailText {
		if strings.Contains(s, v) {
			p.Detail = k
		}
	}
	for k, v := range engagementText {
		if strings.Contains(s, v) {
			p.Engagement = k
		}
	}
	return p
}

// RemediationPrompt asks the model to improve an answer the user rated down.
func RemediationPrompt(response string) string {
	return "The user was not satisfied with the following answer. " +
		"Provide an improved, clearer answer to the same question.\n\nPrevious answer:\n" + response
}

// OfflineReply is a canned personalised reply used when no model is configured.
func OfflineReply(text string, p Prefs) string {
	words := map[string]bool{}
	for _, w := range textanalysis.Words(text) {
		words[w] = true
	}
	has := func(ws ...string) bool {
		for _, w := range ws {
			if words[w] {
				return true
			}
		}
		return false
	}
	switch {
	case strings.Contains(strings.ToLower(text), "how are you"):
		return "I'm doing great, thanks for asking! 😊 What would you like to chat about?"
	case has("hi", "hello", "hey"):
		return "Hi there! 👋 How can I help you today?"
	case has("rich", "money", "wealth"):
		switch p.Detail {
		case model.DetailConcise:
			return "Building wealth takes time and smart choices. Focus on saving, investing, and developing valuable skills. What specific area interests you most?"
		case model.DetailDetailed:
			return "Great question! Building wealth involves several key strategies: 1) Save consistently (aim for 20% of income), 2) Invest in diversified assets, 3) Develop high-value skills, 4) Start a business if you're entrepreneurial, and 5) Avoid lifestyle inflation. Which of these areas would you like to explore further?"
		}
		return "Building wealth is about smart financial habits. Start with saving, then learn about investing. What's your current financial situation?"
	case has("help"):
		return "I'm here to help! What topic would you like to discuss? I can help with questions about finance, technology, general knowledge, or just have a friendly chat."
	}
	switch p.Style {
	case model.StyleConversational:
		switch p.Detail {
		case model.DetailConcise:
			return "That's an interesting question about '" + text + "'! I'd be happy to help. What specifically would you like to know?"
		case model.DetailDetailed:
			return "Great question! '" + text + "' is a fascinating topic. I'd love to dive deep into this with you. What aspect interests you most?"
		}
		return "Thanks for asking about '" + text + "'! I'd be glad to help you understand this better. What would you like to know?"
	case model.StyleProfessional:
		if p.Detail == model.DetailConcise {
			return "Regarding your question about '" + text + "', I can provide a focused response. What specific information are you seeking?"
		}
		return "Your inquiry about '" + text + "' is well-timed. I'd be happy to provide comprehensive information. What aspects would you like me to cover?"
	}
	return "I appreciate your question about '" + text + "'. How can I best assist you with this topic?"
}
