package session

import (
	"regexp"
	"strings"
)

var mentionPattern = regexp.MustCompile(`@\w+`)

// groupReplies is checked in order; the first keyword found wins.
var groupReplies = []struct{ keyword, reply string }{
	{"oi", "👋 Olá! Me mande uma mensagem privada para fazer sua avaliação de inglês!"},
	{"olá", "👋 Oi! Me mande uma mensagem privada para começar sua avaliação!"},
	{"hello", "👋 Hello! Send me a private message to start your English assessment!"},
	{"ajuda", "🤖 Estou aqui para avaliar seu inglês! Me mande uma mensagem privada."},
	{"obrigado", "😊 De nada! Sempre às ordens!"},
	{"thanks", "😊 You're welcome!"},
}

const groupDefaultReply = "🤖 Oi! Me mande uma mensagem privada para fazer sua avaliação de inglês! 😊"

// IsGroup reports whether identity addresses a group chat.
func IsGroup(identity string) bool {
	return strings.HasSuffix(identity, "@g.us")
}

// GroupReply returns the canned answer to a group message. Only short
// messages (mentions removed) are matched against keywords.
func GroupReply(text string) string {
	clean := strings.TrimSpace(mentionPattern.ReplaceAllString(strings.ToLower(strings.TrimSpace(text)), ""))
	if len(clean) < 10 {
		for _, r := range groupReplies {
			if strings.Contains(clean, r.keyword) {
				return r.reply
			}
		}
	}
	return groupDefaultReply
}
