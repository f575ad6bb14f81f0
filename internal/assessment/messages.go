package assessment

import (
	"fmt"
	"math"

	"github.com/claytonlovin/Botinho/pkg/domain"
)

const (
	msgNotStarted = "🤖 Avaliação não iniciada. Digite *iniciar* para começar."

	msgCancelled = "🛑 Avaliação cancelada.\n\n" +
		"Digite *iniciar* para começar uma nova avaliação quando quiser.\n\n" +
		"👋 Até mais!"

	msgRateLimited = "🚫 *Estamos processando muita informação*\n\n" +
		"Atingimos o limite de solicitações por minuto. Sua avaliação ficará pausada.\n\n" +
		"⏰ Tente novamente mais tarde: ela continua de onde parou."

	msgResumed = "▶️ Avaliação retomada!"

	msgTimeout = "⏰ *Tempo esgotado!*\n\n" +
		"A avaliação foi finalizada por falta de resposta.\n" +
		"Digite *iniciar* se quiser tentar novamente.\n\n" +
		"Obrigada!"

	msgOracleFailed = "🤖 Erro ao processar sua resposta. Pode tentar novamente?"
	msgEmptyAnswer  = "🤖 Não consegui entender. Pode responder à pergunta atual?"
	msgRecorded     = "✅ Resposta registrada!"

	msgHelp = "🤖 *Comandos disponíveis:*\n\n" +
		"• *iniciar* - Começar avaliação\n" +
		"• *parar* - Cancelar avaliação\n" +
		"• *status* - Ver progresso\n" +
		"• *resultado* - Ver resultado final\n" +
		"• *sair* - Encerrar a conversa\n\n" +
		"📝 Durante a avaliação, responda as perguntas em inglês!"

	msgNoStatus = "📊 Nenhuma avaliação ativa.\n\nDigite *iniciar* para começar!"
	msgNoResult = "📊 Nenhum resultado encontrado.\n\nComplete uma avaliação primeiro!"
)

func renderQuestion(q domain.Question, total int) string {
	return fmt.Sprintf("📝 *Pergunta %d/%d*\n\n%s\n\n*%s*", q.ID, total, q.Prompt, q.Instruction)
}

func renderWrongModality(q domain.Question) string {
	want := "texto"
	if q.Modality == domain.ModalityAudio {
		want = "áudio"
	}
	return fmt.Sprintf("⚠️ Esta pergunta precisa ser respondida em *%s*. %s", want, q.Instruction)
}

func renderStatus(st *domain.Assessment, total int) string {
	return fmt.Sprintf("📊 *Status da Avaliação*\n\n"+
		"📝 Pergunta atual: %d/%d\n"+
		"⏰ Iniciada: %s\n\n"+
		"Continue respondendo à pergunta atual!",
		st.CurrentQuestion, total, st.StartedAt.Format("15:04:05"))
}

func renderFinished(r *domain.AssessmentResult) string {
	return fmt.Sprintf("🎉 *Avaliação Concluída!*\n\n"+
		"📊 *Sua pontuação final: %d/100*\n"+
		"📈 *Nível estimado: %s*\n\n"+
		"Obrigada por participar da avaliação! "+
		"Em breve você receberá mais informações sobre o curso.\n\n"+
		"👋 Tenha um ótimo dia!", r.AverageScore, r.Level)
}

func renderResult(r *domain.AssessmentResult) string {
	return fmt.Sprintf("🎯 *Seu Resultado Final*\n\n"+
		"📊 Pontuação: %d/100\n"+
		"📈 Nível: %s\n"+
		"⏱️ Duração: %d minutos\n\n"+
		"🎉 Parabéns por completar a avaliação!",
		r.AverageScore, r.Level, int(math.Round(r.Duration.Minutes())))
}
