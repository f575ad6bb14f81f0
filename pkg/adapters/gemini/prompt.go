package gemini

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/claytonlovin/Botinho/pkg/domain"
)

func textPrompt(q domain.Question, answer string) string {
	return fmt.Sprintf(`Avalie esta resposta em inglês para a pergunta: "%s"

Resposta do aluno: "%s"

Critérios de avaliação:
- Gramática (0-25 pontos)
- Vocabulário (0-25 pontos)
- Fluência/Naturalidade (0-25 pontos)
- Relevância à pergunta (0-25 pontos)

Retorne apenas um JSON no formato:
{
  "answer": "resposta_do_aluno",
  "score": nota_total_0_a_100,
  "feedback": "feedback_breve"
}`, q.Prompt, answer)
}

func audioPrompt(q domain.Question) string {
	return fmt.Sprintf(`Transcreva este áudio em inglês e avalie a resposta para: "%s"

Critérios de avaliação:
- Pronúncia (0-25 pontos)
- Gramática (0-25 pontos)
- Vocabulário (0-25 pontos)
- Fluência (0-25 pontos)

Retorne apenas um JSON no formato:
{
  "transcription": "transcrição_do_áudio",
  "score": nota_total_0_a_100,
  "feedback": "feedback_sobre_pronúncia_e_conteúdo"
}`, q.Prompt)
}

func transcriptPrompt(q domain.Question, transcript string) string {
	return fmt.Sprintf(`Avalie esta resposta falada (já transcrita) em inglês para: "%s"

Transcrição: "%s"

Critérios de avaliação para resposta falada:
- Gramática (0-25 pontos)
- Vocabulário (0-25 pontos)
- Fluência/Naturalidade (0-25 pontos)
- Relevância à pergunta (0-25 pontos)

Nota: Esta é uma transcrição de áudio, então avalie considerando linguagem falada.

Retorne apenas um JSON no formato:
{
  "transcription": "transcrição_fornecida",
  "score": nota_total_0_a_100,
  "feedback": "feedback_sobre_conteúdo_falado"
}`, q.Prompt, transcript)
}

type verdict struct {
	Answer        string          `json:"answer"`
	Transcription string          `json:"transcription"`
	Score         json.RawMessage `json:"score"`
	Feedback      string          `json:"feedback"`
}

// parseEvaluation extracts the JSON verdict from a model reply, tolerating
// markdown fences and surrounding prose.
func parseEvaluation(text string) (domain.Evaluation, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return domain.Evaluation{}, fmt.Errorf("%w: no JSON object in reply", domain.ErrMalformedResponse)
	}

	var v verdict
	if err := json.Unmarshal([]byte(text[start:end+1]), &v); err != nil {
		return domain.Evaluation{}, fmt.Errorf("%w: %w", domain.ErrMalformedResponse, err)
	}

	score, err := parseScore(v.Score)
	if err != nil {
		return domain.Evaluation{}, fmt.Errorf("%w: %w", domain.ErrMalformedResponse, err)
	}

	content := v.Transcription
	if content == "" {
		content = v.Answer
	}
	return domain.Evaluation{Content: content, Score: score, Feedback: v.Feedback}, nil
}

// parseScore accepts 85, 85.5 and "85".
func parseScore(raw json.RawMessage) (int, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, fmt.Errorf("missing score")
	}
	s := strings.Trim(string(raw), `"`)
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid score %s", raw)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("non-finite score %s", raw)
	}
	return int(math.Round(f)), nil
}
