package assessment

import "github.com/claytonlovin/Botinho/pkg/domain"

const (
	textInstruction  = "Responda em forma de texto"
	audioInstruction = "Responda em áudio - Grave áudio aqui no WhatsApp"
)

// DefaultQuestions returns the fixed five-question assessment:
// two written answers followed by three spoken ones.
func DefaultQuestions() []domain.Question {
	return []domain.Question{
		{
			ID:          1,
			Modality:    domain.ModalityText,
			Prompt:      "Hello, my name is Ellen IA. Please introduce yourself in English.",
			Instruction: textInstruction,
		},
		{
			ID:          2,
			Modality:    domain.ModalityText,
			Prompt:      "Perfect! What is your profession?",
			Instruction: textInstruction,
		},
		{
			ID:          3,
			Modality:    domain.ModalityAudio,
			Prompt:      "What is your biggest dream?",
			Instruction: audioInstruction,
		},
		{
			ID:          4,
			Modality:    domain.ModalityAudio,
			Prompt:      "What is your goal with English?",
			Instruction: audioInstruction,
		},
		{
			ID:       5,
			Modality: domain.ModalityAudio,
			Prompt: "Muito bem. Agora grave um áudio, repetindo a seguinte frase:\n\n" +
				"\"English is one of the most widely spoken languages in the world. I'm looking forward to starting my course soon.\"",
			Instruction: "Grave o áudio repetindo a frase exatamente como mostrada",
		},
	}
}
