package contact

import "fmt"

var subjectTemplates = map[string]string{
	"English":   "Answer to your question in English from %s",
	"Español":   "Respuesta a su pregunta en español desde %s",
	"Français":  "Répondez à votre question en français de %s",
	"Português": "Responda a sua pergunta em português da %s",
	"Italiano":  "Rispondi alla tua domanda in italiano dal %s",
	"Deutsch":   "Antworten zu Ihrer Frage auf Deutsch von %s",
}

// Subject builds the email subject in the submitter's language.
func Subject(f *Form) string {
	if f.Language == nil {
		return fmt.Sprintf("Unable to determine language, the listener is from %s", f.Country)
	}

	tmpl, ok := subjectTemplates[*f.Language]
	if !ok {
		return "Unable to determine language and location"
	}

	return fmt.Sprintf(tmpl, f.Country)
}

// Body renders the plain-text email body.
func Body(f *Form) string {
	return fmt.Sprintf("Name: %s\n\nLocation: %s\n\nEmail: %s\n\nMessage: %s",
		f.Name, f.Country, f.Email, f.Message)
}
