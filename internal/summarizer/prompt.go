package summarizer

import (
	"fmt"

	"github.com/dshalev/slide-explainer/constants"
)

// promptTemplates maps style x language to the instruction that precedes
// the slide content.
var promptTemplates = map[constants.SummaryStyle]map[constants.Language]string{
	constants.StyleBeginner: {
		constants.LanguageEnglish: "Explain this PowerPoint slide in simple, easy-to-understand terms. Avoid technical jargon and use everyday language that anyone can follow.",
		constants.LanguageHebrew:  "הסבר את שקף הPowerPoint הזה במילים פשוטות וקלות להבנה. הימנע מטרמינולוגיה טכנית והשתמש בשפה יומיומית.",
		constants.LanguageRussian: "Объясните этот слайд PowerPoint простыми и понятными словами. Избегайте технической терминологии и используйте повседневный язык.",
		constants.LanguageSpanish: "Explique esta diapositiva de PowerPoint con palabras simples y fáciles de entender. Evite la jerga técnica y use lenguaje cotidiano.",
	},
	constants.StyleComprehensive: {
		constants.LanguageEnglish: "Provide a detailed and thorough explanation of this PowerPoint slide. Include all key concepts, important details, relevant context, and any notable implications.",
		constants.LanguageHebrew:  "תן הסבר מפורט ויסודי של שקף PowerPoint זה. כלול את כל המושגים העיקריים, פרטים חשובים, הקשר רלוונטי וכל השלכה ניכרת.",
		constants.LanguageRussian: "Предоставьте подробное и тщательное объяснение этого слайда PowerPoint. Включите все ключевые концепции, важные детали, актуальный контекст и любые значительные последствия.",
		constants.LanguageSpanish: "Proporcione una explicación detallada y exhaustiva de esta diapositiva de PowerPoint. Incluya todos los conceptos clave, detalles importantes, contexto relevante e implicaciones notables.",
	},
	constants.StyleExecutive: {
		constants.LanguageEnglish: "Provide a concise executive summary of this PowerPoint slide in 2-3 sentences. Focus only on the most critical information and main takeaways.",
		constants.LanguageHebrew:  "תן סיכום ביצועי תמציתי של שקף PowerPoint זה ב-2-3 משפטים. התמקד רק במידע הקריטי ביותר והנקודות העיקריות.",
		constants.LanguageRussian: "Предоставьте краткий исполнительный резюме этого слайда PowerPoint в 2-3 предложениях. Сосредоточьтесь только на наиболее важной информации и основных выводах.",
		constants.LanguageSpanish: "Proporcione un resumen ejecutivo conciso de esta diapositiva de PowerPoint en 2-3 oraciones. Enfóquese solo en la información más crítica y los puntos clave.",
	},
}

// BuildPrompt renders the instruction for the request's style and language,
// falling back to comprehensive/English for unknown combinations, and
// appends the slide content.
func BuildPrompt(req Request) string {
	byLang, ok := promptTemplates[req.Style]
	if !ok {
		byLang = promptTemplates[constants.StyleComprehensive]
	}
	base, ok := byLang[req.Language]
	if !ok {
		base = promptTemplates[constants.StyleComprehensive][constants.LanguageEnglish]
	}
	return fmt.Sprintf("%s\n\nSlide content: %s", base, req.SlideText)
}
