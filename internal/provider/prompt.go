package provider

import (
	"fmt"
	"strings"

	"github.com/stemsi/quizgen/internal/model"
)

func questionPrompt(count int, kinds []model.QuestionKind) string {
	labels := make([]string, len(kinds))
	for i, k := range kinds {
		labels[i] = k.Label()
	}

	return fmt.Sprintf(`بناءً على المستندات المرفقة، قم بإنشاء اختبار من %d سؤالاً باللغة العربية.
يجب أن يتضمن الاختبار أنواع الأسئلة التالية: %s.
- لأسئلة 'اختر الإجابة الصحيحة'، قدم 4 خيارات.
- لأسئلة 'صح أم خطأ'، يجب أن تكون الخيارات 'صحيح' و 'خطأ' فقط.
- لأسئلة 'أكمل الفراغ'، قم بصياغة السؤال بحيث يحتوي على فراغ للإجابة، ويجب أن تكون الإجابة الصحيحة هي الكلمة أو العبارة المفقودة.
- لأسئلة 'فسر ودلل'، قم بصياغة سؤال يتطلب شرحًا مفصلاً، وقدم إجابة صحيحة شاملة.
- تأكد من أن قيمة 'correctAnswer' تطابق تمامًا أحد الخيارات المقدمة لأسئلة الاختيار من متعدد والصح والخطأ.
- يجب أن يكون الاختبار بأكمله (الأسئلة، الخيارات، والإجابات) باللغة العربية الفصحى.`,
		count, strings.Join(labels, ", "))
}

func evaluationPrompt(question, reference, answer string) string {
	return fmt.Sprintf(`أنت مساعد ذكاء اصطناعي يقوم بتقييم إجابات اختبار. قيم إجابة المستخدم بدقة.
السؤال: "%s"
الإجابة الصحيحة النموذجية: "%s"
إجابة المستخدم: "%s"

هل إجابة المستخدم صحيحة أو قريبة بما يكفي من المعنى لتعتبر صحيحة؟
قدم تقييمك بصيغة JSON.`, question, reference, answer)
}
