package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrTokenRequired ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid  ErrCode = "TOKEN_INVALID"
	ErrTokenExpired  ErrCode = "TOKEN_EXPIRED"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Quiz configuration ────────────────────────────────────────────
	ErrNoDocuments      ErrCode = "NO_DOCUMENTS"
	ErrNoQuestionKinds  ErrCode = "NO_QUESTION_KINDS"
	ErrInvalidKind      ErrCode = "INVALID_QUESTION_KIND"
	ErrQuestionCount    ErrCode = "INVALID_QUESTION_COUNT"
	ErrInvalidTimer     ErrCode = "INVALID_TIMER"
	ErrGenerationFailed ErrCode = "GENERATION_FAILED"

	// ─── Quiz flow ─────────────────────────────────────────────────────
	ErrIllegalTransition ErrCode = "ILLEGAL_TRANSITION"
	ErrAlreadyAnswered   ErrCode = "ALREADY_ANSWERED"
	ErrBusy              ErrCode = "REQUEST_IN_PROGRESS"
	ErrQuizNotFound      ErrCode = "QUIZ_NOT_FOUND"

	// ─── Documents ─────────────────────────────────────────────────────
	ErrTooManyFiles    ErrCode = "TOO_MANY_FILES"
	ErrUnsupportedFile ErrCode = "UNSUPPORTED_FILE_TYPE"
	ErrFileTooLarge    ErrCode = "FILE_TOO_LARGE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrTokenRequired:
		return "رمز المصادقة مطلوب."
	case ErrTokenInvalid:
		return "رمز المصادقة غير صالح."
	case ErrTokenExpired:
		return "انتهت صلاحية رمز المصادقة."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "فشل التحقق من البيانات. يرجى مراجعة المدخلات."
	case ErrInvalidID:
		return "صيغة المعرف غير صالحة."
	case ErrInvalidPayload:
		return "بيانات الطلب غير صالحة."

	// ─── Quiz configuration ────────────────────────────────────────────
	case ErrNoDocuments:
		return "يرجى تحميل ملف واحد على الأقل."
	case ErrNoQuestionKinds:
		return "يرجى اختيار نوع واحد على الأقل من الأسئلة."
	case ErrInvalidKind:
		return "نوع السؤال غير معروف."
	case ErrQuestionCount:
		return "عدد الأسئلة غير صالح."
	case ErrInvalidTimer:
		return "مدة المؤقت غير مدعومة."
	case ErrGenerationFailed:
		return "لا يمكن إنشاء الاختبار. يرجى تجربة ملف مختلف أو المحاولة مرة أخرى لاحقًا."

	// ─── Quiz flow ─────────────────────────────────────────────────────
	case ErrIllegalTransition:
		return "هذا الإجراء غير متاح في الشاشة الحالية."
	case ErrAlreadyAnswered:
		return "تمت الإجابة على هذا السؤال بالفعل."
	case ErrBusy:
		return "هناك طلب آخر قيد المعالجة."
	case ErrQuizNotFound:
		return "الاختبار غير موجود في السجل."

	// ─── Documents ─────────────────────────────────────────────────────
	case ErrTooManyFiles:
		return "عدد الملفات يتجاوز الحد المسموح."
	case ErrUnsupportedFile:
		return "نوع الملف غير مدعوم."
	case ErrFileTooLarge:
		return "حجم الملف يتجاوز الحد المسموح."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "طلبات كثيرة جدًا. يرجى المحاولة لاحقًا."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrNotFound:
		return "المورد غير موجود."
	case ErrInternal:
		return "حدث خطأ داخلي في الخادم."
	default:
		return "حدث خطأ غير متوقع."
	}
}
