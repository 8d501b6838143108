package quiz

import "errors"

// Configuration errors leave the machine in CONFIGURING with a visible message.
var (
	ErrNoDocuments   = errors.New("no documents selected")
	ErrNoKinds       = errors.New("no question kinds selected")
	ErrQuestionCount = errors.New("question count out of range")
	ErrTimer         = errors.New("unsupported timer length")
)

// ErrGeneration wraps provider failures during Start.
var ErrGeneration = errors.New("quiz generation failed")

// Transition errors. The machine is unchanged when one is returned.
var (
	ErrIllegalTransition = errors.New("transition not allowed in current state")
	ErrAlreadyAnswered   = errors.New("question already answered")
	ErrBusy              = errors.New("another request is in progress")
	ErrQuizNotFound      = errors.New("quiz not found in history")
	ErrStale             = errors.New("result belongs to an inactive session")
)

var configMessages = map[error]string{
	ErrNoDocuments:   "يرجى تحميل ملف واحد على الأقل.",
	ErrNoKinds:       "يرجى اختيار نوع واحد على الأقل من الأسئلة.",
	ErrQuestionCount: "عدد الأسئلة غير صالح.",
	ErrTimer:         "مدة المؤقت غير مدعومة.",
}
