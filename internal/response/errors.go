package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrSignUpFailed       ErrCode = "SIGN_UP_FAILED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrInstructorOnly ErrCode = "INSTRUCTOR_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation       ErrCode = "VALIDATION_ERROR"
	ErrInvalidID        ErrCode = "INVALID_ID"
	ErrSelectionMissing ErrCode = "SUBJECT_AND_GROUP_REQUIRED"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound        ErrCode = "NOT_FOUND"
	ErrCourseNotFound  ErrCode = "COURSE_NOT_FOUND"
	ErrDraftNotFound   ErrCode = "DRAFT_NOT_FOUND"
	ErrAttemptNotFound ErrCode = "ATTEMPT_NOT_FOUND"

	// ─── Test authoring ────────────────────────────────────────────────
	ErrDraftRule        ErrCode = "DRAFT_RULE_VIOLATION"
	ErrDraftIncomplete  ErrCode = "DRAFT_INCOMPLETE"
	ErrSubmitInProgress ErrCode = "SUBMIT_IN_PROGRESS"

	// ─── Test taking ───────────────────────────────────────────────────
	ErrQuestionsUnavailable ErrCode = "QUESTIONS_UNAVAILABLE"
	ErrAnswersIncomplete    ErrCode = "ANSWERS_INCOMPLETE"
	ErrAnswerInvalid        ErrCode = "ANSWER_INVALID"
	ErrAttemptFinished      ErrCode = "ATTEMPT_FINISHED"
	ErrTestAlreadyTaken     ErrCode = "TEST_ALREADY_TAKEN"

	// ─── Upstream ──────────────────────────────────────────────────────
	ErrLoadFailed         ErrCode = "LOAD_FAILED"
	ErrCourseCreateFailed ErrCode = "COURSE_CREATE_FAILED"
	ErrMaterialFailed     ErrCode = "MATERIAL_CREATE_FAILED"
	ErrLessonFailed       ErrCode = "LESSON_CREATE_FAILED"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Ошибка при входе. Проверьте email и пароль."
	case ErrSignUpFailed:
		return "Ошибка при регистрации. Проверьте введенные данные."
	case ErrTokenRequired:
		return "Требуется авторизация."
	case ErrTokenInvalid:
		return "Сессия истекла. Войдите снова."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrInstructorOnly:
		return "Действие доступно только преподавателю."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Пожалуйста, заполните все поля"
	case ErrInvalidID:
		return "Неверный формат идентификатора."
	case ErrSelectionMissing:
		return "Пожалуйста, выберите предмет и группу"

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Не найдено."
	case ErrCourseNotFound:
		return "Курс не найден"
	case ErrDraftNotFound:
		return "Создание теста не начато."
	case ErrAttemptNotFound:
		return "Тест не начат."

	// ─── Test authoring ────────────────────────────────────────────────
	case ErrDraftRule:
		return "Недопустимое изменение теста."
	case ErrDraftIncomplete:
		return "Заполните все обязательные поля"
	case ErrSubmitInProgress:
		return "Сохранение уже выполняется."

	// ─── Test taking ───────────────────────────────────────────────────
	case ErrQuestionsUnavailable:
		return "Не удалось загрузить вопросы теста"
	case ErrAnswersIncomplete:
		return "Ответьте на все вопросы."
	case ErrAnswerInvalid:
		return "Такого варианта ответа нет."
	case ErrAttemptFinished:
		return "Ответы уже отправлены."
	case ErrTestAlreadyTaken:
		return "Тест пройден"

	// ─── Upstream ──────────────────────────────────────────────────────
	case ErrLoadFailed:
		return "Ошибка при загрузке данных"
	case ErrCourseCreateFailed:
		return "Ошибка при добавлении предмета"
	case ErrMaterialFailed:
		return "Ошибка при добавлении материала"
	case ErrLessonFailed:
		return "Ошибка при добавлении лекции"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Слишком много попыток. Повторите позже."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Внутренняя ошибка сервера."
	default:
		return "Непредвиденная ошибка."
	}
}
