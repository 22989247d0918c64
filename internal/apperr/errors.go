package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a failure the API reports to clients as-is. It carries an HTTP
// status, a machine code and an English/Arabic message pair.
type Error struct {
	Status int
	Code   string
	EN     string
	AR     string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.EN, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.EN)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on code so callers can compare against the package values below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func (e *Error) Message(lang Lang) string {
	if lang == Arabic && e.AR != "" {
		return e.AR
	}
	return e.EN
}

// Wrap returns a copy of e that records cause.
func (e *Error) Wrap(cause error) *Error {
	c := *e
	c.Err = cause
	return &c
}

// WithDetail returns a copy of e with a suffix appended to both messages.
func (e *Error) WithDetail(detail string) *Error {
	c := *e
	c.EN = e.EN + ": " + detail
	c.AR = e.AR + ": " + detail
	return &c
}

func New(status int, code, en, ar string) *Error {
	return &Error{Status: status, Code: code, EN: en, AR: ar}
}

func NotFound(code, en, ar string) *Error {
	return New(http.StatusNotFound, code, en, ar)
}

func BadRequest(code, en, ar string) *Error {
	return New(http.StatusBadRequest, code, en, ar)
}

func NotAllowed(code, en, ar string) *Error {
	return New(http.StatusNotAcceptable, code, en, ar)
}

var (
	ErrNotFound = NotFound("NOT_FOUND",
		"resource not found", "المورد غير موجود")
	ErrInvalidInput = BadRequest("INVALID_INPUT",
		"invalid input", "مدخلات غير صالحة")
	ErrUnauthenticated = New(http.StatusUnauthorized, "UNAUTHENTICATED",
		"authentication required", "يجب تسجيل الدخول")
	ErrForbidden = New(http.StatusForbidden, "FORBIDDEN",
		"you do not have permission to perform this action", "ليس لديك صلاحية لتنفيذ هذا الإجراء")
	ErrConflict = New(http.StatusConflict, "ALREADY_EXISTS",
		"resource already exists", "المورد موجود بالفعل")
	ErrTooManyRequests = New(http.StatusTooManyRequests, "TOO_MANY_REQUESTS",
		"too many requests, slow down", "طلبات كثيرة جدا، يرجى التمهل")
	ErrInternal = New(http.StatusInternalServerError, "INTERNAL_ERROR",
		"something went wrong", "حدث خطأ ما")

	ErrUserNotFound = NotFound("USER_NOT_FOUND",
		"user not found", "المستخدم غير موجود")
	ErrRoleNotFound = NotFound("ROLE_NOT_FOUND",
		"role not found", "الدور غير موجود")
	ErrVacationNotFound = NotFound("VACATION_NOT_FOUND",
		"vacation not found", "الإجازة غير موجودة")
	ErrCommissionNotFound = NotFound("COMMISSION_NOT_FOUND",
		"commission not found", "العمولة غير موجودة")
	ErrPunishmentNotFound = NotFound("PUNISHMENT_NOT_FOUND",
		"punishment not found", "الجزاء غير موجود")
	ErrPointNotFound = NotFound("POINT_NOT_FOUND",
		"point not found", "النقاط غير موجودة")
	ErrRequestNotFound = NotFound("REQUEST_NOT_FOUND",
		"request not found", "الطلب غير موجود")
	ErrAttachmentNotFound = NotFound("ATTACHMENT_NOT_FOUND",
		"attachment not found", "المرفق غير موجود")
	ErrProductNotFound = NotFound("PRODUCT_NOT_FOUND",
		"product not found", "المنتج غير موجود")
	ErrTargetNotFound = NotFound("TARGET_NOT_FOUND",
		"target not found", "الهدف غير موجود")
	ErrSalaryNotFound = NotFound("SALARY_NOT_FOUND",
		"salary not found", "الراتب غير موجود")

	ErrExceedTotalAllowedDays = BadRequest("EXCEED_TOTAL_ALLOWED_DAYS",
		"requested days exceed the total allowed days", "الأيام المطلوبة تتجاوز إجمالي الأيام المسموح بها")
	ErrInvalidDateRange = BadRequest("INVALID_DATE_RANGE",
		"end date must not be before start date", "تاريخ النهاية يجب ألا يسبق تاريخ البداية")
	ErrNoPointsToWithdraw = BadRequest("NO_POINTS_TO_WITHDRAW",
		"there are no approved points to withdraw", "لا توجد نقاط معتمدة للسحب")
	ErrRequestNotPending = BadRequest("REQUEST_NOT_PENDING",
		"only pending requests can change status", "يمكن تغيير حالة الطلبات المعلقة فقط")
	ErrRequestNotApproved = BadRequest("REQUEST_NOT_APPROVED",
		"only approved requests can be withdrawn", "يمكن سحب الطلبات المعتمدة فقط")
	ErrInvalidFile = BadRequest("INVALID_FILE",
		"uploaded file is invalid", "الملف المرفوع غير صالح")

	ErrRoleIsAssociatedToOtherUsers = NotAllowed("ROLE_IS_ASSOCIATED_TO_OTHER_USERS",
		"role is associated to other users", "الدور مرتبط بمستخدمين آخرين")
	ErrCannotDeleteSelf = NotAllowed("CANNOT_DELETE_SELF",
		"you cannot delete your own account", "لا يمكنك حذف حسابك")
	ErrCannotModifyOwner = NotAllowed("CANNOT_MODIFY_OWNER",
		"only the account owner can change the owner account", "فقط مالك الحساب يمكنه تعديل حساب المالك")
	ErrRequestDecided = NotAllowed("REQUEST_DECIDED",
		"only pending requests can be deleted", "يمكن حذف الطلبات المعلقة فقط")
)

// From extracts the *Error in err's chain, or nil.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}

// StatusOf maps any error to the HTTP status the API responds with.
func StatusOf(err error) int {
	if e := From(err); e != nil {
		return e.Status
	}
	return http.StatusInternalServerError
}
