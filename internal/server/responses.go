package server

import (
	"encoding/json"
	"errors"
	"net/http"

	apperr "github.com/Ayman482/nile-dose-cafe-website/internal/errors"
	"github.com/Ayman482/nile-dose-cafe-website/internal/models"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

type errorClass int

const (
	classValidation errorClass = iota
	classUnauthorized
	classInsufficientBalance
	classForbidden
	classNotFound
	classRewardUnavailable
	classConflict
	classRateLimited
	classInternal
)

var classes = []struct {
	sentinel error
	class    errorClass
	status   int
}{
	{apperr.ErrValidation, classValidation, http.StatusBadRequest},
	{apperr.ErrUnauthorized, classUnauthorized, http.StatusUnauthorized},
	{apperr.ErrInsufficientBalance, classInsufficientBalance, http.StatusPaymentRequired},
	{apperr.ErrForbidden, classForbidden, http.StatusForbidden},
	{apperr.ErrNotFound, classNotFound, http.StatusNotFound},
	{apperr.ErrRewardUnavailable, classRewardUnavailable, http.StatusConflict},
	{apperr.ErrConflict, classConflict, http.StatusConflict},
	{apperr.ErrRateLimited, classRateLimited, http.StatusTooManyRequests},
}

var messages = map[string]map[errorClass]string{
	"en": {
		classValidation:          "The request is invalid.",
		classUnauthorized:        "Please sign in to continue.",
		classInsufficientBalance: "You do not have enough points for this reward.",
		classForbidden:           "You are not allowed to do this.",
		classNotFound:            "We could not find what you were looking for.",
		classRewardUnavailable:   "This reward is no longer available.",
		classConflict:            "This already exists.",
		classRateLimited:         "Too many requests, please try again shortly.",
		classInternal:            "Something went wrong on our side, please try again later.",
	},
	"ar": {
		classValidation:          "الطلب غير صالح.",
		classUnauthorized:        "يرجى تسجيل الدخول للمتابعة.",
		classInsufficientBalance: "ليس لديك نقاط كافية لهذه المكافأة.",
		classForbidden:           "غير مسموح لك بهذا الإجراء.",
		classNotFound:            "لم نتمكن من العثور على ما تبحث عنه.",
		classRewardUnavailable:   "هذه المكافأة لم تعد متاحة.",
		classConflict:            "هذا موجود بالفعل.",
		classRateLimited:         "طلبات كثيرة جدا، يرجى المحاولة بعد قليل.",
		classInternal:            "حدث خطأ من جانبنا، يرجى المحاولة لاحقا.",
	},
}

var (
	supportedLocales = []string{"en", "ar"}
	localeMatcher    = language.NewMatcher([]language.Tag{language.English, language.Arabic})
)

// localeFrom prefers ?locale= over Accept-Language and defaults to English.
func localeFrom(r *http.Request) string {
	_, index, confidence := localeMatcher.Match(parseTags(r.URL.Query().Get("locale"), r.Header.Get("Accept-Language"))...)
	if confidence == language.No {
		return models.DefaultLocale
	}
	return supportedLocales[index]
}

func parseTags(locale, acceptLanguage string) []language.Tag {
	var tags []language.Tag
	if tag, err := language.Parse(locale); err == nil {
		tags = append(tags, tag)
	}
	if accepted, _, err := language.ParseAcceptLanguage(acceptLanguage); err == nil {
		tags = append(tags, accepted...)
	}
	return tags
}

// localize returns the user-facing text for class. English speakers also
// get the detail carried by the error when there is one.
func localize(locale string, class errorClass, detail string) string {
	text, ok := messages[locale]
	if !ok {
		text = messages[models.DefaultLocale]
	}
	if locale == models.DefaultLocale && detail != "" && class != classInternal {
		return detail
	}
	return text[class]
}

func classify(err error) (errorClass, int) {
	for _, c := range classes {
		if errors.Is(err, c.sentinel) {
			return c.class, c.status
		}
	}
	return classInternal, http.StatusInternalServerError
}

func (ls *ServerSystem) respond(w http.ResponseWriter, status int, data any) {
	ls.writeResult(w, status, models.OK(data))
}

func (ls *ServerSystem) fail(w http.ResponseWriter, r *http.Request, err error) {
	class, status := classify(err)
	if class == classInternal {
		ls.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	ls.writeFailure(w, status, localize(localeFrom(r), class, apperr.Message(err)))
}

func (ls *ServerSystem) writeFailure(w http.ResponseWriter, status int, msg string) {
	ls.writeResult(w, status, models.Fail(msg))
}

func (ls *ServerSystem) writeResult(w http.ResponseWriter, status int, result models.Result) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		ls.log.Warn("failed to write response", zap.Error(err))
	}
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return apperr.Validation("malformed request body: %v", err)
	}
	return nil
}
