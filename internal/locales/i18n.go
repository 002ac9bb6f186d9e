package locales

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"
)

//go:embed *.json
var localeFS embed.FS

// Message ids shared by the controllers and the renderers.
const (
	FormTitle                    = "FormTitle"
	FormSubtitle                 = "FormSubtitle"
	FormRatingPrompt             = "FormRatingPrompt"
	FormRatingText               = "FormRatingText"
	FormReviewLabel              = "FormReviewLabel"
	FormCharCount                = "FormCharCount"
	FormSubmitting               = "FormSubmitting"
	ErrSelectRating              = "ErrSelectRating"
	ErrWriteReview               = "ErrWriteReview"
	ErrSubmitFailed              = "ErrSubmitFailed"
	SuccessTitle                 = "SuccessTitle"
	SuccessResponseLabel         = "SuccessResponseLabel"
	DashboardTitle               = "DashboardTitle"
	DashboardLastUpdate          = "DashboardLastUpdate"
	DashboardRefreshing          = "DashboardRefreshing"
	DashboardTotal               = "DashboardTotal"
	DashboardMatching            = "DashboardMatching"
	DashboardRatingCard          = "DashboardRatingCard"
	DashboardSubmissions         = "DashboardSubmissions"
	DashboardSubmissionsFiltered = "DashboardSubmissionsFiltered"
	DashboardEmpty               = "DashboardEmpty"
	DashboardReview              = "DashboardReview"
	DashboardSummary             = "DashboardSummary"
	DashboardActions             = "DashboardActions"
	ErrFetchFailed               = "ErrFetchFailed"
)

// Translator resolves message ids for one language, falling back to English.
type Translator struct {
	localizer *i18n.Localizer
	fallback  *i18n.Localizer
	logger    *logrus.Logger
}

func newBundle() (*i18n.Bundle, error) {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir(".")
	if err != nil {
		return nil, fmt.Errorf("fail to read embedded locales: %w", err)
	}
	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		if _, err := bundle.LoadMessageFileFS(localeFS, entry.Name()); err != nil {
			return nil, fmt.Errorf("fail to load message file %s: %w", entry.Name(), err)
		}
		loaded++
	}
	if loaded == 0 {
		return nil, fmt.Errorf("no message files embedded")
	}
	return bundle, nil
}

// NewTranslator accepts language tags such as "en", "ru" or an Accept-Language value.
func NewTranslator(logger *logrus.Logger, langPrefs ...string) (*Translator, error) {
	bundle, err := newBundle()
	if err != nil {
		return nil, err
	}
	for _, pref := range langPrefs {
		if _, err := language.Parse(pref); err != nil {
			logger.WithField("locale", pref).Warn("unknown locale, English will be used")
		}
	}
	return &Translator{
		localizer: i18n.NewLocalizer(bundle, langPrefs...),
		fallback:  i18n.NewLocalizer(bundle, language.English.String()),
		logger:    logger,
	}, nil
}

// English is the translator used by tests and as the last resort.
func English(logger *logrus.Logger) *Translator {
	t, err := NewTranslator(logger, language.English.String())
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Translator) T(msgID string) string {
	return t.Tf(msgID, nil)
}

func (t *Translator) Tf(msgID string, data map[string]interface{}) string {
	cfg := &i18n.LocalizeConfig{
		MessageID:    msgID,
		TemplateData: data,
	}
	msg, err := t.localizer.Localize(cfg)
	if err == nil {
		return msg
	}
	t.logger.WithError(err).WithField("message_id", msgID).Warn("fail to localize message")

	if msg, err := t.fallback.Localize(cfg); err == nil {
		return msg
	}
	return msgID
}
