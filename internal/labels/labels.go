// Package labels renders user-facing text for the board in English or Vietnamese.
package labels

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"

	"github.com/Makepad-fr/taskboard/internal/model"
)

const (
	LanguageEn = "en"
	LanguageVi = "vi"
)

// Supported lists the languages with a message file.
var Supported = []string{LanguageEn, LanguageVi}

//go:embed locales/*.toml
var locales embed.FS

var emptyIcons = map[model.Status]string{
	model.StatusNew:       "📭",
	model.StatusWorking:   "💤",
	model.StatusCompleted: "🎉",
	model.StatusRecheck:   "👍",
}

// Labels localizes board text for one language.
type Labels struct {
	lang      string
	localizer *i18n.Localizer
}

// New loads the embedded message files and picks lang, falling back to English.
func New(lang string) (*Labels, error) {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	files, err := fs.Glob(locales, "locales/*.toml")
	if err != nil {
		return nil, fmt.Errorf("list locales: %w", err)
	}
	for _, f := range files {
		if _, err := bundle.LoadMessageFileFS(locales, f); err != nil {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		lang = LanguageEn
	}
	return &Labels{
		lang:      lang,
		localizer: i18n.NewLocalizer(bundle, lang, LanguageEn),
	}, nil
}

// MustNew is New for callers that only pass known languages.
func MustNew(lang string) *Labels {
	l, err := New(lang)
	if err != nil {
		panic(err)
	}
	return l
}

func (l *Labels) Lang() string { return l.lang }

// T localizes id; missing messages fall back to the id itself.
func (l *Labels) T(id string, data map[string]any) string {
	msg, err := l.localizer.Localize(&i18n.LocalizeConfig{MessageID: id, TemplateData: data})
	if err != nil {
		return id
	}
	return msg
}

func (l *Labels) Status(s model.Status) string {
	if !s.Valid() {
		return string(s)
	}
	return l.T("status_"+string(s), nil)
}

func (l *Labels) Priority(p model.Priority) string {
	return l.known("priority_", string(p), p == model.PriorityLow || p == model.PriorityMedium || p == model.PriorityHigh)
}

// PriorityText is the long form used as a tooltip-like hint.
func (l *Labels) PriorityText(p model.Priority) string {
	return l.known("priority_text_", string(p), p == model.PriorityLow || p == model.PriorityMedium || p == model.PriorityHigh)
}

// Assignee labels the four team members; anyone else is shown verbatim.
func (l *Labels) Assignee(a model.Assignee) string {
	known := false
	for _, v := range model.Assignees {
		if v == a {
			known = true
			break
		}
	}
	return l.known("assignee_", string(a), known)
}

func (l *Labels) Filter(f string) string {
	if f == "" || f == "all" {
		return l.T("filter_all", nil)
	}
	return l.Assignee(model.Assignee(f))
}

// EmptyIcon is drawn in a column with no cards.
func (l *Labels) EmptyIcon(s model.Status) string {
	if icon, ok := emptyIcons[s]; ok {
		return icon
	}
	return emptyIcons[model.StatusNew]
}

// TimeAgo renders how long before now t was; a week or more shows the date.
func (l *Labels) TimeAgo(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	diff := int(now.Sub(t).Seconds())
	switch {
	case diff < 60:
		return l.T("time_just_now", nil)
	case diff < 3600:
		return l.T("time_minutes", map[string]any{"Count": diff / 60})
	case diff < 86400:
		return l.T("time_hours", map[string]any{"Count": diff / 3600})
	case diff < 604800:
		return l.T("time_days", map[string]any{"Count": diff / 86400})
	}
	return t.Local().Format(l.T("date_layout", nil))
}

// DateTime is the full timestamp shown in the detail view.
func (l *Labels) DateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(l.T("datetime_layout", nil))
}

func (l *Labels) known(prefix, value string, ok bool) string {
	if !ok {
		return value
	}
	return l.T(prefix+value, nil)
}
