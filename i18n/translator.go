package i18n

import (
	"golang.org/x/text/language"

	rerrors "github.com/reoring/recjson/internal/errors"
)

// Translator retrieves localized messages for error kinds.
// data provides optional metadata to embed in the message (for example,
// "path" or "offset").
type Translator interface {
	Message(kind rerrors.Kind, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(kind rerrors.Kind, data map[string]string) string {
	msg := t.lookup(kind)
	if p := data["path"]; p != "" {
		if t.lang == "ja" {
			return msg + "（" + p + "）"
		}
		return msg + " (" + p + ")"
	}
	return msg
}

func (t dictTranslator) lookup(kind rerrors.Kind) string {
	switch t.lang {
	case "ja":
		switch kind {
		case rerrors.KindMalformedInput:
			return "JSON の解析エラー"
		case rerrors.KindConversion:
			return "型の変換に失敗しました"
		case rerrors.KindOverflow:
			return "数値が範囲外です"
		case rerrors.KindValidation:
			return "検証に失敗しました"
		case rerrors.KindPrecondition:
			return "呼び出し順序が不正です"
		case rerrors.KindSchema:
			return "スキーマが不正です"
		case rerrors.KindLimit:
			return "上限を超えました"
		case rerrors.KindDuplicateKey:
			return "キーが重複しています"
		}
	default: // "en"
		switch kind {
		case rerrors.KindMalformedInput:
			return "malformed JSON"
		case rerrors.KindConversion:
			return "conversion failed"
		case rerrors.KindOverflow:
			return "number out of range"
		case rerrors.KindValidation:
			return "validation failed"
		case rerrors.KindPrecondition:
			return "call made in the wrong state"
		case rerrors.KindSchema:
			return "invalid schema"
		case rerrors.KindLimit:
			return "limit exceeded"
		case rerrors.KindDuplicateKey:
			return "duplicate key"
		}
	}
	return string(kind)
}

var supported = language.NewMatcher([]language.Tag{language.English, language.Japanese})

// New returns the built-in Translator for lang, a BCP 47 tag such as "ja" or
// "en-US". Unknown or unparsable tags fall back to English.
func New(lang string) Translator {
	tag, err := language.Parse(lang)
	if err != nil {
		return dictTranslator{lang: "en"}
	}
	_, idx, _ := supported.Match(tag)
	if idx == 1 {
		return dictTranslator{lang: "ja"}
	}
	return dictTranslator{lang: "en"}
}

// Describe renders err for end users: the localized kind message followed by
// the original error text. Errors without a kind are returned as is.
func Describe(tr Translator, err error) string {
	if err == nil {
		return ""
	}
	kind := rerrors.KindOf(err)
	if kind == "" {
		return err.Error()
	}
	if tr == nil {
		tr = dictTranslator{lang: "en"}
	}
	return tr.Message(kind, nil) + ": " + err.Error()
}
