package i18n

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	rerrors "github.com/reoring/recjson/internal/errors"
)

func TestTranslator_DefaultAndJapanese(t *testing.T) {
	en := New("en")
	assert.Equal(t, "number out of range", en.Message(rerrors.KindOverflow, nil))
	assert.Equal(t, "validation failed (zip)", en.Message(rerrors.KindValidation, map[string]string{"path": "zip"}))

	ja := New("ja-JP")
	assert.Equal(t, "数値が範囲外です", ja.Message(rerrors.KindOverflow, nil))

	for _, lang := range []string{"", "fr", "not a tag"} {
		assert.Equal(t, "malformed JSON", New(lang).Message(rerrors.KindMalformedInput, nil), lang)
	}
}

func TestTranslatorCoversEveryKind(t *testing.T) {
	kinds := []rerrors.Kind{
		rerrors.KindMalformedInput, rerrors.KindConversion, rerrors.KindOverflow, rerrors.KindValidation,
		rerrors.KindPrecondition, rerrors.KindSchema, rerrors.KindLimit, rerrors.KindDuplicateKey,
	}
	for _, lang := range []string{"en", "ja"} {
		tr := New(lang)
		for _, k := range kinds {
			assert.NotEqual(t, string(k), tr.Message(k, nil), "%s/%s", lang, k)
		}
	}
	assert.Equal(t, "mystery", New("en").Message("mystery", nil))
}

func TestDescribe(t *testing.T) {
	err := fmt.Errorf("convert: %w", rerrors.NewOverflowError("1e999"))
	assert.Equal(t, `number out of range: convert: overflow: number "1e999" out of range`, Describe(New("en"), err))
	assert.Equal(t, "plain", Describe(New("ja"), errors.New("plain")))
	assert.Equal(t, "", Describe(nil, nil))
}
