package content

import (
	"testing"

	"github.com/dgallion1/citegest/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

type promptData struct {
	Topic string
	Label string
}

func TestRegistryRender(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Key{Mode: "m", ContentType: Tweet}, "Tweet about {{.Topic}} citing {{lower .Label}}s."))
	require.NoError(t, r.Register(Key{Mode: "m", ContentType: Tweet, Language: "af"}, "Twiet oor {{.Topic}}."))

	out, err := r.Render("m", Tweet, language.English, promptData{"dignity", "Section"})
	require.NoError(t, err)
	assert.Equal(t, "Tweet about dignity citing sections.", out)

	// Regional tag falls back to its base language template.
	out, err = r.Render("m", Tweet, language.MustParse("af-ZA"), promptData{Topic: "waardigheid"})
	require.NoError(t, err)
	assert.Equal(t, "Twiet oor waardigheid.", out)

	// en-GB uses the English template without an instruction.
	out, err = r.Render("m", Tweet, language.BritishEnglish, promptData{"x", "Article"})
	require.NoError(t, err)
	assert.NotContains(t, out, "Write the entire response")
}

func TestRegistryEnglishFallbackAddsInstruction(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(Key{Mode: "m", ContentType: Thread}, "Thread on {{.Topic}}.")
	out, err := r.Render("m", Thread, language.German, promptData{Topic: "x"})
	require.NoError(t, err)
	assert.Contains(t, out, "Thread on x.")
	assert.Contains(t, out, "Write the entire response in German.")
}

func TestRegistryErrors(t *testing.T) {
	r := NewRegistry()
	err := r.Register(Key{Mode: "m", ContentType: Tweet}, "{{.Topic")
	assert.True(t, errs.Is(err, errs.KindConfiguration))

	err = r.Register(Key{Mode: "m", ContentType: Tweet, Language: "not a tag!"}, "x")
	assert.True(t, errs.Is(err, errs.KindInvalidInput))

	_, err = r.Render("missing", Tweet, language.English, nil)
	assert.True(t, errs.Is(err, errs.KindConfiguration))

	r.MustRegister(Key{Mode: "m", ContentType: Tweet}, "{{.Nope}}")
	_, err = r.Render("m", Tweet, language.English, map[string]string{})
	assert.True(t, errs.Is(err, errs.KindConfiguration))

	assert.True(t, r.Has("m", Tweet))
	assert.False(t, r.Has("m", Script))
}

func TestParseLanguage(t *testing.T) {
	tag, err := ParseLanguage("")
	require.NoError(t, err)
	assert.Equal(t, language.English, tag)

	tag, err = ParseLanguage("zu")
	require.NoError(t, err)
	assert.Equal(t, "Zulu", LanguageName(tag))

	_, err = ParseLanguage("???")
	assert.True(t, errs.Is(err, errs.KindInvalidInput))
}

func TestParseContentType(t *testing.T) {
	ct, err := ParseContentType("")
	require.NoError(t, err)
	assert.Equal(t, Tweet, ct)
	ct, err = ParseContentType(" Thread ")
	require.NoError(t, err)
	assert.Equal(t, Thread, ct)
	_, err = ParseContentType("reel")
	assert.True(t, errs.Is(err, errs.KindInvalidInput))
}

func TestCheckThreadLength(t *testing.T) {
	l := DefaultLimits()
	assert.NoError(t, l.CheckThreadLength(2))
	assert.NoError(t, l.CheckThreadLength(10))
	assert.True(t, errs.Is(l.CheckThreadLength(1), errs.KindInvalidInput))
	assert.True(t, errs.Is(l.CheckThreadLength(11), errs.KindInvalidInput))
}
