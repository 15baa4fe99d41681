package discovery

import (
	"bytes"
	"encoding/json/jsontext"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/govje/govje-weather/mqtt"
)

// object runs fn against a Fields writing into a fresh json object and returns the compact result.
func object(t *testing.T, fn func(f *Fields)) (string, error) {
	t.Helper()

	var b bytes.Buffer
	e := jsontext.NewEncoder(&b)
	require.NoError(t, e.WriteToken(jsontext.BeginObject))

	f := NewFields(e)
	fn(f)
	if err := f.Err(); err != nil {
		return "", err
	}

	require.NoError(t, e.WriteToken(jsontext.EndObject))
	return string(bytes.TrimSpace(b.Bytes())), nil
}

func TestFields(t *testing.T) {
	t.Run("Optional skips zero values", func(t *testing.T) {
		got, err := object(t, func(f *Fields) {
			f.Optional("a", "").
				Optional("b", 0).
				Optional("c", false).
				Optional("d", []string(nil)).
				Optional("e", (*url.URL)(nil)).
				Optional("f", "x")
		})

		require.NoError(t, err)
		assert.JSONEq(t, `{"f":"x"}`, got)
	})

	t.Run("Required", func(t *testing.T) {
		_, err := object(t, func(f *Fields) {
			f.Required("platform", FieldPlatform, "")
		})
		require.ErrorIs(t, err, ErrValueRequired)

		got, err := object(t, func(f *Fields) {
			f.Required("platform", FieldPlatform, "sensor")
		})
		require.NoError(t, err)
		assert.JSONEq(t, `{"p":"sensor"}`, got)
	})

	t.Run("Stops at first error", func(t *testing.T) {
		_, err := object(t, func(f *Fields) {
			f.Required("a", "a", "").Required("b", "b", "")
		})

		require.ErrorIs(t, err, ErrValueRequired)
		assert.Contains(t, err.Error(), "a:")
	})

	t.Run("Null", func(t *testing.T) {
		got, err := object(t, func(f *Fields) {
			f.Null(FieldName)
		})

		require.NoError(t, err)
		assert.JSONEq(t, `{"name":null}`, got)
	})

	t.Run("Marshalers", func(t *testing.T) {
		u, err := url.Parse("https://www.gov.je/weather")
		require.NoError(t, err)

		got, err := object(t, func(f *Fields) {
			f.Optional("u", u).Optional("d", 5*time.Minute+42*time.Second+123*time.Millisecond)
		})

		require.NoError(t, err)
		assert.JSONEq(t, `{"u":"https://www.gov.je/weather","d":342}`, got)
	})
}

func TestFieldsTopics(t *testing.T) {
	state := mqtt.NewValue("state", mqtt.StringMarshaler)

	t.Run("Fully qualified", func(t *testing.T) {
		got, err := object(t, func(f *Fields) {
			f.Topic(FieldStateTopic, state, "govje/uv_index")
		})

		require.NoError(t, err)
		assert.JSONEq(t, `{"stat_t":"govje/uv_index/state"}`, got)
	})

	t.Run("Relative to base", func(t *testing.T) {
		got, err := object(t, func(f *Fields) {
			f.Base("govje/uv_index").Topic(FieldStateTopic, state, "govje/uv_index")
		})

		require.NoError(t, err)
		assert.JSONEq(t, `{"~":"govje/uv_index","stat_t":"~/state"}`, got)
	})

	t.Run("Nil optional topic", func(t *testing.T) {
		got, err := object(t, func(f *Fields) {
			f.Topic(FieldAttributesTopic, (*mqtt.Value[string])(nil), "p")
		})

		require.NoError(t, err)
		assert.JSONEq(t, `{}`, got)
	})

	t.Run("Nil required topic", func(t *testing.T) {
		_, err := object(t, func(f *Fields) {
			f.RequiredTopic("state", FieldStateTopic, (*mqtt.Value[string])(nil), "p")
		})

		require.ErrorIs(t, err, ErrTopicRequired)
	})
}

func TestInline(t *testing.T) {
	got, err := object(t, func(f *Fields) {
		Inline(f, map[string]string{"b": "2", "a": "1"})
	})

	require.NoError(t, err)
	assert.Equal(t, `{"a":"1","b":"2"}`, got)
}
