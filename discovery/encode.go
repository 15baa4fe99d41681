package discovery

import (
	"encoding/json/jsontext"
	"encoding/json/v2"
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"slices"
	"time"
)

var (
	// ErrValueRequired is reported for required fields that hold their zero value.
	ErrValueRequired = errors.New("value is required")
	// ErrTopicRequired is reported for required topic fields whose value is nil or has no topic.
	ErrTopicRequired = errors.New("topic is required")

	// Marshalers adapts standard library types to the shape Home Assistant expects in discovery payloads.
	Marshalers = json.JoinMarshalers(
		json.MarshalToFunc(func(e *jsontext.Encoder, u *url.URL) error {
			return e.WriteToken(jsontext.String(u.String()))
		}),
		// Whole seconds
		json.MarshalToFunc(func(e *jsontext.Encoder, d time.Duration) error {
			return e.WriteToken(jsontext.Int(int64(d.Seconds())))
		}),
	)
)

// Topic is implemented by mqtt.Value and mqtt.RemoteValue. Nil values report the empty string.
type Topic interface {
	FullyQualifiedTopic(prefix string) string
}

// Fields writes name/value pairs into a json object that the caller has already opened. The first error is kept and
// later writes become no-ops, so a whole payload can be described without checking each call; Err reports the
// outcome.
//
// When the object carries a base topic (see Fields.Base) topic fields are written relative to it using Home
// Assistant's "~" shorthand.
type Fields struct {
	e    *jsontext.Encoder
	base bool
	errs []error
}

// NewFields returns a Fields writing to e.
func NewFields(e *jsontext.Encoder) *Fields {
	return &Fields{e: e}
}

// Err returns the first error encountered, if any.
func (f *Fields) Err() error {
	return errors.Join(f.errs...)
}

func (f *Fields) fail(err error) *Fields {
	if len(f.errs) == 0 {
		f.errs = append(f.errs, err)
	}

	return f
}

func (f *Fields) write(key string, v any) *Fields {
	if len(f.errs) > 0 {
		return f
	}

	if err := f.e.WriteToken(jsontext.String(key)); err != nil {
		return f.fail(fmt.Errorf("%s: %w", key, err))
	}

	if err := json.MarshalEncode(f.e, v, json.WithMarshalers(Marshalers)); err != nil {
		return f.fail(fmt.Errorf("%s: %w", key, err))
	}

	return f
}

// Base writes the "~" field. Later topic fields are written relative to it. An empty topic is skipped.
func (f *Fields) Base(topic string) *Fields {
	if topic == "" {
		return f
	}

	f.base = true
	return f.write(FieldBaseTopic, topic)
}

// Required writes v under key, or records ErrValueRequired (labelled with name) if v is the zero value of its type.
func (f *Fields) Required(name, key string, v any) *Fields {
	if isZero(v) {
		return f.fail(fmt.Errorf("%s: %w", name, ErrValueRequired))
	}

	return f.write(key, v)
}

// Optional writes v under key unless it is the zero value of its type (nil, "", 0, false, empty slice or map).
func (f *Fields) Optional(key string, v any) *Fields {
	if isZero(v) {
		return f
	}

	return f.write(key, v)
}

// Value writes v under key unconditionally.
func (f *Fields) Value(key string, v any) *Fields {
	return f.write(key, v)
}

// Null writes a literal json null under key. Home Assistant uses a null name to mean "use the device name".
func (f *Fields) Null(key string) *Fields {
	if len(f.errs) > 0 {
		return f
	}

	if err := errors.Join(f.e.WriteToken(jsontext.String(key)), f.e.WriteToken(jsontext.Null)); err != nil {
		return f.fail(fmt.Errorf("%s: %w", key, err))
	}

	return f
}

// Topic writes the topic of t under key if it has one.
func (f *Fields) Topic(key string, t Topic, prefix string) *Fields {
	topic := f.topic(t, prefix)
	if topic == "" {
		return f
	}

	return f.write(key, topic)
}

// RequiredTopic writes the topic of t under key, or records ErrTopicRequired (labelled with name).
func (f *Fields) RequiredTopic(name, key string, t Topic, prefix string) *Fields {
	topic := f.topic(t, prefix)
	if topic == "" {
		return f.fail(fmt.Errorf("%s: %w", name, ErrTopicRequired))
	}

	return f.write(key, topic)
}

func (f *Fields) topic(t Topic, prefix string) string {
	if t == nil {
		return ""
	}

	if !f.base {
		return t.FullyQualifiedTopic(prefix)
	}

	relative := t.FullyQualifiedTopic("")
	if relative == "" {
		return ""
	}

	return FieldBaseTopic + "/" + relative
}

// Inline writes every entry of m as a field of the open object, in key order.
func Inline[T any](f *Fields, m map[string]T) *Fields {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		f.write(k, m[k])
	}

	return f
}

func isZero(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	default:
		return rv.IsZero()
	}
}
