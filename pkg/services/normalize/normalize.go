package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/de-tools/hub-export/pkg/models/domain"
	"github.com/de-tools/hub-export/pkg/models/store"
)

// DecodeError reports a record whose payload could not be turned into a row.
type DecodeError struct {
	ID     string
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("record %s: %s: %v", e.ID, e.Reason, e.Err)
	}
	return fmt.Sprintf("record %s: %s", e.ID, e.Reason)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// timestampLayouts are the ISO-8601 shapes submitted forms are known to
// carry, with and without a zone offset.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

const canonicalLayout = "2006-01-02 15:04:05"

type envelope struct {
	Completed string `json:"completed"`
	Entity    struct {
		Completed []struct {
			Value string `json:"value"`
		} `json:"completed"`
	} `json:"entity"`
	Data json.RawMessage `json:"data"`
}

// Normalize flattens one hub record into an ordered tabular row: the
// payload's data object one level deep, then the canonical timestamp and the
// source identifier as two trailing synthetic columns.
func Normalize(rec store.RawRecord) (domain.Row, error) {
	var env envelope
	if err := json.Unmarshal([]byte(rec.Payload), &env); err != nil {
		return domain.Row{}, &DecodeError{ID: rec.ID, Reason: "malformed payload", Err: err}
	}
	if env.Data == nil {
		return domain.Row{}, &DecodeError{ID: rec.ID, Reason: "payload has no data object"}
	}

	row := domain.NewRow()
	if err := flatten(env.Data, &row); err != nil {
		return domain.Row{}, &DecodeError{ID: rec.ID, Reason: "malformed data object", Err: err}
	}

	received, err := canonicalTimestamp(env)
	if err != nil {
		return domain.Row{}, &DecodeError{ID: rec.ID, Reason: "completion timestamp", Err: err}
	}

	row.Set("modtagelsesdato", received)
	row.Set("uuid", rec.ID)
	return row, nil
}

// canonicalTimestamp prefers the payload's completed field over the nested
// entity.completed[0].value fallback, and reformats it to a fixed layout.
func canonicalTimestamp(env envelope) (string, error) {
	raw := env.Completed
	if raw == "" && len(env.Entity.Completed) > 0 {
		raw = env.Entity.Completed[0].Value
	}
	if raw == "" {
		return "", fmt.Errorf("no completed field in payload")
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(canonicalLayout), nil
		}
	}
	return "", fmt.Errorf("unparsable timestamp %q", raw)
}

// flatten writes the members of a data object into row, one level deep:
// scalars keep their own key, object and array members contribute one column
// per top-level child named parent_child. Values nested a second level down
// stay as raw JSON text.
func flatten(data json.RawMessage, row *domain.Row) error {
	members, err := objectMembers(data)
	if err != nil {
		return err
	}

	for _, m := range members {
		switch kind(m.raw) {
		case '{':
			children, err := objectMembers(m.raw)
			if err != nil {
				return fmt.Errorf("field %s: %w", m.key, err)
			}
			for _, c := range children {
				row.Set(m.key+"_"+c.key, leafValue(c.raw))
			}
		case '[':
			elements, err := arrayElements(m.raw)
			if err != nil {
				return fmt.Errorf("field %s: %w", m.key, err)
			}
			for i, e := range elements {
				row.Set(fmt.Sprintf("%s_%d", m.key, i), leafValue(e))
			}
		default:
			row.Set(m.key, leafValue(m.raw))
		}
	}
	return nil
}

type member struct {
	key string
	raw json.RawMessage
}

// objectMembers decodes a JSON object token by token so the key order of the
// source document survives into the column order.
func objectMembers(raw json.RawMessage) ([]member, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected a JSON object, got %v", tok)
	}

	var members []member
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key := tok.(string)
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		members = append(members, member{key: key, raw: value})
	}
	return members, nil
}

func arrayElements(raw json.RawMessage) ([]json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	var elements []json.RawMessage
	for dec.More() {
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		elements = append(elements, value)
	}
	return elements, nil
}

// leafValue turns raw JSON into a cell value. Scalars decode to their Go
// value (numbers as json.Number so their text survives the round trip);
// anything still nested keeps its raw JSON text.
func leafValue(raw json.RawMessage) any {
	switch kind(raw) {
	case '{', '[':
		return string(raw)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return string(raw)
	}
	return v
}

// kind returns the first significant byte of a raw JSON value.
func kind(raw json.RawMessage) byte {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}
