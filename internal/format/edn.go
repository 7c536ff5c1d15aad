package format

import (
	"bytes"
	"encoding/json"
	"io"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// WriteEDN writes v as EDN. Values go through encoding/json first so struct
// tags decide field names. Map keys that are valid symbols become keywords;
// anything else (date keys like "2024-01-15") stays a string key.
func WriteEDN(w io.Writer, v any, pretty bool) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var x any
	if err := dec.Decode(&x); err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := ednEncoder{pretty: pretty, indent: 2}
	enc.writeAny(&buf, x, 0)
	buf.WriteByte('\n')
	_, err = w.Write(buf.Bytes())
	return err
}

type ednEncoder struct {
	pretty bool
	indent int
}

func (e ednEncoder) writeAny(buf *bytes.Buffer, v any, level int) {
	switch t := v.(type) {
	case nil:
		buf.WriteString("nil")
	case bool:
		buf.WriteString(strconv.FormatBool(t))
	case string:
		buf.WriteString(strconv.Quote(t))
	case json.Number:
		buf.WriteString(t.String())
	case []any:
		items := make([]func(), len(t))
		for i, it := range t {
			it := it
			items[i] = func() { e.writeAny(buf, it, level+1) }
		}
		e.writeSeq(buf, '[', ']', items, level)
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		items := make([]func(), len(keys))
		for i, k := range keys {
			k := k
			items[i] = func() {
				buf.WriteString(ednKey(k))
				buf.WriteByte(' ')
				e.writeAny(buf, t[k], level+1)
			}
		}
		e.writeSeq(buf, '{', '}', items, level)
	default:
		buf.WriteString("nil")
	}
}

func (e ednEncoder) writeSeq(buf *bytes.Buffer, open, close byte, items []func(), level int) {
	buf.WriteByte(open)
	if len(items) == 0 {
		buf.WriteByte(close)
		return
	}
	for i, write := range items {
		switch {
		case e.pretty:
			buf.WriteByte('\n')
			buf.WriteString(strings.Repeat(" ", (level+1)*e.indent))
		case i > 0:
			buf.WriteByte(' ')
		}
		write()
	}
	if e.pretty {
		buf.WriteByte('\n')
		buf.WriteString(strings.Repeat(" ", level*e.indent))
	}
	buf.WriteByte(close)
}

func ednKey(k string) string {
	if isSymbol(k) {
		return ":" + k
	}
	return strconv.Quote(k)
}

func isSymbol(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 && !unicode.IsLetter(r) {
			return false
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !strings.ContainsRune("-_?!*", r) {
			return false
		}
	}
	return true
}
