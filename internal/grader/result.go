package grader

import (
	"bytes"
	"encoding/json"
	"unicode/utf8"
)

type Entry struct {
	Selector string
	Present  bool
}

// Result хранит результаты в порядке сортировки селекторов
type Result struct {
	entries []Entry
}

func (r *Result) Entries() []Entry {
	return append([]Entry(nil), r.entries...)
}

func (r *Result) Selectors() []string {
	selectors := make([]string, len(r.entries))
	for i, e := range r.entries {
		selectors[i] = e.Selector
	}
	return selectors
}

// Present возвращает результат для селектора и признак, был ли он в списке проверок
func (r *Result) Present(selector string) (present bool, ok bool) {
	for _, e := range r.entries {
		if e.Selector == selector {
			return e.Present, true
		}
	}
	return false, false
}

func (r *Result) Len() int {
	return len(r.entries)
}

func (r *Result) MatchedCount() int {
	n := 0
	for _, e := range r.entries {
		if e.Present {
			n++
		}
	}
	return n
}

// MarshalJSON пишет объект с ключами в порядке entries, без экранирования <, > и &
func (r *Result) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range r.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalString(e.Selector)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if e.Present {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Format возвращает отчёт с отступом в 4 пробела и переводом строки в конце
func (r *Result) Format() ([]byte, error) {
	compact, err := r.MarshalJSON()
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	if err := json.Indent(&out, compact, "", "    "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

func marshalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return unescapeLineSeparators(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// unescapeLineSeparators возвращает U+2028 и U+2029 в строку как есть:
// encoding/json экранирует их всегда, даже без SetEscapeHTML.
func unescapeLineSeparators(b []byte) []byte {
	if !bytes.Contains(b, []byte(`\u202`)) {
		return b
	}

	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		if b[i] != '\\' || i+1 >= len(b) {
			out = append(out, b[i])
			continue
		}
		if b[i+1] == 'u' && i+5 < len(b) {
			switch string(b[i+2 : i+6]) {
			case "2028":
				out = utf8.AppendRune(out, '\u2028')
				i += 5
				continue
			case "2029":
				out = utf8.AppendRune(out, '\u2029')
				i += 5
				continue
			}
		}
		// Любая другая escape-последовательность копируется парой, чтобы \\ не спутать с началом \u
		out = append(out, b[i], b[i+1])
		i++
	}
	return out
}
