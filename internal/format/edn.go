package format

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// WriteEDN writes an EDN representation of v.
//
// This targets the safe subset our payloads need (maps, vectors, strings,
// numbers, booleans, nil). Structs are routed through JSON first so existing
// json tags decide field names; JSON keys come out as EDN keywords.
func WriteEDN(w io.Writer, v any, pretty bool) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var x any
	if err := json.Unmarshal(b, &x); err != nil {
		return err
	}

	var sb strings.Builder
	writeEDNValue(&sb, x, 0, pretty)
	sb.WriteByte('\n')
	_, err = io.WriteString(w, sb.String())
	return err
}

const ednIndent = 2

func writeEDNValue(sb *strings.Builder, v any, level int, pretty bool) {
	switch t := v.(type) {
	case nil:
		sb.WriteString("nil")
	case bool:
		sb.WriteString(strconv.FormatBool(t))
	case string:
		sb.WriteString(strconv.Quote(t))
	case float64:
		// JSON numbers arrive as float64; print integral values as ints.
		if float64(int64(t)) == t {
			sb.WriteString(strconv.FormatInt(int64(t), 10))
			return
		}
		sb.WriteString(strconv.FormatFloat(t, 'f', -1, 64))
	case []any:
		writeEDNSeq(sb, t, level, pretty)
	case map[string]any:
		writeEDNMap(sb, t, level, pretty)
	default:
		sb.WriteString(strconv.Quote(fmt.Sprintf("%v", v)))
	}
}

func writeEDNSeq(sb *strings.Builder, xs []any, level int, pretty bool) {
	sb.WriteByte('[')
	for i, x := range xs {
		if pretty {
			sb.WriteByte('\n')
			sb.WriteString(strings.Repeat(" ", (level+1)*ednIndent))
		} else if i > 0 {
			sb.WriteByte(' ')
		}
		writeEDNValue(sb, x, level+1, pretty)
	}
	if pretty && len(xs) > 0 {
		sb.WriteByte('\n')
		sb.WriteString(strings.Repeat(" ", level*ednIndent))
	}
	sb.WriteByte(']')
}

func writeEDNMap(sb *strings.Builder, m map[string]any, level int, pretty bool) {
	sb.WriteByte('{')
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for i, k := range keys {
		if pretty {
			sb.WriteByte('\n')
			sb.WriteString(strings.Repeat(" ", (level+1)*ednIndent))
		} else if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteByte(':')
		sb.WriteString(ednKeyword(k))
		sb.WriteByte(' ')
		writeEDNValue(sb, m[k], level+1, pretty)
	}
	if pretty && len(keys) > 0 {
		sb.WriteByte('\n')
		sb.WriteString(strings.Repeat(" ", level*ednIndent))
	}
	sb.WriteByte('}')
}

func ednKeyword(s string) string {
	s = strings.TrimSpace(s)
	return strings.ReplaceAll(s, " ", "-")
}
