package task

import (
	"bytes"
	"encoding/json"
)

type (
	jsonSyntaxError = json.SyntaxError
	jsonTypeError   = json.UnmarshalTypeError
)

// CommentError reports a block comment that is never closed.
type CommentError struct {
	Offset int64
}

func (e *CommentError) Error() string { return "unterminated block comment" }

// StripJSONC removes // line comments, /* */ block comments and trailing
// commas before } or ], leaving string literals untouched. Removed bytes are
// replaced by spaces so decoder offsets still point into the original text.
func StripJSONC(data []byte) ([]byte, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	out := make([]byte, 0, len(data))
	inString := false
	escaped := false
	pendingComma := -1

	for i := 0; i < len(data); i++ {
		c := data[i]
		if inString {
			out = append(out, c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch {
		case c == '/' && i+1 < len(data) && data[i+1] == '/':
			for i < len(data) && data[i] != '\n' {
				out = append(out, ' ')
				i++
			}
			if i < len(data) {
				out = append(out, '\n')
			}
		case c == '/' && i+1 < len(data) && data[i+1] == '*':
			end := bytes.Index(data[i+2:], []byte("*/"))
			if end < 0 {
				return nil, &CommentError{Offset: int64(i)}
			}
			stop := i + 2 + end + 2
			for ; i < stop; i++ {
				if data[i] == '\n' {
					out = append(out, '\n')
				} else {
					out = append(out, ' ')
				}
			}
			i--
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			out = append(out, c)
		case c == ',':
			pendingComma = len(out)
			out = append(out, c)
		default:
			if (c == '}' || c == ']') && pendingComma >= 0 {
				out[pendingComma] = ' '
			}
			pendingComma = -1
			if c == '"' {
				inString = true
			}
			out = append(out, c)
		}
	}
	return out, nil
}

// UnmarshalLenient decodes comment- and trailing-comma-tolerant JSON into v.
func UnmarshalLenient(data []byte, v any) error {
	clean, err := StripJSONC(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(clean, v)
}
