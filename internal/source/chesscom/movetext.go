package chesscom

import (
	"regexp"
	"strconv"
	"strings"
)

var clkRe = regexp.MustCompile(`\[%clk (\d+):(\d+):(\d+(?:\.\d+)?)\]`)

// movetextOf returns the portion of a PGN after the tag pair section.
func movetextOf(pgn string) string {
	pgn = strings.ReplaceAll(pgn, "\r", "")
	if i := strings.Index(pgn, "\n\n"); i >= 0 {
		return pgn[i+2:]
	}
	return pgn
}

// parseMovetext tokenizes PGN movetext into move tokens, collecting clock
// annotations along the way. Comments, variations, NAGs, move numbers and
// the game result are discarded. clockSecs holds whole seconds remaining
// after each move; it is nil unless every move carried a clock annotation.
func parseMovetext(text string) (tokens []string, clockSecs []int) {
	i, n := 0, len(text)
	for i < n {
		switch c := text[i]; {
		case c == '{':
			end := strings.IndexByte(text[i:], '}')
			if end < 0 {
				i = n
				continue
			}
			if m := clkRe.FindStringSubmatch(text[i+1 : i+end]); m != nil {
				clockSecs = append(clockSecs, clockToSeconds(m))
			}
			i += end + 1
		case c == '(':
			i = skipVariation(text, i)
		case c == ';':
			for i < n && text[i] != '\n' {
				i++
			}
		case c == '}' || c == ')':
			// Closer with no matching opener, e.g. after a nested-brace
			// comment. Skipping it keeps the scan moving.
			i++
		case c == ' ' || c == '\t' || c == '\n':
			i++
		default:
			start := i
			for i < n && !isDelim(text[i]) {
				i++
			}
			if mv := moveToken(text[start:i]); mv != "" {
				tokens = append(tokens, mv)
			}
		}
	}

	if len(clockSecs) != len(tokens) {
		clockSecs = nil
	}
	return tokens, clockSecs
}

func isDelim(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '{', '}', '(', ')', ';':
		return true
	}
	return false
}

// moveToken normalizes one raw token to a bare move, or "" if the token
// is a move number, NAG or game result.
func moveToken(tok string) string {
	switch tok {
	case "", "1-0", "0-1", "1/2-1/2", "*":
		return ""
	}
	if tok[0] == '$' {
		return ""
	}

	// Strip a leading move number, attached ("1.e4") or standalone ("1." "3...").
	if tok[0] >= '0' && tok[0] <= '9' {
		j := 0
		for j < len(tok) && tok[j] >= '0' && tok[j] <= '9' {
			j++
		}
		if j >= len(tok) || tok[j] != '.' {
			return "" // bare number, not a move
		}
		for j < len(tok) && tok[j] == '.' {
			j++
		}
		tok = tok[j:]
		if tok == "" {
			return ""
		}
	}

	tok = strings.TrimRight(tok, "!?")
	return tok
}

func skipVariation(text string, i int) int {
	depth := 0
	for ; i < len(text); i++ {
		switch text[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return i
}

// clockToSeconds converts a matched [%clk H:MM:SS] annotation to whole
// seconds, truncating any fractional part.
func clockToSeconds(m []string) int {
	h, _ := strconv.Atoi(m[1])
	mins, _ := strconv.Atoi(m[2])
	secs, _ := strconv.ParseFloat(m[3], 64)
	return h*3600 + mins*60 + int(secs)
}
