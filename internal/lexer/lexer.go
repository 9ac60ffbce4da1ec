// Package lexer scans source text into a token stream for internal/parser.
package lexer

import (
	"github.com/pkg/errors"

	"github.com/Narrain/eda-tool/ast"
	"github.com/Narrain/eda-tool/internal/token"
)

// Lexer scans one source file into tokens on demand.
type Lexer struct {
	file string
	src  string
	pos  int
	line int
	col  int
}

// New returns a Lexer over src, attributing positions to file.
func New(file, src string) *Lexer {
	return &Lexer{file: file, src: src, line: 1, col: 1}
}

func (l *Lexer) peek() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekAt(off int) byte {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

func (l *Lexer) advance() byte {
	c := l.src[l.pos]
	l.pos++
	if c == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return c
}

func (l *Lexer) curPos() ast.Pos {
	return ast.Pos{File: l.file, Line: l.line, Col: l.col}
}

func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\r' || c == '\n' }
func isDigit(c byte) bool { return c >= '0' && c <= '9' }
func isAlpha(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '$'
}
func isAlnum(c byte) bool { return isAlpha(c) || isDigit(c) }

func (l *Lexer) skipTrivia() {
	for l.pos < len(l.src) {
		c := l.peek()
		switch {
		case isSpace(c):
			l.advance()
		case c == '/' && l.peekAt(1) == '/':
			for l.pos < len(l.src) && l.peek() != '\n' {
				l.advance()
			}
		case c == '/' && l.peekAt(1) == '*':
			l.advance()
			l.advance()
			for l.pos < len(l.src) && !(l.peek() == '*' && l.peekAt(1) == '/') {
				l.advance()
			}
			if l.pos < len(l.src) {
				l.advance()
				l.advance()
			}
		default:
			return
		}
	}
}

// Next scans and returns the next token, or a token.EOF token at end of
// input. Errors are lexical only (unterminated string/invalid character).
func (l *Lexer) Next() (token.Token, error) {
	l.skipTrivia()
	pos := l.curPos()
	if l.pos >= len(l.src) {
		return token.Token{Kind: token.EOF, Pos: pos}, nil
	}
	c := l.peek()

	switch {
	case isAlpha(c):
		start := l.pos
		for l.pos < len(l.src) && isAlnum(l.peek()) {
			l.advance()
		}
		text := l.src[start:l.pos]
		if text == "$finish" {
			return token.Token{Kind: token.KwFinish, Text: text, Pos: pos}, nil
		}
		if kw, ok := token.Lookup(text); ok {
			return token.Token{Kind: kw, Text: text, Pos: pos}, nil
		}
		return token.Token{Kind: token.Ident, Text: text, Pos: pos}, nil

	case isDigit(c):
		start := l.pos
		for l.pos < len(l.src) && (isAlnum(l.peek()) || l.peek() == '\'') {
			l.advance()
		}
		return token.Token{Kind: token.Number, Text: l.src[start:l.pos], Pos: pos}, nil

	case c == '"':
		l.advance()
		start := l.pos
		for l.pos < len(l.src) && l.peek() != '"' {
			l.advance()
		}
		if l.pos >= len(l.src) {
			return token.Token{}, errors.Errorf("%s: unterminated string literal", pos)
		}
		text := l.src[start:l.pos]
		l.advance()
		return token.Token{Kind: token.StringLit, Text: text, Pos: pos}, nil
	}

	two := func(second byte, k2, k1 token.Kind) token.Token {
		l.advance()
		if l.peek() == second {
			l.advance()
			return token.Token{Kind: k2, Pos: pos}
		}
		return token.Token{Kind: k1, Pos: pos}
	}

	switch c {
	case '(':
		l.advance()
		return token.Token{Kind: token.LParen, Pos: pos}, nil
	case ')':
		l.advance()
		return token.Token{Kind: token.RParen, Pos: pos}, nil
	case '[':
		l.advance()
		return token.Token{Kind: token.LBracket, Pos: pos}, nil
	case ']':
		l.advance()
		return token.Token{Kind: token.RBracket, Pos: pos}, nil
	case '{':
		l.advance()
		return token.Token{Kind: token.LBrace, Pos: pos}, nil
	case '}':
		l.advance()
		return token.Token{Kind: token.RBrace, Pos: pos}, nil
	case ';':
		l.advance()
		return token.Token{Kind: token.Semi, Pos: pos}, nil
	case ':':
		l.advance()
		return token.Token{Kind: token.Colon, Pos: pos}, nil
	case ',':
		l.advance()
		return token.Token{Kind: token.Comma, Pos: pos}, nil
	case '.':
		l.advance()
		return token.Token{Kind: token.Dot, Pos: pos}, nil
	case '#':
		l.advance()
		return token.Token{Kind: token.Hash, Pos: pos}, nil
	case '@':
		l.advance()
		return token.Token{Kind: token.At, Pos: pos}, nil
	case '?':
		l.advance()
		return token.Token{Kind: token.Question, Pos: pos}, nil
	case '+':
		l.advance()
		return token.Token{Kind: token.PlusOp, Pos: pos}, nil
	case '-':
		l.advance()
		return token.Token{Kind: token.MinusOp, Pos: pos}, nil
	case '~':
		l.advance()
		if l.peek() == '^' {
			l.advance()
			return token.Token{Kind: token.TildeCaret, Pos: pos}, nil
		}
		return token.Token{Kind: token.Tilde, Pos: pos}, nil
	case '^':
		l.advance()
		return token.Token{Kind: token.Caret, Pos: pos}, nil
	case '*':
		l.advance()
		return token.Token{Kind: token.Star, Pos: pos}, nil
	case '&':
		return two('&', token.AmpAmp, token.Amp), nil
	case '|':
		return two('|', token.PipePipe, token.Pipe), nil
	case '=':
		l.advance()
		if l.peek() == '=' {
			l.advance()
			if l.peek() == '=' {
				l.advance()
				return token.Token{Kind: token.CaseEqOp, Pos: pos}, nil
			}
			return token.Token{Kind: token.EqEq, Pos: pos}, nil
		}
		return token.Token{Kind: token.Assign, Pos: pos}, nil
	case '!':
		l.advance()
		if l.peek() == '=' {
			l.advance()
			if l.peek() == '=' {
				l.advance()
				return token.Token{Kind: token.CaseNeqOp, Pos: pos}, nil
			}
			return token.Token{Kind: token.NotEq, Pos: pos}, nil
		}
		return token.Token{Kind: token.Bang, Pos: pos}, nil
	case '<':
		l.advance()
		if l.peek() == '=' {
			l.advance()
			return token.Token{Kind: token.NonBlocking, Pos: pos}, nil
		}
		if l.peek() == '<' {
			l.advance()
			return token.Token{Kind: token.Shl, Pos: pos}, nil
		}
		return token.Token{Kind: token.Lt, Pos: pos}, nil
	case '>':
		l.advance()
		if l.peek() == '=' {
			l.advance()
			return token.Token{Kind: token.GtEq, Pos: pos}, nil
		}
		if l.peek() == '>' {
			l.advance()
			return token.Token{Kind: token.Shr, Pos: pos}, nil
		}
		return token.Token{Kind: token.Gt, Pos: pos}, nil
	}

	return token.Token{}, errors.Errorf("%s: unexpected character %q", pos, string(c))
}

// Tokenize scans src entirely and returns the token slice (terminated by an
// EOF token), or the first lexical error encountered.
func Tokenize(file, src string) ([]token.Token, error) {
	l := New(file, src)
	var toks []token.Token
	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			return toks, nil
		}
	}
}
