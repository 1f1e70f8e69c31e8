// Package scan turns source text into a tree of items that the evaluator
// loads into value cells. It knows nothing about binding or evaluation.
package scan

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

type Kind int

const (
	Integer Kind = iota
	Text
	Tag
	Issue
	Blank
	Void
	Word
	SetWord
	GetWord
	SymWord
	Refinement
	Path
	SetPath
	GetPath
	Block
	Group
	SetBlock
	SetGroup
)

var kindNames = [...]string{
	Integer:    "integer",
	Text:       "text",
	Tag:        "tag",
	Issue:      "issue",
	Blank:      "blank",
	Void:       "void",
	Word:       "word",
	SetWord:    "set-word",
	GetWord:    "get-word",
	SymWord:    "sym-word",
	Refinement: "refinement",
	Path:       "path",
	SetPath:    "set-path",
	GetPath:    "get-path",
	Block:      "block",
	Group:      "group",
	SetBlock:   "set-block",
	SetGroup:   "set-group",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Item is one scanned unit. Words carry their spelling in Text; paths,
// blocks and groups carry their elements in Items.
type Item struct {
	Kind          Kind
	Text          string
	Int           int64
	Quotes        int
	Items         []Item
	Line          int
	Column        int
	NewlineBefore bool
}

// Error reports a malformed source position.
type Error struct {
	File    string
	Line    int
	Column  int
	Message string
}

func (e *Error) Error() string {
	file := e.File
	if file == "" {
		file = "<input>"
	}
	return fmt.Sprintf("%s:%d:%d: %s", file, e.Line, e.Column, e.Message)
}

type scanner struct {
	file         string
	input        string
	position     int
	readPosition int
	ch           rune
	line         int
	column       int
	newline      bool
}

// Scan reads all items of src. The file name is only used in errors.
func Scan(src, file string) ([]Item, error) {
	s := &scanner{file: file, input: src, line: 1}
	s.readChar()
	items, closer, err := s.scanSeries(0)
	if err != nil {
		return nil, err
	}
	if closer != 0 {
		return nil, s.errorf("unexpected %q", closer)
	}
	return items, nil
}

func (s *scanner) readChar() {
	if s.ch == '\n' {
		s.line++
		s.column = 0
	}
	if s.readPosition >= len(s.input) {
		s.ch = 0
		s.position = len(s.input)
		s.readPosition = len(s.input) + 1
		s.column++
		return
	}
	r, w := utf8.DecodeRuneInString(s.input[s.readPosition:])
	s.ch = r
	s.position = s.readPosition
	s.readPosition += w
	s.column++
}

func (s *scanner) peekChar() rune {
	if s.readPosition >= len(s.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(s.input[s.readPosition:])
	return r
}

func (s *scanner) errorf(format string, args ...any) *Error {
	return &Error{File: s.file, Line: s.line, Column: s.column, Message: fmt.Sprintf(format, args...)}
}

func (s *scanner) skipWhitespace() {
	for {
		switch s.ch {
		case ' ', '\t', '\r':
			s.readChar()
		case '\n':
			s.newline = true
			s.readChar()
		case ';':
			for s.ch != '\n' && s.ch != 0 {
				s.readChar()
			}
		default:
			return
		}
	}
}

func isDelimiter(ch rune) bool {
	switch ch {
	case 0, ' ', '\t', '\r', '\n', '[', ']', '(', ')', '"', ';':
		return true
	}
	return false
}

// scanSeries reads items until end of input or a closing bracket, which it
// consumes and returns.
func (s *scanner) scanSeries(depth int) ([]Item, rune, error) {
	var items []Item
	for {
		s.skipWhitespace()
		switch s.ch {
		case 0:
			if depth > 0 {
				return nil, 0, s.errorf("missing closing bracket")
			}
			return items, 0, nil
		case ']', ')':
			if depth == 0 {
				return nil, 0, s.errorf("unexpected %q", s.ch)
			}
			closer := s.ch
			s.readChar()
			return items, closer, nil
		}

		item, err := s.scanItem(depth)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, item)
	}
}

func (s *scanner) scanItem(depth int) (Item, error) {
	line, col := s.line, s.column
	newline := s.newline
	s.newline = false

	quotes := 0
	for s.ch == '\'' {
		quotes++
		s.readChar()
	}
	if quotes > 0 && (isDelimiter(s.ch) && s.ch != '[' && s.ch != '(' && s.ch != '"') {
		return Item{}, s.errorf("quote mark must be followed by a value")
	}

	var item Item
	var err error
	switch s.ch {
	case '[', '(':
		item, err = s.scanNested(depth)
	case '"':
		item, err = s.scanText()
	default:
		item, err = s.scanToken()
	}
	if err != nil {
		return Item{}, err
	}
	item.Quotes = quotes
	item.Line, item.Column = line, col
	item.NewlineBefore = newline
	return item, nil
}

func (s *scanner) scanNested(depth int) (Item, error) {
	opener := s.ch
	s.readChar()
	items, closer, err := s.scanSeries(depth + 1)
	if err != nil {
		return Item{}, err
	}
	want := ']'
	kind, setKind := Block, SetBlock
	if opener == '(' {
		want = ')'
		kind, setKind = Group, SetGroup
	}
	if closer != want {
		return Item{}, s.errorf("mismatched %q closed by %q", opener, closer)
	}
	if s.ch == ':' {
		s.readChar()
		kind = setKind
	}
	return Item{Kind: kind, Items: items}, nil
}

// scanText reads a "..." literal. The caret escapes are ^" ^^ ^/ and ^-.
func (s *scanner) scanText() (Item, error) {
	var sb strings.Builder
	for {
		s.readChar()
		switch s.ch {
		case 0:
			return Item{}, s.errorf("unterminated text")
		case '"':
			s.readChar()
			return Item{Kind: Text, Text: sb.String()}, nil
		case '^':
			s.readChar()
			switch s.ch {
			case '"', '^':
				sb.WriteRune(s.ch)
			case '/':
				sb.WriteByte('\n')
			case '-':
				sb.WriteByte('\t')
			default:
				return Item{}, s.errorf("bad escape ^%c", s.ch)
			}
		default:
			sb.WriteRune(s.ch)
		}
	}
}

func (s *scanner) readRun() string {
	start := s.position
	for !isDelimiter(s.ch) {
		s.readChar()
	}
	return s.input[start:s.position]
}

func (s *scanner) scanToken() (Item, error) {
	if s.ch == '<' && isTagStart(s.peekChar()) {
		return s.scanTag()
	}
	run := s.readRun()
	if run == "" {
		return Item{}, s.errorf("unexpected %q", s.ch)
	}

	switch run {
	case "_":
		return Item{Kind: Blank}, nil
	case "~":
		return Item{Kind: Void}, nil
	}

	if run[0] == '#' {
		if len(run) == 1 {
			return Item{}, s.errorf("empty issue")
		}
		return Item{Kind: Issue, Text: run[1:]}, nil
	}
	if n, ok := parseInteger(run); ok {
		return Item{Kind: Integer, Int: n}, nil
	}

	switch {
	case run[0] == ':' && len(run) > 1:
		return s.wordOrPath(run[1:], GetWord, GetPath)
	case run[0] == '@' && len(run) > 1:
		if strings.Contains(run[1:], "/") {
			return Item{}, s.errorf("sym-path not supported: %s", run)
		}
		return Item{Kind: SymWord, Text: run[1:]}, nil
	case run[0] == '/' && len(run) > 1 && !strings.Contains(run[1:], "/"):
		return Item{Kind: Refinement, Text: run[1:]}, nil
	case len(run) > 1 && run[len(run)-1] == ':':
		return s.wordOrPath(run[:len(run)-1], SetWord, SetPath)
	}
	return s.wordOrPath(run, Word, Path)
}

func isTagStart(ch rune) bool {
	return ch == '/' || ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z'
}

func (s *scanner) scanTag() (Item, error) {
	s.readChar()
	start := s.position
	for s.ch != '>' {
		if s.ch == 0 || s.ch == '\n' {
			return Item{}, s.errorf("unterminated tag")
		}
		s.readChar()
	}
	text := s.input[start:s.position]
	s.readChar()
	return Item{Kind: Tag, Text: text}, nil
}

func parseInteger(run string) (int64, bool) {
	body := run
	if body[0] == '-' || body[0] == '+' {
		body = body[1:]
	}
	if body == "" || body[0] < '0' || body[0] > '9' {
		return 0, false
	}
	n, err := strconv.ParseInt(run, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (s *scanner) wordOrPath(run string, wordKind, pathKind Kind) (Item, error) {
	if !strings.Contains(run, "/") || run == "/" {
		if strings.ContainsAny(run, ":@") && run != ":" {
			return Item{}, s.errorf("invalid word %q", run)
		}
		return Item{Kind: wordKind, Text: run}, nil
	}
	parts := strings.Split(run, "/")
	items := make([]Item, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			return Item{}, s.errorf("empty path element in %q", run)
		}
		if n, ok := parseInteger(p); ok {
			items = append(items, Item{Kind: Integer, Int: n})
			continue
		}
		items = append(items, Item{Kind: Word, Text: p})
	}
	return Item{Kind: pathKind, Items: items}, nil
}
