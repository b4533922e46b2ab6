package jack_test

import (
	"strings"
	"testing"

	"hackc.dev/n2t/pkg/jack"
)

func tokensOf(t *testing.T, src string) []jack.Token {
	t.Helper()
	tz, err := jack.NewTokenizer(strings.NewReader(src), "test.jack")
	if err != nil {
		t.Fatalf("NewTokenizer() returned error: %s", err)
	}

	tokens := []jack.Token{}
	for {
		tok, ok := tz.Next()
		if !ok {
			break
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

func TestTokenizerClassifiesEveryTokenKind(t *testing.T) {
	tokens := tokensOf(t, `class Main { field int x; let x = "hi"; }`)

	want := []jack.TokenKind{
		jack.KeywordTok, jack.IdentTok, jack.SymbolTok,
		jack.KeywordTok, jack.KeywordTok, jack.IdentTok, jack.SymbolTok,
		jack.KeywordTok, jack.IdentTok, jack.SymbolTok, jack.StringTok, jack.SymbolTok,
		jack.SymbolTok,
	}
	if len(tokens) != len(want) {
		t.Fatalf("got %d tokens, want %d: %+v", len(tokens), len(want), tokens)
	}
	for i, kind := range want {
		if tokens[i].Kind != kind {
			t.Errorf("token %d: got kind %s, want %s (lexeme %q)", i, tokens[i].Kind, kind, tokens[i].Lexeme)
		}
	}
}

func TestTokenizerStripsLineAndBlockComments(t *testing.T) {
	tokens := tokensOf(t, "// a leading comment\nlet x = 1; /* trailing\nmultiline */ let y = 2;")

	count := 0
	for _, tok := range tokens {
		if tok.Kind == jack.IdentTok && (tok.Lexeme == "x" || tok.Lexeme == "y") {
			count++
		}
	}
	if count != 2 {
		t.Fatalf("expected both 'x' and 'y' identifiers to survive comment stripping, got %d matches in %+v", count, tokens)
	}
}

func TestTokenizerTracksLineNumbersAcrossNewlines(t *testing.T) {
	tokens := tokensOf(t, "let x = 1;\nlet y = 2;\nlet z = 3;")

	var yLine, zLine int
	for _, tok := range tokens {
		if tok.Kind == jack.IdentTok && tok.Lexeme == "y" {
			yLine = tok.Line
		}
		if tok.Kind == jack.IdentTok && tok.Lexeme == "z" {
			zLine = tok.Line
		}
	}
	if yLine != 2 {
		t.Errorf("expected 'y' on line 2, got %d", yLine)
	}
	if zLine != 3 {
		t.Errorf("expected 'z' on line 3, got %d", zLine)
	}
}

func TestTokenizerRejectsUnterminatedString(t *testing.T) {
	_, err := jack.NewTokenizer(strings.NewReader(`let x = "unterminated;`), "test.jack")
	if err == nil {
		t.Fatal("expected an error for an unterminated string constant, got nil")
	}
}

func TestTokenizerRejectsUnterminatedBlockComment(t *testing.T) {
	_, err := jack.NewTokenizer(strings.NewReader("let x = 1; /* never closed"), "test.jack")
	if err == nil {
		t.Fatal("expected an error for an unterminated block comment, got nil")
	}
}

func TestTokenizerRejectsOutOfRangeIntegerConstant(t *testing.T) {
	_, err := jack.NewTokenizer(strings.NewReader("let x = 99999;"), "test.jack")
	if err == nil {
		t.Fatal("expected an error for an integer constant above 32767, got nil")
	}
}

func TestTokenizerPeekAheadDoesNotConsume(t *testing.T) {
	tz, err := jack.NewTokenizer(strings.NewReader("a b c"), "test.jack")
	if err != nil {
		t.Fatalf("NewTokenizer() returned error: %s", err)
	}

	first, _ := tz.Peek()
	ahead, ok := tz.PeekAt(1)
	if !ok || ahead.Lexeme != "b" {
		t.Fatalf("PeekAt(1) = %+v, ok=%v, want lexeme 'b'", ahead, ok)
	}

	again, _ := tz.Peek()
	if again != first {
		t.Fatalf("Peek() after PeekAt(1) changed: got %+v, want %+v", again, first)
	}
}
