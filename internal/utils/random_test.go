package utils

import (
	"strings"
	"testing"
)

func TestRandomToken(t *testing.T) {
	token, err := RandomToken(TokenLength)
	if err != nil {
		t.Fatalf("ошибка генерации токена: %v", err)
	}
	if len(token) != TokenLength {
		t.Fatalf("ожидалась длина %d, получено %d", TokenLength, len(token))
	}
	for _, r := range token {
		if !strings.ContainsRune(tokenAlphabet, r) {
			t.Fatalf("символ %q вне алфавита токена", r)
		}
	}
}

func TestRandomToken_Unique(t *testing.T) {
	a, _ := RandomToken(TokenLength)
	b, _ := RandomToken(TokenLength)
	if a == b {
		t.Fatal("два токена подряд не должны совпадать")
	}
}
