package scoring

import (
	"sort"
	"testing"
)

func TestTokenizeLatin(t *testing.T) {
	tokens := Tokenize("Build the checkout API with Go")
	want := map[string]bool{"build": true, "checkout": true, "api": true, "go": true}
	for _, tok := range tokens {
		if !want[tok] {
			t.Errorf("unexpected token %q", tok)
		}
		delete(want, tok)
	}
	if len(want) != 0 {
		t.Errorf("missing tokens: %v", want)
	}
}

func TestTokenizeStopwords(t *testing.T) {
	tokens := Tokenize("the and of 的 了")
	if len(tokens) != 0 {
		t.Errorf("expected stopwords filtered, got %v", tokens)
	}
}

func TestTokenizeHanNgrams(t *testing.T) {
	tokens := Tokenize("支付网关")
	set := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		set[tok] = true
	}
	// 1-, 2- and 3-grams over the run.
	for _, want := range []string{"支", "支付", "付网", "支付网", "付网关", "网关"} {
		if !set[want] {
			t.Errorf("expected n-gram %q in %v", want, tokens)
		}
	}
}

func TestTokenizeMixedScripts(t *testing.T) {
	tokens := Tokenize("Go服务开发")
	set := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		set[tok] = true
	}
	if !set["go"] {
		t.Error("expected latin token alongside han n-grams")
	}
	if !set["服务"] {
		t.Error("expected 2-gram from han run")
	}
}

func TestTokenizeEmpty(t *testing.T) {
	if got := Tokenize(""); got != nil {
		t.Errorf("expected nil for empty input, got %v", got)
	}
}

func TestCanonicalSet(t *testing.T) {
	got := CanonicalSet([]string{"Golang", "go", "K8S", "粤语", "广东话"})
	sort.Strings(got)
	want := []string{"cantonese", "go", "kubernetes"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("expected %v, got %v", want, got)
			break
		}
	}
}

func TestOverlapRatio(t *testing.T) {
	tests := []struct {
		name     string
		req, cap []string
		want     float64
	}{
		{"full", []string{"a", "b"}, []string{"a", "b", "c"}, 1},
		{"half", []string{"a", "b"}, []string{"a"}, 0.5},
		{"none", []string{"a"}, []string{"b"}, 0},
		{"empty req", nil, []string{"a"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := overlapRatio(tt.req, tt.cap); got != tt.want {
				t.Errorf("overlapRatio = %v, want %v", got, tt.want)
			}
		})
	}
}
