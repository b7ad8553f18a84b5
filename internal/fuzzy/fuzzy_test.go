package fuzzy

import (
	"math"
	"math/rand"
	"strings"
	"testing"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 0.01
}

func TestPartialRatio_Fixtures(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"Công ty ABC vừa công bố lợi nhuận tăng", "Công ty Cổ phần ABC", 73.33},
		{"Công ty ABC vừa công bố lợi nhuận tăng", "abc", 100},
		{"Thị trường bất động sản phục hồi mạnh trong quý 3", "bất động sản", 100},
		{"Thị trường bất động sản phục hồi mạnh trong quý 3", "ngân hàng", 55.56},
		{"Thị trường bất động sản phục hồi mạnh trong quý 3", "nhà đất", 57.14},
		{"Vietcombank báo lãi kỷ lục, cổ phiếu ngân hàng tăng mạnh", "vietcombank", 100},
		{"Vietcombank báo lãi kỷ lục, cổ phiếu ngân hàng tăng mạnh", "Ngân hàng TMCP Ngoại thương Việt Nam", 54.55},
		{"Vietcombank báo lãi kỷ lục, cổ phiếu ngân hàng tăng mạnh", "vcb", 50},
		{"Giá thép tăng", "Công ty Cổ phần Tập đoàn Hòa Phát", 38.46},
		{"hello world", "world", 100},
		{"abcd", "abxd", 75},
		{"this is a test", "this is a test!", 100},
		{"fuzzy wuzzy was a bear", "wuzzy fuzzy was a bear", 93.02},
		{"ab", "ba", 66.67},
		{"abcdefgh", "xxabcxx", 60},
		{"", "abc", 0},
		{"", "", 100},
	}

	for _, tt := range tests {
		t.Run(tt.a+"|"+tt.b, func(t *testing.T) {
			got := PartialRatio(tt.a, tt.b)
			if !approx(got, tt.want) {
				t.Errorf("PartialRatio(%q, %q) = %.4f, want %.2f", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestPartialRatio_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"Công ty ABC vừa công bố lợi nhuận tăng", "Công ty Cổ phần ABC"},
		{"abcdefgh", "xxabcxx"},
		{"ab", "ba"},
	}
	for _, p := range pairs {
		if a, b := PartialRatio(p[0], p[1]), PartialRatio(p[1], p[0]); a != b {
			t.Errorf("PartialRatio not symmetric for %q/%q: %.4f vs %.4f", p[0], p[1], a, b)
		}
	}
}

func TestPartialRatio_CaseInsensitive(t *testing.T) {
	if got := PartialRatio("VIETCOMBANK tăng trưởng", "vietcombank"); got != 100 {
		t.Errorf("expected 100 for case-only difference, got %.2f", got)
	}
}

func TestPartialRatio_UnicodeNormalization(t *testing.T) {
	// "ấ" and "ộ" spelled with combining marks
	decomposed := "b\u00e2\u0301t \u0111o\u0302\u0323ng s\u1ea3n"
	if got := PartialRatio("thị trường bất động sản", decomposed); got != 100 {
		t.Errorf("expected NFC-equivalent strings to match fully, got %.2f", got)
	}
}

func TestRatio(t *testing.T) {
	if got := Ratio("abc", "abc"); got != 100 {
		t.Errorf("expected 100, got %.2f", got)
	}
	if got := Ratio("abcd", "abxd"); !approx(got, 75) {
		t.Errorf("expected 75, got %.2f", got)
	}
	if got := Ratio("", ""); got != 100 {
		t.Errorf("expected 100 for two empty strings, got %.2f", got)
	}
	if got := Ratio("abc", ""); got != 0 {
		t.Errorf("expected 0 against empty, got %.2f", got)
	}
}

func TestIsSimilar_Threshold(t *testing.T) {
	article := "Công ty ABC vừa công bố lợi nhuận tăng"
	name := "Công ty Cổ phần ABC"

	if IsSimilar(article, name, 85) {
		t.Error("expected no match at threshold 85")
	}
	if !IsSimilar(article, name, 70) {
		t.Error("expected match at threshold 70")
	}
	if !IsSimilar(article, "abc", 85) {
		t.Error("expected exact substring to match at 85")
	}
}

func TestIsSimilar_Monotonic(t *testing.T) {
	article := "Thị trường bất động sản phục hồi mạnh trong quý 3"
	candidates := []string{"bất động sản", "ngân hàng", "nhà đất", "vcb", "Tập đoàn Vingroup"}

	for _, c := range candidates {
		prev := true
		for threshold := 0; threshold <= 100; threshold++ {
			cur := IsSimilar(article, c, threshold)
			if cur && !prev {
				t.Errorf("%q matched at %d but not at %d", c, threshold, threshold-1)
			}
			prev = cur
		}
	}
}

func TestBitLCS_MatchesDynamicProgram(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	randomRunes := func(n int, alphabet []rune) []rune {
		out := make([]rune, n)
		for i := range out {
			out[i] = alphabet[rng.Intn(len(alphabet))]
		}
		return out
	}
	alphabet := []rune("abcdđêộ ")

	for i := 0; i < 500; i++ {
		pattern := randomRunes(1+rng.Intn(64), alphabet)
		text := randomRunes(rng.Intn(100), alphabet)

		fast := newBitLCS(pattern).length(text)
		slow := dpLCS{pattern: pattern}.length(text)
		if fast != slow {
			t.Fatalf("LCS mismatch for %q / %q: bit=%d dp=%d", string(pattern), string(text), fast, slow)
		}
	}
}

func TestPartialRatio_LongNeedle(t *testing.T) {
	needle := strings.Repeat("ngân hàng ", 8) // 80 code points, exercises the DP path
	haystack := "mở đầu " + needle + " kết thúc"
	if got := PartialRatio(haystack, needle); got != 100 {
		t.Errorf("expected 100 for embedded long needle, got %.2f", got)
	}
}

func TestText(t *testing.T) {
	txt := NewText("  Ngân Hàng ")
	if txt.String() != "  ngân hàng " {
		t.Errorf("unexpected normalized text %q", txt.String())
	}
	if txt.Len() != 12 {
		t.Errorf("expected 12 code points, got %d", txt.Len())
	}
	if NewText("").IsEmpty() != true {
		t.Error("expected empty text")
	}
}

func BenchmarkPartialRatio(b *testing.B) {
	article := NewText(strings.Repeat("Vietcombank báo lãi kỷ lục, cổ phiếu ngân hàng tăng mạnh. ", 50))
	name := NewText("Ngân hàng TMCP Ngoại thương Việt Nam")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		article.PartialRatio(name)
	}
}
