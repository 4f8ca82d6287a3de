package fuzzy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// naive is the textbook dynamic-programming edit distance.
func naive(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}

func TestDistance(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b string
		want int
	}{
		{name: "both empty", a: "", b: "", want: 0},
		{name: "first empty", a: "", b: "metamask", want: 8},
		{name: "second empty", a: "metamask", b: "", want: 8},
		{name: "identical", a: "metamask", b: "metamask", want: 0},
		{name: "single deletion", a: "metmask", b: "metamask", want: 1},
		{name: "single substitution", a: "b4r", b: "bar", want: 1},
		{name: "two substitutions", a: "b44r", b: "bar", want: 2},
		{name: "kitten", a: "kitten", b: "sitting", want: 3},
		{name: "hyphenated lookalike", a: "met-amask-io", b: "metamask", want: 4},
		{name: "subdomain fuzzy form", a: "foo.bar", b: "bar", want: 4},
		{name: "unicode runes", a: "mеtamask", b: "metamask", want: 1},
		{name: "exactly one word", a: strings.Repeat("a", 32), b: strings.Repeat("a", 31) + "b", want: 1},
		{name: "two words", a: strings.Repeat("ab", 20), b: strings.Repeat("ba", 20), want: 2},
		{name: "long prefix", a: strings.Repeat("x", 100), b: strings.Repeat("x", 70), want: 30},
		{name: "long disjoint", a: strings.Repeat("q", 65), b: strings.Repeat("z", 65), want: 65},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Distance(tt.a, tt.b))
			assert.Equal(t, tt.want, Distance(tt.b, tt.a), "distance must be symmetric")
			assert.Equal(t, naive(tt.a, tt.b), Distance(tt.a, tt.b))
		})
	}
}

func TestScratchReuse(t *testing.T) {
	var s Scratch
	pairs := [][2]string{
		{"metamask", "metmask"},
		{strings.Repeat("abc", 30), strings.Repeat("acb", 30)},
		{"uniswap", "unlswap"},
		{"ünïcode", "unicode"},
		{strings.Repeat("ü", 40), strings.Repeat("u", 40)},
		{"metamask", "metmask"},
	}
	for _, p := range pairs {
		assert.Equal(t, naive(p[0], p[1]), s.Distance(p[0], p[1]), "%q vs %q", p[0], p[1])
	}
}

func FuzzDistance(f *testing.F) {
	seeds := [][2]string{
		{"", ""},
		{"metamask", "metmask"},
		{"myetherwallet", "myetherwa1let"},
		{strings.Repeat("a", 33), strings.Repeat("a", 32)},
		{strings.Repeat("abcd", 16), strings.Repeat("dcba", 16)},
		{"日本語", "日本"},
		{"\xff\xfe", "a"},
	}
	for _, s := range seeds {
		f.Add(s[0], s[1])
	}

	f.Fuzz(func(t *testing.T, a, b string) {
		ra, rb := []rune(a), []rune(b)
		if len(ra) > 64 || len(rb) > 64 {
			t.Skip()
		}
		// Invalid UTF-8 decodes to U+FFFD on both sides, so compare the runes.
		a, b = string(ra), string(rb)

		got := Distance(a, b)
		if want := naive(a, b); got != want {
			t.Fatalf("Distance(%q, %q) = %d, want %d", a, b, got, want)
		}
		if rev := Distance(b, a); rev != got {
			t.Fatalf("Distance not symmetric for %q, %q: %d != %d", a, b, got, rev)
		}
		if Distance(a, a) != 0 {
			t.Fatalf("Distance(%q, %q) != 0", a, a)
		}
	})
}

func BenchmarkDistance(b *testing.B) {
	benchmarks := []struct {
		name string
		a, b string
	}{
		{name: "short", a: "metamask", b: "metamaskk"},
		{name: "word", a: strings.Repeat("m", 32), b: strings.Repeat("n", 30)},
		{name: "blocks", a: strings.Repeat("metamask", 16), b: strings.Repeat("metmask", 18)},
	}
	for _, bm := range benchmarks {
		b.Run(bm.name, func(b *testing.B) {
			var s Scratch
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				s.Distance(bm.a, bm.b)
			}
		})
	}
}
