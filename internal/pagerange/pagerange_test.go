package pagerange

import (
	"errors"
	"reflect"
	"testing"
)

func seq(from, to int) []int {
	var out []int
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}

func TestParse(t *testing.T) {
	tests := []struct {
		name   string
		expr   string
		anchor int
		want   []int
	}{
		{"mixed tokens", "3,5,4~6,3~8,+5,-10", 9, seq(1, 14)},
		{"forward", "+10", 15, seq(15, 25)},
		{"backward", "-10", 15, seq(5, 15)},
		{"backward clamps at one", "-10", 5, seq(1, 5)},
		{"single page", "7", 1, []int{7}},
		{"overlapping ranges", "2~6,4~9,5", 1, seq(2, 9)},
		{"unsorted input", "9,1,5", 3, []int{1, 5, 9}},
		{"whitespace", " 1 , 2~3 ", 1, seq(1, 3)},
		{"zero forward", "+0", 4, []int{4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.expr, tt.anchor)
			if err != nil {
				t.Fatalf("Parse(%q, %d) error: %v", tt.expr, tt.anchor, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse(%q, %d) = %v, want %v", tt.expr, tt.anchor, got, tt.want)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name   string
		expr   string
		anchor int
	}{
		{"two forward", "+5,+3", 4},
		{"two backward", "-1,-2", 4},
		{"zero anchor", "1", 0},
		{"negative anchor", "1", -3},
		{"empty token", "1,,2", 1},
		{"not a number", "abc", 1},
		{"descending range", "8~3", 1},
		{"zero page", "0", 1},
		{"bad relative", "+x", 1},
		{"forward overflow", "+9223372036854775807", 9},
		{"forward overflow after page", "5,+9223372036854775800", 9},
		{"forward past max page", "+10", MaxPage - 5},
		{"backward too large", "-9223372036854775807", 9},
		{"huge range", "1~9223372036854775807", 1},
		{"page past max", "32768", 1},
		{"anchor past max", "1", MaxPage + 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.expr, tt.anchor)
			if !errors.Is(err, ErrRangeExpression) {
				t.Errorf("Parse(%q, %d) error = %v, want ErrRangeExpression", tt.expr, tt.anchor, err)
			}
		})
	}
}

func TestParse_MaxPage(t *testing.T) {
	got, err := Parse("+5", MaxPage-5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 6 || got[len(got)-1] != MaxPage {
		t.Errorf("Parse(+5, MaxPage-5) = %v, want 6 pages ending at %d", got, MaxPage)
	}
}

func TestParse_DedupInvariant(t *testing.T) {
	got, err := Parse("1~10,5~15,10~20,12", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	counts := make(map[int]int)
	for _, p := range got {
		counts[p]++
	}
	for p := 1; p <= 20; p++ {
		if counts[p] != 1 {
			t.Errorf("page %d appears %d times, want 1", p, counts[p])
		}
	}
	if len(got) != 20 {
		t.Errorf("got %d pages, want 20", len(got))
	}
}

func TestPageURLs(t *testing.T) {
	tests := []struct {
		name string
		url  string
		expr string
		want []string
	}{
		{
			name: "numbered page anchors relative ranges",
			url:  "https://xchina.co/photos/series-5f1476781eab4/4.html",
			expr: "-1,+1",
			want: []string{
				"https://xchina.co/photos/series-5f1476781eab4/3.html",
				"https://xchina.co/photos/series-5f1476781eab4/4.html",
				"https://xchina.co/photos/series-5f1476781eab4/5.html",
			},
		},
		{
			name: "series url anchors at one",
			url:  "https://xchina.co/photos/series-5f1476781eab4.html",
			expr: "1~2",
			want: []string{
				"https://xchina.co/photos/series-5f1476781eab4/1.html",
				"https://xchina.co/photos/series-5f1476781eab4/2.html",
			},
		},
		{
			name: "trailing slash",
			url:  "https://xchina.co/model/id-abc/2.html/",
			expr: "2",
			want: []string{"https://xchina.co/model/id-abc/2.html"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PageURLs(tt.url, tt.expr)
			if err != nil {
				t.Fatalf("PageURLs error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("PageURLs() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPageURLs_InvalidExpression(t *testing.T) {
	_, err := PageURLs("https://xchina.co/photos/series-x.html", "+1,+2")
	if !errors.Is(err, ErrRangeExpression) {
		t.Errorf("error = %v, want ErrRangeExpression", err)
	}
}
