package ner

import (
	"math"
	"slices"
	"testing"

	"github.com/OFFIS-RIT/animekg/backend/pkg/schema"
)

func TestRecognize(t *testing.T) {
	dict := NewDictionary(map[schema.EntityType][]string{
		schema.Work:      {"名侦探柯南", "火影忍者", "海贼王"},
		schema.Character: {"蒙奇·D·路飞", "罗罗诺亚·索隆", "江户川柯南", "漩涡鸣人", "五条悟", "夏油杰"},
		schema.Person:    {"田中真弓"},
	})

	tests := []struct {
		name string
		text string
		want Entities
	}{
		{
			name: "dotted name alias",
			text: "路飞的声优是谁？",
			want: Entities{schema.Character: {"蒙奇·D·路飞"}},
		},
		{
			name: "two characters",
			text: "路飞和索隆是什么关系？",
			want: Entities{schema.Character: {"蒙奇·D·路飞", "罗罗诺亚·索隆"}},
		},
		{
			name: "work claims span before character alias",
			text: "名侦探柯南的作者是谁",
			want: Entities{schema.Work: {"名侦探柯南"}},
		},
		{
			name: "full name preferred over tail alias",
			text: "火影忍者里漩涡鸣人的生日",
			want: Entities{schema.Work: {"火影忍者"}, schema.Character: {"漩涡鸣人"}},
		},
		{
			name: "repeated mention deduplicated",
			text: "路飞和蒙奇·D·路飞",
			want: Entities{schema.Character: {"蒙奇·D·路飞"}},
		},
		{
			name: "person tail alias",
			text: "真弓配过哪些角色",
			want: Entities{schema.Person: {"田中真弓"}},
		},
		{
			name: "similarity fallback over characters",
			text: "五条的身高",
			want: Entities{schema.Character: {"五条悟"}},
		},
		{
			name: "nothing recognised",
			text: "今天天气怎么样",
			want: Entities{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := dict.Recognize(tc.text)
			if len(got) != len(tc.want) {
				t.Fatalf("Recognize(%q) got = %v, want %v", tc.text, got, tc.want)
			}
			for typ, names := range tc.want {
				if !slices.Equal(got[typ], names) {
					t.Fatalf("Recognize(%q)[%s] got = %v, want %v", tc.text, typ, got[typ], names)
				}
			}
		})
	}
}

func TestRecognize_FullNameBeatsDerivedAlias(t *testing.T) {
	dict := NewDictionary(map[schema.EntityType][]string{
		schema.Character: {"蒙奇·D·路飞", "路飞"},
	})
	got := dict.Recognize("路飞")
	if !slices.Equal(got[schema.Character], []string{"路飞"}) {
		t.Fatalf("Recognize() got = %v, want [路飞]", got)
	}
}

func TestAliases(t *testing.T) {
	got := aliases(schema.Character, "蒙奇·D·路飞")
	want := []string{"蒙奇·D·路飞", "路飞", "路飞"}
	if len(got) != len(want) {
		t.Fatalf("aliases() got %d entries, want %d", len(got), len(want))
	}
	for i := range want {
		if string(got[i]) != want[i] {
			t.Fatalf("aliases()[%d] got = %q, want %q", i, string(got[i]), want[i])
		}
	}

	if got := aliases(schema.Work, "海贼王"); len(got) != 1 {
		t.Fatalf("aliases(Work) got = %d entries, want 1", len(got))
	}
	if got := aliases(schema.Location, "D·L"); len(got) != 1 {
		t.Fatalf("aliases(short segment) got = %d entries, want 1", len(got))
	}
}

func TestCharIndex(t *testing.T) {
	ix := newCharIndex([]string{"五条悟", "夏油杰"})

	name, score := ix.best("五条的身高")
	if name != "五条悟" {
		t.Fatalf("best() got = %q, want %q", name, "五条悟")
	}
	if want := 2 / math.Sqrt(6); math.Abs(score-want) > 1e-9 {
		t.Fatalf("best() score got = %v, want %v", score, want)
	}

	if name, score := ix.best("五条悟"); name != "五条悟" || math.Abs(score-1) > 1e-9 {
		t.Fatalf("best(exact) got = %q, %v", name, score)
	}
	if name, score := ix.best("abc"); name != "" || score != 0 {
		t.Fatalf("best(no overlap) got = %q, %v", name, score)
	}
}

func TestCharIndex_Stable(t *testing.T) {
	names := []string{"蒙奇·D·路飞", "波特卡斯·D·艾斯", "萨博", "罗罗诺亚·索隆", "文斯莫克·山治", "托拉法尔加·D·瓦铁尔·罗"}
	query := "路飞和艾斯还有罗的哥哥萨博"

	wantName, wantScore := newCharIndex(names).best(query)
	for i := 0; i < 50; i++ {
		ix := newCharIndex(names)
		for _, vec := range ix.vecs {
			if !slices.IsSortedFunc(vec, func(a, b termWeight) int { return int(a.r - b.r) }) {
				t.Fatalf("newCharIndex() vector not sorted by rune: %v", vec)
			}
		}
		name, score := ix.best(query)
		if name != wantName || math.Float64bits(score) != math.Float64bits(wantScore) {
			t.Fatalf("best() run %d got = %q, %v, want %q, %v", i, name, score, wantName, wantScore)
		}
	}
}

func TestNormalizeChars(t *testing.T) {
	if got := string(normalizeChars("Ab  \t C")); got != "ab c" {
		t.Fatalf("normalizeChars() got = %q, want %q", got, "ab c")
	}
}
