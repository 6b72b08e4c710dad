package intent

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/OFFIS-RIT/animekg/backend/pkg/ai/aitest"
	"github.com/OFFIS-RIT/animekg/backend/pkg/schema"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  Intent
	}{
		{
			name:  "clean object",
			reply: `{"query_mode": "get_entity", "query_predicate": "VoiceBy", "source_entity_type": "Character", "result_value_type": "Person"}`,
			want: Intent{
				Mode:        ModeGetEntity,
				Predicates:  []string{"VoiceBy"},
				SourceTypes: []schema.EntityType{schema.Character},
				ResultTypes: []string{"Person"},
			},
		},
		{
			name:  "leading and trailing text",
			reply: "解析结果：\n{\"query_mode\": \"get_property\", \"query_predicate\": \"Height|unknown|Height\", \"source_entity_type\": \"Character|Robot\", \"result_value_type\": \"Property\"}\n以上。",
			want: Intent{
				Mode:        ModeGetProperty,
				Predicates:  []string{"Height"},
				SourceTypes: []schema.EntityType{schema.Character},
				ResultTypes: []string{"Property"},
			},
		},
		{
			name:  "malformed json is repaired",
			reply: `{query_mode: 'find_relation', query_predicate: 'UNKNOWN', source_entity_type: 'Character | Work',}`,
			want: Intent{
				Mode:        ModeFindRelation,
				SourceTypes: []schema.EntityType{schema.Character, schema.Work},
			},
		},
		{
			name:  "unknown mode",
			reply: `{"query_mode": "lookup_everything"}`,
			want:  Intent{Mode: ModeUnknown},
		},
		{
			name:  "no object",
			reply: "Sorry, I cannot help with that.",
			want:  Empty(),
		},
		{
			name:  "empty",
			reply: "",
			want:  Empty(),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Parse(tc.reply)
			if got.Mode != tc.want.Mode ||
				!slices.Equal(got.Predicates, tc.want.Predicates) ||
				!slices.Equal(got.SourceTypes, tc.want.SourceTypes) ||
				!slices.Equal(got.ResultTypes, tc.want.ResultTypes) {
				t.Fatalf("Parse() got = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestParseMode(t *testing.T) {
	if got := ParseMode(" Get_Property "); got != ModeGetProperty {
		t.Fatalf("ParseMode() got = %q, want %q", got, ModeGetProperty)
	}
	if got := ParseMode(""); got != ModeUnknown {
		t.Fatalf("ParseMode(\"\") got = %q, want %q", got, ModeUnknown)
	}
}

func TestClassifier_NoClient(t *testing.T) {
	c := NewClassifier(ClassifierParams{})
	got := c.Classify(context.Background(), "五条悟有多高？", nil)
	if got.Mode != ModeUnknown || len(got.Predicates) != 0 {
		t.Fatalf("Classify() got = %+v, want empty intent", got)
	}
}

func TestClassifier_TextMode(t *testing.T) {
	client := &aitest.Client{Reply: `{"query_mode": "get_entity", "query_predicate": "VoiceBy"}`}
	c := NewClassifier(ClassifierParams{Client: client})

	entities := map[schema.EntityType][]string{schema.Character: {"路飞"}}
	got := c.Classify(context.Background(), "路飞的声优是谁？", entities)
	if got.Mode != ModeGetEntity || !slices.Equal(got.Predicates, []string{"VoiceBy"}) {
		t.Fatalf("Classify() got = %+v", got)
	}

	calls := client.Calls()
	if len(calls) != 1 || calls[0].Method != "completion" {
		t.Fatalf("Classify() calls got = %+v, want one completion", calls)
	}
	prompt := calls[0].Prompt
	for _, want := range []string{"路飞的声优是谁？", "Character: 路飞", "- HasFriend", "- OriginalAuthor"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("Classify() prompt missing %q", want)
		}
	}
	if calls[0].Options.Temperature != 0 {
		t.Fatalf("Classify() temperature got = %v, want 0", calls[0].Options.Temperature)
	}
}

func TestClassifier_StructuredFallsBackToText(t *testing.T) {
	client := &aitest.Client{
		StructuredErr: errors.New("response_format not supported"),
		Reply:         `{"query_mode": "get_property", "query_predicate": "Height"}`,
	}
	c := NewClassifier(ClassifierParams{Client: client, Structured: true})

	got := c.Classify(context.Background(), "五条悟有多高？", nil)
	if got.Mode != ModeGetProperty {
		t.Fatalf("Classify() got = %+v", got)
	}
	calls := client.Calls()
	if len(calls) != 2 || calls[0].Method != "format" || calls[1].Method != "completion" {
		t.Fatalf("Classify() calls got = %+v", calls)
	}
}

func TestClassifier_Structured(t *testing.T) {
	client := &aitest.Client{
		StructuredReply: `{"query_mode": "find_relation", "query_predicate": "HasCompanion", "source_entity_type": "Character", "result_value_type": "Relationship"}`,
	}
	c := NewClassifier(ClassifierParams{Client: client, Structured: true})

	got := c.Classify(context.Background(), "路飞和索隆是什么关系？", nil)
	if got.Mode != ModeFindRelation || !slices.Equal(got.SourceTypes, []schema.EntityType{schema.Character}) {
		t.Fatalf("Classify() got = %+v", got)
	}
	if len(client.Calls()) != 1 {
		t.Fatalf("Classify() expected a single structured call, got %d", len(client.Calls()))
	}
}

func TestClassifier_ModelError(t *testing.T) {
	client := &aitest.Client{Err: errors.New("rate limited")}
	c := NewClassifier(ClassifierParams{Client: client})

	got := c.Classify(context.Background(), "q", nil)
	if got.Mode != ModeUnknown {
		t.Fatalf("Classify() got = %+v, want empty intent", got)
	}
}

func TestParse_DropsUnknownRelations(t *testing.T) {
	got := Parse(`{"query_mode": "get_entity", "query_predicate": "VoiceBy|HasTail|unknown|VoiceBy"}`)
	if !slices.Equal(got.Predicates, []string{"VoiceBy"}) {
		t.Fatalf("Parse() predicates got = %v, want [VoiceBy]", got.Predicates)
	}

	custom, err := schema.Load([]byte("relations:\n  - {name: HasTail, attribute: true}\n"))
	if err != nil {
		t.Fatalf("schema.Load() unexpected error: %v", err)
	}
	got = ParseWith(`{"query_mode": "get_property", "query_predicate": "VoiceBy|HasTail"}`, custom)
	if !slices.Equal(got.Predicates, []string{"HasTail"}) {
		t.Fatalf("ParseWith() predicates got = %v, want [HasTail]", got.Predicates)
	}
}

func TestClassifier_Model(t *testing.T) {
	tests := []struct {
		name       string
		structured bool
		model      string
		wantCalls  int
	}{
		{name: "text with intent model", model: "intent-model", wantCalls: 1},
		{name: "structured with intent model", structured: true, model: "intent-model", wantCalls: 2},
		{name: "client default", wantCalls: 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := &aitest.Client{
				StructuredErr: errors.New("response_format not supported"),
				Reply:         `{"query_mode": "get_property", "query_predicate": "Height"}`,
			}
			c := NewClassifier(ClassifierParams{Client: client, Structured: tc.structured, Model: tc.model})
			c.Classify(context.Background(), "五条悟有多高？", nil)

			calls := client.Calls()
			if len(calls) != tc.wantCalls {
				t.Fatalf("Classify() calls got = %d, want %d", len(calls), tc.wantCalls)
			}
			for _, call := range calls {
				if call.Options.Model != tc.model {
					t.Fatalf("Classify() %s model got = %q, want %q", call.Method, call.Options.Model, tc.model)
				}
			}
		})
	}
}
