package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/OFFIS-RIT/animekg/backend/pkg/query"
	"github.com/OFFIS-RIT/animekg/backend/pkg/schema"
)

type answerer interface {
	Answer(ctx context.Context, query string) query.Result
}

// repl reads one question per line until EOF, "exit" or "quit".
func repl(ctx context.Context, in io.Reader, out io.Writer, qa answerer) error {
	fmt.Fprintln(out, "动漫知识图谱问答，输入 exit 或 quit 退出。")
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "问题> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit":
			fmt.Fprintln(out, "再见！")
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		printResult(out, qa.Answer(ctx, line))
	}
}

func printResult(out io.Writer, res query.Result) {
	fmt.Fprintf(out, "[实体] %s\n", formatEntities(res.Meta.Entities))
	it := res.Meta.Intent
	fmt.Fprintf(out, "[意图] mode=%s predicates=%s source=%s result=%s\n",
		it.Mode, joinOrDash(it.Predicates), joinOrDash(typeNames(it.SourceTypes)), joinOrDash(it.ResultTypes))
	used := res.Meta.UsedPlan
	if used == "" {
		used = "-"
	}
	fmt.Fprintf(out, "[查询] %s (%d 条证据)\n", used, len(res.Evidence))
	fmt.Fprintf(out, "[回答] %s\n", res.Answer)
}

func formatEntities(entities map[schema.EntityType][]string) string {
	var parts []string
	for _, t := range schema.PriorityOrder {
		if names := entities[t]; len(names) > 0 {
			parts = append(parts, fmt.Sprintf("%s: %s", t, strings.Join(names, ", ")))
		}
	}
	if len(parts) == 0 {
		return "（无）"
	}
	return strings.Join(parts, "; ")
}

func typeNames(types []schema.EntityType) []string {
	out := make([]string, 0, len(types))
	for _, t := range types {
		out = append(out, string(t))
	}
	return out
}

func joinOrDash(values []string) string {
	values = slices.DeleteFunc(slices.Clone(values), func(v string) bool { return v == "" })
	if len(values) == 0 {
		return "-"
	}
	return strings.Join(values, "|")
}
