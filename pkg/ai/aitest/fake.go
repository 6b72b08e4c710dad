// Package aitest provides a scripted ai.GraphAIClient for tests.
package aitest

import (
	"context"
	"sync"

	"github.com/OFFIS-RIT/animekg/backend/pkg/ai"
)

// Call records one request made to the fake client.
type Call struct {
	Method   string
	Prompt   string
	Messages []ai.ChatMessage
	Options  ai.GenerateOptions
}

// Client answers every completion with Reply, or fails with Err. Structured
// calls decode StructuredReply into out, or fail with StructuredErr.
type Client struct {
	Reply           string
	Err             error
	StructuredReply string
	StructuredErr   error

	// Block makes calls wait for ctx to be done before returning ctx.Err().
	Block bool

	mu    sync.Mutex
	calls []Call
}

var _ ai.GraphAIClient = (*Client)(nil)

func (c *Client) record(call Call, opts []ai.GenerateOption) {
	c.mu.Lock()
	defer c.mu.Unlock()
	call.Options = ai.ApplyOptions(ai.GenerateOptions{}, opts...)
	c.calls = append(c.calls, call)
}

// Calls returns the recorded requests in order.
func (c *Client) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Call, len(c.calls))
	copy(out, c.calls)
	return out
}

func (c *Client) wait(ctx context.Context) error {
	if !c.Block {
		return nil
	}
	<-ctx.Done()
	return ctx.Err()
}

func (c *Client) GenerateCompletion(ctx context.Context, prompt string, opts ...ai.GenerateOption) (string, error) {
	c.record(Call{Method: "completion", Prompt: prompt}, opts)
	if err := c.wait(ctx); err != nil {
		return "", err
	}
	return c.Reply, c.Err
}

func (c *Client) GenerateCompletionWithFormat(ctx context.Context, name, description, prompt string, out any, opts ...ai.GenerateOption) error {
	c.record(Call{Method: "format", Prompt: prompt}, opts)
	if err := c.wait(ctx); err != nil {
		return err
	}
	if c.StructuredErr != nil {
		return c.StructuredErr
	}
	return ai.UnmarshalFlexible(c.StructuredReply, out)
}

func (c *Client) GenerateChat(ctx context.Context, messages []ai.ChatMessage, opts ...ai.GenerateOption) (string, error) {
	prompt := ""
	if len(messages) > 0 {
		prompt = messages[len(messages)-1].Message
	}
	c.record(Call{Method: "chat", Prompt: prompt, Messages: append([]ai.ChatMessage(nil), messages...)}, opts)
	if err := c.wait(ctx); err != nil {
		return "", err
	}
	return c.Reply, c.Err
}

func (c *Client) LoadModel(ctx context.Context, opts ...ai.GenerateOption) error { return nil }
func (c *Client) ResetMetrics()                                                {}
func (c *Client) GetMetrics() ai.ModelMetrics                                  { return ai.ModelMetrics{} }
