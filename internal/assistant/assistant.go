package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

const (
	// MaxHistory is how many messages a conversation retains
	MaxHistory = 20
	// promptHistory is how many recent messages are sent with a prompt
	promptHistory = 6
)

type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Conversation is one session's assistant history
type Conversation struct {
	mu       sync.Mutex
	messages []Message
}

func (c *Conversation) append(user, assistant string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages,
		Message{Role: "user", Content: user},
		Message{Role: "assistant", Content: assistant},
	)
	if len(c.messages) > MaxHistory {
		c.messages = c.messages[len(c.messages)-MaxHistory:]
	}
}

// Recent returns up to n of the latest messages, oldest first
func (c *Conversation) Recent(n int) []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n > len(c.messages) {
		n = len(c.messages)
	}
	out := make([]Message, n)
	copy(out, c.messages[len(c.messages)-n:])
	return out
}

type Reply struct {
	Text     string `json:"text"`
	Fallback bool   `json:"fallback"`
}

type Observer interface {
	ObserveAssistant(fallback bool)
}

// Assistant answers trip questions through a Generator and falls back to
// canned local answers on any failure.
type Assistant struct {
	generator Generator
	timeout   time.Duration
	observer  Observer
	logger    *slog.Logger
}

func New(generator Generator, timeout time.Duration, observer Observer, logger *slog.Logger) *Assistant {
	return &Assistant{
		generator: generator,
		timeout:   timeout,
		observer:  observer,
		logger:    logger.With("component", "assistant"),
	}
}

func (a *Assistant) Reply(ctx context.Context, conv *Conversation, message string, tc Context) Reply {
	reply := a.reply(ctx, conv, message, tc)
	if a.observer != nil {
		a.observer.ObserveAssistant(reply.Fallback)
	}
	return reply
}

func (a *Assistant) reply(ctx context.Context, conv *Conversation, message string, tc Context) Reply {
	if a.generator == nil {
		return Reply{Text: Fallback(message, tc), Fallback: true}
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	text, err := a.generator.Generate(ctx, BuildPrompt(message, tc, conv.Recent(promptHistory)))
	if err != nil {
		a.logger.Warn("assistant unavailable, using fallback", "error", err)
		return Reply{Text: Fallback(message, tc), Fallback: true}
	}

	conv.append(message, text)
	return Reply{Text: text}
}

func BuildPrompt(message string, c Context, history []Message) string {
	var b strings.Builder

	b.WriteString(`You are RouteIQ's AI travel assistant. IMPORTANT: Analyze the SPECIFIC traffic data and bus timing provided. Give precise, data-backed recommendations with numbers, not generic statements.

Guidelines:
- Reference specific traffic levels, route durations, and bus times from the data
- Compare routes with exact numbers (e.g., "Route A is 5 minutes faster due to low traffic vs Route B with medium traffic")
- Recommend specific bus times and departure times based on the data
- Mention specific traffic conditions for each route (heavy/medium/low)
- Use the CO2 savings numbers in recommendations

`)

	if len(history) > 0 {
		b.WriteString("Recent conversation:\n")
		for _, m := range history {
			if m.Role == "user" {
				fmt.Fprintf(&b, "User: %s\n", m.Content)
			} else {
				fmt.Fprintf(&b, "Assistant: %s\n", m.Content)
			}
		}
		b.WriteString("\n")
	}

	var data []string
	if c.Origin != "" {
		data = append(data, "Origin: "+c.Origin)
	}
	if c.Destination != "" {
		data = append(data, "Destination: "+c.Destination)
	}
	if c.ArrivalTime != "" {
		data = append(data, "Desired Arrival Time: "+c.ArrivalTime)
	}
	if c.Routes != "" {
		data = append(data, "\nDETAILED ROUTE ANALYSIS:\n"+c.Routes)
	}
	if c.TrafficData != "" {
		data = append(data, "\nTRAFFIC METRICS:\n"+c.TrafficData)
	}
	if c.SelectedRoute != "" {
		data = append(data, "Selected Route: "+c.SelectedRoute)
	}
	if c.BusSchedule != "" {
		data = append(data, "Bus Schedule: "+c.BusSchedule)
	}
	if len(data) > 0 {
		b.WriteString("DATA PROVIDED:\n")
		for _, d := range data {
			b.WriteString(d)
			b.WriteByte('\n')
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "User's question: %q\n\n", message)
	b.WriteString("IMPORTANT: Answer based on the SPECIFIC DATA above. Use actual numbers and compare routes directly. Don't give generic advice - be specific and analytical.")
	return b.String()
}
