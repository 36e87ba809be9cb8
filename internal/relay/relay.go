// Package relay maintains the chat conversation with the worker.
//
// The relay owns an append-only conversation log and forwards user messages
// to the worker's agent endpoint one at a time. Transport and parse failures
// never surface as faults: they degrade to a fixed assistant error entry so
// the conversation always stays consistent for whatever surface renders it.
package relay

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/lumi-desktop/lumi/internal/client"
)

// Greeting seeds every new conversation.
const Greeting = "안녕하세요! Lumi예요. 어떤 파일을 찾아드릴까요?"

// ErrorReply is appended when a send fails in transport or parsing.
const ErrorReply = "죄송해요, 서버에서 응답을 받지 못했어요. 잠시 후 다시 시도해 주세요."

// ErrEmptyMessage rejects empty or whitespace-only input.
var ErrEmptyMessage = errors.New("message is empty")

// ErrBusy rejects a send while a prior request is still outstanding.
var ErrBusy = errors.New("a request is already in flight")

// Role identifies the author of a conversation entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Entry is one immutable conversation log record.
type Entry struct {
	Role    Role
	Text    string
	Results []client.ResultItem
}

// AgentCaller is the slice of the worker client the relay depends on.
type AgentCaller interface {
	Agent(ctx context.Context, req *client.AgentRequest) (*client.AgentResponse, error)
}

// Relay is the single-flight conversation relay.
type Relay struct {
	agent AgentCaller

	mu      sync.Mutex
	busy    bool
	entries []Entry
}

// New creates a relay seeded with the greeting entry.
func New(agent AgentCaller) *Relay {
	return &Relay{
		agent:   agent,
		entries: []Entry{{Role: RoleAssistant, Text: Greeting}},
	}
}

// Entries returns a snapshot of the conversation log in insertion order.
func (r *Relay) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Busy reports whether a request is outstanding. Surfaces use it to disable
// the send affordance and show a progress indicator.
func (r *Relay) Busy() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.busy
}

// Send forwards text to the worker and returns the assistant entry that was
// appended. The user entry is appended before the request is issued. Empty
// input and concurrent sends are rejected; a failed request is not an error
// here — it yields the fixed error entry.
func (r *Relay) Send(ctx context.Context, text string) (Entry, error) {
	if strings.TrimSpace(text) == "" {
		return Entry{}, ErrEmptyMessage
	}

	r.mu.Lock()
	if r.busy {
		r.mu.Unlock()
		return Entry{}, ErrBusy
	}
	r.busy = true
	r.entries = append(r.entries, Entry{Role: RoleUser, Text: text})
	r.mu.Unlock()

	reply := Entry{Role: RoleAssistant, Text: ErrorReply}
	if resp, err := r.agent.Agent(ctx, &client.AgentRequest{UserQuery: text}); err == nil {
		reply = Entry{Role: RoleAssistant, Text: resp.Message, Results: resp.Results}
	}

	r.mu.Lock()
	r.entries = append(r.entries, reply)
	r.busy = false
	r.mu.Unlock()
	return reply, nil
}
