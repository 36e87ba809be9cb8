package relay

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lumi-desktop/lumi/internal/client"
)

// fakeAgent returns canned responses, optionally blocking until released.
type fakeAgent struct {
	resp    *client.AgentResponse
	err     error
	block   chan struct{} // if non-nil, Agent blocks until closed
	started chan struct{} // if non-nil, closed when Agent is entered
	calls   int
}

func (f *fakeAgent) Agent(ctx context.Context, req *client.AgentRequest) (*client.AgentResponse, error) {
	f.calls++
	if f.started != nil {
		close(f.started)
		f.started = nil
	}
	if f.block != nil {
		<-f.block
	}
	return f.resp, f.err
}

func TestNew_SeedsGreeting(t *testing.T) {
	r := New(&fakeAgent{})
	entries := r.Entries()
	if len(entries) != 1 {
		t.Fatalf("Expected 1 seeded entry, got %d", len(entries))
	}
	if entries[0].Role != RoleAssistant || entries[0].Text != Greeting {
		t.Errorf("Seed entry = %+v, want assistant greeting", entries[0])
	}
}

func TestSend_Success(t *testing.T) {
	agent := &fakeAgent{resp: &client.AgentResponse{
		Message: "3 empty folders found",
		Results: []client.ResultItem{{Name: "tmp", Path: "/tmp"}},
	}}
	r := New(agent)

	reply, err := r.Send(context.Background(), "빈 폴더 찾아줘")
	if err != nil {
		t.Fatalf("Send() error: %v", err)
	}
	if reply.Text != "3 empty folders found" {
		t.Errorf("Reply text = %q, want %q", reply.Text, "3 empty folders found")
	}

	entries := r.Entries()
	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries (greeting, user, assistant), got %d", len(entries))
	}
	if entries[0].Text != Greeting {
		t.Errorf("entries[0] = %q, want greeting", entries[0].Text)
	}
	if entries[1].Role != RoleUser || entries[1].Text != "빈 폴더 찾아줘" {
		t.Errorf("entries[1] = %+v, want user entry with original text", entries[1])
	}
	if entries[2].Role != RoleAssistant || len(entries[2].Results) != 1 {
		t.Errorf("entries[2] = %+v, want assistant entry with 1 result", entries[2])
	}
	if entries[2].Results[0].Name != "tmp" || entries[2].Results[0].Path != "/tmp" {
		t.Errorf("Result = %+v, want tmp:/tmp", entries[2].Results[0])
	}
}

func TestSend_EmptyInput(t *testing.T) {
	agent := &fakeAgent{}
	r := New(agent)

	for _, input := range []string{"", "   ", "\t\n"} {
		if _, err := r.Send(context.Background(), input); !errors.Is(err, ErrEmptyMessage) {
			t.Errorf("Send(%q) error = %v, want ErrEmptyMessage", input, err)
		}
	}
	if agent.calls != 0 {
		t.Errorf("Expected no agent calls for empty input, got %d", agent.calls)
	}
	if len(r.Entries()) != 1 {
		t.Error("Empty input must not append entries")
	}
}

func TestSend_SingleFlight(t *testing.T) {
	agent := &fakeAgent{
		resp:    &client.AgentResponse{Message: "done"},
		block:   make(chan struct{}),
		started: make(chan struct{}),
	}
	r := New(agent)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := r.Send(context.Background(), "first"); err != nil {
			t.Errorf("First Send() error: %v", err)
		}
	}()

	<-agent.started
	if !r.Busy() {
		t.Error("Busy() = false while a request is outstanding")
	}

	if _, err := r.Send(context.Background(), "second"); !errors.Is(err, ErrBusy) {
		t.Errorf("Second Send() error = %v, want ErrBusy", err)
	}

	close(agent.block)
	<-done

	if agent.calls != 1 {
		t.Errorf("Expected exactly 1 agent call, got %d", agent.calls)
	}
	entries := r.Entries()
	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(entries))
	}
	for _, e := range entries {
		if e.Text == "second" {
			t.Error("Rejected send must not append a user entry")
		}
	}
}

func TestSend_FailureDegradesToErrorEntry(t *testing.T) {
	agent := &fakeAgent{err: errors.New("connection refused")}
	r := New(agent)

	reply, err := r.Send(context.Background(), "빈 폴더 찾아줘")
	if err != nil {
		t.Fatalf("Send() must not fail on transport errors, got %v", err)
	}
	if reply.Text != ErrorReply {
		t.Errorf("Reply = %q, want fixed error reply", reply.Text)
	}

	entries := r.Entries()
	if last := entries[len(entries)-1]; last.Role != RoleAssistant || last.Text != ErrorReply {
		t.Errorf("Last entry = %+v, want fixed assistant error entry", last)
	}

	// The single-flight flag must clear so the next send is accepted.
	if r.Busy() {
		t.Error("Busy() = true after a failed send resolved")
	}
	agent.err = nil
	agent.resp = &client.AgentResponse{Message: "ok now"}
	if _, err := r.Send(context.Background(), "again"); err != nil {
		t.Errorf("Follow-up Send() error: %v", err)
	}
}

func TestSend_BusyClearsPromptly(t *testing.T) {
	agent := &fakeAgent{resp: &client.AgentResponse{Message: "hi"}}
	r := New(agent)

	if _, err := r.Send(context.Background(), "hello"); err != nil {
		t.Fatalf("Send() error: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for r.Busy() {
		if time.Now().After(deadline) {
			t.Fatal("Busy() still set after send resolved")
		}
		time.Sleep(time.Millisecond)
	}
}
