package store

import "testing"

func TestInbox(t *testing.T) {
	in := NewInbox()
	if in.Len() != 0 {
		t.Fatalf("new inbox Len() = %d, want 0", in.Len())
	}

	in.Add("alice@192.168.1.10", "hello")
	in.Add("bob@192.168.1.11", "hi back")

	msgs := in.Messages()
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[0].From != "alice@192.168.1.10" || msgs[0].Content != "hello" {
		t.Errorf("first message = %+v", msgs[0])
	}
	if msgs[1].From != "bob@192.168.1.11" {
		t.Errorf("second message from %q", msgs[1].From)
	}
	if msgs[0].ReceivedAt.IsZero() {
		t.Error("ReceivedAt not stamped")
	}

	msgs[0].Content = "mutated"
	if in.Messages()[0].Content != "hello" {
		t.Error("inbox mutated through returned slice")
	}
}
