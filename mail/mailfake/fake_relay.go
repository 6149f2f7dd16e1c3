package mailfake

import (
	"context"
	"sync"

	"github.com/jrsteele09/genzmobo-auth/mail"
)

var _ mail.Relay = (*FakeRelay)(nil)

type Message struct {
	To      string
	Subject string
	Body    string
}

// FakeRelay records messages instead of sending them. Err, when set, is
// returned from every Send.
type FakeRelay struct {
	Err  error
	sent []Message
	lock sync.Mutex
}

func NewFakeRelay() *FakeRelay {
	return &FakeRelay{}
}

func (f *FakeRelay) Send(_ context.Context, to, subject, htmlBody string) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.sent = append(f.sent, Message{To: to, Subject: subject, Body: htmlBody})
	return nil
}

func (f *FakeRelay) Sent() []Message {
	f.lock.Lock()
	defer f.lock.Unlock()
	return append([]Message(nil), f.sent...)
}

func (f *FakeRelay) Last() (Message, bool) {
	f.lock.Lock()
	defer f.lock.Unlock()
	if len(f.sent) == 0 {
		return Message{}, false
	}
	return f.sent[len(f.sent)-1], true
}
