package assistant

// Sender identifies who wrote a chat message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

const (
	Greeting      = "Hi! I'm the S.P.A.R.K AI. I'm connected securely! Ask me anything."
	FAQGreeting   = "Hello! I'm here to help with your career questions. Click on any FAQ below:"
	maxTranscript = 200
)

// Message is one entry of a chat transcript. Seq increases by one for every
// message appended to the transcript.
type Message struct {
	Seq     int    `json:"seq"`
	Sender  Sender `json:"sender"`
	Text    string `json:"text"`
	IsError bool   `json:"is_error,omitempty"`
}

// Transcript is the ordered chat history of one session. Only the most
// recent messages are kept once the history grows long.
type Transcript struct {
	Messages []Message `json:"messages"`
	NextSeq  int       `json:"next_seq"`
}

// NewTranscript returns a transcript holding the opening greeting.
func NewTranscript() Transcript {
	var t Transcript
	t.append(SenderBot, Greeting, false)
	return t
}

// Since returns the messages with a sequence number greater than seq.
func (t *Transcript) Since(seq int) []Message {
	for i, m := range t.Messages {
		if m.Seq > seq {
			return append([]Message(nil), t.Messages[i:]...)
		}
	}
	return []Message{}
}

func (t *Transcript) append(sender Sender, text string, isError bool) Message {
	if t.NextSeq == 0 {
		t.NextSeq = 1
	}
	m := Message{Seq: t.NextSeq, Sender: sender, Text: text, IsError: isError}
	t.NextSeq++
	t.Messages = append(t.Messages, m)
	if n := len(t.Messages); n > maxTranscript {
		t.Messages = append([]Message(nil), t.Messages[n-maxTranscript:]...)
	}
	return m
}
