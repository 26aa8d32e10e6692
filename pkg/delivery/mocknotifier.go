package delivery

import "context"

// MockNotifier records sent messages and returns a scripted outcome
type MockNotifier struct {
	Outcome      Outcome
	Err          error
	SentMessages []Message
}

func (m *MockNotifier) Send(ctx context.Context, msg Message) (Outcome, error) {
	m.SentMessages = append(m.SentMessages, msg)
	if m.Outcome == "" {
		return OutcomeDelivered, nil
	}
	return m.Outcome, m.Err
}
