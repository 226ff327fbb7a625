package classifier

import "context"

// MockClient permite tests y uso local sin un clasificador real.
type MockClient struct {
	Verdict Verdict
	Err     error
	Calls   []Request
}

func (m *MockClient) Scan(_ context.Context, req Request) (Verdict, error) {
	m.Calls = append(m.Calls, req)
	return m.Verdict, m.Err
}
