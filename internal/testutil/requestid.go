package testutil

// FixedRequestID generates the same request ID every time.
//
// Scenario golden files embed the request ID in log lines; a fixed ID
// keeps them byte-identical across runs. Safe for concurrent use.
type FixedRequestID struct {
	id string
}

// NewFixedRequestID creates a generator for id. An empty id becomes
// "test-request".
func NewFixedRequestID(id string) *FixedRequestID {
	if id == "" {
		id = "test-request"
	}
	return &FixedRequestID{id: id}
}

// Generate implements engine.RequestIDGenerator.
func (g *FixedRequestID) Generate() string {
	return g.id
}
