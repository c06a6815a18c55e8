package testutil

// FixedIDGenerator returns the same execution id every time.
//
// Log output of enumerations that use it is byte-identical across runs,
// which golden comparisons depend on.
//
// Thread-safety: FixedIDGenerator is stateless and safe for concurrent use.
type FixedIDGenerator struct {
	id string
}

// NewFixedIDGenerator creates a generator returning id.
//
// If id is empty, Generate returns "test-execution".
func NewFixedIDGenerator(id string) *FixedIDGenerator {
	if id == "" {
		id = "test-execution"
	}
	return &FixedIDGenerator{id: id}
}

// Generate returns the fixed id.
func (g *FixedIDGenerator) Generate() string {
	return g.id
}
