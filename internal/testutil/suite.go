package testutil

import (
	"testing"
)

// TestSuite runs named subtests with shared setup and teardown hooks
type TestSuite struct {
	t        *testing.T
	setup    []func(t *testing.T)
	teardown []func(t *testing.T)
}

// NewTestSuite creates a new test suite
func NewTestSuite(t *testing.T) *TestSuite {
	return &TestSuite{t: t}
}

// BeforeEach registers a hook that runs before every subtest
func (s *TestSuite) BeforeEach(fn func(t *testing.T)) *TestSuite {
	s.setup = append(s.setup, fn)
	return s
}

// AfterEach registers a hook that runs after every subtest, in reverse order
func (s *TestSuite) AfterEach(fn func(t *testing.T)) *TestSuite {
	s.teardown = append(s.teardown, fn)
	return s
}

// RunTest wraps a test function with setup and teardown
func (s *TestSuite) RunTest(name string, testFunc func(t *testing.T)) {
	s.t.Run(name, func(t *testing.T) {
		for _, fn := range s.setup {
			fn(t)
		}
		defer func() {
			for i := len(s.teardown) - 1; i >= 0; i-- {
				s.teardown[i](t)
			}
		}()
		testFunc(t)
	})
}
