package idom

// scope is the activation record of one nesting level of the walk.
type scope[N comparable] struct {
	// parent is the node whose children are being visited.
	parent N
	// cursor is the next old child to consider; zero means end.
	cursor N
	// tag is the tag the scope was opened with, for close checks.
	tag string
}

// scopeStack is the Context Stack. The innermost scope is last.
type scopeStack[N comparable] struct {
	scopes []scope[N]
}

func (s *scopeStack[N]) push(sc scope[N]) {
	s.scopes = append(s.scopes, sc)
}

func (s *scopeStack[N]) pop() scope[N] {
	n := len(s.scopes) - 1
	sc := s.scopes[n]
	s.scopes[n] = scope[N]{}
	s.scopes = s.scopes[:n]
	return sc
}

// top returns the innermost scope. The stack is never empty during a walk.
func (s *scopeStack[N]) top() *scope[N] {
	return &s.scopes[len(s.scopes)-1]
}

func (s *scopeStack[N]) depth() int {
	return len(s.scopes)
}

// openTags returns the tags of every scope above the root, outermost first.
func (s *scopeStack[N]) openTags() []string {
	if len(s.scopes) <= 1 {
		return nil
	}
	tags := make([]string, 0, len(s.scopes)-1)
	for _, sc := range s.scopes[1:] {
		tags = append(tags, sc.tag)
	}
	return tags
}
