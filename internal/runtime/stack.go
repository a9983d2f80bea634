package runtime

import "github.com/aretw0/scriptor/pkg/domain"

// callStack holds the procedure frames of a run. The top frame names the
// active scope; an empty stack means the top-level flow.
type callStack []domain.Frame

func (s *callStack) push(f domain.Frame) {
	*s = append(*s, f)
}

func (s *callStack) pop() (domain.Frame, bool) {
	if len(*s) == 0 {
		return domain.Frame{}, false
	}
	top := (*s)[len(*s)-1]
	*s = (*s)[:len(*s)-1]
	return top, true
}

func (s callStack) scope() string {
	if len(s) == 0 {
		return domain.MainScope
	}
	return s[len(s)-1].Procedure
}

func (s callStack) depth() int { return len(s) }
