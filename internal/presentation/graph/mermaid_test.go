package graph

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/corebot/pkg/domain"
)

func TestStackMermaid(t *testing.T) {
	stack := domain.NewStack()
	stack.Push(domain.Frame{DialogID: "MainDialog", StepIndex: 1})
	stack.Push(domain.Frame{DialogID: "BookingDialog", StepIndex: 2, Prompted: true})

	out := StackMermaid(stack)

	assert.True(t, strings.HasPrefix(out, "graph TD\n"))
	assert.Contains(t, out, `f0["MainDialog <br/> step 1"]`)
	assert.Contains(t, out, `f1[/"BookingDialog <br/> step 2"/]`)
	assert.Contains(t, out, `f0 -- "begin" --> f1`)
	assert.Contains(t, out, "class f0 suspended;")
	assert.Contains(t, out, "class f1 current;")
}

func TestStackMermaid_Empty(t *testing.T) {
	out := StackMermaid(domain.NewStack())
	assert.Contains(t, out, "(empty)")
	assert.NotContains(t, out, "class")
}
