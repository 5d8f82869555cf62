// Package graph draws conversation stacks as Mermaid flowcharts.
package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/corebot/pkg/domain"
)

// StackMermaid renders the stack bottom-up: one node per frame, an edge from
// each parent to the child it began, and the active frame highlighted.
// Frames waiting on a prompt use the input shape [/Parallelogram/].
func StackMermaid(stack *domain.Stack) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	if stack.Empty() {
		sb.WriteString("    empty((\"(empty)\"))\n")
		return sb.String()
	}

	for i, f := range stack.Frames {
		id := frameID(i)
		opener, closer := "[", "]"
		if f.Prompted {
			opener, closer = "[/", "/]"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s <br/> step %d\"%s\n", id, opener, escape(f.DialogID), f.StepIndex, closer)
		if i > 0 {
			fmt.Fprintf(&sb, "    %s -- \"begin\" --> %s\n", frameID(i-1), id)
		}
	}

	sb.WriteString("\n    %% Overlay Styles\n")
	// Black text keeps contrast on both light and dark themes.
	sb.WriteString("    classDef suspended fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
	sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
	for i := 0; i < stack.Len()-1; i++ {
		fmt.Fprintf(&sb, "    class %s suspended;\n", frameID(i))
	}
	fmt.Fprintf(&sb, "    class %s current;\n", frameID(stack.Len()-1))

	return sb.String()
}

func frameID(i int) string {
	return fmt.Sprintf("f%d", i)
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}
