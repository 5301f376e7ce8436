package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/turing/pkg/domain"
)

// GraphOverlay contains dynamic machine data to visualize on the graph.
type GraphOverlay struct {
	CurrentState string
	Halted       bool
}

// GenerateMermaid produces a Mermaid state diagram of a transition table.
//
// states lists the known state names in interning order; it fixes the diagram
// IDs (s0, s1, ...) so labels can hold any character. transitions should be the
// live instructions only. The initial state is entered from [*] and the halt
// state exits to [*]. Edges are labelled "read/write dir".
func GenerateMermaid(states []string, transitions []domain.InstructionText, overlay *GraphOverlay) string {
	states = append([]string(nil), states...)
	ids := make(map[string]string, len(states))
	for i, name := range states {
		ids[name] = fmt.Sprintf("s%d", i)
	}
	id := func(name string) string {
		if v, ok := ids[name]; ok {
			return v
		}
		v := fmt.Sprintf("s%d", len(ids))
		ids[name] = v
		states = append(states, name)
		return v
	}

	used := map[string]bool{domain.InitStateName: true}
	for _, t := range transitions {
		used[t.From] = true
		used[t.To] = true
		id(t.From)
		id(t.To)
	}
	id(domain.InitStateName)

	var sb strings.Builder
	sb.WriteString("stateDiagram-v2\n")

	for _, name := range states {
		if !used[name] {
			continue
		}
		fmt.Fprintf(&sb, "    state \"%s\" as %s\n", escapeLabel(name), ids[name])
	}

	fmt.Fprintf(&sb, "    [*] --> %s\n", ids[domain.InitStateName])
	for _, t := range transitions {
		fmt.Fprintf(&sb, "    %s --> %s : %s\n", ids[t.From], ids[t.To], edgeLabel(t))
	}
	if used[domain.HaltStateName] {
		fmt.Fprintf(&sb, "    %s --> [*]\n", ids[domain.HaltStateName])
	}

	if overlay != nil && overlay.CurrentState != "" {
		if cur, ok := ids[overlay.CurrentState]; ok && used[overlay.CurrentState] {
			sb.WriteString("\n    %% Overlay Styles\n")
			// Black text keeps contrast on both light and dark themes
			sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000\n")
			sb.WriteString("    classDef halted fill:#ffcdd2,stroke:#c62828,stroke-width:4px,color:#000\n")
			class := "current"
			if overlay.Halted {
				class = "halted"
			}
			fmt.Fprintf(&sb, "    class %s %s\n", cur, class)
		}
	}

	return sb.String()
}

func edgeLabel(t domain.InstructionText) string {
	return fmt.Sprintf("%s/%s %s", escapeLabel(t.Read.String()), escapeLabel(t.Write.String()), escapeLabel(t.Dir.String()))
}

// escapeLabel replaces characters Mermaid would parse with its entity codes.
func escapeLabel(s string) string {
	r := strings.NewReplacer(
		`"`, "#quot;",
		"<", "#lt;",
		">", "#gt;",
		":", "#colon;",
	)
	return r.Replace(s)
}
