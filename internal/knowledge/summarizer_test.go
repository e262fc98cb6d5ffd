// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package knowledge

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/pdiddy/chain-tracker/pkg/types"
)

type stubLLM struct {
	response string
	err      error
	prompt   string
}

func (s *stubLLM) Complete(_ context.Context, prompt string) (string, error) {
	s.prompt = prompt
	return s.response, s.err
}

func TestUpdate_UsesServiceResponse(t *testing.T) {
	stub := &stubLLM{response: "  Learned that tokio outperforms async-std in this workload.\n"}
	s := &Summarizer{LLM: stub}

	got := s.Update(context.Background(), "Prior state.", types.Node{
		Title: "Benchmark thread",
		Body:  "lots of numbers",
		Comments: []types.Comment{
			{Author: "a", Body: "interesting datapoint"},
		},
	})

	if got != "Learned that tokio outperforms async-std in this workload." {
		t.Errorf("Update() = %q", got)
	}
	for _, marker := range []string{"Prior state.", "Benchmark thread", "interesting datapoint"} {
		if !strings.Contains(stub.prompt, marker) {
			t.Errorf("prompt missing %q", marker)
		}
	}
}

func TestUpdate_FallbackOnFailure(t *testing.T) {
	s := &Summarizer{LLM: &stubLLM{err: fmt.Errorf("timeout")}}

	got := s.Update(context.Background(), "X", types.Node{Title: "Y"})
	if got != "X Also read: Y." {
		t.Errorf("Update() = %q, want %q", got, "X Also read: Y.")
	}
}

func TestUpdate_FallbackWithEmptyPrior(t *testing.T) {
	s := &Summarizer{LLM: &stubLLM{err: fmt.Errorf("timeout")}}

	got := s.Update(context.Background(), "", types.Node{Title: "Y"})
	if got != "Read: Y." {
		t.Errorf("Update() = %q, want %q", got, "Read: Y.")
	}
}

func TestUpdate_FallbackOnBlankResponse(t *testing.T) {
	s := &Summarizer{LLM: &stubLLM{response: "   \n"}}

	got := s.Update(context.Background(), "X", types.Node{Title: "Y"})
	if got != "X Also read: Y." {
		t.Errorf("Update() = %q, want %q", got, "X Also read: Y.")
	}
}

func TestUpdate_ExcerptsAreBounded(t *testing.T) {
	stub := &stubLLM{response: "ok"}
	s := &Summarizer{LLM: stub}

	node := types.Node{
		Title: "T",
		Body:  strings.Repeat("b", 5000),
	}
	for i := 0; i < 20; i++ {
		node.Comments = append(node.Comments, types.Comment{Body: strings.Repeat("c", 1000)})
	}

	s.Update(context.Background(), "", node)

	if len(stub.prompt) > summaryBodyChars+summaryComments*summaryCommentChars+2000 {
		t.Errorf("prompt not bounded: %d chars", len(stub.prompt))
	}
}
