// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package refs

import (
	"strings"
	"testing"

	"github.com/pdiddy/chain-tracker/pkg/types"
)

func findRef(refs []types.Ref, url string) (types.Ref, bool) {
	for _, r := range refs {
		if r.URL == url {
			return r, true
		}
	}
	return types.Ref{}, false
}

func TestExtract_BareIssueRefs(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		repoCtx string
		wantURL string
	}{
		{"bare number with context", "fixed in #123 yesterday", "golang/go", "https://github.com/golang/go/issues/123"},
		{"owner repo number", "see rust-lang/rust#456 for details", "", "https://github.com/rust-lang/rust/issues/456"},
		{"gh prefix", "tracked as GH-78 upstream", "a/b", "https://github.com/a/b/issues/78"},
		{"start of line", "#9 is the tracking issue", "a/b", "https://github.com/a/b/issues/9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.text, tt.repoCtx)
			ref, ok := findRef(got, tt.wantURL)
			if !ok {
				t.Fatalf("Extract(%q) = %v, missing %s", tt.text, got, tt.wantURL)
			}
			if ref.Type != types.RefIssue {
				t.Errorf("ref type = %q, want issue", ref.Type)
			}
		})
	}
}

func TestExtract_BareIssueWithoutRepoContext(t *testing.T) {
	got := Extract("as discussed in #123", "")
	if len(got) != 0 {
		t.Errorf("bare #123 without repo context should yield nothing, got %v", got)
	}
}

func TestExtract_FullGitHubURLs(t *testing.T) {
	text := "Compare https://github.com/a/b/issues/1 with https://github.com/a/b/pull/2 " +
		"and https://github.com/a/b/discussions/3"
	got := Extract(text, "")
	want := map[string]types.RefType{
		"https://github.com/a/b/issues/1":      types.RefIssue,
		"https://github.com/a/b/pull/2":        types.RefPR,
		"https://github.com/a/b/discussions/3": types.RefDiscussion,
	}
	for url, wantType := range want {
		ref, ok := findRef(got, url)
		if !ok {
			t.Fatalf("missing ref %s in %v", url, got)
		}
		if ref.Type != wantType {
			t.Errorf("%s: type = %q, want %q", url, ref.Type, wantType)
		}
	}
}

func TestExtract_DuplicateAndRelated(t *testing.T) {
	got := Extract("See also #42 and duplicate of #7", "a/b")

	rel, ok := findRef(got, "https://github.com/a/b/issues/42")
	if !ok {
		t.Fatalf("missing related ref, got %v", got)
	}
	if rel.Type != types.RefRelated {
		t.Errorf("issue 42 type = %q, want related", rel.Type)
	}

	dup, ok := findRef(got, "https://github.com/a/b/issues/7")
	if !ok {
		t.Fatalf("missing duplicate ref, got %v", got)
	}
	if dup.Type != types.RefDuplicate {
		t.Errorf("issue 7 type = %q, want duplicate", dup.Type)
	}
}

func TestExtract_DuplicateOfURL(t *testing.T) {
	got := Extract("Duplicate of https://github.com/x/y/issues/10", "")
	ref, ok := findRef(got, "https://github.com/x/y/issues/10")
	if !ok {
		t.Fatalf("missing ref, got %v", got)
	}
	if ref.Type != types.RefDuplicate {
		t.Errorf("type = %q, want duplicate", ref.Type)
	}
}

func TestExtract_CommitSHAs(t *testing.T) {
	sha := strings.Repeat("ab", 20) // 40 hex chars

	if got := Extract("broken by "+sha+" last week", ""); len(got) != 0 {
		t.Errorf("bare SHA without repo context should yield nothing, got %v", got)
	}

	got := Extract("broken by "+sha+" last week", "a/b")
	ref, ok := findRef(got, "https://github.com/a/b/commit/"+sha)
	if !ok {
		t.Fatalf("missing commit ref, got %v", got)
	}
	if ref.Type != types.RefCommit {
		t.Errorf("type = %q, want commit", ref.Type)
	}

	got = Extract("see https://github.com/a/b/commit/deadbeef for the fix", "")
	if _, ok := findRef(got, "https://github.com/a/b/commit/deadbeef"); !ok {
		t.Errorf("missing commit URL ref, got %v", got)
	}
}

func TestExtract_ExternalURLs(t *testing.T) {
	got := Extract("background at https://blog.example.com/post. Screenshot: https://cdn.example.com/shot.png", "")

	ref, ok := findRef(got, "https://blog.example.com/post")
	if !ok {
		t.Fatalf("missing external URL (trailing period should be trimmed), got %v", got)
	}
	if ref.Type != types.RefURL {
		t.Errorf("type = %q, want url", ref.Type)
	}

	for _, r := range got {
		if strings.Contains(r.URL, "shot.png") {
			t.Errorf("image URL should be skipped, got %v", r)
		}
	}
}

func TestExtract_GitHubURLNotTaggedExternal(t *testing.T) {
	got := Extract("see https://github.com/a/b/issues/5 please", "")
	if len(got) != 1 {
		t.Fatalf("want exactly one ref, got %v", got)
	}
	if got[0].Type != types.RefIssue {
		t.Errorf("type = %q, want issue", got[0].Type)
	}
}

func TestExtract_DedupFirstWins(t *testing.T) {
	got := Extract("fixes #5 and then #5 again, also a/b#5", "a/b")
	if len(got) != 1 {
		t.Fatalf("want single deduplicated ref, got %v", got)
	}
	if got[0].Type != types.RefRelated {
		t.Errorf("first occurrence was a fixes-ref; type = %q, want related", got[0].Type)
	}
}

func TestExtract_ContextWindow(t *testing.T) {
	pad := strings.Repeat("x", 100)
	got := Extract(pad+" fixes #5 "+pad, "a/b")
	if len(got) == 0 {
		t.Fatal("no refs extracted")
	}
	ctx := got[0].Context
	if !strings.Contains(ctx, "fixes #5") {
		t.Errorf("context %q should contain the match", ctx)
	}
	// Window is +/-40 chars around the match; far padding must be cut.
	if len(ctx) > len("fixes #5")+2*contextWindow+2 {
		t.Errorf("context too long (%d chars): %q", len(ctx), ctx)
	}
}

func TestExtract_EmptyAndPlainText(t *testing.T) {
	if got := Extract("", "a/b"); len(got) != 0 {
		t.Errorf("empty text: got %v", got)
	}
	if got := Extract("no references here at all", "a/b"); len(got) != 0 {
		t.Errorf("plain text: got %v", got)
	}
}
