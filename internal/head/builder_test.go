// internal/head/builder_test.go
//
// Run: go test ./internal/head -v

package head

import (
	"strings"
	"testing"
)

func TestBuilder(t *testing.T) {
	b := New("Form <Validation>")
	b.MetaName("description", `a "quoted" form`)
	b.MetaName("description", `a "quoted" form`)
	b.Link(`<link rel="icon" href="/favicon.ico">`)

	if got := string(b.Title()); got != "<title>Form &lt;Validation&gt;</title>" {
		t.Fatalf("Title() = %s", got)
	}
	metas := string(b.Metas())
	if strings.Count(metas, `name="description"`) != 1 {
		t.Fatalf("duplicate meta not suppressed: %s", metas)
	}
	if !strings.Contains(metas, `content="a &#34;quoted&#34; form"`) {
		t.Fatalf("content not escaped: %s", metas)
	}
	if !strings.HasPrefix(metas, `<meta charset="utf-8">`) {
		t.Fatalf("charset not first: %s", metas)
	}
	if string(b.Links()) != `<link rel="icon" href="/favicon.ico">` {
		t.Fatalf("Links() = %s", b.Links())
	}

	b.SetTitle("")
	if b.Title() != "" {
		t.Fatalf("empty title should render nothing")
	}
}
