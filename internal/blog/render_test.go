package blog

import (
	"strings"
	"testing"
)

func TestRenderHTML(t *testing.T) {
	out, err := RenderHTML("## Setup\n\nRun `go test` and ~~hope~~.\n\n| a | b |\n|---|---|\n| 1 | 2 |\n\n<script>alert(1)</script>\n<img src=\"https://example.com/x.png\" onerror=\"x()\">\n")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{`<h2 id="setup">Setup</h2>`, "<code>go test</code>", "<del>hope</del>", "<table>", `src="https://example.com/x.png"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %s", want, out)
		}
	}
	for _, bad := range []string{"<script", "onerror"} {
		if strings.Contains(out, bad) {
			t.Fatalf("unsafe %q kept in %s", bad, out)
		}
	}
}
