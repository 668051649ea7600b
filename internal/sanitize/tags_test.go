package sanitize

import "testing"

func TestStripPrivateTagsRemovesRegion(t *testing.T) {
	got := StripPrivateTags("Public <private>secret</private> text")
	want := "Public  text"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestStripPrivateTagsNested(t *testing.T) {
	got := StripPrivateTags("a<private>b<private>c</private>d</private>e")
	want := "ae"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestStripPrivateTagsUnclosedToEOF(t *testing.T) {
	got := StripPrivateTags("keep this <private>drop everything after")
	want := "keep this "
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestStripPrivateTagsIdempotent(t *testing.T) {
	s := "Public <private>secret</private> and <system-reminder>noise</system-reminder> text"
	once := StripPrivateTags(s)
	twice := StripPrivateTags(once)
	if once != twice {
		t.Errorf("not idempotent: %q vs %q", once, twice)
	}
}

func TestStripPrivateTagsEntirelyPrivate(t *testing.T) {
	got := StripPrivateTags("<private>only secret content</private>")
	if HasNonWhitespaceContent(got) {
		t.Errorf("expected no non-whitespace content, got %q", got)
	}
}

func TestStripContextTags(t *testing.T) {
	got := StripPrivateTags("before <claude-mem-context>ctx</claude-mem-context> after <system-reminder>r</system-reminder> end")
	want := "before  after  end"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
