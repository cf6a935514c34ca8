package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/starford/noteflow/internal/doc"
)

func TestFindEmptyQuery(t *testing.T) {
	d := doc.New(doc.Paragraph(doc.Text("anything")))
	assert.Empty(t, Find(d, "", false))
	assert.Empty(t, New(d, "", true).Decorations())
}

func TestFindInDocumentOrder(t *testing.T) {
	d := doc.New(
		doc.Paragraph(doc.Text("the "), doc.Text("cat", doc.NewMark(doc.Bold)), doc.Text(" sat")),
		doc.BulletList(doc.ListItem(doc.Paragraph(doc.Text("a Cat")))),
	)
	got := Find(d, "cat", true)
	require.Len(t, got, 1)
	assert.Equal(t, Match{From: 4, To: 7, Text: "cat"}, got[0])

	got = Find(d, "cat", false)
	require.Len(t, got, 2)
	assert.Equal(t, Match{From: 14, To: 17, Text: "Cat"}, got[1])
}

func TestFindIsLiteralAndNonOverlapping(t *testing.T) {
	d := doc.New(doc.Paragraph(doc.Text("a.b axb aaaa")))
	assert.Len(t, Find(d, "a.b", true), 1)
	assert.Len(t, Find(d, "aa", true), 2)
}

func TestFindDoesNotCrossBlocks(t *testing.T) {
	d := doc.New(doc.Paragraph(doc.Text("ab")), doc.Paragraph(doc.Text("cd")))
	assert.Empty(t, Find(d, "bc", false))
	assert.Empty(t, Find(d, "b\nc", false))
}

func TestFindFoldsUnicode(t *testing.T) {
	d := doc.New(doc.Paragraph(doc.Text("Ärger und ärger")))
	got := Find(d, "ÄRGER", false)
	require.Len(t, got, 2)
	assert.Equal(t, 10, got[1].From)
}

func TestNavigationWraps(t *testing.T) {
	d := doc.New(doc.Paragraph(doc.Text("x y x y x")))
	s := New(d, "x", true)
	require.Equal(t, 3, s.Count())
	assert.Equal(t, 0, s.Current)

	s = s.Next().Next()
	assert.Equal(t, 2, s.Current)
	s = s.Next()
	assert.Equal(t, 0, s.Current)
	s = s.Previous()
	assert.Equal(t, 2, s.Current)

	empty := New(d, "zzz", true)
	assert.Equal(t, 0, empty.Next().Current)
	assert.Equal(t, 0, empty.Previous().Current)
	_, ok := empty.CurrentMatch()
	assert.False(t, ok)
}

func TestDecorationsMarkCurrent(t *testing.T) {
	d := doc.New(doc.Paragraph(doc.Text("ab ab")))
	decos := New(d, "ab", true).Next().Decorations()
	require.Len(t, decos, 2)
	assert.Equal(t, ClassResult, decos[0].Class)
	assert.Equal(t, ClassResult+" "+ClassCurrent, decos[1].Class)
	assert.Equal(t, 3, decos[1].From)
}

func TestRefreshClampsCurrent(t *testing.T) {
	d := doc.New(doc.Paragraph(doc.Text("a a a")))
	s := New(d, "a", true).Previous()
	require.Equal(t, 2, s.Current)

	s = s.Refresh(doc.New(doc.Paragraph(doc.Text("a"))))
	assert.Equal(t, 0, s.Current)
	assert.Equal(t, 1, s.Count())
}

func TestReplaceAll(t *testing.T) {
	d := doc.New(doc.Paragraph(doc.Text("cat cat dog")))
	tr, n, err := ReplaceAll(d, New(d, "cat", true), "dog")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "dog dog dog", tr.Doc().PlainText())
	assert.True(t, tr.SelectionReset())

	tr, n, err = ReplaceAll(d, New(d, "bird", true), "dog")
	require.NoError(t, err)
	assert.Nil(t, tr)
	assert.Zero(t, n)
}

func TestReplaceCurrentCarriesMarks(t *testing.T) {
	d := doc.New(doc.Paragraph(doc.Text("say "), doc.Text("hello", doc.NewMark(doc.Italic)), doc.Text(" hello")))
	s := New(d, "hello", true)
	tr, err := ReplaceCurrent(d, s, "bye")
	require.NoError(t, err)
	assert.Equal(t, "say bye hello", tr.Doc().PlainText())
	assert.True(t, tr.Doc().Runs()[1].Marks.Has(doc.Italic))
	sel, ok := tr.Selection()
	require.True(t, ok)
	assert.Equal(t, doc.Caret(7), sel)

	s = s.Refresh(tr.Doc())
	assert.Equal(t, 1, s.Count())
	m, _ := s.CurrentMatch()
	assert.Equal(t, 8, m.From)
}

func TestReplaceCurrentWithEmptyDeletes(t *testing.T) {
	d := doc.New(doc.Paragraph(doc.Text("abcabc")))
	tr, err := ReplaceCurrent(d, New(d, "abc", true).Next(), "")
	require.NoError(t, err)
	assert.Equal(t, "abc", tr.Doc().PlainText())
}

func TestHighlight(t *testing.T) {
	d := doc.New(doc.Paragraph(doc.Text("one two")), doc.Paragraph(doc.Text("two")))
	assert.Equal(t, "one [two]\n[two]", Highlight(d, New(d, "two", true), "[", "]"))
}

func TestNavigationProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		text := rapid.StringMatching(`[ab ]{0,20}`).Draw(t, "text")
		s := New(doc.New(doc.Paragraph(doc.Text(text))), "a", true)
		n := s.Count()
		steps := rapid.IntRange(0, 30).Draw(t, "steps")
		fwd := s
		for range steps {
			fwd = fwd.Next()
		}
		if n > 0 && fwd.Current != steps%n {
			t.Fatalf("after %d nexts current = %d, want %d", steps, fwd.Current, steps%n)
		}
		for range steps {
			fwd = fwd.Previous()
		}
		if fwd.Current != s.Current {
			t.Fatalf("previous did not undo next: %d != %d", fwd.Current, s.Current)
		}
		for _, m := range s.Matches {
			if m.Text != "a" || text[m.From:m.To] != "a" {
				t.Fatalf("bad match %+v in %q", m, text)
			}
		}
	})
}

func TestReplaceDropsControlCharacters(t *testing.T) {
	d := doc.New(doc.Paragraph(doc.Text("cat cat")))
	tr, n, err := ReplaceAll(d, New(d, "cat", true), "d\x00og")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "dog dog", tr.Doc().PlainText())

	tr, err = ReplaceCurrent(d, New(d, "cat", true), "\x07x")
	require.NoError(t, err)
	assert.Equal(t, "x cat", tr.Doc().PlainText())
	sel, ok := tr.Selection()
	require.True(t, ok)
	assert.Equal(t, doc.Caret(1), sel)
}
