package consistency

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/starford/noteflow/internal/doc"
)

var red = doc.StyleMark("#f87171", "", "")

func styledBold() *doc.Node {
	return doc.New(doc.Paragraph(doc.Text("hello", doc.NewMark(doc.Bold), red), doc.Text(" plain")))
}

func apply(t *testing.T, tr *doc.Transaction) *doc.Node {
	t.Helper()
	fix, err := Reconcile(tr)
	require.NoError(t, err)
	if fix == nil {
		return tr.Doc()
	}
	assert.Equal(t, doc.OriginCorrective, fix.Origin())
	return fix.Doc()
}

func TestRestoresDroppedStyle(t *testing.T) {
	tr := doc.NewTransaction(styledBold(), doc.OriginCommand)
	require.NoError(t, tr.Step(doc.RemoveMark{From: 0, To: 5, Type: doc.Style}))

	out := apply(t, tr)
	marks := out.Runs()[0].Marks
	assert.True(t, marks.Has(doc.Bold))
	style, ok := marks.Get(doc.Style)
	require.True(t, ok)
	assert.Equal(t, red, style)
}

func TestRestoresDroppedFormatting(t *testing.T) {
	d := doc.New(doc.Paragraph(doc.Text("hello", doc.NewMark(doc.Bold), doc.NewMark(doc.Italic), red)))
	tr := doc.NewTransaction(d, doc.OriginCommand)
	require.NoError(t, tr.Step(doc.RemoveMark{From: 0, To: 5, Type: doc.Bold}))
	require.NoError(t, tr.Step(doc.RemoveMark{From: 0, To: 5, Type: doc.Italic}))

	out := apply(t, tr)
	assert.True(t, out.Equal(d))
}

func TestIntentionalRemovalIsKept(t *testing.T) {
	tr := doc.NewTransaction(styledBold(), doc.OriginCommand)
	require.NoError(t, tr.Step(doc.RemoveMark{From: 0, To: 5, Type: doc.Bold}))
	tr.MarkIntentionalRemoval()

	fix, err := Reconcile(tr)
	require.NoError(t, err)
	assert.Nil(t, fix)
	assert.False(t, tr.Doc().Runs()[0].Marks.Has(doc.Bold))
}

func TestSkipsUnchangedAndFinalTransactions(t *testing.T) {
	d := styledBold()
	tr := doc.NewTransaction(d, doc.OriginCommand)
	require.NoError(t, tr.Step(doc.AddMark{From: 0, To: 5, Mark: doc.NewMark(doc.Bold)}))
	fix, err := Reconcile(tr)
	require.NoError(t, err)
	assert.Nil(t, fix)

	for _, origin := range []doc.Origin{doc.OriginCorrective, doc.OriginHistory} {
		tr := doc.NewTransaction(d, origin)
		require.NoError(t, tr.Step(doc.RemoveMark{From: 0, To: 5, Type: doc.Style}))
		fix, err := Reconcile(tr)
		require.NoError(t, err)
		assert.Nil(t, fix, origin.String())
	}
}

func TestColorOnBoldNeedsNoFix(t *testing.T) {
	d := doc.New(doc.Paragraph(doc.Text("hello", doc.NewMark(doc.Bold))))
	tr := doc.NewTransaction(d, doc.OriginCommand)
	require.NoError(t, tr.Step(doc.SetStyle{From: 0, To: 5, Attr: doc.AttrColor, Value: "#f87171"}))
	assert.Empty(t, Check(tr.Before(), tr.Doc(), tr.Mapping()))
}

func TestInsertedTextIsNotCompared(t *testing.T) {
	tr := doc.NewTransaction(styledBold(), doc.OriginInput)
	require.NoError(t, tr.Step(doc.ReplaceText{From: 2, To: 2, Runs: []*doc.Node{doc.Text("x", red)}}))
	assert.Empty(t, Check(tr.Before(), tr.Doc(), tr.Mapping()))
}

func TestFollowsShiftedPositions(t *testing.T) {
	d := doc.New(doc.Paragraph(doc.Text("ab "), doc.Text("cd", doc.NewMark(doc.Underline), red)))
	tr := doc.NewTransaction(d, doc.OriginCommand)
	require.NoError(t, tr.Step(doc.SplitBlock{Pos: 1}))
	require.NoError(t, tr.Step(doc.RemoveMark{From: 0, To: tr.Doc().Size(), Type: doc.Style}))

	steps := Check(tr.Before(), tr.Doc(), tr.Mapping())
	require.Len(t, steps, 1)
	assert.Equal(t, doc.AddMark{From: 4, To: 6, Mark: red}, steps[0])
}

func TestSortedParagraphsAreNotCrossCompared(t *testing.T) {
	d := doc.New(
		doc.Paragraph(doc.Text("banana", doc.NewMark(doc.Bold))),
		doc.Paragraph(doc.Text("apple", red)),
	)
	tr := doc.NewTransaction(d, doc.OriginCommand)
	require.NoError(t, tr.Step(doc.ReplaceBlocks{Start: 0, End: 2, Blocks: []*doc.Node{
		d.Content[1], d.Content[0],
	}}))
	assert.Empty(t, Check(tr.Before(), tr.Doc(), tr.Mapping()))
}

func TestMergedRunKeepsEachPiecesStyle(t *testing.T) {
	before := doc.New(doc.Paragraph(
		doc.Text("a", doc.NewMark(doc.Bold), red),
		doc.Text("b", doc.NewMark(doc.Bold)),
	))
	tr := doc.NewTransaction(before, doc.OriginCommand)
	require.NoError(t, tr.Step(doc.ReplaceBlocks{Start: 0, End: 1, Blocks: []*doc.Node{
		doc.Paragraph(doc.Text("ab", doc.NewMark(doc.Bold))),
	}}))

	steps := Check(tr.Before(), tr.Doc(), tr.Mapping())
	assert.Equal(t, []doc.Step{doc.AddMark{From: 0, To: 1, Mark: red}}, steps)
	assert.True(t, apply(t, tr).Equal(before))
}

func TestMergedRunKeepsEachPiecesFormatting(t *testing.T) {
	before := doc.New(doc.Paragraph(
		doc.Text("ab", doc.NewMark(doc.Italic), red),
		doc.Text("cd", red),
	))
	tr := doc.NewTransaction(before, doc.OriginCommand)
	require.NoError(t, tr.Step(doc.RemoveMark{From: 0, To: 4, Type: doc.Italic}))

	out := apply(t, tr)
	assert.True(t, out.Equal(before))
}

func genMarks(t *rapid.T, label string) []doc.Mark {
	var ms []doc.Mark
	for _, mt := range []doc.MarkType{doc.Bold, doc.Italic, doc.Strike} {
		if rapid.Bool().Draw(t, label+string(mt)) {
			ms = append(ms, doc.NewMark(mt))
		}
	}
	if rapid.Bool().Draw(t, label+"style") {
		ms = append(ms, doc.StyleMark(rapid.SampledFrom([]string{"red", "blue"}).Draw(t, label+"color"), "", ""))
	}
	return ms
}

func genDoc(t *rapid.T) *doc.Node {
	var blocks []*doc.Node
	for i := range rapid.IntRange(1, 3).Draw(t, "blocks") {
		var runs []*doc.Node
		for j := range rapid.IntRange(0, 4).Draw(t, "runs") {
			label := string(rune('a'+i)) + string(rune('a'+j))
			runs = append(runs, doc.Text(rapid.StringMatching(`[a-z]{1,4}`).Draw(t, label), genMarks(t, label)...))
		}
		blocks = append(blocks, doc.Paragraph(runs...))
	}
	return doc.New(blocks...)
}

func TestCheckIsIdempotentProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		d := genDoc(t)
		size := d.Size()
		from := rapid.IntRange(0, size).Draw(t, "from")
		to := rapid.IntRange(from, size).Draw(t, "to")
		tr := doc.NewTransaction(d, doc.OriginCommand)
		var step doc.Step = doc.RemoveMark{From: from, To: to, Type: doc.Style}
		if rapid.Bool().Draw(t, "removeBold") {
			step = doc.RemoveMark{From: from, To: to, Type: doc.Bold}
		}
		if err := tr.Step(step); err != nil {
			t.Fatalf("Step: %v", err)
		}
		fix, err := Reconcile(tr)
		if err != nil {
			t.Fatalf("Reconcile: %v", err)
		}
		if fix == nil {
			return
		}
		if again := Check(tr.Before(), fix.Doc(), tr.Mapping()); len(again) != 0 {
			t.Fatalf("second pass produced %d steps on %s", len(again), doc.Serialize(fix.Doc()))
		}
		for _, r := range fix.Doc().Runs() {
			prev, ok := runAt(d.Runs(), r.From)
			if !ok || !prev.Marks.HasFormatting() || !prev.Marks.HasStyle() {
				continue
			}
			if r.Marks.HasFormatting() != r.Marks.HasStyle() {
				t.Fatalf("run %q at %d kept only one category", r.Text, r.From)
			}
		}
	})
}

func runAt(runs []doc.Run, pos int) (doc.Run, bool) {
	for _, r := range runs {
		if pos >= r.From && pos < r.To {
			return r, true
		}
	}
	return doc.Run{}, false
}

func styleAt(runs []doc.Run, pos int) (doc.Mark, bool) {
	r, ok := runAt(runs, pos)
	if !ok {
		return doc.Mark{}, false
	}
	return r.Marks.Get(doc.Style)
}

func TestMergingRunsRestoresStylePerPositionProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		d := genDoc(t)
		var blocks []*doc.Node
		for _, b := range d.Content {
			if text := b.TextContent(); text != "" {
				blocks = append(blocks, doc.Paragraph(doc.Text(text, doc.NewMark(doc.Bold))))
			} else {
				blocks = append(blocks, doc.Paragraph())
			}
		}
		tr := doc.NewTransaction(d, doc.OriginCommand)
		if err := tr.Step(doc.ReplaceBlocks{Start: 0, End: len(d.Content), Blocks: blocks}); err != nil {
			t.Fatalf("Step: %v", err)
		}
		fix, err := Reconcile(tr)
		if err != nil {
			t.Fatalf("Reconcile: %v", err)
		}
		out := tr.Doc()
		if fix != nil {
			out = fix.Doc()
		}
		oldRuns, newRuns := d.Runs(), out.Runs()
		for _, r := range oldRuns {
			for pos := r.From; pos < r.To; pos++ {
				want, wantOK := r.Marks.Get(doc.Style)
				got, gotOK := styleAt(newRuns, pos)
				if wantOK != gotOK || want != got {
					t.Fatalf("style at %d: got %v (%v), want %v (%v)", pos, got, gotOK, want, wantOK)
				}
			}
		}
	})
}
