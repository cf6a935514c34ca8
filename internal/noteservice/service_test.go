package noteservice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/starford/noteflow/internal/apperr"
	"github.com/starford/noteflow/internal/doc"
	"github.com/starford/noteflow/internal/editor"
	"github.com/starford/noteflow/internal/models"
	"github.com/starford/noteflow/internal/testutil"
	"github.com/starford/noteflow/internal/transfer"
)

type recorder struct {
	mu       sync.Mutex
	events   []string
	warnings int
	focus    chan doc.Selection
}

func newRecorder() *recorder {
	return &recorder{focus: make(chan doc.Selection, 8)}
}

func (r *recorder) PublishNoteEvent(kind, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, kind+":"+id)
}

func (r *recorder) PublishStorageWarning(string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnings++
}

func (r *recorder) PublishFocus(_ string, sel doc.Selection) { r.focus <- sel }

func (r *recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

var clock = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func newService(t *testing.T, store *testutil.FlakyStore) (*Service, *recorder) {
	t.Helper()
	rec := newRecorder()
	seq := 0
	svc, err := New(store,
		WithNotifier(rec),
		WithClock(func() time.Time { return clock }),
		WithIDs(func() string { seq++; return fmt.Sprintf("id-%d", seq) }),
		WithEditorOptions(editor.WithFocusDelay(time.Millisecond)),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(svc.Close)
	return svc, rec
}

func intp(v int) *int { return &v }

func TestCreateDefaultsTitle(t *testing.T) {
	store := testutil.NewFlakyStore(testutil.SampleNote("a", "First", "<p>x</p>"))
	svc, rec := newService(t, store)
	ctx := context.Background()

	n, err := svc.Create(ctx, "", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if n.Title != "Note 2" || n.ID != "id-1" || n.Content != "<p></p>" {
		t.Errorf("note = %+v", n)
	}
	if !n.CreatedAt.Equal(clock) || !n.UpdatedAt.Equal(clock) {
		t.Errorf("timestamps = %v / %v", n.CreatedAt, n.UpdatedAt)
	}
	list := svc.List(ctx, "")
	if len(list) != 2 || list[1].ID != "id-1" {
		t.Errorf("list = %+v", list)
	}
	if store.Saves() != 1 {
		t.Errorf("saves = %d, want 1", store.Saves())
	}
	if got := rec.Events(); len(got) != 1 || got[0] != "created:id-1" {
		t.Errorf("events = %v", got)
	}
}

func TestCreateSanitizesContent(t *testing.T) {
	svc, _ := newService(t, testutil.NewFlakyStore())
	n, err := svc.Create(context.Background(), "<b>T</b>", `<p onclick="x()">hi<script>bad()</script></p>`)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if n.Title != "T" || n.Content != "<p>hi</p>" {
		t.Errorf("note = %+v", n)
	}
}

func TestListFilter(t *testing.T) {
	store := testutil.NewFlakyStore(
		testutil.SampleNote("a", "Groceries", "<p>milk</p>"),
		testutil.SampleNote("b", "Ideas", "<p><strong>Milk</strong>shake bar</p>"),
		testutil.SampleNote("c", "Work", "<p>strong coffee</p>"),
	)
	svc, _ := newService(t, store)
	ctx := context.Background()

	got := svc.List(ctx, "MILK")
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Errorf("filter milk = %+v", got)
	}
	// Markup is not matched.
	got = svc.List(ctx, "strong")
	if len(got) != 1 || got[0].ID != "c" {
		t.Errorf("filter strong = %+v", got)
	}

	res, err := svc.Search(ctx, "shake", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res) != 1 || res[0].ID != "b" || res[0].Snippet != "Milkshake bar" {
		t.Errorf("search = %+v", res)
	}
}

func TestUpdateChecksConflict(t *testing.T) {
	note := testutil.SampleNote("a", "Title", "<p>x</p>")
	svc, _ := newService(t, testutil.NewFlakyStore(note))
	ctx := context.Background()

	title := "New"
	if _, err := svc.Update(ctx, "a", Update{Title: &title}, "stale"); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
	n, err := svc.Update(ctx, "a", Update{Title: &title}, note.Checksum())
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if n.Title != "New" || !n.UpdatedAt.Equal(clock) {
		t.Errorf("note = %+v", n)
	}
	if _, err := svc.Update(ctx, "missing", Update{Title: &title}, ""); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdateContentIsUndoableInOpenEditor(t *testing.T) {
	svc, _ := newService(t, testutil.NewFlakyStore(testutil.SampleNote("a", "T", "<p>old</p>")))
	ctx := context.Background()
	if _, err := svc.Open(ctx, "a"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	content := "<p>new</p>"
	if _, err := svc.Update(ctx, "a", Update{Content: &content}, ""); err != nil {
		t.Fatalf("Update: %v", err)
	}
	v, err := svc.Undo(ctx, "a")
	if err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if !v.Applied || v.Note.Content != "<p>old</p>" {
		t.Errorf("after undo = %+v", v)
	}
}

func TestUpdateContentOnReadOnlyNoteIsRejected(t *testing.T) {
	svc, rec := newService(t, testutil.NewFlakyStore(testutil.SampleNote("a", "T", "<p>old</p>")))
	ctx := context.Background()
	if _, err := svc.SetEditable(ctx, "a", false); err != nil {
		t.Fatalf("SetEditable: %v", err)
	}
	content := "<p>new</p>"
	if _, err := svc.Update(ctx, "a", Update{Content: &content}, ""); !errors.Is(err, apperr.ErrReadOnly) {
		t.Errorf("err = %v, want ErrReadOnly", err)
	}
	n, err := svc.Get(ctx, "a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if n.Content != "<p>old</p>" {
		t.Errorf("content = %q", n.Content)
	}
	if got := rec.Events(); len(got) != 0 {
		t.Errorf("events = %v", got)
	}

	title := "Renamed"
	if _, err := svc.Update(ctx, "a", Update{Title: &title}, ""); err != nil {
		t.Errorf("title update on read-only note: %v", err)
	}
}

func TestUpdateContentReconcilesWithOrWithoutSession(t *testing.T) {
	const stored = `<p><span style="color: red"><strong>a</strong></span><strong>b</strong></p>`
	content := "<p><strong>ab</strong></p>"
	for _, open := range []bool{false, true} {
		t.Run(fmt.Sprintf("open=%v", open), func(t *testing.T) {
			svc, _ := newService(t, testutil.NewFlakyStore(testutil.SampleNote("a", "T", stored)))
			ctx := context.Background()
			if open {
				if _, err := svc.Open(ctx, "a"); err != nil {
					t.Fatalf("Open: %v", err)
				}
			}
			n, err := svc.Update(ctx, "a", Update{Content: &content}, "")
			if err != nil {
				t.Fatalf("Update: %v", err)
			}
			if n.Content != stored {
				t.Errorf("content = %q, want %q", n.Content, stored)
			}
		})
	}
}

func TestUpdateContentWithoutSessionIsUndoable(t *testing.T) {
	svc, _ := newService(t, testutil.NewFlakyStore(testutil.SampleNote("a", "T", "<p>old</p>")))
	ctx := context.Background()
	content := "<p>new</p>"
	if _, err := svc.Update(ctx, "a", Update{Content: &content}, ""); err != nil {
		t.Fatalf("Update: %v", err)
	}
	v, err := svc.Undo(ctx, "a")
	if err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if !v.Applied || v.Note.Content != "<p>old</p>" {
		t.Errorf("after undo = %+v", v)
	}
}

func TestDelete(t *testing.T) {
	svc, rec := newService(t, testutil.NewFlakyStore(testutil.SampleNote("a", "T", "")))
	ctx := context.Background()
	if err := svc.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(ctx, "a"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if err := svc.Delete(ctx, "a"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second delete err = %v", err)
	}
	if got := rec.Events(); len(got) != 1 || got[0] != "deleted:a" {
		t.Errorf("events = %v", got)
	}
}

func TestExecBoldThenColorKeepsBoth(t *testing.T) {
	store := testutil.NewFlakyStore(testutil.SampleNote("a", "T", "<p>hello world</p>"))
	svc, _ := newService(t, store)
	ctx := context.Background()

	steps := []struct {
		name string
		args editor.Args
	}{
		{"setSelection", editor.Args{From: intp(0), To: intp(5)}},
		{"bold", editor.Args{}},
		{"color", editor.Args{Value: "red"}},
	}
	var v EditorView
	for _, s := range steps {
		var err error
		v, err = svc.Exec(ctx, "a", s.name, s.args)
		if err != nil {
			t.Fatalf("Exec %s: %v", s.name, err)
		}
	}
	want := `<p><span style="color: red"><strong>hello</strong></span> world</p>`
	if v.Note.Content != want {
		t.Errorf("content = %q, want %q", v.Note.Content, want)
	}
	if v.Selection != doc.Range(0, 5) || !v.CanUndo {
		t.Errorf("view = %+v", v)
	}
	if v.Stats.Words != 2 {
		t.Errorf("stats = %+v", v.Stats)
	}
	stored, _ := store.LoadAll()
	if stored[0].Content != want {
		t.Errorf("stored content = %q", stored[0].Content)
	}
}

func TestExecRejectsBadInput(t *testing.T) {
	svc, _ := newService(t, testutil.NewFlakyStore(testutil.SampleNote("a", "T", "<p>x</p>")))
	ctx := context.Background()
	if _, err := svc.Exec(ctx, "a", "explode", editor.Args{}); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("unknown command err = %v", err)
	}
	if _, err := svc.Exec(ctx, "a", "fontSize", editor.Args{Value: "huge"}); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("bad font size err = %v", err)
	}
	if _, err := svc.Exec(ctx, "nope", "bold", editor.Args{}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing note err = %v", err)
	}
}

func TestExecReadOnly(t *testing.T) {
	svc, _ := newService(t, testutil.NewFlakyStore(testutil.SampleNote("a", "T", "<p>x</p>")))
	ctx := context.Background()
	if _, err := svc.SetEditable(ctx, "a", false); err != nil {
		t.Fatalf("SetEditable: %v", err)
	}
	v, err := svc.Exec(ctx, "a", "selectAll", editor.Args{})
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if v.Applied {
		t.Error("command applied to read-only note")
	}
}

func TestStorageFailureRollsBack(t *testing.T) {
	store := testutil.NewFlakyStore(testutil.SampleNote("a", "T", "<p>abc</p>"))
	svc, rec := newService(t, store)
	ctx := context.Background()

	store.SetFail(true)
	if _, err := svc.Exec(ctx, "a", "insertText", editor.Args{Value: "zz"}); !errors.Is(err, apperr.ErrStorage) {
		t.Fatalf("err = %v, want ErrStorage", err)
	}
	n, _ := svc.Get(ctx, "a")
	if n.Content != "<p>abc</p>" {
		t.Errorf("content after failed save = %q", n.Content)
	}
	if _, err := svc.Create(ctx, "x", ""); !errors.Is(err, apperr.ErrStorage) {
		t.Errorf("create err = %v", err)
	}
	if len(svc.List(ctx, "")) != 1 {
		t.Error("failed create left a note behind")
	}
	if rec.warnings != 2 {
		t.Errorf("warnings = %d, want 2", rec.warnings)
	}

	store.SetFail(false)
	v, err := svc.Exec(ctx, "a", "insertText", editor.Args{Value: "zz"})
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if v.Note.Content != "<p>zzabc</p>" || v.CanUndo != true {
		t.Errorf("view = %+v", v)
	}
}

func TestSearchAndReplace(t *testing.T) {
	svc, _ := newService(t, testutil.NewFlakyStore(testutil.SampleNote("a", "T", "<p>cat and cat</p>")))
	ctx := context.Background()

	v, err := svc.Find(ctx, "a", "cat", false)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if v.Search == nil || v.Search.Count() != 2 || v.Selection != doc.Range(0, 3) {
		t.Fatalf("find view = %+v", v)
	}
	v, _ = svc.FindNext(ctx, "a")
	if v.Selection != doc.Range(8, 11) {
		t.Errorf("next selection = %+v", v.Selection)
	}
	v, _ = svc.FindPrevious(ctx, "a")
	if v.Search.Current != 0 {
		t.Errorf("previous current = %d", v.Search.Current)
	}

	v, err = svc.ReplaceCurrent(ctx, "a", "dog")
	if err != nil {
		t.Fatalf("ReplaceCurrent: %v", err)
	}
	if v.Note.Content != "<p>dog and cat</p>" || v.Search.Count() != 1 {
		t.Errorf("replace current view = %+v", v)
	}

	v, err = svc.ReplaceAll(ctx, "a", "bird")
	if err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}
	if v.Replaced != 1 || v.Note.Content != "<p>dog and bird</p>" || v.Search != nil {
		t.Errorf("replace all view = %+v", v)
	}
}

func TestThemeRewritesOpenNotes(t *testing.T) {
	store := testutil.NewFlakyStore(
		testutil.SampleNote("a", "T", `<p><span style="color: #000000">ink</span></p>`),
		testutil.SampleNote("b", "U", `<p><span style="color: black">closed</span></p>`),
	)
	svc, rec := newService(t, store)
	ctx := context.Background()
	if _, err := svc.Exec(ctx, "a", "setSelection", editor.Args{From: intp(1), To: intp(2)}); err != nil {
		t.Fatalf("Exec: %v", err)
	}

	if err := svc.SetTheme(ctx, true); err != nil {
		t.Fatalf("SetTheme: %v", err)
	}
	if !svc.Dark() {
		t.Error("theme not recorded")
	}
	a, _ := svc.Get(ctx, "a")
	if !strings.Contains(a.Content, "#ffffff") {
		t.Errorf("open note not rewritten: %q", a.Content)
	}
	b, _ := svc.Get(ctx, "b")
	if !strings.Contains(b.Content, "black") {
		t.Errorf("closed note rewritten: %q", b.Content)
	}
	select {
	case sel := <-rec.focus:
		if sel != doc.Range(1, 2) {
			t.Errorf("focus = %+v", sel)
		}
	case <-time.After(time.Second):
		t.Fatal("no focus event")
	}
	v, _ := svc.Open(ctx, "a")
	if v.CanUndo {
		t.Error("theme rewrite recorded in history")
	}
}

func TestImportAddsAndUpdates(t *testing.T) {
	existing := testutil.SampleNote("keep", "Old", "<p>old</p>")
	store := testutil.NewFlakyStore(existing)
	svc, rec := newService(t, store)
	ctx := context.Background()

	res, err := svc.Import(ctx, "todo.txt", []byte("buy milk"))
	if err != nil {
		t.Fatalf("Import txt: %v", err)
	}
	if res.Action != models.ImportAdd || res.Note.Title != "todo" || res.Note.ID != "id-1" {
		t.Errorf("txt result = %+v", res)
	}

	data := []byte(`{"id":"keep","title":"Replaced","content":"<p>new</p>","createdAt":"2024-01-02T03:04:05Z"}`)
	res, err = svc.Import(ctx, "keep.note", data)
	if err != nil {
		t.Fatalf("Import note: %v", err)
	}
	if res.Action != models.ImportUpdate {
		t.Errorf("action = %q", res.Action)
	}
	list := svc.List(ctx, "")
	if len(list) != 2 || list[0].Title != "Replaced" {
		t.Errorf("list = %+v", list)
	}

	if _, err := svc.Import(ctx, "bad.note", []byte("{")); !errors.Is(err, apperr.ErrImportFormat) {
		t.Errorf("corrupt err = %v", err)
	}
	if _, err := svc.Import(ctx, "x.docx", nil); !errors.Is(err, apperr.ErrUnsupportedFormat) {
		t.Errorf("unsupported err = %v", err)
	}
	if got := rec.Events(); len(got) != 2 || got[1] != "imported:keep" {
		t.Errorf("events = %v", got)
	}
}

func TestExport(t *testing.T) {
	svc, _ := newService(t, testutil.NewFlakyStore(testutil.SampleNote("a", "Plan", "<p>one</p><p>two</p>")))
	f, err := svc.Export(context.Background(), "a", transfer.FormatText)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if f.Filename != "Plan.txt" || string(f.Data) != "one\ntwo" {
		t.Errorf("export = %+v", f)
	}
	if _, err := svc.Export(context.Background(), "zzz", transfer.FormatText); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestPersistsThroughSQLite(t *testing.T) {
	db := testutil.TestDB(t)
	svc, err := New(db)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer svc.Close()
	ctx := context.Background()
	n, err := svc.Create(ctx, "Stored", "<p>persisted words</p>")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	again, err := New(db)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	got, err := again.Get(ctx, n.ID)
	if err != nil || got.Content != "<p>persisted words</p>" {
		t.Errorf("reloaded = %+v, %v", got, err)
	}
	res, err := again.Search(ctx, "persisted", 5)
	if err != nil || len(res) != 1 {
		t.Errorf("search = %+v, %v", res, err)
	}
}
