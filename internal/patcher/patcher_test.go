package patcher

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FOUEN/questpatch/internal/anchor"
	"github.com/FOUEN/questpatch/internal/config"
	"github.com/FOUEN/questpatch/internal/fragment"
)

const gameScript = `class Day4Game {
    constructor() {
        this.sageMessage = document.getElementById('sage-message');
    }

    showVictoryMessage() {
        this.updateSageMessage('見事だ！');
        this.updateHint('🏆 完了！お疲れ様でした！');
    }

    updateSageMessage(message) {
        this.sageMessage.textContent = message;
    }

    updateHint(hint) {
        this.hintText.textContent = hint;
    }
}
`

func writeScript(t *testing.T, root string, day int, content string) string {
	t.Helper()
	dir := filepath.Join(root, "day"+strconv.Itoa(day)+"-minigame")
	require.NoError(t, os.MkdirAll(dir, 0755))
	path := filepath.Join(dir, "script.js")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func newPatcher(t *testing.T, opts Options) (*Patcher, *bytes.Buffer) {
	t.Helper()
	r, err := fragment.NewRenderer(config.DefaultProfile())
	require.NoError(t, err)
	var out bytes.Buffer
	opts.Out = &out
	p := New(anchor.Default(r), opts)
	t.Cleanup(p.Close)
	return p, &out
}

func TestResolve(t *testing.T) {
	p, _ := newPatcher(t, Options{})
	assert.Equal(t, Target{Day: 5, Path: filepath.FromSlash("day5-minigame/script.js")}, p.Resolve(5))

	p, _ = newPatcher(t, Options{Root: "/srv/quest", PathTemplate: "games/{day}/main.js"})
	assert.Equal(t, filepath.FromSlash("/srv/quest/games/12/main.js"), p.Resolve(12).Path)
}

func TestRunPatchesAndSkipsMissing(t *testing.T) {
	root := t.TempDir()
	day4 := writeScript(t, root, 4, gameScript)
	day6 := writeScript(t, root, 6, gameScript)
	day7 := writeScript(t, root, 7, "console.log('no anchors here');\n")

	p, out := newPatcher(t, Options{Root: root, Verify: true})
	sum, err := p.Run(context.Background(), []int{4, 5, 6, 7})
	require.NoError(t, err)

	assert.Equal(t, []int{4, 6}, sum.Patched)
	assert.Equal(t, []int{5}, sum.Missing)
	assert.Equal(t, []int{7}, sum.Unchanged)
	assert.Empty(t, sum.Failed)

	got4 := readFile(t, day4)
	assert.Contains(t, got4, "markDayCompleted(4)")
	assert.Contains(t, got4, "completed=4")
	assert.Equal(t, 1, strings.Count(got4, "showReturnButton() {"))
	assert.Equal(t, 1, strings.Count(got4, "this.showReturnButton();"))

	got6 := readFile(t, day6)
	assert.Contains(t, got6, "markDayCompleted(6)")
	assert.NotContains(t, got6, "markDayCompleted(4)")

	assert.Equal(t, "console.log('no anchors here');\n", readFile(t, day7))

	log := out.String()
	assert.Contains(t, log, "🔧 Adding return-to-hub buttons to day 4, 5, 6, 7 minigames...")
	assert.Contains(t, log, "✅ Day4: return-to-hub button added to "+day4)
	assert.Contains(t, log, filepath.FromSlash("day5-minigame/script.js")+" not found")
	assert.Contains(t, log, "❌ Day5: patch failed")
	assert.Contains(t, log, "⚠️ Day7: no anchors found in "+day7)
	assert.Contains(t, log, "    - hint-call    applied")
	assert.True(t, strings.HasSuffix(log, "🎉 All patches finished!\n   patched: 2, unchanged: 1, missing: 1, failed: 0\n"), log)
}

func TestMissingTargetLeavesOthersAlone(t *testing.T) {
	root := t.TempDir()
	day4 := writeScript(t, root, 4, gameScript)

	p, out := newPatcher(t, Options{Root: root})
	rep, err := p.PatchTarget(context.Background(), 5)
	require.NoError(t, err)
	assert.True(t, rep.Missing)
	assert.True(t, rep.Failed())
	assert.Equal(t, gameScript, readFile(t, day4))
	assert.Empty(t, out.String())
}

func TestSecondRunIsNoop(t *testing.T) {
	root := t.TempDir()
	day4 := writeScript(t, root, 4, gameScript)

	p, _ := newPatcher(t, Options{Root: root})
	_, err := p.Run(context.Background(), []int{4})
	require.NoError(t, err)
	once := readFile(t, day4)

	p2, out := newPatcher(t, Options{Root: root})
	sum, err := p2.Run(context.Background(), []int{4})
	require.NoError(t, err)

	assert.Equal(t, once, readFile(t, day4))
	assert.Equal(t, []int{4}, sum.Unchanged)
	assert.Contains(t, out.String(), "⏭️ Day4: "+day4+" is already patched")
	assert.Contains(t, out.String(), "already present")
}

func TestForceDuplicates(t *testing.T) {
	root := t.TempDir()
	day4 := writeScript(t, root, 4, gameScript)

	for i := 0; i < 2; i++ {
		p, _ := newPatcher(t, Options{Root: root, Force: true})
		_, err := p.Run(context.Background(), []int{4})
		require.NoError(t, err)
	}

	got := readFile(t, day4)
	assert.Equal(t, 2, strings.Count(got, "showReturnButton() {"))
	assert.Equal(t, 2, strings.Count(got, "this.showReturnButton();"))
}

func TestDryRunWritesNothing(t *testing.T) {
	root := t.TempDir()
	day4 := writeScript(t, root, 4, gameScript)

	p, out := newPatcher(t, Options{Root: root, DryRun: true, Preview: true})
	sum, err := p.Run(context.Background(), []int{4})
	require.NoError(t, err)

	assert.Equal(t, gameScript, readFile(t, day4))
	assert.Equal(t, []int{4}, sum.Patched)

	log := out.String()
	assert.Contains(t, log, "--- "+day4)
	assert.Contains(t, log, "+        this.showReturnButton();")
	assert.Contains(t, log, "+    showReturnButton() {")
	assert.Contains(t, log, "🔎 Day4: would patch "+day4)
	assert.Contains(t, log, "🎉 Dry run complete, no files were written!")
}

func TestVerifyRejectsBrokenPatch(t *testing.T) {
	root := t.TempDir()
	day4 := writeScript(t, root, 4, gameScript)

	broken := &anchor.Anchor{
		Name:    "broken",
		Pattern: regexp.MustCompile(`(?m)^[ \t]*this\.updateHint\([^)]*\);`),
		Fragment: func(day int, indent string) (string, error) {
			return "\n" + indent + "}}", nil
		},
	}
	var out bytes.Buffer
	p := New(anchor.NewSet(broken), Options{Root: root, Verify: true, Out: &out})
	defer p.Close()

	sum, err := p.Run(context.Background(), []int{4})
	require.NoError(t, err)
	assert.Equal(t, []int{4}, sum.Failed)
	assert.Equal(t, gameScript, readFile(t, day4))
	assert.Contains(t, out.String(), "❌ Day4: patched "+day4+" would not parse")
}

func TestRunStopsOnIOFailure(t *testing.T) {
	root := t.TempDir()
	// a directory where the script should be cannot be read as text
	require.NoError(t, os.MkdirAll(filepath.Join(root, "day4-minigame", "script.js"), 0755))
	day5 := writeScript(t, root, 5, gameScript)

	p, out := newPatcher(t, Options{Root: root})
	sum, err := p.Run(context.Background(), []int{4, 5})
	require.Error(t, err)

	assert.Equal(t, []int{4}, sum.Failed)
	assert.Equal(t, gameScript, readFile(t, day5), "later targets stay untouched")
	assert.Contains(t, out.String(), "🎉 All patches finished!")
}

func TestRunHonoursCancellation(t *testing.T) {
	root := t.TempDir()
	day4 := writeScript(t, root, 4, gameScript)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p, _ := newPatcher(t, Options{Root: root})
	_, err := p.Run(ctx, []int{4})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, gameScript, readFile(t, day4))
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.js"))
	require.ErrorIs(t, err, ErrMissingTarget)
}

func TestSaveKeepsMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "script.js")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0600))

	require.NoError(t, Save(path, "new"))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	assert.Equal(t, "new", readFile(t, path))
}

func TestSaveFailure(t *testing.T) {
	err := Save(filepath.Join(t.TempDir(), "missing-dir", "script.js"), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not write")
}

func TestNonASCIIRoundTrip(t *testing.T) {
	root := t.TempDir()
	src := "\ufeff" + gameScript
	day4 := writeScript(t, root, 4, src)

	p, _ := newPatcher(t, Options{Root: root})
	_, err := p.Run(context.Background(), []int{4})
	require.NoError(t, err)

	got := readFile(t, day4)
	assert.True(t, utf8.ValidString(got))
	assert.True(t, strings.HasPrefix(got, "\ufeffclass Day4Game {"), "BOM kept")
	assert.Contains(t, got, "this.updateHint('🏆 完了！お疲れ様でした！');")
	assert.Contains(t, got, "returnButton.textContent = '🏠 メインハブに戻る';")
	assert.Contains(t, got, "// メインハブに戻るボタンを表示")
}

func TestPreviewHunks(t *testing.T) {
	before := "a\nb\nc\nd\ne\nf\ng\n"
	after := "a\nb\nc\nd\nX\ne\nf\ng\n"

	var out bytes.Buffer
	Preview(&out, "f.js", before, after)

	want := "--- f.js\n+++ f.js (patched)\n@@ -3 +3 @@\n c\n d\n+X\n e\n f\n"
	assert.Equal(t, want, out.String())
}
