package shell

import (
	"testing"

	"github.com/felixgeelhaar/aistack/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadManagedBlock_Found(t *testing.T) {
	t.Parallel()

	content := `# existing content
export FOO=bar

# >>> aistack aliases >>>
alias ollama='docker exec -it ollama ollama'
# <<< aistack aliases <<<

# more content
`
	assert.Equal(t, "alias ollama='docker exec -it ollama ollama'\n", ReadManagedBlock(content, "aliases"))
}

func TestReadManagedBlock_NotFound(t *testing.T) {
	t.Parallel()

	assert.Empty(t, ReadManagedBlock("export FOO=bar\n", "aliases"))
	assert.False(t, HasManagedBlock("export FOO=bar\n", "aliases"))
}

func TestReadManagedBlock_Empty(t *testing.T) {
	t.Parallel()

	content := "# >>> aistack aliases >>>\n# <<< aistack aliases <<<\n"
	assert.Empty(t, ReadManagedBlock(content, "aliases"))
	assert.True(t, HasManagedBlock(content, "aliases"))
}

func TestWriteManagedBlock_NewBlock(t *testing.T) {
	t.Parallel()

	result := WriteManagedBlock("export FOO=bar", "aliases", "alias a='b'\n")

	assert.Equal(t, "export FOO=bar\n\n# >>> aistack aliases >>>\nalias a='b'\n# <<< aistack aliases <<<\n", result)
}

func TestWriteManagedBlock_ReplaceExisting(t *testing.T) {
	t.Parallel()

	content := "before\n# >>> aistack aliases >>>\nalias old='x'\n# <<< aistack aliases <<<\nafter\n"
	result := WriteManagedBlock(content, "aliases", "alias new='y'\n")

	assert.Equal(t, "before\n# >>> aistack aliases >>>\nalias new='y'\n# <<< aistack aliases <<<\nafter\n", result)
	assert.NotContains(t, result, "old")
}

func TestWriteManagedBlock_MissingEndMarker(t *testing.T) {
	t.Parallel()

	content := "before\n# >>> aistack aliases >>>\nalias old='x'\n"
	result := WriteManagedBlock(content, "aliases", "alias new='y'\n")

	assert.Equal(t, "before\n# >>> aistack aliases >>>\nalias new='y'\n# <<< aistack aliases <<<\n", result)
}

func TestWriteManagedBlock_Idempotent(t *testing.T) {
	t.Parallel()

	once := WriteManagedBlock("export FOO=bar\n", "aliases", "alias a='b'\n")
	twice := WriteManagedBlock(once, "aliases", "alias a='b'\n")

	assert.Equal(t, once, twice)
}

func TestRemoveManagedBlock(t *testing.T) {
	t.Parallel()

	original := "export FOO=bar\n"
	written := WriteManagedBlock(original, "aliases", "alias a='b'\n")

	assert.Equal(t, original, RemoveManagedBlock(written, "aliases"))
	assert.Equal(t, original, RemoveManagedBlock(original, "aliases"))
}

func TestRemoveManagedBlock_KeepsSurroundingLines(t *testing.T) {
	t.Parallel()

	content := "before\n# >>> aistack aliases >>>\nalias a='b'\n# <<< aistack aliases <<<\nafter\n"

	assert.Equal(t, "before\nafter\n", RemoveManagedBlock(content, "aliases"))
}

func TestGenerateAliasBlock(t *testing.T) {
	t.Parallel()

	block, err := generateAliasBlock(map[string]string{
		"ollama":   "docker exec -it ollama ollama",
		"ai-logs":  "docker logs -f open-webui",
		"ai_quote": "echo 'hi'",
	})
	require.NoError(t, err)

	assert.Equal(t,
		"alias ai-logs='docker logs -f open-webui'\n"+
			"alias ai_quote='echo '\\''hi'\\'''\n"+
			"alias ollama='docker exec -it ollama ollama'\n",
		block)
}

func TestGenerateAliasBlock_Empty(t *testing.T) {
	t.Parallel()

	block, err := generateAliasBlock(nil)
	require.NoError(t, err)
	assert.Empty(t, block)
}

func TestGenerateAliasBlock_Invalid(t *testing.T) {
	t.Parallel()

	_, err := generateAliasBlock(map[string]string{"bad name": "ls"})
	require.ErrorIs(t, err, validation.ErrInvalidAliasName)

	_, err = generateAliasBlock(map[string]string{"ok": "ls\nrm -rf /"})
	require.ErrorIs(t, err, validation.ErrNewlineInjection)
}
