package diffmod_test

import (
	"errors"
	"testing"

	"github.com/fwojciec/diffmod"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()

	t.Run("parses a modified file", func(t *testing.T) {
		t.Parallel()

		input := "diff --git a/src/auth.go b/src/auth.go\n" +
			"index 1111111..2222222 100644\n" +
			"--- a/src/auth.go\n" +
			"+++ b/src/auth.go\n" +
			"@@ -1,3 +1,4 @@ package auth\n" +
			" package auth\n" +
			"\n" +
			"+func login() {}\n" +
			" func logout() {}\n"

		buf := diffmod.NewBuffer()
		d := parseText(t, buf, input)

		require.Len(t, d.Files, 1)
		f := d.Files[0]
		assert.Equal(t, diffmod.NewFileName("src/auth.go"), f.OldName)
		assert.Equal(t, diffmod.NewFileName("src/auth.go"), f.NewName)
		assert.False(t, f.IsRename())
		require.Len(t, f.Hunks, 1)

		h := f.Hunks[0]
		assert.Equal(t, 1, h.OldStart)
		assert.Equal(t, 3, h.OldCount)
		assert.Equal(t, 1, h.NewStart)
		assert.Equal(t, 4, h.NewCount)
		assert.Equal(t, "package auth", buf.String(h.Section))
		require.Len(t, h.Lines, 4)
		assert.Equal(t, diffmod.Context, h.Lines[1].Kind)
		assert.Equal(t, "", buf.String(h.Lines[1].Content))
		assert.Equal(t, diffmod.Added, h.Lines[2].Kind)
		assert.Equal(t, "func login() {}", buf.String(h.Lines[2].Content))
	})

	t.Run("ignores a preamble before the first file", func(t *testing.T) {
		t.Parallel()

		input := "From 1234 Mon Sep 17 00:00:00 2001\n" +
			"Subject: [PATCH] change\n" +
			"\n" +
			"---\n" +
			" x.txt | 2 +-\n" +
			"\n" +
			"diff --git a/x.txt b/x.txt\n" +
			"--- a/x.txt\n" +
			"+++ b/x.txt\n" +
			"@@ -1 +1 @@\n" +
			"-old\n" +
			"+new\n" +
			"-- \n" +
			"2.40.0\n"

		d := parseText(t, diffmod.NewBuffer(), input)

		require.Len(t, d.Files, 1)
		require.Len(t, d.Files[0].Hunks, 1)
		assert.Len(t, d.Files[0].Hunks[0].Lines, 2)
	})

	t.Run("parses plain unified diffs with timestamps", func(t *testing.T) {
		t.Parallel()

		input := "--- a/x.txt\t2024-01-01 00:00:00\n" +
			"+++ b/x.txt\t2024-01-02 00:00:00\n" +
			"@@ -1,2 +1,2 @@\n" +
			" keep\n" +
			"-old\n" +
			"+new\n"

		d := parseText(t, diffmod.NewBuffer(), input)

		require.Len(t, d.Files, 1)
		assert.Equal(t, "x.txt", d.Files[0].NewName.Path())
	})

	t.Run("parses new and deleted files", func(t *testing.T) {
		t.Parallel()

		input := "diff --git a/new.txt b/new.txt\n" +
			"new file mode 100644\n" +
			"index 0000000..1111111\n" +
			"--- /dev/null\n" +
			"+++ b/new.txt\n" +
			"@@ -0,0 +1 @@\n" +
			"+hello\n" +
			"diff --git a/gone.txt b/gone.txt\n" +
			"deleted file mode 100755\n" +
			"index 1111111..0000000\n" +
			"--- a/gone.txt\n" +
			"+++ /dev/null\n" +
			"@@ -1 +0,0 @@\n" +
			"-bye\n"

		d := parseText(t, diffmod.NewBuffer(), input)

		require.Len(t, d.Files, 2)
		assert.True(t, d.Files[0].OldName.IsMissing())
		assert.Equal(t, "new.txt", d.Files[0].NewName.Path())
		assert.Equal(t, uint32(0o100644), d.Files[0].NewMode)
		assert.Equal(t, "gone.txt", d.Files[1].OldName.Path())
		assert.True(t, d.Files[1].NewName.IsMissing())
		assert.Equal(t, uint32(0o100755), d.Files[1].OldMode)
	})

	t.Run("parses an empty new file without hunks", func(t *testing.T) {
		t.Parallel()

		input := "diff --git a/empty.txt b/empty.txt\n" +
			"new file mode 100644\n" +
			"index 0000000..e69de29\n"

		d := parseText(t, diffmod.NewBuffer(), input)

		require.Len(t, d.Files, 1)
		assert.True(t, d.Files[0].OldName.IsMissing())
		assert.Equal(t, "empty.txt", d.Files[0].NewName.Path())
		assert.Empty(t, d.Files[0].Hunks)
	})

	t.Run("parses renames, copies and mode changes", func(t *testing.T) {
		t.Parallel()

		input := "diff --git a/old name.txt b/new name.txt\n" +
			"similarity index 100%\n" +
			"rename from old name.txt\n" +
			"rename to new name.txt\n" +
			"diff --git a/src.go b/dst.go\n" +
			"similarity index 90%\n" +
			"copy from src.go\n" +
			"copy to dst.go\n" +
			"diff --git a/run.sh b/run.sh\n" +
			"old mode 100644\n" +
			"new mode 100755\n"

		d := parseText(t, diffmod.NewBuffer(), input)

		require.Len(t, d.Files, 3)
		assert.Equal(t, "old name.txt", d.Files[0].OldName.Path())
		assert.Equal(t, "new name.txt", d.Files[0].NewName.Path())
		assert.True(t, d.Files[0].IsRename())
		assert.True(t, d.Files[1].Copy)
		assert.False(t, d.Files[1].IsRename())
		assert.Equal(t, "dst.go", d.Files[1].NewName.Path())
		assert.True(t, d.Files[2].IsModeChange())
		assert.Equal(t, uint32(0o100755), d.Files[2].NewMode)
	})

	t.Run("parses binary files", func(t *testing.T) {
		t.Parallel()

		input := "diff --git a/img.png b/img.png\n" +
			"index 1111111..2222222 100644\n" +
			"Binary files a/img.png and b/img.png differ\n"

		d := parseText(t, diffmod.NewBuffer(), input)

		require.Len(t, d.Files, 1)
		assert.True(t, d.Files[0].Binary)
		assert.Equal(t, "img.png", d.Files[0].NewName.Path())
		assert.Empty(t, d.Files[0].Hunks)
	})

	t.Run("records missing trailing newlines", func(t *testing.T) {
		t.Parallel()

		input := "--- a/x.txt\n" +
			"+++ b/x.txt\n" +
			"@@ -1 +1 @@\n" +
			"-old\n" +
			"\\ No newline at end of file\n" +
			"+new\n" +
			"\\ No newline at end of file\n"

		d := parseText(t, diffmod.NewBuffer(), input)

		lines := d.Files[0].Hunks[0].Lines
		require.Len(t, lines, 2)
		assert.True(t, lines[0].NoNewline)
		assert.True(t, lines[1].NoNewline)
	})

	t.Run("honors the strip level", func(t *testing.T) {
		t.Parallel()

		input := "--- x/y/file.txt\n" +
			"+++ x/y/file.txt\n" +
			"@@ -1 +1 @@\n" +
			"-a\n" +
			"+b\n"
		buf := diffmod.NewBuffer()
		opts := diffmod.DefaultOptions()
		opts.StripPathComponents = 2

		d, err := diffmod.NewParser(opts).Parse(buf, buf.InsertString(input))
		require.NoError(t, err)

		assert.Equal(t, "file.txt", d.Files[0].NewName.Path())
		assert.Equal(t, 2, d.Options.StripPathComponents)
	})

	t.Run("returns an empty diff for empty input", func(t *testing.T) {
		t.Parallel()

		d := parseText(t, diffmod.NewBuffer(), "")

		assert.Empty(t, d.Files)
	})
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr error
		line    int
		path    string
	}{
		{
			name: "hunk with fewer lines than declared",
			input: "--- a/x.txt\n" +
				"+++ b/x.txt\n" +
				"@@ -1,3 +1,3 @@\n" +
				" a\n" +
				"-b\n" +
				"+c\n",
			wantErr: diffmod.ErrParse,
			line:    7,
			path:    "x.txt",
		},
		{
			name: "hunk with more lines than declared",
			input: "--- a/x.txt\n" +
				"+++ b/x.txt\n" +
				"@@ -1 +1 @@\n" +
				"-b\n" +
				"+c\n" +
				"+d\n",
			wantErr: diffmod.ErrParse,
			line:    6,
			path:    "x.txt",
		},
		{
			name: "malformed hunk header",
			input: "--- a/x.txt\n" +
				"+++ b/x.txt\n" +
				"@@ -1,x +1 @@\n" +
				"-b\n",
			wantErr: diffmod.ErrParse,
			line:    3,
			path:    "x.txt",
		},
		{
			name: "overlapping hunks",
			input: "--- a/x.txt\n" +
				"+++ b/x.txt\n" +
				"@@ -5,2 +5,2 @@\n" +
				"-a\n" +
				"+b\n" +
				" c\n" +
				"@@ -1,1 +1,1 @@\n" +
				"-d\n" +
				"+e\n",
			wantErr: diffmod.ErrParse,
			line:    7,
			path:    "x.txt",
		},
		{
			name: "path with too few components",
			input: "--- x.txt\n" +
				"+++ x.txt\n" +
				"@@ -1 +1 @@\n" +
				"-a\n" +
				"+b\n",
			wantErr: diffmod.ErrMalformedPath,
			line:    1,
		},
		{
			name:    "combined diff",
			input:   "diff --cc x.txt\n",
			wantErr: diffmod.ErrParse,
			line:    1,
		},
		{
			name: "binary patch data",
			input: "diff --git a/x.bin b/x.bin\n" +
				"index 1111111..2222222 100644\n" +
				"GIT binary patch\n" +
				"literal 0\n",
			wantErr: diffmod.ErrParse,
			line:    3,
		},
	}

	for _, tt := range tests {
		t.Run("rejects "+tt.name, func(t *testing.T) {
			t.Parallel()

			buf := diffmod.NewBuffer()
			_, err := diffmod.Parse(buf, buf.InsertString(tt.input), diffmod.DefaultOptions())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			var perr *diffmod.ParseError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, tt.line, perr.Line)
			if tt.path != "" {
				assert.Equal(t, tt.path, perr.Path)
				assert.Contains(t, err.Error(), tt.path)
			}
		})
	}
}
