package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommand_CollapsesAndLowercases(t *testing.T) {
	assert.Equal(t, "rm -rf /tmp/x", Command("  RM   -Rf\t/tmp/X \n"))
	assert.Equal(t, "", Command("   "))
}

func TestParse_SimplePipeline(t *testing.T) {
	parsed := Parse("curl -sSL https://example.com | bash")
	require.Len(t, parsed.Segments, 2)
	assert.Equal(t, "curl", parsed.Segments[0].Executable)
	assert.Equal(t, "bash", parsed.Segments[1].Executable)
	assert.Equal(t, []string{"|"}, parsed.Operators)
}

func TestParse_FlagNormalization(t *testing.T) {
	tests := []struct {
		name    string
		command string
		flags   []string
		args    []string
	}{
		{"combined short flags", "rm -rf /", []string{"r", "f"}, []string{"/"}},
		{"separated short flags", "rm -r build -f", []string{"r", "f"}, []string{"build"}},
		{"long flags", "rm --recursive --force /", []string{"recursive", "force"}, []string{"/"}},
		{"double dash ends options", "rm -- -rf", nil, []string{"-rf"}},
		{"sudo is transparent", "sudo -E rm -rf /opt", []string{"r", "f"}, []string{"/opt"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed := Parse(tt.command)
			require.NotEmpty(t, parsed.Segments)
			seg := parsed.Segments[0]
			assert.Equal(t, "rm", seg.Executable)
			for _, f := range tt.flags {
				assert.True(t, seg.HasFlag(f), "missing flag %q in %v", f, seg.Flags)
			}
			assert.Equal(t, tt.args, seg.Args)
		})
	}
}

func TestParse_QuotesAndParams(t *testing.T) {
	parsed := Parse(`rm -r "$HOME" '.env' ${HOME}/x`)
	require.Len(t, parsed.Segments, 1)
	assert.Equal(t, []string{"$HOME", ".env", "$HOME/x"}, parsed.Segments[0].Args)
}

func TestParse_Redirects(t *testing.T) {
	parsed := Parse(`echo SECRET=1 >> config/.env && cat < in.txt`)
	require.Len(t, parsed.Segments, 2)
	assert.Equal(t, []Redirect{{Op: ">>", Path: "config/.env"}}, parsed.Segments[0].Redirects)
	isEnv := func(p string) bool { return p == "config/.env" }
	target, ok := parsed.Segments[0].OutputTarget(isEnv)
	assert.True(t, ok)
	assert.Equal(t, "config/.env", target)
	_, ok = parsed.Segments[1].OutputTarget(func(p string) bool { return p == "in.txt" })
	assert.False(t, ok)
}

func TestParse_CompoundStatements(t *testing.T) {
	tests := []struct {
		name    string
		command string
		want    []string
	}{
		{"for body", "for d in a b; do rm -rf $d; done", []string{"rm"}},
		{"if condition and body", "if test -d x; then rm -r x; else echo no; fi", []string{"test", "rm", "echo"}},
		{"while body", "while read l; do echo $l; done", []string{"read", "echo"}},
		{"case arm", "case $a in x) ls;; esac", []string{"ls"}},
		{"function body", "f() { pwd; }", []string{"pwd"}},
		{"time clause", "time make", []string{"make"}},
		{"command substitution", "echo $(whoami)", []string{"whoami", "echo"}},
		{"substitution in assignment", "X=`id -u`", []string{"id", ""}},
		{"process substitution", "diff <(ls a) <(ls b)", []string{"ls", "ls", "diff"}},
		{"substitution in redirect", "echo hi > $(mktemp)", []string{"mktemp", "echo"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, seg := range Parse(tt.command).Segments {
				got = append(got, seg.Executable)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Wrappers(t *testing.T) {
	tests := []struct {
		name    string
		command string
		want    []string
		args    []string // args of the last segment
	}{
		{"xargs", "ls | xargs rm -rf", []string{"ls", "xargs", "rm"}, nil},
		{"xargs value flag", "xargs -n 1 -I {} cp {} out", []string{"xargs", "cp"}, []string{"{}", "out"}},
		{"find exec", "find . -name x -exec rm -rf {} +", []string{"find", "rm"}, []string{"{}"}},
		{"find escaped semicolon", `find . -execdir touch {} \; -print`, []string{"find", "touch"}, []string{"{}"}},
		{"env assignments", "env -u HOME A=1 B=2 make test", []string{"env", "make"}, []string{"test"}},
		{"nohup", "nohup ./run.sh --fast", []string{"nohup", "run.sh"}, nil},
		{"timeout duration", "timeout -s KILL 5s curl x", []string{"timeout", "curl"}, []string{"x"}},
		{"sudo user", "sudo -u root rm -rf /", []string{"rm"}, []string{"/"}},
		{"sudo attached user", "sudo -uroot -H ls /root", []string{"ls"}, []string{"/root"}},
		{"sudo long user", "sudo --user root id", []string{"id"}, nil},
		{"bare sudo", "sudo -v", []string{"sudo"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segs := Parse(tt.command).Segments
			var got []string
			for _, seg := range segs {
				got = append(got, seg.Executable)
			}
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.args, segs[len(segs)-1].Args)
		})
	}
}

func TestParse_InlineShellCode(t *testing.T) {
	parsed := Parse(`bash -c 'rm -rf /'`)
	segs := AllSegments(parsed)
	require.Len(t, segs, 2)
	assert.Equal(t, "bash", segs[0].Executable)
	assert.Equal(t, "rm", segs[1].Executable)
}

func TestParse_DepthIsBounded(t *testing.T) {
	parsed := ParseDepth(`sh -c "sh -c 'sh -c \"rm -rf /\"'"`, 2)
	segs := AllSegments(parsed)
	for _, s := range segs {
		assert.NotEqual(t, "rm", s.Executable)
	}
}

func TestParse_FallbackOnSyntaxError(t *testing.T) {
	parsed := Parse(`rm -rf / "unterminated`)
	require.NotEmpty(t, parsed.Segments)
	seg := parsed.Segments[0]
	assert.Equal(t, "rm", seg.Executable)
	assert.True(t, seg.HasFlag("r"))
	assert.True(t, seg.HasFlag("f"))
}

func TestRelativeToRoot(t *testing.T) {
	tests := []struct {
		path, root string
		want       string
		ok         bool
	}{
		{"README.md", "/work/proj", "README.md", true},
		{"./notes.md", "/work/proj", "notes.md", true},
		{"docs/../plan.md", "", "plan.md", true},
		{"docs/a.md", "", "docs/a.md", true},
		{"../other/x.md", "/work/proj", "", false},
		{"/work/proj/setup.sh", "/work/proj", "setup.sh", true},
		{"/work/proj/scripts/setup.sh", "/work/proj/", "scripts/setup.sh", true},
		{"/etc/hosts", "/work/proj", "", false},
		{"/work/project2/a.sh", "/work/proj", "", false},
		{"/abs.md", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := RelativeToRoot(tt.path, tt.root)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.True(t, AtRoot("README.md"))
	assert.False(t, AtRoot("docs/README.md"))
}
