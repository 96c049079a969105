package request

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Request
	}{
		{
			name: "bash",
			in:   `{"hook_event_name":"PreToolUse","session_id":"s","cwd":"/p","tool_name":"Bash","tool_input":{"command":"ls -la"}}`,
			want: Request{Kind: KindExecute, Tool: "Bash", Command: "ls -la", Session: "s", Cwd: "/p"},
		},
		{
			name: "write",
			in:   `{"tool_name":"Write","tool_input":{"file_path":"a.md","content":"hi"}}`,
			want: Request{Kind: KindWrite, Tool: "Write", FilePath: "a.md", Content: "hi"},
		},
		{
			name: "edit",
			in:   `{"tool_name":"Edit","tool_input":{"file_path":"a.go","old_string":"x","new_string":"y"}}`,
			want: Request{Kind: KindEdit, Tool: "Edit", FilePath: "a.go", Edits: []Edit{{Old: "x", New: "y"}}},
		},
		{
			name: "multi edit",
			in:   `{"tool_name":"MultiEdit","tool_input":{"file_path":"a.go","edits":[{"old_string":"a","new_string":"b"},{"old_string":"c","new_string":"d"}]}}`,
			want: Request{Kind: KindMultiEdit, Tool: "MultiEdit", FilePath: "a.go", Edits: []Edit{{Old: "a", New: "b"}, {Old: "c", New: "d"}}},
		},
		{
			name: "fields of other kinds are dropped",
			in:   `{"tool_name":"Bash","tool_input":{"command":"ls","file_path":"x","content":"y"}}`,
			want: Request{Kind: KindExecute, Tool: "Bash", Command: "ls"},
		},
		{
			name: "unknown tool",
			in:   `{"tool_name":"WebFetch","tool_input":{}}`,
			want: Request{Kind: KindOther, Tool: "WebFetch"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecode_Malformed(t *testing.T) {
	_, err := Decode([]byte("{"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding hook payload")
}

func TestText(t *testing.T) {
	assert.Equal(t, "body", Request{Kind: KindWrite, Content: "body"}.Text())
	assert.Equal(t, "new", Request{Kind: KindEdit, Edits: []Edit{{Old: "old", New: "new"}}}.Text())
	assert.Equal(t, "a b", Request{Kind: KindMultiEdit, Edits: []Edit{{New: "a"}, {New: "b"}}}.Text())
	assert.Empty(t, Request{Kind: KindExecute, Command: "echo hi"}.Text())
	assert.Empty(t, Request{Kind: KindEdit}.Text())
}

func TestPayload_RoundTrip(t *testing.T) {
	reqs := []Request{
		{Kind: KindExecute, Tool: "Bash", Command: "date", Session: "s"},
		{Kind: KindEdit, Tool: "Edit", FilePath: "a.go", Edits: []Edit{{Old: "x", New: "y"}}},
		{Kind: KindMultiEdit, Tool: "MultiEdit", FilePath: "a.go", Edits: []Edit{{Old: "a", New: "b"}}},
	}
	for _, r := range reqs {
		assert.Equal(t, r, FromPayload(r.Payload()))
	}
}

func TestPayload_ToolNameFromKind(t *testing.T) {
	p := Request{Kind: KindExecute, Command: "ls"}.Payload()
	assert.Equal(t, "Bash", p.ToolName)
}

func TestKind_FlagValue(t *testing.T) {
	var k Kind
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Var(&k, "tool", "")

	require.NoError(t, fs.Parse([]string{"--tool", "bash"}))
	assert.Equal(t, KindExecute, k)
	assert.Equal(t, "tool", fs.Lookup("tool").Value.Type())

	require.NoError(t, fs.Parse([]string{"--tool", "MultiEdit"}))
	assert.Equal(t, KindMultiEdit, k)
	assert.True(t, k.IsFileWrite())

	err := fs.Parse([]string{"--tool", "Teleport"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown tool")
}
