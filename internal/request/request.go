package request

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind is the closed set of actions a hook payload can describe.
type Kind string

const (
	KindExecute   Kind = "Execute"
	KindWrite     Kind = "Write"
	KindEdit      Kind = "Edit"
	KindMultiEdit Kind = "MultiEdit"
	KindRead      Kind = "Read"
	KindOther     Kind = "Other"
)

// KindFromTool maps an agent tool name to its Kind.
func KindFromTool(tool string) Kind {
	switch tool {
	case "Bash":
		return KindExecute
	case "Write":
		return KindWrite
	case "Edit":
		return KindEdit
	case "MultiEdit":
		return KindMultiEdit
	case "Read":
		return KindRead
	default:
		return KindOther
	}
}

// ToolName is the inverse of KindFromTool for the kinds that have a tool.
func (k Kind) ToolName() string {
	switch k {
	case KindExecute:
		return "Bash"
	case KindWrite, KindEdit, KindMultiEdit, KindRead:
		return string(k)
	default:
		return ""
	}
}

// IsFileWrite reports whether the kind mutates a file by path.
func (k Kind) IsFileWrite() bool {
	return k == KindWrite || k == KindEdit || k == KindMultiEdit
}

// String, Set and Type make Kind usable as a pflag.Value. Set accepts either
// a kind ("Execute") or a tool name ("Bash").
func (k *Kind) String() string { return string(*k) }

func (k *Kind) Set(v string) error {
	for _, known := range []Kind{KindExecute, KindWrite, KindEdit, KindMultiEdit, KindRead} {
		if strings.EqualFold(v, string(known)) || strings.EqualFold(v, known.ToolName()) {
			*k = known
			return nil
		}
	}
	return fmt.Errorf("unknown tool %q (want Bash, Write, Edit, MultiEdit or Read)", v)
}

func (k *Kind) Type() string { return "tool" }

// Edit is one old/new replacement pair of a MultiEdit.
type Edit struct {
	Old string
	New string
}

// Request is the normalized, typed view of one proposed tool invocation.
// It is built once at the boundary and only read afterwards.
type Request struct {
	Kind     Kind
	Tool     string
	Command  string
	FilePath string
	Content  string
	Edits    []Edit
	Session  string
	Cwd      string
}

// Text returns the text the request would write: the full content for
// Write, the replacement for Edit and the space-joined replacements for
// MultiEdit. Other kinds write nothing.
func (r Request) Text() string {
	switch r.Kind {
	case KindWrite:
		return r.Content
	case KindEdit:
		if len(r.Edits) > 0 {
			return r.Edits[0].New
		}
		return ""
	case KindMultiEdit:
		parts := make([]string, len(r.Edits))
		for i, e := range r.Edits {
			parts[i] = e.New
		}
		return strings.Join(parts, " ")
	default:
		return ""
	}
}

// Payload is the hook JSON as sent by Claude Code:
// {"hook_event_name": "PreToolUse", "tool_name": "Bash", "tool_input": {"command": "..."}}
type Payload struct {
	HookEventName string    `json:"hook_event_name,omitempty"`
	SessionID     string    `json:"session_id,omitempty"`
	Cwd           string    `json:"cwd,omitempty"`
	ToolName      string    `json:"tool_name"`
	ToolInput     ToolInput `json:"tool_input"`
}

// ToolInput holds every tool_input field any supported tool sends.
type ToolInput struct {
	Command   string      `json:"command,omitempty"`
	FilePath  string      `json:"file_path,omitempty"`
	Content   string      `json:"content,omitempty"`
	OldString string      `json:"old_string,omitempty"`
	NewString string      `json:"new_string,omitempty"`
	Edits     []EditInput `json:"edits,omitempty"`
}

// EditInput is a single entry of a MultiEdit tool_input.
type EditInput struct {
	OldString string `json:"old_string"`
	NewString string `json:"new_string"`
}

// Decode parses a hook payload into a Request.
func Decode(data []byte) (Request, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return Request{}, fmt.Errorf("decoding hook payload: %w", err)
	}
	return FromPayload(p), nil
}

// FromPayload resolves the loosely shaped payload into a typed Request.
// Fields that do not belong to the payload's kind are dropped.
func FromPayload(p Payload) Request {
	r := Request{
		Kind:    KindFromTool(p.ToolName),
		Tool:    p.ToolName,
		Session: p.SessionID,
		Cwd:     p.Cwd,
	}
	in := p.ToolInput
	switch r.Kind {
	case KindExecute:
		r.Command = in.Command
	case KindWrite:
		r.FilePath = in.FilePath
		r.Content = in.Content
	case KindEdit:
		r.FilePath = in.FilePath
		r.Edits = []Edit{{Old: in.OldString, New: in.NewString}}
	case KindMultiEdit:
		r.FilePath = in.FilePath
		r.Edits = make([]Edit, len(in.Edits))
		for i, e := range in.Edits {
			r.Edits[i] = Edit{Old: e.OldString, New: e.NewString}
		}
	case KindRead:
		r.FilePath = in.FilePath
	default:
		r.Command = in.Command
		r.FilePath = in.FilePath
	}
	return r
}

// Payload converts the request back into the hook wire shape. The audit log
// stores this form so entries read like the hook input that produced them.
func (r Request) Payload() Payload {
	p := Payload{
		SessionID: r.Session,
		Cwd:       r.Cwd,
		ToolName:  r.Tool,
	}
	if p.ToolName == "" {
		p.ToolName = r.Kind.ToolName()
	}
	in := ToolInput{Command: r.Command, FilePath: r.FilePath, Content: r.Content}
	switch r.Kind {
	case KindEdit:
		if len(r.Edits) > 0 {
			in.OldString = r.Edits[0].Old
			in.NewString = r.Edits[0].New
		}
	case KindMultiEdit:
		in.Edits = make([]EditInput, len(r.Edits))
		for i, e := range r.Edits {
			in.Edits[i] = EditInput{OldString: e.Old, NewString: e.New}
		}
	}
	p.ToolInput = in
	return p
}
