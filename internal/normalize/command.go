package normalize

import (
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// DefaultMaxDepth bounds how far inline shell code (bash -c '...') is
// re-parsed.
const DefaultMaxDepth = 2

// Command collapses runs of whitespace and lowercases the command text.
func Command(command string) string {
	return strings.ToLower(strings.Join(strings.Fields(command), " "))
}

// ParsedCommand is the token-level structure of a shell command line.
type ParsedCommand struct {
	// Segments are the simple commands in source order, across pipelines,
	// lists, compound statements and substitutions. "a | b && c" has three.
	Segments []Segment

	// Operators of the pipelines and lists, in source order: "|", "&&", "||".
	Operators []string

	// Subcommands are commands found inside sh -c / bash -c arguments.
	Subcommands []*ParsedCommand
}

// Segment is a single simple command.
type Segment struct {
	Raw        string
	Executable string
	Args       []string          // positional arguments, unquoted
	Flags      map[string]string // short flags split per char, long flags by name
	Redirects  []Redirect
}

// Redirect is one output or input redirection.
type Redirect struct {
	Op   string // ">", ">>", ">|", "&>", "<", ...
	Path string
}

// HasFlag reports whether any of the given flag names is set.
func (s Segment) HasFlag(names ...string) bool {
	for _, n := range names {
		if _, ok := s.Flags[n]; ok {
			return true
		}
	}
	return false
}

// OutputTarget returns the first output redirect target satisfying match.
// Input redirects are ignored; "<>" opens for writing and counts.
func (s Segment) OutputTarget(match func(string) bool) (string, bool) {
	for _, r := range s.Redirects {
		if !isOutputOp(r.Op) {
			continue
		}
		if match(r.Path) {
			return r.Path, true
		}
	}
	return "", false
}

func isOutputOp(op string) bool {
	switch op {
	case ">", ">>", ">|", "&>", "&>>", "<>", ">&":
		return true
	}
	return false
}

// Parse tokenizes command using the bash grammar, with DefaultMaxDepth.
func Parse(command string) *ParsedCommand {
	return ParseDepth(command, DefaultMaxDepth)
}

// ParseDepth tokenizes command, following inline shell code at most
// maxDepth levels deep. Commands the shell parser rejects are split on
// whitespace and pipes instead.
func ParseDepth(command string, maxDepth int) *ParsedCommand {
	return parseWithDepth(command, 0, maxDepth)
}

func parseWithDepth(command string, depth, maxDepth int) *ParsedCommand {
	if depth >= maxDepth {
		return nil
	}

	parser := syntax.NewParser(syntax.KeepComments(false), syntax.Variant(syntax.LangBash))
	file, err := parser.Parse(strings.NewReader(command), "")
	if err != nil {
		return fallbackParse(command)
	}

	w := &walker{pc: &ParsedCommand{}, depth: depth, maxDepth: maxDepth}
	for _, stmt := range file.Stmts {
		w.stmt(stmt)
	}
	return w.pc
}

// walker collects every simple command in a file: list and pipeline
// members, loop, if and case bodies, function bodies, and command or
// process substitutions nested in words.
type walker struct {
	pc              *ParsedCommand
	depth, maxDepth int
}

func (w *walker) stmt(stmt *syntax.Stmt) {
	if stmt == nil {
		return
	}

	var redirects []Redirect
	for _, redir := range stmt.Redirs {
		r := Redirect{Op: redir.Op.String()}
		if redir.Word != nil {
			r.Path = wordValue(redir.Word)
			w.nested(redir.Word)
		}
		redirects = append(redirects, r)
	}

	start := len(w.pc.Segments)
	switch cmd := stmt.Cmd.(type) {
	case nil:
		// "> file" alone truncates file.
		if len(redirects) > 0 {
			w.pc.Segments = append(w.pc.Segments, Segment{Flags: make(map[string]string), Redirects: redirects})
		}
		return

	case *syntax.CallExpr:
		w.nested(cmd)
		segs := w.callSegments(cmd)
		for i := range segs {
			segs[i].Redirects = append(segs[i].Redirects, redirects...)
		}
		w.pc.Segments = append(w.pc.Segments, segs...)
		return

	case *syntax.BinaryCmd:
		w.stmt(cmd.X)
		w.pc.Operators = append(w.pc.Operators, cmd.Op.String())
		w.stmt(cmd.Y)

	default:
		w.nested(cmd)
	}

	// Redirects on a compound command land on its last segment, which is
	// where the output ends up.
	if len(redirects) > 0 && len(w.pc.Segments) > start {
		last := &w.pc.Segments[len(w.pc.Segments)-1]
		last.Redirects = append(last.Redirects, redirects...)
	}
}

// nested visits node and hands every statement found inside it to stmt.
func (w *walker) nested(node syntax.Node) {
	syntax.Walk(node, func(n syntax.Node) bool {
		if st, ok := n.(*syntax.Stmt); ok {
			w.stmt(st)
			return false
		}
		return true
	})
}

func (w *walker) callSegments(call *syntax.CallExpr) []Segment {
	words := make([]string, 0, len(call.Args))
	for _, word := range call.Args {
		words = append(words, wordValue(word))
	}
	segs := wordsToSegments(words)
	for _, seg := range segs {
		if isShellInterpreter(seg.Executable) && seg.HasFlag("c") && len(seg.Args) > 0 {
			if sub := parseWithDepth(seg.Args[0], w.depth+1, w.maxDepth); sub != nil {
				w.pc.Subcommands = append(w.pc.Subcommands, sub)
			}
		}
	}
	return segs
}

// wordsToSegments turns one simple command into segments. sudo is
// transparent. Wrappers that run another command (xargs, env, nohup,
// find -exec, ...) yield their own segment followed by the wrapped one.
func wordsToSegments(words []string) []Segment {
	if len(words) == 0 {
		return []Segment{{Flags: make(map[string]string)}}
	}
	raw := strings.Join(words, " ")

	first := baseName(words[0])
	for len(words) > 0 && (words[0] == "sudo" || words[0] == "doas") {
		words = skipOptions(words[1:], elevateValueFlags)
	}
	if len(words) == 0 {
		return []Segment{{Raw: raw, Executable: first, Flags: make(map[string]string)}}
	}

	seg := Segment{Raw: raw, Executable: baseName(words[0])}
	seg.Flags, seg.Args = splitFlags(words[1:])
	segs := []Segment{seg}

	if seg.Executable == "find" {
		for _, inner := range findExecCommands(words[1:]) {
			segs = append(segs, wordsToSegments(inner)...)
		}
		return segs
	}
	if w, ok := wrappers[seg.Executable]; ok {
		inner := skipOptions(words[1:], w.valueFlags)
		for w.assignments && len(inner) > 0 && isAssignment(inner[0]) {
			inner = inner[1:]
		}
		if w.positional > 0 && len(inner) >= w.positional {
			inner = inner[w.positional:]
		}
		if len(inner) > 0 {
			segs = append(segs, wordsToSegments(inner)...)
		}
	}
	return segs
}

type wrapper struct {
	valueFlags  map[string]bool // options whose value is the next word
	assignments bool            // NAME=VALUE words may precede the command
	positional  int             // operands before the command (timeout DURATION)
}

// Flag names are case-sensitive, as the tools define them.
var wrappers = map[string]wrapper{
	"xargs": {valueFlags: flagSet("a", "d", "E", "I", "L", "n", "P", "s",
		"arg-file", "delimiter", "max-lines", "max-args", "max-procs", "max-chars")},
	"env":     {valueFlags: flagSet("u", "C", "S", "unset", "chdir", "split-string"), assignments: true},
	"nohup":   {},
	"time":    {valueFlags: flagSet("f", "o", "format", "output")},
	"command": {},
	"exec":    {valueFlags: flagSet("a")},
	"nice":    {valueFlags: flagSet("n", "adjustment")},
	"timeout": {valueFlags: flagSet("s", "k", "signal", "kill-after"), positional: 1},
	"stdbuf":  {valueFlags: flagSet("i", "o", "e", "input", "output", "error")},
}

// sudo and doas options that take a value.
var elevateValueFlags = flagSet("u", "g", "p", "r", "t", "C", "D", "R", "T", "U",
	"user", "group", "host", "close-from", "prompt", "role", "type", "other-user", "chdir", "chroot")

func flagSet(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

// skipOptions drops leading option words, and the separate value of any
// option in valueFlags, returning what follows.
func skipOptions(words []string, valueFlags map[string]bool) []string {
	for len(words) > 0 {
		w := words[0]
		switch {
		case w == "--":
			return words[1:]
		case strings.HasPrefix(w, "--") && len(w) > 2:
			words = words[1:]
			name := w[2:]
			if !strings.Contains(name, "=") && valueFlags[name] && len(words) > 0 {
				words = words[1:]
			}
		case strings.HasPrefix(w, "-") && len(w) > 1:
			words = words[1:]
			cluster := w[1:]
			for i, ch := range cluster {
				if !valueFlags[string(ch)] {
					continue
				}
				// -uroot carries its value; -u takes the next word.
				if i == len(cluster)-1 && len(words) > 0 {
					words = words[1:]
				}
				break
			}
		default:
			return words
		}
	}
	return words
}

// findExecCommands returns the commands given to -exec, -execdir, -ok and
// -okdir, each terminated by ";" or "+".
func findExecCommands(args []string) [][]string {
	var out [][]string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-exec", "-execdir", "-ok", "-okdir":
		default:
			continue
		}
		j := i + 1
		for j < len(args) && args[j] != ";" && args[j] != `\;` && args[j] != "+" {
			j++
		}
		if j > i+1 {
			out = append(out, args[i+1:j])
		}
		i = j
	}
	return out
}

func isAssignment(word string) bool {
	eq := strings.Index(word, "=")
	if eq <= 0 {
		return false
	}
	for i, r := range word[:eq] {
		if r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || i > 0 && r >= '0' && r <= '9' {
			continue
		}
		return false
	}
	return true
}

// splitFlags separates option words from positional arguments. "-rf"
// yields flags r and f, "--force" yields force, "--x=v" yields x=v and a
// bare "--" ends option parsing.
func splitFlags(words []string) (map[string]string, []string) {
	flags := make(map[string]string)
	var args []string
	for i, w := range words {
		switch {
		case w == "--":
			args = append(args, words[i+1:]...)
			return flags, args
		case strings.HasPrefix(w, "--") && len(w) > 2:
			flag := w[2:]
			if eq := strings.Index(flag, "="); eq >= 0 {
				flags[flag[:eq]] = flag[eq+1:]
			} else {
				flags[flag] = ""
			}
		case strings.HasPrefix(w, "-") && len(w) > 1:
			for _, ch := range w[1:] {
				flags[string(ch)] = ""
			}
		default:
			args = append(args, w)
		}
	}
	return flags, args
}

// wordValue renders a word with quoting removed. Parameter expansions keep
// their "$NAME" spelling so callers can recognise $HOME; anything more
// complex falls back to the printer's source form.
func wordValue(word *syntax.Word) string {
	var sb strings.Builder
	writeParts(&sb, word.Parts)
	return sb.String()
}

func writeParts(sb *strings.Builder, parts []syntax.WordPart) {
	for _, part := range parts {
		switch p := part.(type) {
		case *syntax.Lit:
			sb.WriteString(p.Value)
		case *syntax.SglQuoted:
			sb.WriteString(p.Value)
		case *syntax.DblQuoted:
			writeParts(sb, p.Parts)
		case *syntax.ParamExp:
			if p.Param != nil {
				sb.WriteString("$" + p.Param.Value)
			}
		default:
			printer := syntax.NewPrinter()
			_ = printer.Print(sb, part)
		}
	}
}

func fallbackParse(command string) *ParsedCommand {
	pc := &ParsedCommand{}
	parts := strings.Split(command, "|")
	for i, part := range parts {
		words := strings.Fields(part)
		if len(words) == 0 {
			continue
		}
		seg := Segment{Raw: strings.Join(words, " ")}
		var plain []string
		for j := 0; j < len(words); j++ {
			w := words[j]
			if op, target, ok := splitRedirect(w); ok {
				if target == "" && j+1 < len(words) {
					j++
					target = words[j]
				}
				seg.Redirects = append(seg.Redirects, Redirect{Op: op, Path: strings.Trim(target, `'"`)})
				continue
			}
			plain = append(plain, strings.Trim(w, `'"`))
		}
		segs := wordsToSegments(plain)
		segs[0].Raw = seg.Raw
		for j := range segs {
			segs[j].Redirects = append(segs[j].Redirects, seg.Redirects...)
		}
		pc.Segments = append(pc.Segments, segs...)
		if i < len(parts)-1 {
			pc.Operators = append(pc.Operators, "|")
		}
	}
	return pc
}

func splitRedirect(w string) (op, target string, ok bool) {
	for _, candidate := range []string{"&>", ">>", ">|", ">"} {
		if strings.HasPrefix(w, candidate) {
			return candidate, w[len(candidate):], true
		}
	}
	return "", "", false
}

// AllSegments flattens segments of the command and its inline subcommands.
func AllSegments(parsed *ParsedCommand) []Segment {
	if parsed == nil {
		return nil
	}
	segs := make([]Segment, len(parsed.Segments))
	copy(segs, parsed.Segments)
	for _, sub := range parsed.Subcommands {
		segs = append(segs, AllSegments(sub)...)
	}
	return segs
}

var shellInterpreters = map[string]bool{
	"sh": true, "bash": true, "zsh": true, "dash": true,
	"ksh": true, "fish": true,
}

func isShellInterpreter(exe string) bool {
	return shellInterpreters[exe]
}

func baseName(exe string) string {
	if i := strings.LastIndex(exe, "/"); i >= 0 && i < len(exe)-1 {
		return exe[i+1:]
	}
	return exe
}
