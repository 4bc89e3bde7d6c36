package ollama

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"
)

// Parameter is one PARAMETER line. Value is a bool, int, float64 or string.
type Parameter struct {
	Name  string
	Value any
}

// Modelfile builds and parses the server's declarative model format.
// Parameters keep their insertion order; repeated names (stop) are allowed.
type Modelfile struct {
	From       string
	Parameters []Parameter
	Template   string
	System     string
	Adapters   []string
	License    []string
	Messages   []Message
}

// NewModelfile starts a Modelfile from a base model name or a model file path.
func NewModelfile(from string) *Modelfile { return &Modelfile{From: from} }

// SetParameter replaces the first parameter called name, or appends it.
func (m *Modelfile) SetParameter(name string, value any) *Modelfile {
	for i := range m.Parameters {
		if m.Parameters[i].Name == name {
			m.Parameters[i].Value = value
			return m
		}
	}
	m.Parameters = append(m.Parameters, Parameter{Name: name, Value: value})
	return m
}

// AddParameter appends a parameter even when the name is already present.
func (m *Modelfile) AddParameter(name string, value any) *Modelfile {
	m.Parameters = append(m.Parameters, Parameter{Name: name, Value: value})
	return m
}

// SetOptions writes every set option as a parameter. Stop sequences become
// one line each.
func (m *Modelfile) SetOptions(o *Options) (*Modelfile, error) {
	params, err := o.Map()
	if err != nil {
		return m, err
	}
	for _, name := range slices.Sorted(maps.Keys(params)) {
		switch v := params[name].(type) {
		case []any:
			for _, s := range v {
				m.AddParameter(name, fmt.Sprint(s))
			}
		default:
			m.SetParameter(name, v)
		}
	}
	return m, nil
}

func (m *Modelfile) SetSystem(s string) *Modelfile   { m.System = s; return m }
func (m *Modelfile) SetTemplate(s string) *Modelfile { m.Template = s; return m }

func (m *Modelfile) SetLicense(lines ...string) *Modelfile {
	m.License = append([]string(nil), lines...)
	return m
}

func (m *Modelfile) AddAdapter(path string) *Modelfile {
	m.Adapters = append(m.Adapters, path)
	return m
}

func (m *Modelfile) AddMessage(role, content string) *Modelfile {
	m.Messages = append(m.Messages, Message{Role: role, Content: content})
	return m
}

// String renders the Modelfile: FROM, PARAMETER, TEMPLATE, SYSTEM, ADAPTER,
// LICENSE, MESSAGE, one instruction per line.
func (m *Modelfile) String() string {
	var lines []string
	lines = append(lines, "FROM "+m.From)
	for _, p := range m.Parameters {
		lines = append(lines, "PARAMETER "+p.Name+" "+formatModelfileValue(p.Value))
	}
	if m.Template != "" {
		lines = append(lines, "TEMPLATE "+formatModelfileValue(m.Template))
	}
	if m.System != "" {
		lines = append(lines, "SYSTEM "+formatModelfileValue(m.System))
	}
	for _, a := range m.Adapters {
		lines = append(lines, "ADAPTER "+a)
	}
	if len(m.License) > 0 {
		lines = append(lines, "LICENSE "+formatModelfileValue(strings.Join(m.License, "\n")))
	}
	for _, msg := range m.Messages {
		lines = append(lines, "MESSAGE "+msg.Role+" "+formatModelfileValue(msg.Content))
	}
	return strings.Join(lines, "\n")
}

// WriteFile writes the rendered Modelfile to path.
func (m *Modelfile) WriteFile(path string) error {
	return os.WriteFile(path, []byte(m.String()), 0o644)
}

// CreateRequest converts the Modelfile into a create call for name. Repeated
// parameters are collected into a list. Adapters are left for the caller:
// the server wants file name to digest pairs, known only after upload.
func (m *Modelfile) CreateRequest(name string) *CreateRequest {
	req := &CreateRequest{
		Model:    name,
		From:     m.From,
		Template: m.Template,
		System:   m.System,
		License:  m.License,
		Messages: m.Messages,
	}
	if len(m.Parameters) > 0 {
		req.Parameters = map[string]any{}
		for _, p := range m.Parameters {
			switch cur := req.Parameters[p.Name].(type) {
			case nil:
				if p.Name == "stop" {
					req.Parameters[p.Name] = []any{p.Value}
				} else {
					req.Parameters[p.Name] = p.Value
				}
			case []any:
				req.Parameters[p.Name] = append(cur, p.Value)
			default:
				req.Parameters[p.Name] = []any{cur, p.Value}
			}
		}
	}
	return req
}

func formatModelfileValue(v any) string {
	switch t := v.(type) {
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case string:
		if strings.Contains(t, "\n") {
			return "\"\"\"\n" + t + "\n\"\"\""
		}
		return strconv.Quote(t)
	default:
		return fmt.Sprint(t)
	}
}

// ParseModelfile reads Modelfile text. Comments (#) and blank lines are
// skipped, instructions are case-insensitive and a FROM line is required.
func ParseModelfile(content string) (*Modelfile, error) {
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	m := &Modelfile{}
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		instruction, args, ok := strings.Cut(line, " ")
		if !ok {
			continue
		}
		args = strings.TrimSpace(args)

		var head string
		switch strings.ToUpper(instruction) {
		case "PARAMETER", "MESSAGE":
			head, args, ok = strings.Cut(args, " ")
			if !ok {
				continue
			}
			args = strings.TrimSpace(args)
		}

		value, quoted, next, err := readModelfileValue(lines, i, args)
		if err != nil {
			return nil, err
		}
		i = next

		switch strings.ToUpper(instruction) {
		case "FROM":
			m.From = value
		case "PARAMETER":
			if quoted {
				m.AddParameter(head, value)
			} else {
				m.AddParameter(head, parseParameterValue(value))
			}
		case "TEMPLATE":
			m.Template = value
		case "SYSTEM":
			m.System = value
		case "ADAPTER":
			m.Adapters = append(m.Adapters, value)
		case "LICENSE":
			m.License = append(m.License, value)
		case "MESSAGE":
			m.AddMessage(head, value)
		}
	}
	if m.From == "" {
		return nil, fmt.Errorf("modelfile must contain a FROM instruction")
	}
	return m, nil
}

// readModelfileValue reads the value starting at args on line i. A value
// opened with """ runs until the closing """, possibly lines later; next is
// the index of the last line consumed.
func readModelfileValue(lines []string, i int, args string) (value string, quoted bool, next int, err error) {
	if rest, ok := strings.CutPrefix(args, `"""`); ok {
		if end := strings.Index(rest, `"""`); end >= 0 {
			return rest[:end], true, i, nil
		}
		var parts []string
		if rest != "" {
			parts = append(parts, rest)
		}
		for j := i + 1; j < len(lines); j++ {
			if end := strings.Index(lines[j], `"""`); end >= 0 {
				if end > 0 {
					parts = append(parts, lines[j][:end])
				}
				return strings.Join(parts, "\n"), true, j, nil
			}
			parts = append(parts, lines[j])
		}
		return "", false, i, fmt.Errorf("modelfile line %d: unterminated \"\"\"", i+1)
	}
	if len(args) >= 2 && strings.HasPrefix(args, `"`) && strings.HasSuffix(args, `"`) {
		if s, uerr := strconv.Unquote(args); uerr == nil {
			return s, true, i, nil
		}
		return args[1 : len(args)-1], true, i, nil
	}
	return args, false, i, nil
}

func parseParameterValue(s string) any {
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

// LoadModelfile parses the Modelfile at path.
func LoadModelfile(path string) (*Modelfile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read modelfile: %w", err)
	}
	return ParseModelfile(string(b))
}
