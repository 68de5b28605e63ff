package runner

import (
	"bufio"
	"bytes"
	"math/rand"
	"os"
	"strings"
	"sync"
	"text/template"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	DefaultCreatePayload = `{"name":"Product {{uuid}}","description":"Benchmark product","price":99.99}`
	DefaultUpdatePayload = `{"name":"Updated Product","description":"Updated description","price":149.99}`
)

// Payloads renders request bodies for the operations that send one.
type Payloads struct {
	create *template.Template
	update *template.Template
	funcs  *templateFuncs
}

// NewPayloads parses the create and update body templates. Empty strings select
// the defaults.
func NewPayloads(createTmpl, updateTmpl string) (*Payloads, error) {
	if createTmpl == "" {
		createTmpl = DefaultCreatePayload
	}
	if updateTmpl == "" {
		updateTmpl = DefaultUpdatePayload
	}

	f := &templateFuncs{fileCache: make(map[string][]string)}
	p := &Payloads{funcs: f}

	var err error
	if p.create, err = f.parse("create", createTmpl); err != nil {
		return nil, errors.Wrap(err, "parsing create payload")
	}
	if p.update, err = f.parse("update", updateTmpl); err != nil {
		return nil, errors.Wrap(err, "parsing update payload")
	}
	return p, nil
}

func mustPayloads(p *Payloads, err error) *Payloads {
	if err != nil {
		panic(err)
	}
	return p
}

// Render returns the body for op, or nil for operations without one.
func (p *Payloads) Render(op Operation) ([]byte, error) {
	var t *template.Template
	switch op {
	case OpCreate:
		t = p.create
	case OpUpdate:
		t = p.update
	default:
		return nil, nil
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, templateData{UUID: uuid.NewString()}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type templateData struct {
	UUID string
}

type templateFuncs struct {
	fileCache map[string][]string
	mu        sync.RWMutex
}

func (f *templateFuncs) parse(name, text string) (*template.Template, error) {
	// {{requestID}} is shorthand for the per-request id.
	text = strings.ReplaceAll(text, "{{requestID}}", "{{.UUID}}")
	return template.New(name).Funcs(template.FuncMap{
		"uuid":         uuid.NewString,
		"randomInt":    f.randomInt,
		"randomChoice": f.randomChoice,
		"randomLine":   f.randomLine,
	}).Parse(text)
}

func (f *templateFuncs) randomInt(min, max int) int {
	if max <= min {
		return min
	}
	return rand.Intn(max-min) + min
}

func (f *templateFuncs) randomChoice(choices ...string) string {
	if len(choices) == 0 {
		return ""
	}
	return choices[rand.Intn(len(choices))]
}

func (f *templateFuncs) randomLine(filename string) (string, error) {
	f.mu.RLock()
	lines, ok := f.fileCache[filename]
	f.mu.RUnlock()

	if !ok {
		f.mu.Lock()
		defer f.mu.Unlock()

		if lines, ok = f.fileCache[filename]; !ok {
			content, err := os.ReadFile(filename)
			if err != nil {
				return "", errors.Wrapf(err, "reading %s", filename)
			}
			scanner := bufio.NewScanner(bytes.NewReader(content))
			for scanner.Scan() {
				if line := strings.TrimSpace(scanner.Text()); line != "" {
					lines = append(lines, line)
				}
			}
			f.fileCache[filename] = lines
		}
	}

	if len(lines) == 0 {
		return "", nil
	}
	return lines[rand.Intn(len(lines))], nil
}
