package promptx

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"text/template"

	"github.com/Sunbird-VA/sunbird-va-rag/pkg/ai/llm"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/fsx"
)

// DefaultSystemPrompt is the file holding the system prompt, relative to the prompt directory
const DefaultSystemPrompt = "system.md"

// TemplateRegistry stores named prompt templates in text/template syntax
type TemplateRegistry struct {
	templates map[string]*template.Template
	mu        sync.RWMutex
}

// NewTemplateRegistry creates an empty registry
func NewTemplateRegistry() *TemplateRegistry {
	return &TemplateRegistry{templates: make(map[string]*template.Template)}
}

// Register parses and stores a template by name
func (r *TemplateRegistry) Register(name, text string) error {
	t, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return ErrRegistry.NewWithCause(ErrTemplateLoad, err).WithDetail("template", name)
	}

	r.mu.Lock()
	r.templates[name] = t
	r.mu.Unlock()
	return nil
}

// Load reads dir/name from files and registers it under name. A missing,
// unreadable or blank file is an error.
func (r *TemplateRegistry) Load(ctx context.Context, files fsx.FileReader, dir, name string) error {
	text, err := readPrompt(ctx, files, dir, name)
	if err != nil {
		return err
	}
	return r.Register(name, text)
}

func readPrompt(ctx context.Context, files fsx.FileReader, dir, name string) (string, error) {
	path := name
	if dir = strings.Trim(dir, "/"); dir != "" && dir != "." {
		path = dir + "/" + name
	}

	data, err := files.ReadFile(ctx, path)
	if err != nil {
		return "", ErrRegistry.NewWithCause(ErrTemplateLoad, err).WithDetail("path", path)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", ErrRegistry.NewWithMessage(ErrTemplateLoad, "prompt template is empty").WithDetail("path", path)
	}
	return string(data), nil
}

// Render executes a named template with data
func (r *TemplateRegistry) Render(name string, data any) (string, error) {
	r.mu.RLock()
	t, ok := r.templates[name]
	r.mu.RUnlock()

	if !ok {
		return "", ErrRegistry.New(ErrTemplateNotFound).WithDetail("template", name)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", ErrRegistry.NewWithCause(ErrTemplateRender, err).WithDetail("template", name)
	}
	return buf.String(), nil
}

// LoadSystemMessage loads the system prompt once. The file content is used
// unchanged unless vars is non-empty, in which case it is rendered as a
// template with missingkey=error. The result is meant to be kept for the
// lifetime of the process.
func LoadSystemMessage(ctx context.Context, files fsx.FileReader, dir, name string, vars map[string]string) (llm.Message, error) {
	if name == "" {
		name = DefaultSystemPrompt
	}

	text, err := readPrompt(ctx, files, dir, name)
	if err != nil {
		return llm.Message{}, err
	}
	if len(vars) == 0 {
		return llm.NewSystemMessage(text), nil
	}

	reg := NewTemplateRegistry()
	if err := reg.Register(name, text); err != nil {
		return llm.Message{}, err
	}
	content, err := reg.Render(name, vars)
	if err != nil {
		return llm.Message{}, ErrRegistry.NewWithCause(ErrTemplateLoad, err).WithDetail("template", name)
	}
	return llm.NewSystemMessage(content), nil
}
