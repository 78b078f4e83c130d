package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"strings"
	"sync"
)

// Имена шаблонов совпадают с файлами templates/<name>.html
const (
	TemplateOTP              = "otp"
	TemplateProfileDecision  = "profile_decision"
	TemplateApplicationState = "application_status"
	TemplatePasswordReset    = "password_reset"
)

//go:embed templates/*.html
var builtinTemplates embed.FS

// Templates - набор html-шаблонов писем
type Templates struct {
	mu     sync.RWMutex
	byName map[string]*template.Template
}

// DefaultTemplates - шаблоны, встроенные в бинарник
func DefaultTemplates() *Templates {
	t := &Templates{byName: map[string]*template.Template{}}
	if err := t.LoadFS(builtinTemplates, "templates"); err != nil {
		// встроенные шаблоны проверяются тестами
		panic(err)
	}
	return t
}

// LoadFS добавляет все *.html из dir, одноименные заменяются
func (t *Templates) LoadFS(fsys fs.FS, dir string) error {
	files, err := fs.Glob(fsys, path.Join(dir, "*.html"))
	if err != nil {
		return err
	}
	for _, file := range files {
		raw, err := fs.ReadFile(fsys, file)
		if err != nil {
			return fmt.Errorf("email: read template %s: %w", file, err)
		}
		if err := t.Add(strings.TrimSuffix(path.Base(file), ".html"), string(raw)); err != nil {
			return err
		}
	}
	return nil
}

func (t *Templates) Add(name, body string) error {
	tpl, err := template.New(name).Parse(body)
	if err != nil {
		return fmt.Errorf("email: parse template %s: %w", name, err)
	}
	t.mu.Lock()
	t.byName[name] = tpl
	t.mu.Unlock()
	return nil
}

func (t *Templates) Render(name string, data TemplateData) (string, error) {
	t.mu.RLock()
	tpl, ok := t.byName[name]
	t.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("email: unknown template %q", name)
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("email: render %s: %w", name, err)
	}
	return buf.String(), nil
}
