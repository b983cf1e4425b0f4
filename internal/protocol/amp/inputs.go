package amp

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// InputTable action 后缀（select_input_<variant>）到输入字节码的映射
type InputTable struct {
	mu     sync.RWMutex
	inputs map[string]Input
}

// DefaultInputTable 已逆向的输入
func DefaultInputTable() *InputTable {
	return &InputTable{inputs: map[string]Input{
		"3_5mm": Input3_5mm,
		"rca":   InputRCA,
	}}
}

type inputFile struct {
	Inputs map[string]int `yaml:"inputs"`
}

// LoadInputTable 从 YAML 读取额外的输入码，与默认表合并
func LoadInputTable(path string) (*InputTable, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input map: %w", err)
	}
	var f inputFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("unmarshal input map: %w", err)
	}
	t := DefaultInputTable()
	for name, code := range f.Inputs {
		if err := t.Add(name, code); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Add 登记一个输入变体
func (t *InputTable) Add(name string, code int) error {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return fmt.Errorf("input variant name is empty")
	}
	if code < 0 || code > 0xFF {
		return fmt.Errorf("input %q: code %d out of byte range", name, code)
	}
	t.mu.Lock()
	t.inputs[name] = Input(code)
	t.mu.Unlock()
	return nil
}

// Lookup 按变体名查找
func (t *InputTable) Lookup(name string) (Input, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	in, ok := t.inputs[strings.ToLower(name)]
	return in, ok
}

// Variants 已登记的变体名（排序）
func (t *InputTable) Variants() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.inputs))
	for k := range t.inputs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
