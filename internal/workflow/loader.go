package workflow

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/diogoX451/maestro/internal/core/domain"
	"gopkg.in/yaml.v3"
)

// Formato do documento (YAML ou JSON):
//
//	name: deploy
//	runtime: {max_parallel: 4}
//	stages:
//	  - stage_id: build
//	    execution: parallel
//	    agents:
//	      - compiler
//	      - {agent: linter, scope: src/, outputs: report.txt}
//	  - stage_id: ship
//	    substages: [...]

type document struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Stages      []stage    `yaml:"stages"`
	Runtime     runtimeDoc `yaml:"runtime"`
}

type runtimeDoc struct {
	MaxParallel int `yaml:"max_parallel"`
}

type stage struct {
	StageID       string       `yaml:"stage_id"`
	ID            string       `yaml:"id"`
	Name          string       `yaml:"name"`
	Execution     string       `yaml:"execution"`
	Mode          string       `yaml:"mode"`
	ExecutionMode string       `yaml:"execution_mode"`
	Agents        []agentEntry `yaml:"agents"`
	Substages     []stage      `yaml:"substages"`
	Retries       int          `yaml:"retries"`
}

// agentEntry aceita "nome" ou {agent|name, scope, outputs|output}.
type agentEntry struct {
	Agent   string
	Scope   string
	Outputs outputList
}

func (a *agentEntry) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		a.Agent = strings.TrimSpace(node.Value)
		return nil
	}
	var raw struct {
		Agent   string     `yaml:"agent"`
		Name    string     `yaml:"name"`
		Scope   string     `yaml:"scope"`
		Outputs outputList `yaml:"outputs"`
		Output  outputList `yaml:"output"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	a.Agent = strings.TrimSpace(firstNonEmpty(raw.Agent, raw.Name))
	a.Scope = raw.Scope
	a.Outputs = raw.Outputs
	if a.Outputs == nil {
		a.Outputs = raw.Output
	}
	return nil
}

// outputList aceita string única ou lista.
type outputList []string

func (o *outputList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return nil
		}
		if node.Value == "" {
			*o = outputList{}
			return nil
		}
		*o = outputList{node.Value}
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := node.Decode(&items); err != nil {
			return err
		}
		*o = items
		return nil
	default:
		return fmt.Errorf("line %d: outputs must be a string or a list", node.Line)
	}
}

// Load lê e normaliza o documento em path.
func Load(path string) (domain.WorkflowDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.WorkflowDefinition{}, fmt.Errorf("read workflow %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodifica YAML ou JSON e valida a definição.
// Qualquer problema estrutural vira ConfigError.
func Parse(data []byte) (domain.WorkflowDefinition, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return domain.WorkflowDefinition{}, &domain.ConfigError{Reason: fmt.Sprintf("parse workflow: %v", err)}
	}

	def := domain.WorkflowDefinition{
		Name:        strings.TrimSpace(doc.Name),
		Description: doc.Description,
		Runtime:     domain.RuntimeConfig{MaxParallel: doc.Runtime.MaxParallel},
	}
	if doc.Stages != nil {
		stages, err := convertStages(doc.Stages, "stages")
		if err != nil {
			return domain.WorkflowDefinition{}, err
		}
		def.Stages = stages
	}

	if err := def.Validate(); err != nil {
		return domain.WorkflowDefinition{}, err
	}
	return def, nil
}

func convertStages(raw []stage, path string) ([]domain.StageDescriptor, error) {
	out := make([]domain.StageDescriptor, 0, len(raw))
	for i, s := range raw {
		field := fmt.Sprintf("%s[%d]", path, i)
		mode, err := domain.ParseExecutionMode(firstNonEmpty(s.Execution, s.Mode, s.ExecutionMode))
		if err != nil {
			return nil, &domain.ConfigError{Field: field + ".execution", Reason: err.Error()}
		}

		desc := domain.StageDescriptor{
			StageID: strings.TrimSpace(firstNonEmpty(s.StageID, s.ID)),
			Name:    s.Name,
			Mode:    mode,
			Retries: s.Retries,
		}
		if desc.Name == "" {
			desc.Name = desc.StageID
		}
		if s.Agents != nil {
			desc.Agents = make([]domain.AgentTask, len(s.Agents))
			for j, a := range s.Agents {
				outputs := []string(a.Outputs)
				if outputs == nil {
					outputs = []string{}
				}
				desc.Agents[j] = domain.AgentTask{Agent: a.Agent, Scope: a.Scope, Outputs: outputs}
			}
		}
		if s.Substages != nil {
			subs, err := convertStages(s.Substages, field+".substages")
			if err != nil {
				return nil, err
			}
			desc.Substages = subs
		}
		out = append(out, desc)
	}
	return out, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// FromRaw aceita o documento embutido num campo JSON: objeto ou string com YAML/JSON.
func FromRaw(raw []byte) (domain.WorkflowDefinition, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return domain.WorkflowDefinition{}, &domain.ConfigError{Field: "workflow", Reason: "workflow document is required"}
	}
	if trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return domain.WorkflowDefinition{}, &domain.ConfigError{Field: "workflow", Reason: err.Error()}
		}
		return Parse([]byte(text))
	}
	return Parse(trimmed)
}
