package workflow

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/diogoX451/maestro/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
name: release
description: build and ship
runtime:
  max_parallel: 2
stages:
  - stage_id: build
    name: Build
    execution: parallel
    retries: 1
    agents:
      - compiler
      - agent: linter
        scope: src/
        outputs: report.txt
      - name: tester
        output: [junit.xml, coverage.out]
  - id: ship
    name: Ship
    substages:
      - stage_id: package
        mode: sequential
        agents:
          - {agent: packer}
      - stage_id: publish
        execution_mode: parallel
        agents: []
`

func TestParseNormalizesAgents(t *testing.T) {
	def, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "release", def.Name)
	assert.Equal(t, 2, def.Runtime.MaxParallel)
	require.Len(t, def.Stages, 2)

	build := def.Stages[0]
	assert.Equal(t, domain.ModeParallel, build.Mode)
	assert.Equal(t, 1, build.Retries)
	require.Len(t, build.Agents, 3)
	assert.Equal(t, domain.AgentTask{Agent: "compiler", Outputs: []string{}}, build.Agents[0])
	assert.Equal(t, domain.AgentTask{Agent: "linter", Scope: "src/", Outputs: []string{"report.txt"}}, build.Agents[1])
	assert.Equal(t, domain.AgentTask{Agent: "tester", Outputs: []string{"junit.xml", "coverage.out"}}, build.Agents[2])

	ship := def.Stages[1]
	assert.Equal(t, "ship", ship.StageID)
	assert.True(t, ship.HasSubstages())
	assert.Equal(t, domain.ModeSequential, ship.Mode)
	require.Len(t, ship.Substages, 2)
	assert.Equal(t, "packer", ship.Substages[0].Agents[0].Agent)
	assert.Equal(t, domain.ModeParallel, ship.Substages[1].Mode)
	assert.NotNil(t, ship.Substages[1].Agents)
	assert.Empty(t, ship.Substages[1].Agents)

	assert.Equal(t, 4, def.StageCount())
}

func TestParseJSON(t *testing.T) {
	doc := `{"name":"j","stages":[{"stage_id":"s1","name":"One","agents":["a",{"agent":"b","outputs":"x"}]}]}`
	def, err := Parse([]byte(doc))
	require.NoError(t, err)
	require.Len(t, def.Stages[0].Agents, 2)
	assert.Equal(t, []string{"x"}, def.Stages[0].Agents[1].Outputs)
}

func TestParseDefaultsStageName(t *testing.T) {
	def, err := Parse([]byte("name: n\nstages:\n  - stage_id: only\n"))
	require.NoError(t, err)
	assert.Equal(t, "only", def.Stages[0].Name)
	assert.Nil(t, def.Stages[0].Agents)
}

func TestParseConfigErrors(t *testing.T) {
	cases := map[string]string{
		"missing name":   "stages: []\n",
		"missing stages": "name: x\n",
		"bad mode":       "name: x\nstages:\n  - stage_id: a\n    execution: sideways\n",
		"missing id":     "name: x\nstages:\n  - name: nameless\n",
		"both kinds":     "name: x\nstages:\n  - stage_id: a\n    agents: [p]\n    substages: []\n",
		"duplicate id":   "name: x\nstages:\n  - stage_id: a\n  - stage_id: a\n",
		"bad outputs":    "name: x\nstages:\n  - stage_id: a\n    agents:\n      - agent: p\n        outputs: {k: v}\n",
		"syntax":         "name: [unterminated\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			require.Error(t, err)
			assert.True(t, domain.IsConfigError(err), "got %T: %v", err, err)
		})
	}
}

func TestParseEmptyStagesIsValid(t *testing.T) {
	def, err := Parse([]byte("name: x\nstages: []\n"))
	require.NoError(t, err)
	assert.NotNil(t, def.Stages)
	assert.Empty(t, def.Stages)
}

func TestParseKeepsEmptyAgentName(t *testing.T) {
	def, err := Parse([]byte("name: x\nstages:\n  - stage_id: a\n    agents:\n      - scope: orphan\n"))
	require.NoError(t, err)
	assert.Equal(t, "", def.Stages[0].Agents[0].Agent)
	assert.Equal(t, "orphan", def.Stages[0].Agents[0].Scope)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wf.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))

	def, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "release", def.Name)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestFromRaw(t *testing.T) {
	def, err := FromRaw([]byte(`{"name":"obj","stages":[]}`))
	require.NoError(t, err)
	assert.Equal(t, "obj", def.Name)

	def, err = FromRaw([]byte(`"name: text\nstages:\n  - stage_id: a\n    agents: [x]\n"`))
	require.NoError(t, err)
	assert.Equal(t, "text", def.Name)
	assert.Equal(t, "x", def.Stages[0].Agents[0].Agent)

	_, err = FromRaw(nil)
	assert.True(t, domain.IsConfigError(err))
	_, err = FromRaw([]byte("null"))
	assert.True(t, domain.IsConfigError(err))
}
