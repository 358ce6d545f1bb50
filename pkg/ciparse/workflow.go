// Copyright 2024 The OSS Rebuild Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package ciparse implements the GitHub-Actions-workflow and Bash-script
// frontends: it turns a workflow file's YAML and the scripts it invokes
// into a dataflow.NodeForest (§4.C).
package ciparse

import (
	"gopkg.in/yaml.v3"

	"github.com/pkg/errors"
)

// Workflow is the subset of a GitHub Actions workflow document this
// analyzer models.
type Workflow struct {
	Name string         `yaml:"name"`
	On   yaml.Node      `yaml:"on"`
	Jobs map[string]Job `yaml:"jobs"`
}

// Job is one job within a workflow.
type Job struct {
	Name  string         `yaml:"name"`
	Needs any            `yaml:"needs"`
	Steps []Step         `yaml:"steps"`
	Uses  string         `yaml:"uses"` // non-empty => ReusableWorkflowCall
	With  map[string]any `yaml:"with"`
}

// Step is one step within a job: exactly one of Run or Uses is populated.
type Step struct {
	ID    string            `yaml:"id"`
	Name  string            `yaml:"name"`
	Run   string            `yaml:"run"`
	Uses  string            `yaml:"uses"`
	With  map[string]any    `yaml:"with"`
	Env   map[string]string `yaml:"env"`
	Shell string            `yaml:"shell"`
}

// IsRunStep reports whether s is a `run:` step.
func (s Step) IsRunStep() bool { return s.Run != "" }

// IsActionStep reports whether s is a `uses:` step invoking a third-party
// (or local) Action, as opposed to a reusable workflow call (those live at
// the Job level in this model, matching GitHub's own distinction).
func (s Step) IsActionStep() bool { return s.Uses != "" }

// ParseWorkflow decodes raw YAML into a Workflow.
func ParseWorkflow(raw []byte) (*Workflow, error) {
	var wf Workflow
	if err := yaml.Unmarshal(raw, &wf); err != nil {
		return nil, errors.Wrap(err, "parsing workflow YAML")
	}
	return &wf, nil
}

// EventNames extracts the trigger event names from the `on:` clause,
// handling the three shapes GitHub Actions allows: a bare string, a
// sequence of strings, or a mapping of event name to config.
func (w *Workflow) EventNames() []string {
	switch w.On.Kind {
	case yaml.ScalarNode:
		return []string{w.On.Value}
	case yaml.SequenceNode:
		var names []string
		for _, c := range w.On.Content {
			names = append(names, c.Value)
		}
		return names
	case yaml.MappingNode:
		var names []string
		for i := 0; i+1 < len(w.On.Content); i += 2 {
			names = append(names, w.On.Content[i].Value)
		}
		return names
	default:
		return nil
	}
}
