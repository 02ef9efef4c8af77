// Copyright 2025 Google LLC
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

// Command agenteval runs conversational test plans against a Bedrock agent.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sjzsdu/agenteval/returncontrol"
	"github.com/sjzsdu/agenteval/runner"
	"github.com/sjzsdu/agenteval/suite"
	"github.com/sjzsdu/agenteval/target"
	"github.com/sjzsdu/agenteval/target/bedrockagent"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "agenteval",
		Short:         "Test harness for Bedrock agents with return-control mocking",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd())
	return root
}

// plan is the on-disk layout of a test plan file.
type plan struct {
	Target struct {
		AgentID                 string            `yaml:"bedrock_agent_id"`
		AgentAliasID            string            `yaml:"bedrock_agent_alias_id"`
		SessionAttributes       map[string]string `yaml:"bedrock_session_attributes"`
		PromptSessionAttributes map[string]string `yaml:"bedrock_prompt_session_attributes"`
	} `yaml:"target"`
	Tests yaml.Node `yaml:"tests"`
}

func newRunCmd() *cobra.Command {
	var (
		planPath    string
		baseDir     string
		filter      string
		region      string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the tests of a plan file",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			data, err := os.ReadFile(planPath)
			if err != nil {
				return fmt.Errorf("failed to read plan file: %w", err)
			}
			var p plan
			if err := yaml.Unmarshal(data, &p); err != nil {
				return fmt.Errorf("failed to parse plan file: %w", err)
			}
			if p.Target.AgentID == "" || p.Target.AgentAliasID == "" {
				return fmt.Errorf("plan must set target.bedrock_agent_id and target.bedrock_agent_alias_id")
			}
			testsData, err := yaml.Marshal(&p.Tests)
			if err != nil {
				return fmt.Errorf("failed to decode tests section: %w", err)
			}
			testSuite, err := suite.Load(testsData, filter)
			if err != nil {
				return err
			}

			var opts []func(*config.LoadOptions) error
			if region != "" {
				opts = append(opts, config.WithRegion(region))
			}
			awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
			if err != nil {
				return fmt.Errorf("failed to load AWS configuration: %w", err)
			}
			client := bedrockagentruntime.NewFromConfig(awsCfg)

			r, err := runner.New(runner.Config{
				BaseDir:     baseDir,
				Concurrency: concurrency,
				NewTarget: func(t *suite.Test, responder returncontrol.Responder) (target.Target, error) {
					return bedrockagent.New(bedrockagent.Config{
						Client:                  client,
						AgentID:                 p.Target.AgentID,
						AgentAliasID:            p.Target.AgentAliasID,
						SessionAttributes:       p.Target.SessionAttributes,
						PromptSessionAttributes: p.Target.PromptSessionAttributes,
						Responder:               responder,
					})
				},
			})
			if err != nil {
				return err
			}

			results, err := r.RunSuite(ctx, testSuite)
			if err != nil {
				return err
			}

			failed := 0
			for _, result := range results {
				status := "PASSED"
				if !result.Passed {
					status = "FAILED"
					failed++
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s [%s]\n", result.TestName, status, result.Result)
				if result.Reasoning != "" {
					fmt.Fprintln(cmd.OutOrStdout(), indent(result.Reasoning))
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d tests failed", failed, len(results))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d tests passed\n", len(results))
			return nil
		},
	}

	cmd.Flags().StringVar(&planPath, "plan", "agenteval.yaml", "path to the test plan file")
	cmd.Flags().StringVar(&baseDir, "base-dir", "", "base directory for resolving response file paths (defaults to the working directory)")
	cmd.Flags().StringVar(&filter, "filter", "", "comma-separated test names to run")
	cmd.Flags().StringVar(&region, "region", "", "AWS region override")
	cmd.Flags().IntVar(&concurrency, "concurrency", 1, "number of tests to run in parallel")
	return cmd
}

func indent(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = "    " + line
	}
	return strings.Join(lines, "\n")
}
