package apply

import (
	"fmt"
	"io"

	"github.com/kyverno/admission-engine/cmd/kyverno-engine/output/color"
	"github.com/kyverno/admission-engine/cmd/kyverno-engine/output/table"
	engineapi "github.com/kyverno/admission-engine/pkg/engine/api"
	"gomodules.xyz/jsonpatch/v2"
	"sigs.k8s.io/yaml"
)

const divider = "----------------------------------------------------------------------"

type resultCounts struct {
	pass  int
	fail  int
	warn  int
	err   int
	skip  int
	allow int
	deny  int
}

func (rc *resultCounts) add(auditWarn bool, verdict engineapi.Verdict) {
	if verdict.IsAllowed() {
		rc.allow++
	} else {
		rc.deny++
	}
	for i := range verdict.Outcomes {
		outcome := &verdict.Outcomes[i]
		switch outcome.Status() {
		case engineapi.RuleStatusPass:
			rc.pass++
		case engineapi.RuleStatusFail:
			if outcome.FailureAction().Warn() || (auditWarn && outcome.FailureAction().Audit()) {
				rc.warn++
			} else {
				rc.fail++
			}
		case engineapi.RuleStatusError:
			rc.err++
		case engineapi.RuleStatusSkip:
			rc.skip++
		}
	}
}

func printViolations(out io.Writer, auditWarn bool, verdicts ...engineapi.Verdict) {
	var rc resultCounts
	for _, verdict := range verdicts {
		rc.add(auditWarn, verdict)
		r := verdict.Resource
		fmt.Fprintf(out, "\n%s: %s\n", color.Resource(r.Kind, r.Namespace, r.Name), color.Decision(verdict.Decision))
		if len(verdict.Failures) > 0 {
			fmt.Fprintln(out, divider)
			for i := range verdict.Failures {
				failure := &verdict.Failures[i]
				fmt.Fprintf(out, "%d. %s -> %s: %s %s\n", i+1, color.Policy(failure.Policy()), color.Rule(failure.Name()), color.Result(*failure, auditWarn), failure.Message())
			}
			fmt.Fprintln(out, divider)
		}
		for _, warning := range verdict.Warnings {
			fmt.Fprintf(out, "warning: %s\n", warning)
		}
		if verdict.MutationError != nil {
			fmt.Fprintf(out, "mutation aborted: %s\n", verdict.MutationError.String())
		}
		if len(verdict.Patches) > 0 {
			fmt.Fprintf(out, "mutated with %d patch(es)\n", len(verdict.Patches))
		}
	}
	fmt.Fprintf(out, "\npass: %d, fail: %d, warn: %d, error: %d, skip: %d \n", rc.pass, rc.fail, rc.warn, rc.err, rc.skip)
	fmt.Fprintf(out, "allowed: %d, denied: %d \n", rc.allow, rc.deny)
}

func printTable(out io.Writer, detailed, auditWarn bool, verdicts ...engineapi.Verdict) {
	var t table.Table
	id := 1
	for _, verdict := range verdicts {
		r := verdict.Resource
		for i := range verdict.Outcomes {
			outcome := verdict.Outcomes[i]
			row := table.NewRow(
				id,
				color.Policy(outcome.Policy()),
				color.Rule(outcome.Name()),
				color.Resource(r.Kind, r.Namespace, r.Name),
				color.Result(outcome, auditWarn),
				outcome.Message(),
				outcome.HasStatus(engineapi.RuleStatusFail, engineapi.RuleStatusError),
			)
			row.Type = string(outcome.RuleType())
			row.Path = outcome.Path()
			t.Add(row)
			id++
		}
	}
	printer := table.NewTablePrinter(out)
	fmt.Fprintln(out)
	printer.Print(t.Rows(detailed))
	fmt.Fprintln(out)
}

type ruleResult struct {
	Policy        string `json:"policy"`
	Rule          string `json:"rule"`
	Type          string `json:"type"`
	Status        string `json:"status"`
	Message       string `json:"message,omitempty"`
	Path          string `json:"path,omitempty"`
	FailureAction string `json:"failureAction,omitempty"`
}

type verdictResult struct {
	Resource           engineapi.ResourceSpec   `json:"resource"`
	Decision           engineapi.Decision       `json:"decision"`
	Results            []ruleResult             `json:"results,omitempty"`
	Warnings           []string                 `json:"warnings,omitempty"`
	Patches            []jsonpatch.Operation    `json:"patches,omitempty"`
	GeneratedResources []map[string]interface{} `json:"generatedResources,omitempty"`
}

func newVerdictResult(verdict engineapi.Verdict) verdictResult {
	result := verdictResult{
		Resource: verdict.Resource,
		Decision: verdict.Decision,
		Warnings: verdict.Warnings,
		Patches:  verdict.Patches,
	}
	for i := range verdict.Outcomes {
		outcome := &verdict.Outcomes[i]
		result.Results = append(result.Results, ruleResult{
			Policy:        outcome.Policy(),
			Rule:          outcome.Name(),
			Type:          string(outcome.RuleType()),
			Status:        string(outcome.Status()),
			Message:       outcome.Message(),
			Path:          outcome.Path(),
			FailureAction: string(outcome.FailureAction()),
		})
	}
	for _, generated := range verdict.GeneratedResources {
		result.GeneratedResources = append(result.GeneratedResources, generated.Object)
	}
	return result
}

func printVerdicts(out io.Writer, verdicts ...engineapi.Verdict) error {
	for _, verdict := range verdicts {
		data, err := yaml.Marshal(newVerdictResult(verdict))
		if err != nil {
			return fmt.Errorf("failed to marshal verdict (%w)", err)
		}
		fmt.Fprintln(out, "---")
		fmt.Fprint(out, string(data))
	}
	return nil
}
