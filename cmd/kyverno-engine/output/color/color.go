package color

import (
	"github.com/fatih/color"
	"github.com/kataras/tablewriter"
	engineapi "github.com/kyverno/admission-engine/pkg/engine/api"
)

var (
	BoldGreen     *color.Color
	BoldRed       *color.Color
	BoldYellow    *color.Color
	BoldFgCyan    *color.Color
	HeaderBgColor int
	HeaderFgColor int
)

func init() {
	InitColors(false)
}

func InitColors(noColor bool) {
	toggleColor := func(c *color.Color) *color.Color {
		if noColor {
			c.DisableColor()
		}
		return c
	}
	BoldGreen = toggleColor(color.New(color.FgGreen).Add(color.Bold))
	BoldRed = toggleColor(color.New(color.FgRed).Add(color.Bold))
	BoldYellow = toggleColor(color.New(color.FgYellow).Add(color.Bold))
	BoldFgCyan = toggleColor(color.New(color.FgCyan).Add(color.Bold))
	HeaderBgColor, HeaderFgColor = 0, 0
	if !noColor {
		HeaderBgColor = tablewriter.BgBlackColor
		HeaderFgColor = tablewriter.FgGreenColor
	}
}

// Policy colors a policy key, `namespace/name` for namespaced policies
func Policy(key string) string {
	return BoldFgCyan.Sprint(key)
}

func Rule(name string) string {
	return BoldFgCyan.Sprint(name)
}

func Resource(kind, namespace, name string) string {
	if namespace == "" {
		return BoldFgCyan.Sprint(kind) + "/" + BoldFgCyan.Sprint(name)
	}
	return BoldFgCyan.Sprint(namespace) + "/" + BoldFgCyan.Sprint(kind) + "/" + BoldFgCyan.Sprint(name)
}

func Decision(decision engineapi.Decision) string {
	if decision == engineapi.Deny {
		return BoldRed.Sprint(string(decision))
	}
	return BoldGreen.Sprint(string(decision))
}

// Result colors a rule status, failures in Warn mode are reported as warnings
// and so are failures in Audit mode when auditWarn is set
func Result(response engineapi.RuleResponse, auditWarn bool) string {
	switch response.Status() {
	case engineapi.RuleStatusPass:
		return ResultPass()
	case engineapi.RuleStatusFail:
		if response.FailureAction().Warn() || (auditWarn && response.FailureAction().Audit()) {
			return ResultWarn()
		}
		return ResultFail()
	case engineapi.RuleStatusError:
		return ResultError()
	default:
		return ResultSkip()
	}
}

func ResultPass() string {
	return BoldGreen.Sprint("Pass")
}

func ResultFail() string {
	return BoldRed.Sprint("Fail")
}

func ResultWarn() string {
	return BoldYellow.Sprint("Warn")
}

func ResultError() string {
	return BoldRed.Sprint("Error")
}

func ResultSkip() string {
	return BoldFgCyan.Sprint("Skip")
}
