package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка
	UnknownCode Code = 0

	// Встроенные правила
	LintInfo                       Code = 1000
	LintNoUnnecessaryNonNull       Code = 1001
	LintPreferOptionalChain        Code = 1002
	LintPreferStringStartsEndsWith Code = 1003
	LintNoUnusedExport             Code = 1004
	// LintCustom is used by rules defined outside the builtin set.
	LintCustom Code = 1999

	// Разбор
	SynInfo       Code = 2000
	SynParseError Code = 2001

	// Движок
	EngInfo             Code = 3000
	EngRuleFailure      Code = 3001 // handler returned an error, file aborted
	EngRulePanic        Code = 3002 // handler panicked, file aborted
	EngAggregateFailure Code = 3003
	EngSuggestionFailed Code = 3004

	IOLoadFileError Code = 4001
	IOWalkError     Code = 4002

	// Конфигурация
	CfgInfo            Code = 5000
	CfgInvalidOptions  Code = 5001
	CfgUnknownRule     Code = 5002
	CfgVersionMismatch Code = 5003
	CfgParseError      Code = 5004

	ObsInfo    Code = 6000
	ObsTimings Code = 6001
)

var (
	codeDescription = map[Code]string{
		UnknownCode:                    "Unknown error",
		LintInfo:                       "Lint information",
		LintNoUnnecessaryNonNull:       "Unnecessary non-null assertion",
		LintPreferOptionalChain:        "Prefer optional chaining",
		LintPreferStringStartsEndsWith: "Prefer startsWith/endsWith",
		LintNoUnusedExport:             "Export is never imported",
		LintCustom:                     "Custom rule",
		SynInfo:                        "Syntax information",
		SynParseError:                  "Syntax error",
		EngInfo:                        "Engine information",
		EngRuleFailure:                 "Rule failed while traversing file",
		EngRulePanic:                   "Rule panicked while traversing file",
		EngAggregateFailure:            "Rule aggregation failed",
		EngSuggestionFailed:            "Suggestion could not be built",
		IOLoadFileError:                "I/O load file error",
		IOWalkError:                    "I/O directory walk error",
		CfgInfo:                        "Configuration information",
		CfgInvalidOptions:              "Invalid rule options",
		CfgUnknownRule:                 "Unknown rule",
		CfgVersionMismatch:             "Engine version does not satisfy requirement",
		CfgParseError:                  "Configuration parse error",
		ObsInfo:                        "Observability information",
		ObsTimings:                     "Pipeline timings",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LNT%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("ENG%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("CFG%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
